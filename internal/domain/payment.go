package domain

import (
	"context"
	"strings"
	"time"
)

// Status is the payment lifecycle state.
// pending -> verified | rejected -> submitted; creation is always pending and
// there is no transition back into pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusRejected  Status = "rejected"
	StatusSubmitted Status = "submitted"
)

// ReviewStatuses are the states an employee may move a payment into.
var ReviewStatuses = []Status{StatusVerified, StatusRejected, StatusSubmitted}

// ParseStatus normalizes a client-supplied status value.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, true
	case StatusVerified:
		return StatusVerified, true
	case StatusRejected:
		return StatusRejected, true
	case StatusSubmitted:
		return StatusSubmitted, true
	}
	return "", false
}

// IsReviewStatus reports whether s is a valid employee review target.
func IsReviewStatus(s Status) bool {
	for _, allowed := range ReviewStatuses {
		if s == allowed {
			return true
		}
	}
	return false
}

// Payment is an international payment instruction. The customer reference is
// set at creation and immutable; payments are never deleted.
type Payment struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customerId"`
	Amount             string    `json:"amount"` // canonical decimal string, 2dp max
	Currency           string    `json:"currency"`
	Provider           string    `json:"provider"`
	BeneficiaryAccount string    `json:"beneficiaryAccount"`
	SwiftCode          string    `json:"swiftCode"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ReviewPayment is a payment enriched with the owning customer's identity for
// the staff review screens.
type ReviewPayment struct {
	Payment
	CustomerName    string `json:"customerName"`
	CustomerAccount string `json:"customerAccount"`
}

// PaymentRepository defines data access for payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Payment, error)
	ListForReview(ctx context.Context) ([]*ReviewPayment, error)
	UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
	CountByStatus(ctx context.Context, status Status) (int, error)
}
