package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/securepay/internal/domain"
	"github.com/yourorg/securepay/internal/featureflags"
	"github.com/yourorg/securepay/internal/gateway"
	"github.com/yourorg/securepay/internal/observability/metrics"
	"github.com/yourorg/securepay/internal/security/audit"
)

// ErrInvalidStatus is returned when a review targets a status outside the
// allowed set.
var ErrInvalidStatus = errors.New("invalid review status")

// MarkSubmittedFlag escalates the clearing batch from a dry-run count to an
// actual transition of each verified payment into submitted. The source
// system only ever counted; the flag keeps both readings available.
const MarkSubmittedFlag = "mark_submitted"

// PaymentService is the payment lifecycle manager: creates payments in
// pending, applies staff review transitions, and runs the clearing batch.
type PaymentService struct {
	payments domain.PaymentRepository
	gateway  *gateway.SwiftGateway
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments domain.PaymentRepository,
	clearingGateway *gateway.SwiftGateway,
	auditLogger *audit.Logger,
	logger *slog.Logger,
) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}

	return &PaymentService{
		payments: payments,
		gateway:  clearingGateway,
		audit:    auditLogger,
		logger:   logger,
	}
}

// Create records a new payment instruction in pending state. The customer id
// is always the authenticated caller's own id; a client-supplied value never
// reaches this method.
func (s *PaymentService) Create(ctx context.Context, customerID, amount, currency, provider, beneficiaryAccount, swiftCode string) (*domain.Payment, error) {
	payment := &domain.Payment{
		ID:                 uuid.NewString(),
		CustomerID:         customerID,
		Amount:             strings.TrimSpace(amount),
		Currency:           strings.ToUpper(strings.TrimSpace(currency)),
		Provider:           strings.ToUpper(strings.TrimSpace(provider)),
		BeneficiaryAccount: strings.ToUpper(strings.TrimSpace(beneficiaryAccount)),
		SwiftCode:          strings.ToUpper(strings.TrimSpace(swiftCode)),
		Status:             domain.StatusPending,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	metrics.ObservePaymentCreated(payment.Provider, payment.Currency)
	s.logger.Info("payment created",
		slog.String("payment_id", payment.ID),
		slog.String("customer_id", customerID),
	)
	return payment, nil
}

// ListForCustomer returns the caller's own payments only.
func (s *PaymentService) ListForCustomer(ctx context.Context, customerID string) ([]*domain.Payment, error) {
	payments, err := s.payments.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	return payments, nil
}

// ListForReview returns payments enriched with customer identity, optionally
// narrowed by a case-insensitive comma-separated status allow-list. An empty
// filter returns everything.
func (s *PaymentService) ListForReview(ctx context.Context, statusFilter string) ([]*domain.ReviewPayment, error) {
	payments, err := s.payments.ListForReview(ctx)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*domain.ReviewPayment{}
	}

	allowed := map[string]bool{}
	for _, part := range strings.Split(statusFilter, ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			allowed[trimmed] = true
		}
	}
	if len(allowed) == 0 {
		return payments, nil
	}

	filtered := make([]*domain.ReviewPayment, 0, len(payments))
	for _, p := range payments {
		if allowed[strings.ToLower(string(p.Status))] {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// SetStatus applies a staff review transition. Re-applying the current
// status is an idempotent no-op: the record is returned unchanged with no
// update stamp, making retried reviews harmless. Two concurrent transitions
// on the same payment are last-writer-wins.
func (s *PaymentService) SetStatus(ctx context.Context, paymentID string, newStatus domain.Status, actorEmployeeID string) (*domain.Payment, error) {
	if !domain.IsReviewStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status == newStatus {
		return payment, nil
	}

	previous := payment.Status
	now := time.Now().UTC()
	if err := s.payments.UpdateStatus(ctx, paymentID, newStatus, now); err != nil {
		return nil, err
	}
	payment.Status = newStatus
	payment.UpdatedAt = now

	metrics.ObserveStatusTransition(string(previous), string(newStatus))
	s.audit.LogStatusChange(ctx, actorEmployeeID, paymentID, string(previous), string(newStatus))
	return payment, nil
}

// SubmitVerified runs the clearing batch over currently verified payments and
// returns how many were dispatched. By default this is a dry-run count that
// leaves statuses untouched, matching the source system; with the
// mark_submitted flag each dispatched payment also transitions to submitted.
func (s *PaymentService) SubmitVerified(ctx context.Context, actorEmployeeID string) (int, error) {
	verified, err := s.ListForReview(ctx, string(domain.StatusVerified))
	if err != nil {
		return 0, err
	}

	count, err := s.gateway.Dispatch(ctx, verified)
	if err != nil {
		return 0, err
	}

	mark := featureflags.Enabled(MarkSubmittedFlag)
	if mark {
		now := time.Now().UTC()
		for _, p := range verified {
			if err := s.payments.UpdateStatus(ctx, p.ID, domain.StatusSubmitted, now); err != nil {
				return count, err
			}
			metrics.ObserveStatusTransition(string(domain.StatusVerified), string(domain.StatusSubmitted))
		}
	}

	s.audit.LogBatchSubmit(ctx, actorEmployeeID, count, mark)
	return count, nil
}

// GetForCustomer fetches a payment only if it belongs to the customer.
func (s *PaymentService) GetForCustomer(ctx context.Context, paymentID, customerID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return payment, nil
}
