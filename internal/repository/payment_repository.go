package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/securepay/internal/domain"
)

// PostgresPaymentRepository implements domain.PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPaymentRepository creates a new payment repository
func NewPostgresPaymentRepository(db *sql.DB, logger *slog.Logger) *PostgresPaymentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPaymentRepository{db: db, logger: logger}
}

// Create inserts a new payment in its initial state.
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, customer_id, amount, currency, provider, beneficiary_account, swift_code, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		payment.ID,
		payment.CustomerID,
		payment.Amount,
		payment.Currency,
		payment.Provider,
		payment.BeneficiaryAccount,
		payment.SwiftCode,
		payment.Status,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create payment",
			slog.String("customer_id", payment.CustomerID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	payment := &domain.Payment{}

	query := `
		SELECT id, customer_id, amount::text, currency, provider, beneficiary_account, swift_code, status, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&payment.ID,
		&payment.CustomerID,
		&payment.Amount,
		&payment.Currency,
		&payment.Provider,
		&payment.BeneficiaryAccount,
		&payment.SwiftCode,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// ListByCustomer lists a customer's payments, newest first.
func (r *PostgresPaymentRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, customer_id, amount::text, currency, provider, beneficiary_account, swift_code, status, created_at, updated_at
		FROM payments
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		r.logger.Error("failed to list payments by customer",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*domain.Payment{}
	for rows.Next() {
		payment := &domain.Payment{}
		err := rows.Scan(
			&payment.ID,
			&payment.CustomerID,
			&payment.Amount,
			&payment.Currency,
			&payment.Provider,
			&payment.BeneficiaryAccount,
			&payment.SwiftCode,
			&payment.Status,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// ListForReview lists every payment joined with the owning customer's
// identity for the staff review screens, newest first.
func (r *PostgresPaymentRepository) ListForReview(ctx context.Context) ([]*domain.ReviewPayment, error) {
	query := `
		SELECT p.id, p.customer_id, p.amount::text, p.currency, p.provider, p.beneficiary_account,
		       p.swift_code, p.status, p.created_at, p.updated_at, c.full_name, c.account_number
		FROM payments p
		JOIN customers c ON c.id = p.customer_id
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list payments for review",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list payments for review: %w", err)
	}
	defer rows.Close()

	payments := []*domain.ReviewPayment{}
	for rows.Next() {
		payment := &domain.ReviewPayment{}
		err := rows.Scan(
			&payment.ID,
			&payment.CustomerID,
			&payment.Amount,
			&payment.Currency,
			&payment.Provider,
			&payment.BeneficiaryAccount,
			&payment.SwiftCode,
			&payment.Status,
			&payment.CreatedAt,
			&payment.UpdatedAt,
			&payment.CustomerName,
			&payment.CustomerAccount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review payment: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// UpdateStatus moves a payment to a new state and stamps the update time.
// The single UPDATE keeps concurrent transitions last-writer-wins.
func (r *PostgresPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// CountByStatus counts payments currently in a given state.
func (r *PostgresPaymentRepository) CountByStatus(ctx context.Context, status domain.Status) (int, error) {
	var count int
	query := `SELECT count(*) FROM payments WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}
