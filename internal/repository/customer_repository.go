package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/yourorg/securepay/internal/domain"
)

const uniqueViolation = "23505"

// PostgresCustomerRepository implements domain.CustomerRepository using PostgreSQL
type PostgresCustomerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCustomerRepository creates a new customer repository
func NewPostgresCustomerRepository(db *sql.DB, logger *slog.Logger) *PostgresCustomerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCustomerRepository{db: db, logger: logger}
}

// Create inserts a new customer. A concurrent duplicate registration surfaces
// as domain.ErrDuplicateIdentity via the unique constraints, never as a
// silent overwrite.
func (r *PostgresCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, full_name, id_number, account_number, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		customer.ID,
		customer.FullName,
		customer.IDNumber,
		customer.AccountNumber,
		customer.PasswordHash,
	).Scan(&customer.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateIdentity
		}
		r.logger.Error("failed to create customer",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by ID
func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	customer := &domain.Customer{}

	query := `
		SELECT id, full_name, id_number, account_number, password_hash, created_at
		FROM customers
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.FullName,
		&customer.IDNumber,
		&customer.AccountNumber,
		&customer.PasswordHash,
		&customer.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get customer by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

// GetByCredentials retrieves a customer by the id-number/account-number pair
// used as the login username.
func (r *PostgresCustomerRepository) GetByCredentials(ctx context.Context, idNumber, accountNumber string) (*domain.Customer, error) {
	customer := &domain.Customer{}

	query := `
		SELECT id, full_name, id_number, account_number, password_hash, created_at
		FROM customers
		WHERE id_number = $1 AND account_number = $2
	`

	err := r.db.QueryRowContext(ctx, query, idNumber, accountNumber).Scan(
		&customer.ID,
		&customer.FullName,
		&customer.IDNumber,
		&customer.AccountNumber,
		&customer.PasswordHash,
		&customer.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer by credentials: %w", err)
	}

	return customer, nil
}
