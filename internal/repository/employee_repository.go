package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/securepay/internal/domain"
)

// PostgresEmployeeRepository implements domain.EmployeeRepository using PostgreSQL
type PostgresEmployeeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresEmployeeRepository creates a new employee repository
func NewPostgresEmployeeRepository(db *sql.DB, logger *slog.Logger) *PostgresEmployeeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEmployeeRepository{db: db, logger: logger}
}

// Upsert inserts a seeded employee, leaving an existing record untouched.
// Employees are immutable after seeding.
func (r *PostgresEmployeeRepository) Upsert(ctx context.Context, employee *domain.Employee) error {
	query := `
		INSERT INTO employees (id, employee_id, full_name, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lower(employee_id)) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query,
		employee.ID,
		employee.EmployeeID,
		employee.FullName,
		employee.PasswordHash,
	); err != nil {
		r.logger.Error("failed to upsert employee",
			slog.String("employee_id", employee.EmployeeID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to upsert employee: %w", err)
	}

	return nil
}

// GetByID retrieves an employee by ID
func (r *PostgresEmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	employee := &domain.Employee{}

	query := `
		SELECT id, employee_id, full_name, password_hash, created_at
		FROM employees
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&employee.ID,
		&employee.EmployeeID,
		&employee.FullName,
		&employee.PasswordHash,
		&employee.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return employee, nil
}

// GetByEmployeeID retrieves an employee by their staff id, case-insensitively.
func (r *PostgresEmployeeRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Employee, error) {
	employee := &domain.Employee{}

	query := `
		SELECT id, employee_id, full_name, password_hash, created_at
		FROM employees
		WHERE lower(employee_id) = lower($1)
	`

	err := r.db.QueryRowContext(ctx, query, employeeID).Scan(
		&employee.ID,
		&employee.EmployeeID,
		&employee.FullName,
		&employee.PasswordHash,
		&employee.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee by staff id: %w", err)
	}

	return employee, nil
}
