package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors surfaced by repositories and mapped to HTTP status codes at
// the route boundary. Storage detail never crosses this line.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateIdentity = errors.New("duplicate identity")
)

// Customer represents a registered banking customer.
// Immutable after registration except for explicit admin action (not present).
type Customer struct {
	ID            string // UUID
	FullName      string
	IDNumber      string // 13-digit national id, unique
	AccountNumber string // 10-20 digits, unique
	PasswordHash  string // bcrypt digest, never returned in API responses
	CreatedAt     time.Time
}

// CustomerRepository defines data access for customers
type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByCredentials(ctx context.Context, idNumber, accountNumber string) (*Customer, error)
}

// Employee represents a bank staff member. Employees are seeded at startup
// and looked up case-insensitively by employee id.
type Employee struct {
	ID           string // UUID
	EmployeeID   string // unique under case-insensitive comparison
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}

// EmployeeRepository defines data access for employees
type EmployeeRepository interface {
	Upsert(ctx context.Context, employee *Employee) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
}
