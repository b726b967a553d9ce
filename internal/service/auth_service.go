package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/yourorg/securepay/internal/domain"
	"github.com/yourorg/securepay/internal/security/auth"
)

// ErrInvalidCredentials is returned on any customer or employee login failure.
// The message is deliberately generic to prevent account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration and credential verification for both
// principal kinds.
type AuthService struct {
	customers domain.CustomerRepository
	employees domain.EmployeeRepository
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	customers domain.CustomerRepository,
	employees domain.EmployeeRepository,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		customers: customers,
		employees: employees,
		logger:    logger,
	}
}

// RegisterCustomer creates a customer account. Duplicate id-number or
// account-number registrations surface as domain.ErrDuplicateIdentity.
// Input format validation happens at the route boundary; this method assumes
// a well-formed payload.
func (s *AuthService) RegisterCustomer(ctx context.Context, fullName, idNumber, accountNumber, password string) (*domain.Customer, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register customer")
	}

	customer := &domain.Customer{
		ID:            uuid.NewString(),
		FullName:      strings.TrimSpace(fullName),
		IDNumber:      strings.TrimSpace(idNumber),
		AccountNumber: strings.TrimSpace(accountNumber),
		PasswordHash:  hash,
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, domain.ErrDuplicateIdentity
		}
		s.logger.Error("failed to create customer", slog.String("error", err.Error()))
		return nil, errors.New("failed to register customer")
	}

	s.logger.Info("customer registered",
		slog.String("customer_id", customer.ID),
	)
	return customer, nil
}

// LoginCustomer verifies the id-number/account-number/password triple.
func (s *AuthService) LoginCustomer(ctx context.Context, idNumber, accountNumber, password string) (*domain.Customer, error) {
	customer, err := s.customers.GetByCredentials(ctx, strings.TrimSpace(idNumber), strings.TrimSpace(accountNumber))
	if err != nil {
		s.logger.Info("login attempt for unknown customer credentials")
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(password, customer.PasswordHash) {
		s.logger.Info("customer login failed with wrong password",
			slog.String("customer_id", customer.ID),
		)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("customer logged in", slog.String("customer_id", customer.ID))
	return customer, nil
}

// LoginEmployee verifies a staff id/password pair. The staff id lookup is
// case-insensitive.
func (s *AuthService) LoginEmployee(ctx context.Context, employeeID, password string) (*domain.Employee, error) {
	employee, err := s.employees.GetByEmployeeID(ctx, strings.TrimSpace(employeeID))
	if err != nil {
		s.logger.Info("login attempt for unknown employee id")
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(password, employee.PasswordHash) {
		s.logger.Info("employee login failed with wrong password",
			slog.String("employee_id", employee.EmployeeID),
		)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("employee logged in", slog.String("employee_id", employee.EmployeeID))
	return employee, nil
}

// GetCustomer fetches a customer profile.
func (s *AuthService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

// GetEmployee fetches an employee profile.
func (s *AuthService) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// EmployeeSeed describes one staff account seeded at startup.
type EmployeeSeed struct {
	EmployeeID string
	FullName   string
}

// DefaultEmployeeSeeds are the staff accounts provisioned when none exist.
var DefaultEmployeeSeeds = []EmployeeSeed{
	{EmployeeID: "EMP1001", FullName: "Thandiwe Nkosi"},
	{EmployeeID: "EMP1002", FullName: "Pieter van der Merwe"},
}

// SeedEmployees provisions the fixed staff accounts. Existing records are
// left untouched, so redeployments never reset staff passwords.
func (s *AuthService) SeedEmployees(ctx context.Context, seeds []EmployeeSeed, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.New("failed to hash employee seed password")
	}

	for _, seed := range seeds {
		employee := &domain.Employee{
			ID:           uuid.NewString(),
			EmployeeID:   seed.EmployeeID,
			FullName:     seed.FullName,
			PasswordHash: hash,
		}
		if err := s.employees.Upsert(ctx, employee); err != nil {
			return err
		}
	}

	s.logger.Info("employee accounts seeded", slog.Int("count", len(seeds)))
	return nil
}
