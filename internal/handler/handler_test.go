package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/securepay/internal/domain"
	"github.com/yourorg/securepay/internal/gateway"
	"github.com/yourorg/securepay/internal/security/audit"
	"github.com/yourorg/securepay/internal/security/auth"
	"github.com/yourorg/securepay/internal/security/csrf"
	"github.com/yourorg/securepay/internal/security/middleware"
	"github.com/yourorg/securepay/internal/service"
)

// In-memory repositories backing the handler tests. They mirror the Postgres
// repositories' error contract: domain.ErrNotFound for misses and
// domain.ErrDuplicateIdentity for identity collisions.

type memCustomerRepo struct {
	byID map[string]*domain.Customer
}

func (m *memCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	for _, existing := range m.byID {
		if existing.IDNumber == c.IDNumber || existing.AccountNumber == c.AccountNumber {
			return domain.ErrDuplicateIdentity
		}
	}
	c.CreatedAt = time.Now()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCustomerRepo) GetByCredentials(_ context.Context, idNumber, accountNumber string) (*domain.Customer, error) {
	for _, c := range m.byID {
		if c.IDNumber == idNumber && c.AccountNumber == accountNumber {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memEmployeeRepo struct {
	byID map[string]*domain.Employee
}

func (m *memEmployeeRepo) Upsert(_ context.Context, e *domain.Employee) error {
	for _, existing := range m.byID {
		if strings.EqualFold(existing.EmployeeID, e.EmployeeID) {
			return nil
		}
	}
	e.CreatedAt = time.Now()
	cp := *e
	m.byID[e.ID] = &cp
	return nil
}

func (m *memEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	if e, ok := m.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memEmployeeRepo) GetByEmployeeID(_ context.Context, employeeID string) (*domain.Employee, error) {
	for _, e := range m.byID {
		if strings.EqualFold(e.EmployeeID, employeeID) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memPaymentRepo struct {
	byID  map[string]*domain.Payment
	order []string
}

func (m *memPaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.byID[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memPaymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// List methods return nil when nothing matches, like the Postgres rows loop.
func (m *memPaymentRepo) ListByCustomer(_ context.Context, customerID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, id := range m.order {
		if p := m.byID[id]; p.CustomerID == customerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) ListForReview(_ context.Context) ([]*domain.ReviewPayment, error) {
	var out []*domain.ReviewPayment
	for _, id := range m.order {
		p := m.byID[id]
		out = append(out, &domain.ReviewPayment{Payment: *p, CustomerName: "Nomsa Dlamini", CustomerAccount: "62831447001"})
	}
	return out, nil
}

func (m *memPaymentRepo) UpdateStatus(_ context.Context, id string, status domain.Status, updatedAt time.Time) error {
	p, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	return nil
}

func (m *memPaymentRepo) CountByStatus(_ context.Context, status domain.Status) (int, error) {
	n := 0
	for _, p := range m.byID {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

const (
	testJWTSecret    = "test-secret"
	testStaffPass    = "Staff!Passw0rd99"
	testCustomerPass = "Str0ng!Passw0rd"
)

var testProviders = []string{"SWIFT", "SEPA", "FEDWIRE"}

// testEnv assembles the full route surface over in-memory storage, with the
// same middleware layering as the server entrypoint.
type testEnv struct {
	mux      *http.ServeMux
	handler  http.Handler // mux behind the CSRF middleware
	payments *memPaymentRepo
	guard    *csrf.Guard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	customers := &memCustomerRepo{byID: map[string]*domain.Customer{}}
	employees := &memEmployeeRepo{byID: map[string]*domain.Employee{}}
	payments := &memPaymentRepo{byID: map[string]*domain.Payment{}}

	authService := service.NewAuthService(customers, employees, nil)
	require.NoError(t, authService.SeedEmployees(context.Background(), service.DefaultEmployeeSeeds, testStaffPass))
	paymentService := service.NewPaymentService(payments, gateway.NewSwiftGateway(nil), audit.NewLogger(nil), nil)

	sessions := auth.NewSessionManager(testJWTSecret, "secure-payments")
	guard := csrf.NewGuard(false)
	customerGate := middleware.NewCustomerGate(sessions, nil, testLogger())
	employeeGate := middleware.NewEmployeeGate(sessions, nil, testLogger())

	securityHandler := NewSecurityHandler(guard, nil)
	authHandler := NewAuthHandler(authService, sessions, nil, 8*time.Hour, false, nil)
	paymentsHandler := NewPaymentsHandler(paymentService, service.NewMemoryIdempotencyStore(), testProviders, nil)
	staffHandler := NewStaffHandler(authService, paymentService, sessions, nil, 8*time.Hour, false, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/security/health", securityHandler.Health)
	mux.HandleFunc("GET /api/security/csrf-token", securityHandler.CSRFToken)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", customerGate.Require(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /api/payments", customerGate.Require(http.HandlerFunc(paymentsHandler.List)))
	mux.Handle("POST /api/payments", customerGate.Require(http.HandlerFunc(paymentsHandler.Create)))
	mux.HandleFunc("GET /api/payments/providers", paymentsHandler.Providers)
	mux.HandleFunc("POST /api/staff/login", staffHandler.Login)
	mux.HandleFunc("POST /api/staff/logout", staffHandler.Logout)
	mux.Handle("GET /api/staff/me", employeeGate.Require(http.HandlerFunc(staffHandler.Me)))
	mux.Handle("GET /api/staff/payments", employeeGate.Require(http.HandlerFunc(staffHandler.ListPayments)))
	mux.Handle("POST /api/staff/payments/{id}/status", employeeGate.Require(http.HandlerFunc(staffHandler.SetStatus)))
	mux.Handle("POST /api/staff/payments/submit", employeeGate.Require(http.HandlerFunc(staffHandler.SubmitPayments)))

	return &testEnv{
		mux:      mux,
		handler:  middleware.CSRFMiddleware(guard, testLogger())(mux),
		payments: payments,
		guard:    guard,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// csrfPair fetches a fresh double-submit pair through the real endpoint.
func (e *testEnv) csrfPair(t *testing.T) (*http.Cookie, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/security/csrf-token", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	for _, c := range rec.Result().Cookies() {
		if c.Name == csrf.SecretCookieName {
			return c, body.CSRFToken
		}
	}
	t.Fatal("csrf secret cookie not set")
	return nil, ""
}

// do runs a JSON request through the full middleware stack.
func (e *testEnv) do(t *testing.T, method, path string, payload any, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// doCSRF is do with a fresh CSRF pair attached, for mutating requests.
func (e *testEnv) doCSRF(t *testing.T, method, path string, payload any, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	secret, token := e.csrfPair(t)
	if headers == nil {
		headers = map[string]string{}
	}
	headers[csrf.HeaderName] = token
	return e.do(t, method, path, payload, append(cookies, secret), headers)
}

// registerCustomer runs a registration and returns the session cookie.
func (e *testEnv) registerCustomer(t *testing.T, idNumber, accountNumber string) *http.Cookie {
	t.Helper()

	rec := e.doCSRF(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName":      "Nomsa Dlamini",
		"idNumber":      idNumber,
		"accountNumber": accountNumber,
		"password":      testCustomerPass,
	}, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return cookieByName(t, rec, middleware.CustomerSessionCookie)
}

// loginStaff logs in a seeded employee and returns the session cookie.
func (e *testEnv) loginStaff(t *testing.T) *http.Cookie {
	t.Helper()

	rec := e.doCSRF(t, http.MethodPost, "/api/staff/login", map[string]string{
		"employeeId": "EMP1001",
		"password":   testStaffPass,
	}, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return cookieByName(t, rec, middleware.EmployeeSessionCookie)
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}
