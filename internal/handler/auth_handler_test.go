package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/securepay/internal/security/middleware"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/security/health", nil, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doCSRF(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName":      "Nomsa Dlamini",
		"idNumber":      "9202204720082",
		"accountNumber": "62831447001",
		"password":      testCustomerPass,
	}, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cookie := cookieByName(t, rec, middleware.CustomerSessionCookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 8*60*60, cookie.MaxAge)

	body := decodeBody(t, rec)
	assert.Equal(t, "Registration successful.", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "Nomsa Dlamini", user["fullName"])
	assert.Equal(t, "62831447001", user["accountNumber"])
}

func TestRegisterValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doCSRF(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName":      "N",
		"idNumber":      "123",
		"accountNumber": "62831447001",
		"password":      "weak",
	}, nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Validation failed.", body["message"])
	assert.Len(t, body["errors"], 3)
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.registerCustomer(t, "9202204720082", "62831447001")

	rec := env.doCSRF(t, http.MethodPost, "/api/auth/register", map[string]string{
		"fullName":      "Sipho Dlamini",
		"idNumber":      "9202204720082",
		"accountNumber": "1234567890",
		"password":      testCustomerPass,
	}, nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "A customer with that ID number or account already exists.", body["message"])
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	env.registerCustomer(t, "9202204720082", "62831447001")

	rec := env.doCSRF(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username":      "9202204720082",
		"accountNumber": "62831447001",
		"password":      testCustomerPass,
	}, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := cookieByName(t, rec, middleware.CustomerSessionCookie)

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, []*http.Cookie{session}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Nomsa Dlamini", user["fullName"])
	assert.Equal(t, "9202204720082", user["idNumber"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerCustomer(t, "9202204720082", "62831447001")

	rec := env.doCSRF(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username":      "9202204720082",
		"accountNumber": "62831447001",
		"password":      "Wr0ng!Passw0rd",
	}, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid credentials.", body["message"])

	// No session cookie on a failed login.
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, middleware.CustomerSessionCookie, c.Name)
	}
}

func TestMeWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/me", nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRejectsEmployeeSession(t *testing.T) {
	env := newTestEnv(t)
	staff := env.loginStaff(t)

	// An employee token presented as a customer session cookie must not pass
	// the customer gate.
	forged := &http.Cookie{Name: middleware.CustomerSessionCookie, Value: staff.Value}
	rec := env.do(t, http.MethodGet, "/api/auth/me", nil, []*http.Cookie{forged}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	session := env.registerCustomer(t, "9202204720082", "62831447001")

	rec := env.doCSRF(t, http.MethodPost, "/api/auth/logout", nil, []*http.Cookie{session}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CustomerSessionCookie {
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the session cookie")
}
