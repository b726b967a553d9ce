package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/securepay/internal/domain"
	"github.com/yourorg/securepay/internal/observability/metrics"
	"github.com/yourorg/securepay/internal/security/auth"
	"github.com/yourorg/securepay/internal/security/middleware"
	"github.com/yourorg/securepay/internal/service"
	"github.com/yourorg/securepay/internal/validation"
)

// AuthHandler handles the customer authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	sessions    *auth.SessionManager
	revocation  *service.RevocationStore // nil unless the revocation flag is on
	sessionTTL  time.Duration
	secure      bool
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *service.AuthService,
	sessions *auth.SessionManager,
	revocation *service.RevocationStore,
	sessionTTL time.Duration,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		revocation:  revocation,
		sessionTTL:  sessionTTL,
		secure:      secureCookies,
		logger:      logger,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	FullName      string `json:"fullName"`
	IDNumber      string `json:"idNumber"`
	AccountNumber string `json:"accountNumber"`
	Password      string `json:"password"`
}

// LoginRequest represents a customer login request; the username is the
// national id number used at registration.
type LoginRequest struct {
	Username      string `json:"username"`
	AccountNumber string `json:"accountNumber"`
	Password      string `json:"password"`
}

type customerView struct {
	ID            string `json:"id"`
	FullName      string `json:"fullName"`
	AccountNumber string `json:"accountNumber"`
	IDNumber      string `json:"idNumber,omitempty"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode register request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if violations := validation.ValidRegistration(validation.RegistrationPayload{
		FullName:      req.FullName,
		IDNumber:      req.IDNumber,
		AccountNumber: req.AccountNumber,
		Password:      req.Password,
	}); len(violations) > 0 {
		writeValidationErrors(w, violations)
		return
	}

	customer, err := h.authService.RegisterCustomer(r.Context(), req.FullName, req.IDNumber, req.AccountNumber, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			writeError(w, http.StatusConflict, "A customer with that ID number or account already exists.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Unable to complete registration.")
		return
	}

	if !h.issueSessionCookie(w, auth.Identity{
		ID:        customer.ID,
		Role:      auth.RoleCustomer,
		FullName:  customer.FullName,
		AccountID: customer.AccountNumber,
	}) {
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "ok",
		"message": "Registration successful.",
		"user": customerView{
			ID:            customer.ID,
			FullName:      customer.FullName,
			AccountNumber: customer.AccountNumber,
		},
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if violations := validation.ValidLogin(validation.LoginPayload{
		Username:      req.Username,
		AccountNumber: req.AccountNumber,
		Password:      req.Password,
	}); len(violations) > 0 {
		writeValidationErrors(w, violations)
		return
	}

	customer, err := h.authService.LoginCustomer(r.Context(), req.Username, req.AccountNumber, req.Password)
	if err != nil {
		metrics.ObserveLoginFailure(string(auth.RoleCustomer))
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	if !h.issueSessionCookie(w, auth.Identity{
		ID:        customer.ID,
		Role:      auth.RoleCustomer,
		FullName:  customer.FullName,
		AccountID: customer.AccountNumber,
	}) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"user": customerView{
			ID:            customer.ID,
			FullName:      customer.FullName,
			AccountNumber: customer.AccountNumber,
		},
	})
}

// Logout handles POST /api/auth/logout. The cookie clear is the whole logout
// unless the revocation store is wired, in which case the token id is also
// denylisted for its remaining validity.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.revocation != nil {
		if cookie, err := r.Cookie(middleware.CustomerSessionCookie); err == nil {
			if _, claims, err := h.sessions.Verify(cookie.Value); err == nil {
				if err := h.revocation.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
					h.logger.Warn("failed to revoke session", slog.String("error", err.Error()))
				}
			}
		}
	}

	clearSessionCookie(w, middleware.CustomerSessionCookie, h.secure)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Logged out.",
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	customer, err := h.authService.GetCustomer(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Customer not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Unable to fetch profile.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"user": customerView{
			ID:            customer.ID,
			FullName:      customer.FullName,
			AccountNumber: customer.AccountNumber,
			IDNumber:      customer.IDNumber,
		},
	})
}

func (h *AuthHandler) issueSessionCookie(w http.ResponseWriter, identity auth.Identity) bool {
	token, err := h.sessions.Issue(identity, h.sessionTTL)
	if err != nil {
		h.logger.Error("failed to issue session token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Unexpected server error.")
		return false
	}
	setSessionCookie(w, middleware.CustomerSessionCookie, token, h.sessionTTL, h.secure)
	return true
}

// setSessionCookie writes an HttpOnly strict-same-site session cookie.
// Identity never travels via header or body.
func setSessionCookie(w http.ResponseWriter, name, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
