package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/securepay/internal/domain"
	"github.com/yourorg/securepay/internal/gateway"
	"github.com/yourorg/securepay/internal/observability/metrics"
	"github.com/yourorg/securepay/internal/security/auth"
	"github.com/yourorg/securepay/internal/security/middleware"
	"github.com/yourorg/securepay/internal/service"
	"github.com/yourorg/securepay/internal/validation"
)

// StaffHandler handles the employee endpoints: login, profile, and the
// payment review workflow.
type StaffHandler struct {
	authService *service.AuthService
	payments    *service.PaymentService
	sessions    *auth.SessionManager
	revocation  *service.RevocationStore // nil unless the revocation flag is on
	sessionTTL  time.Duration
	secure      bool
	logger      *slog.Logger
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(
	authService *service.AuthService,
	payments *service.PaymentService,
	sessions *auth.SessionManager,
	revocation *service.RevocationStore,
	sessionTTL time.Duration,
	secureCookies bool,
	logger *slog.Logger,
) *StaffHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &StaffHandler{
		authService: authService,
		payments:    payments,
		sessions:    sessions,
		revocation:  revocation,
		sessionTTL:  sessionTTL,
		secure:      secureCookies,
		logger:      logger,
	}
}

// EmployeeLoginRequest represents a staff login request
type EmployeeLoginRequest struct {
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
}

// ReviewRequest represents a payment status update
type ReviewRequest struct {
	Status string `json:"status"`
}

type employeeView struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	EmployeeID string `json:"employeeId"`
	Role       string `json:"role"`
}

// Login handles POST /api/staff/login
func (h *StaffHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req EmployeeLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode staff login request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if violations := validation.ValidEmployeeLogin(validation.EmployeeLoginPayload{
		EmployeeID: req.EmployeeID,
		Password:   req.Password,
	}); len(violations) > 0 {
		writeValidationErrors(w, violations)
		return
	}

	employee, err := h.authService.LoginEmployee(r.Context(), req.EmployeeID, req.Password)
	if err != nil {
		metrics.ObserveLoginFailure(string(auth.RoleEmployee))
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	token, err := h.sessions.Issue(auth.Identity{
		ID:        employee.ID,
		Role:      auth.RoleEmployee,
		FullName:  employee.FullName,
		AccountID: employee.EmployeeID,
	}, h.sessionTTL)
	if err != nil {
		h.logger.Error("failed to issue employee session", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Unexpected server error.")
		return
	}

	setSessionCookie(w, middleware.EmployeeSessionCookie, token, h.sessionTTL, h.secure)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"employee": employeeView{
			ID:         employee.ID,
			FullName:   employee.FullName,
			EmployeeID: employee.EmployeeID,
			Role:       string(auth.RoleEmployee),
		},
	})
}

// Logout handles POST /api/staff/logout
func (h *StaffHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.revocation != nil {
		if cookie, err := r.Cookie(middleware.EmployeeSessionCookie); err == nil {
			if _, claims, err := h.sessions.Verify(cookie.Value); err == nil {
				if err := h.revocation.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
					h.logger.Warn("failed to revoke employee session", slog.String("error", err.Error()))
				}
			}
		}
	}

	clearSessionCookie(w, middleware.EmployeeSessionCookie, h.secure)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Logged out.",
	})
}

// Me handles GET /api/staff/me
func (h *StaffHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	employee, err := h.authService.GetEmployee(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Employee not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Unable to fetch profile.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"employee": employeeView{
			ID:         employee.ID,
			FullName:   employee.FullName,
			EmployeeID: employee.EmployeeID,
			Role:       string(auth.RoleEmployee),
		},
	})
}

// ListPayments handles GET /api/staff/payments?status=a,b
func (h *StaffHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListForReview(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("failed to list payments for review", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Unable to retrieve payments.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"payments": payments,
	})
}

// SetStatus handles POST /api/staff/payments/{id}/status
func (h *StaffHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	paymentID := r.PathValue("id")
	if _, err := uuid.Parse(paymentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment reference.")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	allowed := make([]string, 0, len(domain.ReviewStatuses))
	for _, s := range domain.ReviewStatuses {
		allowed = append(allowed, string(s))
	}
	if violations := validation.ValidPaymentReview(req.Status, allowed); len(violations) > 0 {
		writeValidationErrors(w, violations)
		return
	}

	status, _ := domain.ParseStatus(req.Status)
	payment, err := h.payments.SetStatus(r.Context(), paymentID, status, identity.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Payment not found.")
		case errors.Is(err, service.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "Status is not an allowed review target.")
		default:
			writeError(w, http.StatusInternalServerError, "Unable to update payment status.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"payment": payment,
	})
}

// SubmitPayments handles POST /api/staff/payments/submit
func (h *StaffHandler) SubmitPayments(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	count, err := h.payments.SubmitVerified(r.Context(), identity.AccountID)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Clearing network unavailable, try again later.")
			return
		}
		h.logger.Error("failed to submit payments", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Unable to submit payments.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   fmt.Sprintf("Submitted %d verified payment(s) to SWIFT.", count),
		"submitted": count,
	})
}
