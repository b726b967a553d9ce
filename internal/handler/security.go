package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/securepay/internal/security/csrf"
)

// SecurityHandler serves the unauthenticated security endpoints: the health
// probe and the CSRF token fetch.
type SecurityHandler struct {
	guard  *csrf.Guard
	logger *slog.Logger
}

// NewSecurityHandler creates a new security handler
func NewSecurityHandler(guard *csrf.Guard, logger *slog.Logger) *SecurityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityHandler{guard: guard, logger: logger}
}

// Health handles GET /api/security/health
func (h *SecurityHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "API healthy.",
	})
}

// CSRFToken handles GET /api/security/csrf-token. Every fetch regenerates the
// secret cookie and returns the derived token for the client to echo back.
func (h *SecurityHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.guard.IssueCookies(w)
	if err != nil {
		h.logger.Error("failed to issue csrf token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Unexpected server error.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"csrfToken": token,
	})
}
