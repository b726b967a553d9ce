package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/securepay/internal/security/middleware"
	"github.com/yourorg/securepay/internal/service"
	"github.com/yourorg/securepay/internal/validation"
)

// IdempotencyKeyHeader lets clients retry POST /api/payments safely: a
// replayed key returns the originally created payment instead of a duplicate.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentsHandler handles the customer payment endpoints.
type PaymentsHandler struct {
	payments    *service.PaymentService
	idempotency service.IdempotencyStore
	providers   []string
	logger      *slog.Logger
}

// NewPaymentsHandler creates a new payments handler
func NewPaymentsHandler(
	payments *service.PaymentService,
	idempotency service.IdempotencyStore,
	providers []string,
	logger *slog.Logger,
) *PaymentsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &PaymentsHandler{
		payments:    payments,
		idempotency: idempotency,
		providers:   providers,
		logger:      logger,
	}
}

// amountField accepts the amount as either a JSON string or a JSON number
// and preserves the client's literal form. Decoding never rejects a value:
// malformed amounts must reach the validator so the client gets the
// per-field violation message instead of a generic body error.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = amountField(s)
		return nil
	}
	*a = amountField(data)
	return nil
}

// CreatePaymentRequest represents a payment creation request. The owning
// customer is always the authenticated caller; there is no customer field.
type CreatePaymentRequest struct {
	Amount             amountField `json:"amount"`
	Currency           string      `json:"currency"`
	Provider           string      `json:"provider"`
	BeneficiaryAccount string      `json:"beneficiaryAccount"`
	SwiftCode          string      `json:"swiftCode"`
}

// List handles GET /api/payments
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	payments, err := h.payments.ListForCustomer(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("failed to list payments", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Unable to retrieve payments.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"payments": payments,
	})
}

// Create handles POST /api/payments
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode payment request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if violations := validation.ValidPayment(validation.PaymentPayload{
		Amount:             string(req.Amount),
		Currency:           req.Currency,
		Provider:           req.Provider,
		BeneficiaryAccount: req.BeneficiaryAccount,
		SwiftCode:          req.SwiftCode,
	}, h.providers); len(violations) > 0 {
		writeValidationErrors(w, violations)
		return
	}

	// Replay detection happens before the write; keys are scoped per
	// customer so one client cannot replay another's key.
	idemKey := r.Header.Get(IdempotencyKeyHeader)
	if idemKey != "" && h.idempotency != nil {
		storedID, seen, err := h.idempotency.Lookup(r.Context(), identity.ID+":"+idemKey)
		if err != nil {
			h.logger.Warn("idempotency store unavailable", slog.String("error", err.Error()))
		} else if seen {
			existing, err := h.payments.GetForCustomer(r.Context(), storedID, identity.ID)
			if err == nil {
				writeJSON(w, http.StatusOK, map[string]any{
					"status":  "ok",
					"payment": existing,
				})
				return
			}
		}
	}

	payment, err := h.payments.Create(r.Context(), identity.ID,
		string(req.Amount), req.Currency, req.Provider, req.BeneficiaryAccount, req.SwiftCode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to create payment.")
		return
	}

	if idemKey != "" && h.idempotency != nil {
		if err := h.idempotency.Remember(r.Context(), identity.ID+":"+idemKey, payment.ID); err != nil {
			h.logger.Warn("failed to record idempotency key", slog.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "ok",
		"payment": payment,
	})
}

// Providers handles GET /api/payments/providers
func (h *PaymentsHandler) Providers(w http.ResponseWriter, r *http.Request) {
	type providerView struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	providers := make([]providerView, 0, len(h.providers))
	for _, p := range h.providers {
		providers = append(providers, providerView{ID: p, Name: p})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": providers,
	})
}
