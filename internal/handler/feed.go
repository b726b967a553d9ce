package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/securepay/internal/security/middleware"
	"github.com/yourorg/securepay/internal/service"
)

// FeedHandler pushes the live review queue to staff dashboards over WebSocket.
type FeedHandler struct {
	payments       *service.PaymentService
	gate           *middleware.SessionGate
	allowedOrigins []string
	interval       time.Duration
	logger         *slog.Logger
}

// NewFeedHandler creates a new staff feed handler
func NewFeedHandler(payments *service.PaymentService, gate *middleware.SessionGate, allowedOrigins []string, logger *slog.Logger) *FeedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedHandler{
		payments:       payments,
		gate:           gate,
		allowedOrigins: allowedOrigins,
		interval:       5 * time.Second,
		logger:         logger,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *FeedHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/staff/payments. The employee session cookie is
// checked before the upgrade so an unauthenticated socket never opens.
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, _, err := h.gate.Authenticate(r)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	h.logger.Debug("staff feed opened", slog.String("employee", identity.AccountID))

	// Drain client frames so pong handling and close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.pushSnapshot(r, ws); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			_ = ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			if err := h.pushSnapshot(r, ws); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("staff feed closed", slog.String("employee", identity.AccountID))
				}
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *FeedHandler) pushSnapshot(r *http.Request, ws *websocket.Conn) error {
	payments, err := h.payments.ListForReview(r.Context(), "")
	if err != nil {
		h.logger.Error("failed to load review snapshot", slog.String("error", err.Error()))
		return ws.WriteJSON(map[string]string{"status": "error", "message": "Unable to retrieve payments."})
	}

	return ws.WriteJSON(map[string]any{
		"status":   "ok",
		"payments": payments,
	})
}
