package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Logger emits the structured audit trail of security-relevant actions.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, actorID, role, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor_id", actorID),
		slog.String("role", role),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

// LogStatusChange records an employee moving a payment between states.
func (al *Logger) LogStatusChange(ctx context.Context, employeeID, paymentID, from, to string) {
	al.LogAction(ctx, employeeID, "employee", "set_status", "payment", paymentID, "changed", from+" -> "+to)
}

// LogBatchSubmit records a clearing-network submission run.
func (al *Logger) LogBatchSubmit(ctx context.Context, employeeID string, count int, marked bool) {
	mode := "dry-run"
	if marked {
		mode = "marked submitted"
	}
	al.LogAction(ctx, employeeID, "employee", "submit_batch", "payment", "", "completed",
		fmt.Sprintf("%s, %d verified payment(s)", mode, count))
}

// LogDenied records a rejected access attempt.
func (al *Logger) LogDenied(ctx context.Context, actorID, role, reason string) {
	al.LogAction(ctx, actorID, role, "access_denied", "api", "", "denied", reason)
}
