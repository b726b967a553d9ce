package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/securepay/internal/domain"
	"github.com/yourorg/securepay/internal/observability/metrics"
)

// MetricsWorker periodically refreshes gauges that are derived from the
// database, so the /metrics endpoint stays cheap to scrape.
type MetricsWorker struct {
	payments domain.PaymentRepository
	logger   *slog.Logger
	interval time.Duration
}

// NewMetricsWorker creates a new metrics worker
func NewMetricsWorker(payments domain.PaymentRepository, logger *slog.Logger, interval time.Duration) *MetricsWorker {
	return &MetricsWorker{
		payments: payments,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the refresh loop. It runs until the context is cancelled.
func (w *MetricsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("metrics worker started", slog.Duration("interval", w.interval))

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("metrics worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *MetricsWorker) refresh(ctx context.Context) {
	count, err := w.payments.CountByStatus(ctx, domain.StatusPending)
	if err != nil {
		w.logger.Error("failed to count pending payments", slog.String("error", err.Error()))
		return
	}
	metrics.SetPendingPayments(count)
}
