// Package gateway holds the clearing-network client. The portal never talks
// to the real SWIFT network; Dispatch is a stub that accepts a batch and
// reports how many instructions it would carry.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/securepay/internal/domain"
	"github.com/yourorg/securepay/internal/reliability/circuitbreaker"
	"github.com/yourorg/securepay/internal/reliability/retry"
)

// ErrGatewayUnavailable is returned while the breaker is open.
var ErrGatewayUnavailable = errors.New("clearing gateway unavailable")

// SwiftGateway submits verified payment batches to the clearing network.
// Dispatches go through a circuit breaker so a flapping gateway fails fast,
// and each attempt is retried with backoff.
type SwiftGateway struct {
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Policy
	logger  *slog.Logger
}

// NewSwiftGateway creates a gateway client.
func NewSwiftGateway(logger *slog.Logger) *SwiftGateway {
	if logger == nil {
		logger = slog.Default()
	}

	g := &SwiftGateway{
		breaker: circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
		retry:   retry.DefaultPolicy(),
		logger:  logger,
	}
	g.breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("clearing gateway breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return g
}

// Dispatch sends a batch of verified payments to the clearing network and
// returns the number accepted.
func (g *SwiftGateway) Dispatch(ctx context.Context, payments []*domain.ReviewPayment) (int, error) {
	if !g.breaker.AllowRequest() {
		return 0, ErrGatewayUnavailable
	}

	count, err := retry.Do(ctx, g.retry, g.logger, "swift_dispatch", func(ctx context.Context) (int, error) {
		return g.send(ctx, payments)
	})
	if err != nil {
		g.breaker.RecordFailure()
		return 0, err
	}

	g.breaker.RecordSuccess()
	return count, nil
}

// send is the stub transport. It accepts every instruction.
func (g *SwiftGateway) send(ctx context.Context, payments []*domain.ReviewPayment) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	for _, p := range payments {
		g.logger.Debug("dispatching payment to clearing network",
			slog.String("payment_id", p.ID),
			slog.String("swift_code", p.SwiftCode),
		)
	}
	return len(payments), nil
}
