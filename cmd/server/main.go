package main

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/securepay/internal/featureflags"
	"github.com/yourorg/securepay/internal/gateway"
	"github.com/yourorg/securepay/internal/handler"
	"github.com/yourorg/securepay/internal/infrastructure/logger"
	"github.com/yourorg/securepay/internal/infrastructure/redis"
	"github.com/yourorg/securepay/internal/observability/metrics"
	"github.com/yourorg/securepay/internal/observability/tracing"
	"github.com/yourorg/securepay/internal/repository"
	"github.com/yourorg/securepay/internal/security/audit"
	"github.com/yourorg/securepay/internal/security/auth"
	"github.com/yourorg/securepay/internal/security/csrf"
	"github.com/yourorg/securepay/internal/security/middleware"
	"github.com/yourorg/securepay/internal/security/ratelimit"
	"github.com/yourorg/securepay/internal/service"
	"github.com/yourorg/securepay/internal/worker"
	"github.com/yourorg/securepay/pkg/config"
	"github.com/yourorg/securepay/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting SecurePay server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "securepay", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres; retry briefly so the server survives a database
	// that is still starting up alongside it.
	pool, err := connectDatabase(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Redis is optional: without it idempotency keys are process-local and
	// session revocation stays off.
	var idempotency service.IdempotencyStore
	var revocation *service.RevocationStore
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory idempotency store", slog.String("error", err.Error()))
		idempotency = service.NewMemoryIdempotencyStore()
	} else {
		defer redisClient.Close()
		idempotency = service.NewRedisIdempotencyStore(redisClient)
		if featureflags.Enabled(service.SessionRevocationFlag) {
			revocation = service.NewRevocationStore(redisClient)
			log.Info("session revocation enabled")
		}
	}

	// 6. Initialize repositories
	customerRepo := repository.NewPostgresCustomerRepository(pool.GetDB(), log)
	employeeRepo := repository.NewPostgresEmployeeRepository(pool.GetDB(), log)
	paymentRepo := repository.NewPostgresPaymentRepository(pool.GetDB(), log)

	// 7. Initialize services
	auditLogger := audit.NewLogger(log)
	clearingGateway := gateway.NewSwiftGateway(log)
	authService := service.NewAuthService(customerRepo, employeeRepo, log)
	paymentService := service.NewPaymentService(paymentRepo, clearingGateway, auditLogger, log)

	if err := authService.SeedEmployees(ctx, service.DefaultEmployeeSeeds, cfg.EmployeeSeedPassword); err != nil {
		log.Error("failed to seed employees", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Initialize security components
	sessions := auth.NewSessionManager(cfg.JWTSecret, cfg.TokenIssuer)
	csrfGuard := csrf.NewGuard(cfg.CookieSecure)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)

	var denylist middleware.Denylist
	if revocation != nil {
		denylist = revocation
	}
	customerGate := middleware.NewCustomerGate(sessions, denylist, log)
	employeeGate := middleware.NewEmployeeGate(sessions, denylist, log)

	// 9. Initialize handlers
	securityHandler := handler.NewSecurityHandler(csrfGuard, log)
	authHandler := handler.NewAuthHandler(authService, sessions, revocation, cfg.SessionTTL, cfg.CookieSecure, log)
	paymentsHandler := handler.NewPaymentsHandler(paymentService, idempotency, cfg.Providers, log)
	staffHandler := handler.NewStaffHandler(authService, paymentService, sessions, revocation, cfg.SessionTTL, cfg.CookieSecure, log)
	feedHandler := handler.NewFeedHandler(paymentService, employeeGate, cfg.CORSAllowedOrigins, log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/security/health", securityHandler.Health)
	mux.HandleFunc("GET /api/security/csrf-token", securityHandler.CSRFToken)

	mux.Handle("POST /api/auth/register", loginRateLimit(cfg, rateLimiter, log, http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", loginRateLimit(cfg, rateLimiter, log, http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", customerGate.Require(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /api/payments", customerGate.Require(http.HandlerFunc(paymentsHandler.List)))
	mux.Handle("POST /api/payments", customerGate.Require(http.HandlerFunc(paymentsHandler.Create)))
	mux.HandleFunc("GET /api/payments/providers", paymentsHandler.Providers)

	mux.Handle("POST /api/staff/login", loginRateLimit(cfg, rateLimiter, log, http.HandlerFunc(staffHandler.Login)))
	mux.HandleFunc("POST /api/staff/logout", staffHandler.Logout)
	mux.Handle("GET /api/staff/me", employeeGate.Require(http.HandlerFunc(staffHandler.Me)))
	mux.Handle("GET /api/staff/payments", employeeGate.Require(http.HandlerFunc(staffHandler.ListPayments)))
	mux.Handle("POST /api/staff/payments/{id}/status", employeeGate.Require(http.HandlerFunc(staffHandler.SetStatus)))
	mux.Handle("POST /api/staff/payments/submit", employeeGate.Require(http.HandlerFunc(staffHandler.SubmitPayments)))

	mux.Handle("GET /ws/staff/payments", feedHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: request ID -> tracing -> metrics -> CORS -> rate limit -> CSRF
	rootHandler := withRequestID(
		otelhttp.NewHandler(
			metrics.HTTPMetricsMiddleware(
				withCORS(cfg.CORSAllowedOrigins,
					middleware.RateLimitMiddleware(rateLimiter, log)(
						middleware.CSRFMiddleware(csrfGuard, log)(mux),
					),
				),
			),
			"securepay.http",
		),
		log,
	)

	// 11. Start metrics worker in background
	metricsWorker := worker.NewMetricsWorker(paymentRepo, log, cfg.MetricsInterval)
	go metricsWorker.Start(ctx)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS12},
	}

	useTLS := cfg.TLSCertPath != "" && cfg.TLSKeyPath != ""
	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("tls", useTLS),
		slog.Int("rate_limit", cfg.RateLimitMaxRequests),
		slog.Duration("rate_limit_window", cfg.RateLimitWindow),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var err error
		if useTLS {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop metrics worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// connectDatabase dials Postgres with a short startup retry loop.
func connectDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*database.ConnectionPool, error) {
	dbConfig := &database.Config{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Database: cfg.PostgresDatabase,
		SSLMode:  cfg.PostgresSSLMode,
	}

	var pool *database.ConnectionPool
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = database.NewConnectionPool(ctx, dbConfig, log)
		if err == nil {
			return pool, nil
		}
		log.Warn("database not ready, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, err
}

// loginRateLimit applies the stricter credential-guessing budget on top of
// the global limiter.
func loginRateLimit(cfg *config.Config, limiter *ratelimit.Limiter, log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := middleware.ClientIP(r)
		if !limiter.AllowStrict("login:"+client, cfg.LoginRateLimitMax, cfg.RateLimitWindow) {
			log.Warn("login rate limit exceeded", slog.String("client", client))
			http.Error(w, `{"status":"error","message":"Too many requests."}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withCORS honors the configured origins and allows credentialed requests so
// the browser sends the session and CSRF cookies.
func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+csrf.HeaderName+", "+handler.IdempotencyKeyHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
