package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/yourorg/securepay/internal/observability/metrics"
	"github.com/yourorg/securepay/internal/security/auth"
	"github.com/yourorg/securepay/internal/security/csrf"
	"github.com/yourorg/securepay/internal/security/ratelimit"
)

// Cookie names for the two independent session gates. Distinct names prevent
// a customer token being replayed against staff routes and vice versa.
const (
	CustomerSessionCookie = "session"
	EmployeeSessionCookie = "employee_session"
)

type IdentityContextKey struct{}
type ClaimsContextKey struct{}

// Denylist checks whether a token id has been revoked. The default
// deployment runs without one: logout is purely a client-side cookie clear.
type Denylist interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionGate authenticates one principal kind from its session cookie and
// attaches the verified identity to the request context.
type SessionGate struct {
	sessions   *auth.SessionManager
	cookieName string
	role       auth.Role
	denylist   Denylist
	logger     *slog.Logger
}

// NewCustomerGate builds the gate for customer routes.
func NewCustomerGate(sessions *auth.SessionManager, denylist Denylist, logger *slog.Logger) *SessionGate {
	return &SessionGate{sessions: sessions, cookieName: CustomerSessionCookie, role: auth.RoleCustomer, denylist: denylist, logger: logger}
}

// NewEmployeeGate builds the gate for staff routes.
func NewEmployeeGate(sessions *auth.SessionManager, denylist Denylist, logger *slog.Logger) *SessionGate {
	return &SessionGate{sessions: sessions, cookieName: EmployeeSessionCookie, role: auth.RoleEmployee, denylist: denylist, logger: logger}
}

// CookieName returns the transport cookie this gate reads.
func (g *SessionGate) CookieName() string {
	return g.cookieName
}

// Authenticate extracts and verifies the session cookie. It distinguishes a
// missing cookie from a failed verification only in logs; both map to 401.
func (g *SessionGate) Authenticate(r *http.Request) (*auth.Identity, *auth.SessionClaims, error) {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		return nil, nil, errors.New("authentication required")
	}

	identity, claims, err := g.sessions.Verify(cookie.Value)
	if err != nil {
		return nil, nil, err
	}
	if identity.Role != g.role {
		return nil, nil, errors.New("session role mismatch")
	}

	if g.denylist != nil {
		revoked, err := g.denylist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			g.logger.Warn("denylist lookup failed", slog.String("error", err.Error()))
		} else if revoked {
			return nil, nil, errors.New("session revoked")
		}
	}
	return identity, claims, nil
}

// Require wraps a handler, rejecting unauthenticated requests with 401.
func (g *SessionGate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, claims, err := g.Authenticate(r)
		if err != nil {
			g.logger.Info("request rejected by session gate",
				slog.String("path", r.URL.Path),
				slog.String("gate", string(g.role)),
				slog.String("error", err.Error()),
			)
			http.Error(w, `{"status":"error","message":"Invalid or expired session."}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey{}, identity)
		ctx = context.WithValue(ctx, ClaimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFMiddleware enforces the double-submit check on every mutating method.
// The 403 is deliberately distinct from auth failures so clients can refetch
// a fresh token and retry exactly once.
func CSRFMiddleware(guard *csrf.Guard, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if csrf.Exempt(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !guard.VerifyRequest(r) {
				metrics.ObserveCSRFRejection()
				log.Warn("csrf verification failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, `{"status":"error","code":"invalid_csrf_token","message":"Invalid CSRF token."}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware throttles per client address.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" || r.URL.Path == "/api/security/health" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(ClientIP(r)) {
				log.Warn("rate limit exceeded", slog.String("client", ClientIP(r)))
				http.Error(w, `{"status":"error","message":"Too many requests."}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentityFromContext returns the authenticated identity, or nil.
func GetIdentityFromContext(ctx context.Context) *auth.Identity {
	if v := ctx.Value(IdentityContextKey{}); v != nil {
		return v.(*auth.Identity)
	}
	return nil
}

// GetClaimsFromContext returns the verified session claims, or nil.
func GetClaimsFromContext(ctx context.Context) *auth.SessionClaims {
	if v := ctx.Value(ClaimsContextKey{}); v != nil {
		return v.(*auth.SessionClaims)
	}
	return nil
}

// ClientIP extracts the requester address, ignoring the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
