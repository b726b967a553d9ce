package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role separates the two fixed principal kinds. A customer token can never
// pass the employee gate and vice versa.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

// Typed verification failures. Logout is a client-side cookie clear only, so
// a stolen token stays valid until natural expiry; that trade-off is accepted
// and documented rather than patched with a revocation table.
var (
	ErrTokenExpired     = errors.New("session token expired")
	ErrSignatureInvalid = errors.New("session token signature invalid")
	ErrTokenMalformed   = errors.New("session token malformed")
	ErrWrongIssuer      = errors.New("session token issued by a different deployment")
)

// Identity is the claim set carried inside a session token and attached to
// the request context after verification.
type Identity struct {
	ID        string
	Role      Role
	FullName  string
	AccountID string // account number for customers, employee id for staff
}

// SessionClaims is the wire form of an Identity.
type SessionClaims struct {
	Role      Role   `json:"role"`
	FullName  string `json:"fullName"`
	AccountID string `json:"accountId"`
	jwt.RegisteredClaims
}

// SessionManager signs and verifies stateless session tokens with a
// server-held symmetric secret. There is no server-side session table.
type SessionManager struct {
	secret []byte
	issuer string
}

// NewSessionManager creates a session manager bound to one deployment issuer.
func NewSessionManager(secret, issuer string) *SessionManager {
	if issuer == "" {
		issuer = "secure-payments"
	}
	return &SessionManager{secret: []byte(secret), issuer: issuer}
}

// Issue produces a signed token embedding the identity with the given TTL.
func (sm *SessionManager) Issue(identity Identity, ttl time.Duration) (string, error) {
	if identity.ID == "" || identity.Role == "" {
		return "", fmt.Errorf("identity id and role required")
	}
	now := time.Now()
	claims := SessionClaims{
		Role:      identity.Role,
		FullName:  identity.FullName,
		AccountID: identity.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    sm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(sm.secret)
}

// Verify checks signature, expiry, and issuer, and returns the embedded
// identity. Tokens from a different deployment are rejected to prevent
// cross-environment replay.
func (sm *SessionManager) Verify(tokenString string) (*Identity, *SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sm.secret, nil
	}, jwt.WithIssuer(sm.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, nil, ErrWrongIssuer
		default:
			return nil, nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, nil, ErrTokenMalformed
	}
	if claims.Role != RoleCustomer && claims.Role != RoleEmployee {
		return nil, nil, ErrTokenMalformed
	}

	identity := &Identity{
		ID:        claims.Subject,
		Role:      claims.Role,
		FullName:  claims.FullName,
		AccountID: claims.AccountID,
	}
	return identity, claims, nil
}
