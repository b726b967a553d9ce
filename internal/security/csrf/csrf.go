// Package csrf implements double-submit CSRF protection: a random secret in
// an HttpOnly strict-same-site cookie plus a token derived from it that the
// client must echo back on every mutating request. An attacker who cannot
// read the secret cookie cannot reproduce the token.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
)

const (
	// SecretCookieName holds the server-set secret, never readable by scripts.
	SecretCookieName = "csrf_secret"
	// TokenCookieName holds the derived token in script-readable storage.
	TokenCookieName = "csrf_token"
	// HeaderName is where mutating requests must echo the token.
	HeaderName = "X-CSRF-Token"

	secretLength      = 32
	derivationContext = "secure-payments-csrf"
)

// Guard issues and verifies double-submit CSRF tokens. The token is a pure
// derivation of the secret, so verification needs no server-side storage.
type Guard struct {
	secure bool
}

// NewGuard creates a guard; secure controls the cookies' Secure attribute.
func NewGuard(secure bool) *Guard {
	return &Guard{secure: secure}
}

// GenerateSecret returns a fresh random secret, hex encoded.
func (g *Guard) GenerateSecret() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DeriveToken deterministically derives the anti-forgery token from a secret.
func (g *Guard) DeriveToken(secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(derivationContext))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyToken recomputes the expected token and compares in constant time.
func (g *Guard) VerifyToken(secret, supplied string) bool {
	if secret == "" || supplied == "" {
		return false
	}
	expected := g.DeriveToken(secret)
	return hmac.Equal([]byte(expected), []byte(supplied))
}

// IssueCookies regenerates the secret, sets both cookies on the response, and
// returns the derived token for the JSON body. A fresh secret per fetch keeps
// tokens from being reused across sessions.
func (g *Guard) IssueCookies(w http.ResponseWriter) (string, error) {
	secret, err := g.GenerateSecret()
	if err != nil {
		return "", err
	}
	token := g.DeriveToken(secret)

	http.SetCookie(w, &http.Cookie{
		Name:     SecretCookieName,
		Value:    secret,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// VerifyRequest checks the double-submit pair on a request: the secret cookie
// against the token echoed in the header.
func (g *Guard) VerifyRequest(r *http.Request) bool {
	cookie, err := r.Cookie(SecretCookieName)
	if err != nil {
		return false
	}
	return g.VerifyToken(cookie.Value, r.Header.Get(HeaderName))
}

// Exempt reports whether a method is exempt from CSRF checks. Only mutating
// methods carry forgery risk.
func Exempt(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
