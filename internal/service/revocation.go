package service

import (
	"context"
	"time"

	"github.com/yourorg/securepay/internal/infrastructure/redis"
)

// SessionRevocationFlag enables the optional logout denylist. Without it a
// logged-out token stays valid until natural expiry, which is the accepted
// default trade-off of stateless sessions.
const SessionRevocationFlag = "session_revocation"

// RevocationStore records token ids revoked at logout. Entries carry a TTL
// equal to the token's remaining validity, so the denylist never grows past
// the live-token set.
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke denylists a token id until its natural expiry.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, "revoked:"+tokenID, "1", ttl)
}

// IsRevoked reports whether a token id has been denylisted.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.client.Exists(ctx, "revoked:"+tokenID)
}
