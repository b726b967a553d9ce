package service

import (
	"context"
	"errors"
	"time"

	"github.com/yourorg/securepay/internal/infrastructure/redis"
	"github.com/yourorg/securepay/pkg/cache"
)

// Idempotency keys make payment creation safe to retry: a request replayed
// with the same key (after a timeout, or after the CSRF refetch-and-retry
// path) returns the originally created payment instead of a duplicate. Two
// simultaneous first attempts with one key can both create; SetNX decides
// which record later replays resolve to.
const idempotencyTTL = 24 * time.Hour

const idempotencyPrefix = "idem:payment:"

// IdempotencyStore remembers which payment a creation key produced.
type IdempotencyStore interface {
	// Lookup returns the payment id previously stored for the key, if any.
	Lookup(ctx context.Context, key string) (string, bool, error)
	// Remember associates the key with a payment id unless already taken.
	Remember(ctx context.Context, key, paymentID string) error
}

// RedisIdempotencyStore backs idempotency keys with Redis so replays are
// detected across instances.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	paymentID, err := s.client.Get(ctx, idempotencyPrefix+key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return paymentID, true, nil
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, key, paymentID string) error {
	_, err := s.client.SetNX(ctx, idempotencyPrefix+key, paymentID, idempotencyTTL)
	return err
}

// MemoryIdempotencyStore is the single-instance fallback used when Redis is
// not configured, and in tests.
type MemoryIdempotencyStore struct {
	cache *cache.Cache
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{cache: cache.New()}
}

func (s *MemoryIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	if existing, ok := s.cache.Get(idempotencyPrefix + key); ok {
		return existing.(string), true, nil
	}
	return "", false, nil
}

func (s *MemoryIdempotencyStore) Remember(ctx context.Context, key, paymentID string) error {
	if _, ok := s.cache.Get(idempotencyPrefix + key); ok {
		return nil
	}
	s.cache.Set(idempotencyPrefix+key, paymentID, idempotencyTTL)
	return nil
}
