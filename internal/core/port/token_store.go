package port

import (
	"context"
	"time"

	"github.com/ssuresh1228/finapp/internal/core/domain"
)

// TokenStore is the short-lived key/value store backing verification tokens,
// session keys and password reset tokens. Expiry is enforced by the store:
// Get and Take return repository.ErrNotFound for absent and expired keys
// alike. Delete is idempotent.
type TokenStore interface {
	Set(ctx context.Context, purpose domain.TokenPurpose, key, value string, ttl time.Duration) error
	Get(ctx context.Context, purpose domain.TokenPurpose, key string) (string, error)
	// Take atomically reads and removes the entry, returning the TTL it had left.
	Take(ctx context.Context, purpose domain.TokenPurpose, key string) (string, time.Duration, error)
	Delete(ctx context.Context, purpose domain.TokenPurpose, key string) error
}
