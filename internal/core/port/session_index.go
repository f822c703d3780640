package port

import (
	"context"
	"time"
)

// SessionIndex tracks the live session keys of each account so that every
// session can be revoked when the account goes away. Entries may outlive the
// sessions they name; revoking an already expired key is harmless.
type SessionIndex interface {
	Add(ctx context.Context, accountID, sessionKey string, ttl time.Duration) error
	Remove(ctx context.Context, accountID, sessionKey string) error
	// Drain returns every indexed key and clears the account's index.
	Drain(ctx context.Context, accountID string) ([]string, error)
}
