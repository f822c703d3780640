package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultSessionIndexPrefix = "finapp:sessions"

// SessionIndex keeps one Redis set per account holding its session keys.
// The set expires with the newest session it contains.
type SessionIndex struct {
	client *red.Client
	prefix string
}

// NewSessionIndex constructs a session index backed by the given Redis client.
func NewSessionIndex(client *red.Client, keyPrefix string) *SessionIndex {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionIndexPrefix
	}
	return &SessionIndex{client: client, prefix: prefix}
}

// Add records sessionKey under accountID and pushes the set expiry to ttl.
func (i *SessionIndex) Add(ctx context.Context, accountID, sessionKey string, ttl time.Duration) error {
	switch {
	case strings.TrimSpace(accountID) == "" || strings.TrimSpace(sessionKey) == "":
		return errors.New("account id and session key are required")
	case ttl <= 0:
		return errors.New("ttl must be positive")
	}

	k := i.key(accountID)
	_, err := i.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.SAdd(ctx, k, sessionKey)
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis index session: %w", err)
	}
	return nil
}

// Remove forgets sessionKey. Removing an unknown key is not an error.
func (i *SessionIndex) Remove(ctx context.Context, accountID, sessionKey string) error {
	if strings.TrimSpace(accountID) == "" || strings.TrimSpace(sessionKey) == "" {
		return nil
	}
	if err := i.client.SRem(ctx, i.key(accountID), sessionKey).Err(); err != nil {
		return fmt.Errorf("redis unindex session: %w", err)
	}
	return nil
}

// Drain reads and deletes the account's set in one MULTI block.
func (i *SessionIndex) Drain(ctx context.Context, accountID string) ([]string, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, nil
	}

	k := i.key(accountID)
	pipe := i.client.TxPipeline()
	members := pipe.SMembers(ctx, k)
	pipe.Del(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis drain sessions: %w", err)
	}
	return members.Val(), nil
}

func (i *SessionIndex) key(accountID string) string {
	return fmt.Sprintf("%s:%s", i.prefix, strings.TrimSpace(accountID))
}
