package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/repository"
)

const defaultTokenPrefix = "finapp:token"

// TokenStore keeps verification tokens, session keys and reset tokens in Redis.
// Keys are laid out as <prefix>:<purpose>:<token>; expiry is left to Redis.
type TokenStore struct {
	client *red.Client
	prefix string
}

// NewTokenStore constructs a token store backed by the given Redis client.
func NewTokenStore(client *red.Client, keyPrefix string) *TokenStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultTokenPrefix
	}
	return &TokenStore{client: client, prefix: prefix}
}

// Set stores value under key for ttl, replacing any previous entry.
func (s *TokenStore) Set(ctx context.Context, purpose domain.TokenPurpose, key, value string, ttl time.Duration) error {
	switch {
	case !purpose.Valid():
		return fmt.Errorf("unknown token purpose %q", purpose)
	case strings.TrimSpace(key) == "":
		return errors.New("token key is required")
	case ttl <= 0:
		return errors.New("ttl must be positive")
	}

	if err := s.client.Set(ctx, s.key(purpose, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s token: %w", purpose, err)
	}
	return nil
}

// Get returns the value stored under key without consuming it.
func (s *TokenStore) Get(ctx context.Context, purpose domain.TokenPurpose, key string) (string, error) {
	if !purpose.Valid() || strings.TrimSpace(key) == "" {
		return "", repository.ErrNotFound
	}

	value, err := s.client.Get(ctx, s.key(purpose, key)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get %s token: %w", purpose, err)
	}
	return value, nil
}

// Take reads and deletes key in one MULTI block and reports the TTL the entry
// had left, so a caller that fails afterwards can put it back.
func (s *TokenStore) Take(ctx context.Context, purpose domain.TokenPurpose, key string) (string, time.Duration, error) {
	if !purpose.Valid() || strings.TrimSpace(key) == "" {
		return "", 0, repository.ErrNotFound
	}

	k := s.key(purpose, key)
	pipe := s.client.TxPipeline()
	ttlCmd := pipe.PTTL(ctx, k)
	getCmd := pipe.GetDel(ctx, k)

	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, red.Nil) {
			return "", 0, repository.ErrNotFound
		}
		return "", 0, fmt.Errorf("redis take %s token: %w", purpose, err)
	}

	value, err := getCmd.Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", 0, repository.ErrNotFound
		}
		return "", 0, fmt.Errorf("redis take %s token: %w", purpose, err)
	}

	// PTTL reports -1/-2 for missing expiry; treat both as no time left.
	remaining := ttlCmd.Val()
	if remaining < 0 {
		remaining = 0
	}
	return value, remaining, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *TokenStore) Delete(ctx context.Context, purpose domain.TokenPurpose, key string) error {
	if !purpose.Valid() || strings.TrimSpace(key) == "" {
		return nil
	}

	if err := s.client.Del(ctx, s.key(purpose, key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s token: %w", purpose, err)
	}
	return nil
}

func (s *TokenStore) key(purpose domain.TokenPurpose, token string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, purpose, strings.TrimSpace(token))
}
