package redis

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestSessionIndex_AddDrain(t *testing.T) {
	client, server := newTestRedis(t)
	index := NewSessionIndex(client, "test:sessions")
	ctx := context.Background()

	for _, key := range []string{"session_a", "session_b"} {
		if err := index.Add(ctx, "account-1", key, time.Hour); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}
	if ttl := server.TTL("test:sessions:account-1"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected ttl within (0, 1h], got %v", ttl)
	}

	keys, err := index.Drain(ctx, "account-1")
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "session_a" || keys[1] != "session_b" {
		t.Fatalf("unexpected drained keys: %v", keys)
	}
	if server.Exists("test:sessions:account-1") {
		t.Fatalf("expected index to be cleared")
	}

	keys, err = index.Drain(ctx, "account-1")
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected empty drain, got %v, %v", keys, err)
	}
}

func TestSessionIndex_Remove(t *testing.T) {
	client, _ := newTestRedis(t)
	index := NewSessionIndex(client, "")
	ctx := context.Background()

	if err := index.Add(ctx, "account-1", "session_a", time.Hour); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := index.Remove(ctx, "account-1", "session_a"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := index.Remove(ctx, "account-1", "session_unknown"); err != nil {
		t.Fatalf("Remove of unknown key returned error: %v", err)
	}

	keys, err := index.Drain(ctx, "account-1")
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected empty drain, got %v, %v", keys, err)
	}
}

func TestSessionIndex_ExpiresWithSessions(t *testing.T) {
	client, server := newTestRedis(t)
	index := NewSessionIndex(client, "test:sessions")
	ctx := context.Background()

	if err := index.Add(ctx, "account-1", "session_a", time.Minute); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	server.FastForward(2 * time.Minute)

	keys, err := index.Drain(ctx, "account-1")
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected expired index to drain empty, got %v, %v", keys, err)
	}
}

func TestSessionIndex_RejectsEmptyInput(t *testing.T) {
	client, _ := newTestRedis(t)
	index := NewSessionIndex(client, "")

	if err := index.Add(context.Background(), "", "session_a", time.Hour); err == nil {
		t.Fatalf("expected error for empty account id")
	}
	if err := index.Add(context.Background(), "account-1", "session_a", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}
