package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/core/port"
	"github.com/ssuresh1228/finapp/internal/repository"
)

// DefaultExemptPaths are reachable without a session: the flows that create a
// session and the pre-session token flows that cannot carry one.
var DefaultExemptPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/verify",
	"/auth/forgot-password",
	"/auth/reset-password",
	"/healthz",
	"/readyz",
	"/metrics",
}

// SessionGuard decides whether a request may reach a protected operation.
type SessionGuard struct {
	tokens port.TokenStore
	exempt map[string]struct{}
}

// NewSessionGuard builds a guard; paths listed in exempt bypass the session check.
func NewSessionGuard(tokens port.TokenStore, exempt []string) *SessionGuard {
	set := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		set[normalizePath(p)] = struct{}{}
	}
	return &SessionGuard{tokens: tokens, exempt: set}
}

// IsExempt reports whether path skips the session check.
func (g *SessionGuard) IsExempt(path string) bool {
	_, ok := g.exempt[normalizePath(path)]
	return ok
}

// Authorize resolves sessionKey to an account id. Exempt paths return ("", nil).
func (g *SessionGuard) Authorize(ctx context.Context, path, sessionKey string) (string, error) {
	if g.IsExempt(path) {
		return "", nil
	}

	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return "", ErrNoActiveSession
	}

	accountID, err := g.tokens.Get(ctx, domain.TokenPurposeSession, sessionKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidSession
		}
		return "", storeUnavailable("read session", err)
	}
	return accountID, nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
