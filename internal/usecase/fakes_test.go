package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/infra/security"
	"github.com/ssuresh1228/finapp/internal/repository"
)

var errTransport = errors.New("connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// accountRepoStub enforces email/username uniqueness under a single lock, like
// a unique index would.
type accountRepoStub struct {
	mu        sync.Mutex
	byID      map[string]domain.Account
	getErr    error
	createErr error
	updateErr error
	creates   int
	updates   int
}

func newAccountRepoStub() *accountRepoStub {
	return &accountRepoStub{byID: map[string]domain.Account{}}
}

func (r *accountRepoStub) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == account.Email || existing.Username == account.Username {
			return repository.ErrDuplicate
		}
	}
	r.byID[account.ID] = account
	return nil
}

func (r *accountRepoStub) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if account, ok := r.byID[id]; ok {
		return &account, nil
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepoStub) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, account := range r.byID {
		if account.Email == email {
			a := account
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepoStub) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, account := range r.byID {
		if account.Username == username {
			a := account
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepoStub) Update(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[account.ID]; !ok {
		return repository.ErrNotFound
	}
	r.byID[account.ID] = account
	return nil
}

func (r *accountRepoStub) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *accountRepoStub) put(account domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[account.ID] = account
}

func (r *accountRepoStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

// tokenStoreStub expires entries against the shared fake clock.
type tokenStoreStub struct {
	mu      sync.Mutex
	clock   *fakeClock
	entries map[string]tokenEntry
	setErr  error
	getErr  error
	takeErr error
}

func newTokenStoreStub(clock *fakeClock) *tokenStoreStub {
	return &tokenStoreStub{clock: clock, entries: map[string]tokenEntry{}}
}

func tokenKey(purpose domain.TokenPurpose, key string) string {
	return string(purpose) + ":" + key
}

func (s *tokenStoreStub) Set(_ context.Context, purpose domain.TokenPurpose, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[tokenKey(purpose, key)] = tokenEntry{value: value, expiresAt: s.clock.Now().Add(ttl)}
	return nil
}

func (s *tokenStoreStub) lookup(purpose domain.TokenPurpose, key string) (tokenEntry, bool) {
	entry, ok := s.entries[tokenKey(purpose, key)]
	if !ok || !s.clock.Now().Before(entry.expiresAt) {
		return tokenEntry{}, false
	}
	return entry, true
}

func (s *tokenStoreStub) Get(_ context.Context, purpose domain.TokenPurpose, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	entry, ok := s.lookup(purpose, key)
	if !ok {
		return "", repository.ErrNotFound
	}
	return entry.value, nil
}

func (s *tokenStoreStub) Take(_ context.Context, purpose domain.TokenPurpose, key string) (string, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.takeErr != nil {
		return "", 0, s.takeErr
	}
	entry, ok := s.lookup(purpose, key)
	if !ok {
		return "", 0, repository.ErrNotFound
	}
	delete(s.entries, tokenKey(purpose, key))
	return entry.value, entry.expiresAt.Sub(s.clock.Now()), nil
}

func (s *tokenStoreStub) Delete(_ context.Context, purpose domain.TokenPurpose, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tokenKey(purpose, key))
	return nil
}

// keys lists the live tokens for purpose.
func (s *tokenStoreStub) keys(purpose domain.TokenPurpose) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	prefix := string(purpose) + ":"
	now := s.clock.Now()
	for k, entry := range s.entries {
		if strings.HasPrefix(k, prefix) && now.Before(entry.expiresAt) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	return out
}

type sessionIndexStub struct {
	mu     sync.Mutex
	byID   map[string]map[string]struct{}
	addErr error
}

func newSessionIndexStub() *sessionIndexStub {
	return &sessionIndexStub{byID: map[string]map[string]struct{}{}}
}

func (i *sessionIndexStub) Add(_ context.Context, accountID, sessionKey string, _ time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.addErr != nil {
		return i.addErr
	}
	if i.byID[accountID] == nil {
		i.byID[accountID] = map[string]struct{}{}
	}
	i.byID[accountID][sessionKey] = struct{}{}
	return nil
}

func (i *sessionIndexStub) Remove(_ context.Context, accountID, sessionKey string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.byID[accountID], sessionKey)
	return nil
}

func (i *sessionIndexStub) Drain(_ context.Context, accountID string) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []string
	for key := range i.byID[accountID] {
		out = append(out, key)
	}
	delete(i.byID, accountID)
	return out, nil
}

func (i *sessionIndexStub) count(accountID string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.byID[accountID])
}

// plainHasher keeps tests fast; the real hasher is covered in security.
// It is one-way so tests can still assert plaintext never reaches storage.
type plainHasher struct{}

func plainHash(password string) string {
	return "plain$" + security.HashToken(password)
}

func (plainHasher) Hash(password string) (string, error) { return plainHash(password), nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == plainHash(password), nil
}

func (plainHasher) Algorithm() string { return "plain" }

type sentMail struct {
	kind      string
	recipient string
	url       string
}

type mailerStub struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mailerStub) record(kind, recipient, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, recipient: recipient, url: url})
	return nil
}

func (m *mailerStub) SendVerificationEmail(_ context.Context, recipient, url string) error {
	return m.record("verify", recipient, url)
}

func (m *mailerStub) SendPasswordResetEmail(_ context.Context, recipient, url string) error {
	return m.record("reset", recipient, url)
}

func (m *mailerStub) SendPasswordChangeConfirmation(_ context.Context, recipient string) error {
	return m.record("changed", recipient, "")
}

func (m *mailerStub) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type linksStub struct{}

func (linksStub) VerificationURL(token string) string {
	return "http://app/auth/verify?verify_token=" + token
}

func (linksStub) PasswordResetURL(token string) string {
	return "http://app/auth/reset_password?reset_token=" + token
}
