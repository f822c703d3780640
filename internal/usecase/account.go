package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/core/port"
	"github.com/ssuresh1228/finapp/internal/infra/logger"
	"github.com/ssuresh1228/finapp/internal/infra/security"
	"github.com/ssuresh1228/finapp/internal/repository"
)

const (
	defaultVerificationTTL = 10 * time.Minute
	defaultSessionTTL      = 24 * time.Hour
	defaultResetTTL        = 10 * time.Minute

	tracerName = "github.com/ssuresh1228/finapp/internal/usecase"
)

// TokenTTLs holds the lifetimes of verification tokens, session keys and reset tokens.
type TokenTTLs struct {
	Verification time.Duration
	Session      time.Duration
	Reset        time.Duration
}

// AccountService drives the account lifecycle:
// Unregistered -> PendingVerification -> Verified -> SessionActive, with the
// password reset side channel Verified -> PasswordResetRequested -> Verified.
type AccountService struct {
	accounts port.AccountRepository
	tokens   port.TokenStore
	hasher   port.PasswordHasher
	policy   port.PasswordPolicyValidator
	mailer   port.Mailer
	links    port.LinkBuilder
	sessions port.SessionIndex

	hooks   *Hooks
	metrics *LifecycleMetrics
	tracer  trace.Tracer
	logger  *zap.Logger
	now     func() time.Time
	ttl     TokenTTLs

	background sync.WaitGroup
}

// AccountServiceOption customises an AccountService.
type AccountServiceOption func(*AccountService)

// WithTokenTTLs overrides the token lifetimes; zero values keep the defaults.
func WithTokenTTLs(ttl TokenTTLs) AccountServiceOption {
	return func(s *AccountService) {
		if ttl.Verification > 0 {
			s.ttl.Verification = ttl.Verification
		}
		if ttl.Session > 0 {
			s.ttl.Session = ttl.Session
		}
		if ttl.Reset > 0 {
			s.ttl.Reset = ttl.Reset
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) AccountServiceOption {
	return func(s *AccountService) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock overrides the time source, used in tests.
func WithClock(clock func() time.Time) AccountServiceOption {
	return func(s *AccountService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithMetrics attaches lifecycle counters.
func WithMetrics(m *LifecycleMetrics) AccountServiceOption {
	return func(s *AccountService) {
		s.metrics = m
	}
}

// WithSessionIndex tracks session keys per account so that deleting an
// account revokes all of its sessions, not only the caller's.
func WithSessionIndex(index port.SessionIndex) AccountServiceOption {
	return func(s *AccountService) {
		s.sessions = index
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) AccountServiceOption {
	return func(s *AccountService) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewAccountService wires the lifecycle manager to its collaborators.
func NewAccountService(
	accounts port.AccountRepository,
	tokens port.TokenStore,
	hasher port.PasswordHasher,
	policy port.PasswordPolicyValidator,
	mailer port.Mailer,
	links port.LinkBuilder,
	opts ...AccountServiceOption,
) *AccountService {
	s := &AccountService{
		accounts: accounts,
		tokens:   tokens,
		hasher:   hasher,
		policy:   policy,
		mailer:   mailer,
		links:    links,
		hooks:    &Hooks{},
		tracer:   otel.Tracer(tracerName),
		logger:   zap.NewNop(),
		now:      time.Now,
		ttl: TokenTTLs{
			Verification: defaultVerificationTTL,
			Session:      defaultSessionTTL,
			Reset:        defaultResetTTL,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hooks exposes the lifecycle callback registry.
func (s *AccountService) Hooks() *Hooks {
	return s.hooks
}

// SessionTTL reports how long a freshly minted session key lives.
func (s *AccountService) SessionTTL() time.Duration {
	return s.ttl.Session
}

// Wait blocks until background mail deliveries finish or ctx is done.
func (s *AccountService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email       string
	Username    string
	FullName    string
	PhoneNumber string
	Password    string
}

// RegistrationResult describes a staged registration.
type RegistrationResult struct {
	Token     string
	ExpiresAt time.Time
}

// Register validates the form, stages a pending registration under a fresh
// verification token and emails the verification link. Nothing is written to
// the account store until Verify succeeds.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (result RegistrationResult, err error) {
	ctx, finish := s.start(ctx, opRegister)
	defer func() { finish(err) }()

	in.Email = domain.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	switch {
	case in.Email == "":
		return RegistrationResult{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case in.Username == "":
		return RegistrationResult{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	case in.Password == "":
		return RegistrationResult{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return RegistrationResult{}, ErrDuplicateAccount
	} else if !errors.Is(err, repository.ErrNotFound) {
		return RegistrationResult{}, storeUnavailable("lookup account", err)
	}
	if _, err := s.accounts.GetByUsername(ctx, in.Username); err == nil {
		return RegistrationResult{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return RegistrationResult{}, storeUnavailable("lookup username", err)
	}

	pending := domain.PendingRegistration{
		Email:       in.Email,
		Username:    in.Username,
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
	}
	if err := s.policy.Validate(in.Password, pending.Identity()); err != nil {
		return RegistrationResult{}, weakPassword(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	pending.PasswordHash = hash
	pending.PasswordAlgo = s.hasher.Algorithm()
	pending.RequestedAt = now

	payload, err := json.Marshal(pending)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("encode pending registration: %w", err)
	}

	token, err := security.GeneratePrefixedToken(string(domain.TokenPurposeVerification))
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.tokens.Set(ctx, domain.TokenPurposeVerification, token, string(payload), s.ttl.Verification); err != nil {
		return RegistrationResult{}, storeUnavailable("store verification token", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, in.Email, s.links.VerificationURL(token)); err != nil {
		if delErr := s.tokens.Delete(ctx, domain.TokenPurposeVerification, token); delErr != nil {
			s.log(ctx).Warn("drop undeliverable verification token", zap.Error(delErr))
		}
		return RegistrationResult{}, storeUnavailable("send verification email", err)
	}

	expiresAt := now.Add(s.ttl.Verification)
	s.log(ctx).Info("registration pending verification",
		zap.String("email", logger.MaskEmail(in.Email)),
		zap.String("username", in.Username),
		zap.Time("expires_at", expiresAt),
	)
	s.hooks.runAfterRegister(ctx, s.log(ctx), pending, expiresAt)

	return RegistrationResult{Token: token, ExpiresAt: expiresAt}, nil
}

// Verify redeems a verification token and creates the account. The token is
// consumed atomically, so of two concurrent calls only one gets the payload.
// When a transport failure prevents the account from being created the token
// is put back with the TTL it had left.
func (s *AccountService) Verify(ctx context.Context, token string) (account domain.Account, err error) {
	ctx, finish := s.start(ctx, opVerify)
	defer func() { finish(err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Account{}, ErrInvalidOrExpiredToken
	}

	raw, remaining, err := s.tokens.Take(ctx, domain.TokenPurposeVerification, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidOrExpiredToken
		}
		return domain.Account{}, storeUnavailable("take verification token", err)
	}
	restore := func() {
		s.restoreToken(ctx, domain.TokenPurposeVerification, token, raw, remaining)
	}

	var pending domain.PendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		s.log(ctx).Error("discarding undecodable pending registration", zap.Error(err))
		return domain.Account{}, ErrInvalidOrExpiredToken
	}

	if _, err := s.accounts.GetByEmail(ctx, pending.Email); err == nil {
		return domain.Account{}, ErrAlreadyVerified
	} else if !errors.Is(err, repository.ErrNotFound) {
		restore()
		return domain.Account{}, storeUnavailable("lookup account", err)
	}
	if _, err := s.accounts.GetByUsername(ctx, pending.Username); err == nil {
		return domain.Account{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		restore()
		return domain.Account{}, storeUnavailable("lookup username", err)
	}

	now := s.now().UTC()
	account = domain.Account{
		ID:                uuid.NewString(),
		Email:             pending.Email,
		Username:          pending.Username,
		FullName:          pending.FullName,
		PhoneNumber:       pending.PhoneNumber,
		PasswordHash:      pending.PasswordHash,
		PasswordAlgo:      pending.PasswordAlgo,
		IsVerified:        true,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
		PasswordChangedAt: pending.RequestedAt,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Account{}, s.duplicateCause(ctx, pending.Email)
		}
		restore()
		return domain.Account{}, storeUnavailable("create account", err)
	}

	s.log(ctx).Info("account verified",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)
	s.hooks.runAfterVerify(ctx, s.log(ctx), account)

	return account.Sanitized(), nil
}

// duplicateCause tells which unique index rejected a verified account. The
// email index means another registration for the same address won; otherwise
// the username was claimed in between.
func (s *AccountService) duplicateCause(ctx context.Context, email string) error {
	if _, err := s.accounts.GetByEmail(ctx, email); errors.Is(err, repository.ErrNotFound) {
		return ErrUsernameTaken
	}
	return ErrAlreadyVerified
}

// LoginResult carries the session minted for a successful login.
type LoginResult struct {
	SessionKey string
	ExpiresAt  time.Time
	Account    domain.Account
}

// Login checks credentials for a verified, active account and mints a session key.
func (s *AccountService) Login(ctx context.Context, email, password string) (result LoginResult, err error) {
	ctx, finish := s.start(ctx, opLogin)
	defer func() { finish(err) }()

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrAccountNotFound
		}
		return LoginResult{}, storeUnavailable("lookup account", err)
	}
	if !account.IsVerified {
		return LoginResult{}, ErrAccountNotFound
	}
	if !account.IsActive {
		return LoginResult{}, ErrInactiveAccount
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	key, err := security.GeneratePrefixedToken(string(domain.TokenPurposeSession))
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session key: %w", err)
	}
	if err := s.tokens.Set(ctx, domain.TokenPurposeSession, key, account.ID, s.ttl.Session); err != nil {
		return LoginResult{}, storeUnavailable("store session", err)
	}
	if s.sessions != nil {
		if err := s.sessions.Add(ctx, account.ID, key, s.ttl.Session); err != nil {
			// An unindexed session would survive account deletion.
			if delErr := s.tokens.Delete(context.WithoutCancel(ctx), domain.TokenPurposeSession, key); delErr != nil {
				s.log(ctx).Warn("drop unindexed session", zap.Error(delErr))
			}
			return LoginResult{}, storeUnavailable("index session", err)
		}
	}

	expiresAt := s.now().UTC().Add(s.ttl.Session)
	s.log(ctx).Info("login succeeded",
		zap.String("account_id", account.ID),
		zap.String("session", logger.MaskToken(key)),
	)
	s.hooks.runAfterLogin(ctx, s.log(ctx), *account, expiresAt)

	return LoginResult{SessionKey: key, ExpiresAt: expiresAt, Account: account.Sanitized()}, nil
}

// Logout deletes the session behind sessionKey.
func (s *AccountService) Logout(ctx context.Context, sessionKey string) (err error) {
	ctx, finish := s.start(ctx, opLogout)
	defer func() { finish(err) }()

	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return ErrNoActiveSession
	}

	accountID, _, err := s.tokens.Take(ctx, domain.TokenPurposeSession, sessionKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidSession
		}
		return storeUnavailable("delete session", err)
	}

	if s.sessions != nil {
		if err := s.sessions.Remove(ctx, accountID, sessionKey); err != nil {
			s.log(ctx).Warn("unindex session", zap.String("account_id", accountID), zap.Error(err))
		}
	}

	s.log(ctx).Info("logout", zap.String("account_id", accountID))
	s.hooks.runAfterLogout(ctx, s.log(ctx), accountID)
	return nil
}

func (s *AccountService) restoreToken(ctx context.Context, purpose domain.TokenPurpose, token, value string, remaining time.Duration) {
	if remaining <= 0 {
		return
	}
	if err := s.tokens.Set(context.WithoutCancel(ctx), purpose, token, value, remaining); err != nil {
		s.log(ctx).Error("restore consumed token",
			zap.String("purpose", purpose.String()),
			zap.String("token", logger.MaskToken(token)),
			zap.Error(err),
		)
	}
}

// goBackground runs fn off the request path; Wait drains it at shutdown.
func (s *AccountService) goBackground(ctx context.Context, fn func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn(detached)
	}()
}

func (s *AccountService) log(ctx context.Context) *zap.Logger {
	return logger.WithContext(s.logger, ctx)
}

// start opens a span for operation and returns a finisher recording the outcome.
func (s *AccountService) start(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "account."+operation)
	return ctx, func(err error) {
		span.SetAttributes(attribute.String("finapp.outcome", outcome(err)))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.observe(operation, err)
	}
}
