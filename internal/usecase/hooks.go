package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/domain"
)

// RegisterHook runs after a registration has been staged for verification.
type RegisterHook func(ctx context.Context, pending domain.PendingRegistration, expiresAt time.Time) error

// AccountHook runs with the account a lifecycle step acted on.
type AccountHook func(ctx context.Context, account domain.Account) error

// ExpiringAccountHook runs after a step that minted a token for account.
type ExpiringAccountHook func(ctx context.Context, account domain.Account, expiresAt time.Time) error

// LogoutHook runs after a session has been removed.
type LogoutHook func(ctx context.Context, accountID string) error

// Hooks holds the callbacks registered against the account lifecycle. After
// hooks run in registration order; their errors are logged and never fail the
// operation. Before-delete hooks can veto a deletion.
type Hooks struct {
	mu                  sync.RWMutex
	afterRegister       []RegisterHook
	afterVerify         []AccountHook
	afterLogin          []ExpiringAccountHook
	afterLogout         []LogoutHook
	afterForgotPassword []ExpiringAccountHook
	afterResetPassword  []AccountHook
	beforeDelete        []AccountHook
	afterDelete         []AccountHook
}

func (h *Hooks) OnAfterRegister(fn RegisterHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterRegister = append(h.afterRegister, fn)
}

func (h *Hooks) OnAfterVerify(fn AccountHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterVerify = append(h.afterVerify, fn)
}

func (h *Hooks) OnAfterLogin(fn ExpiringAccountHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterLogin = append(h.afterLogin, fn)
}

func (h *Hooks) OnAfterLogout(fn LogoutHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterLogout = append(h.afterLogout, fn)
}

func (h *Hooks) OnAfterForgotPassword(fn ExpiringAccountHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterForgotPassword = append(h.afterForgotPassword, fn)
}

func (h *Hooks) OnAfterResetPassword(fn AccountHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterResetPassword = append(h.afterResetPassword, fn)
}

// OnBeforeDelete registers a hook that may veto deletion by returning an error.
func (h *Hooks) OnBeforeDelete(fn AccountHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeDelete = append(h.beforeDelete, fn)
}

func (h *Hooks) OnAfterDelete(fn AccountHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterDelete = append(h.afterDelete, fn)
}

func (h *Hooks) runAfterRegister(ctx context.Context, log *zap.Logger, pending domain.PendingRegistration, expiresAt time.Time) {
	h.mu.RLock()
	hooks := h.afterRegister
	h.mu.RUnlock()
	for _, fn := range hooks {
		if err := fn(ctx, pending, expiresAt); err != nil {
			log.Warn("after-register hook failed", zap.Error(err))
		}
	}
}

func (h *Hooks) runAccount(ctx context.Context, log *zap.Logger, name string, hooks []AccountHook, account domain.Account) {
	for _, fn := range hooks {
		if err := fn(ctx, account); err != nil {
			log.Warn(name+" hook failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}
}

func (h *Hooks) runExpiring(ctx context.Context, log *zap.Logger, name string, hooks []ExpiringAccountHook, account domain.Account, expiresAt time.Time) {
	for _, fn := range hooks {
		if err := fn(ctx, account, expiresAt); err != nil {
			log.Warn(name+" hook failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}
}

func (h *Hooks) runAfterVerify(ctx context.Context, log *zap.Logger, account domain.Account) {
	h.mu.RLock()
	hooks := h.afterVerify
	h.mu.RUnlock()
	h.runAccount(ctx, log, "after-verify", hooks, account)
}

func (h *Hooks) runAfterLogin(ctx context.Context, log *zap.Logger, account domain.Account, expiresAt time.Time) {
	h.mu.RLock()
	hooks := h.afterLogin
	h.mu.RUnlock()
	h.runExpiring(ctx, log, "after-login", hooks, account, expiresAt)
}

func (h *Hooks) runAfterLogout(ctx context.Context, log *zap.Logger, accountID string) {
	h.mu.RLock()
	hooks := h.afterLogout
	h.mu.RUnlock()
	for _, fn := range hooks {
		if err := fn(ctx, accountID); err != nil {
			log.Warn("after-logout hook failed", zap.String("account_id", accountID), zap.Error(err))
		}
	}
}

func (h *Hooks) runAfterForgotPassword(ctx context.Context, log *zap.Logger, account domain.Account, expiresAt time.Time) {
	h.mu.RLock()
	hooks := h.afterForgotPassword
	h.mu.RUnlock()
	h.runExpiring(ctx, log, "after-forgot-password", hooks, account, expiresAt)
}

func (h *Hooks) runAfterResetPassword(ctx context.Context, log *zap.Logger, account domain.Account) {
	h.mu.RLock()
	hooks := h.afterResetPassword
	h.mu.RUnlock()
	h.runAccount(ctx, log, "after-reset-password", hooks, account)
}

// runBeforeDelete stops at the first veto.
func (h *Hooks) runBeforeDelete(ctx context.Context, account domain.Account) error {
	h.mu.RLock()
	hooks := h.beforeDelete
	h.mu.RUnlock()
	for _, fn := range hooks {
		if err := fn(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runAfterDelete(ctx context.Context, log *zap.Logger, account domain.Account) {
	h.mu.RLock()
	hooks := h.afterDelete
	h.mu.RUnlock()
	h.runAccount(ctx, log, "after-delete", hooks, account)
}
