package usecase

import (
	"context"
	"time"

	uuid "github.com/google/uuid"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/core/port"
)

// PublishLifecycleEvents registers after-hooks that forward every lifecycle
// transition to publisher.
func PublishLifecycleEvents(hooks *Hooks, publisher port.EventPublisher, clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}

	hooks.OnAfterRegister(func(ctx context.Context, pending domain.PendingRegistration, expiresAt time.Time) error {
		return publisher.PublishAccountRegistered(ctx, domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			Email:        pending.Email,
			Username:     pending.Username,
			RegisteredAt: pending.RequestedAt,
			ExpiresAt:    expiresAt,
		})
	})

	hooks.OnAfterVerify(func(ctx context.Context, account domain.Account) error {
		return publisher.PublishAccountVerified(ctx, domain.AccountVerifiedEvent{
			EventID:    uuid.NewString(),
			AccountID:  account.ID,
			Email:      account.Email,
			Username:   account.Username,
			VerifiedAt: account.CreatedAt,
		})
	})

	hooks.OnAfterLogin(func(ctx context.Context, account domain.Account, expiresAt time.Time) error {
		return publisher.PublishSession(ctx, domain.SessionEvent{
			EventID:    uuid.NewString(),
			AccountID:  account.ID,
			Action:     domain.SessionActionLogin,
			OccurredAt: clock().UTC(),
			ExpiresAt:  &expiresAt,
		})
	})

	hooks.OnAfterLogout(func(ctx context.Context, accountID string) error {
		return publisher.PublishSession(ctx, domain.SessionEvent{
			EventID:    uuid.NewString(),
			AccountID:  accountID,
			Action:     domain.SessionActionLogout,
			OccurredAt: clock().UTC(),
		})
	})

	hooks.OnAfterForgotPassword(func(ctx context.Context, account domain.Account, expiresAt time.Time) error {
		return publisher.PublishPasswordResetRequested(ctx, domain.PasswordResetRequestedEvent{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			RequestedAt: clock().UTC(),
			ExpiresAt:   expiresAt,
		})
	})

	hooks.OnAfterResetPassword(func(ctx context.Context, account domain.Account) error {
		return publisher.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			ChangedAt: account.PasswordChangedAt,
			Source:    "password_reset",
		})
	})

	hooks.OnAfterDelete(func(ctx context.Context, account domain.Account) error {
		return publisher.PublishAccountDeleted(ctx, domain.AccountDeletedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			Email:     account.Email,
			DeletedAt: clock().UTC(),
		})
	})
}
