package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/repository"
)

// ProfileUpdate lists the profile fields a caller may change. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName    *string
	PhoneNumber *string
}

// GetAccount returns the account without its password hash.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	return account.Sanitized(), nil
}

// UpdateProfile changes the full name and phone number of an account.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (domain.Account, error) {
	if update.FullName == nil && update.PhoneNumber == nil {
		return domain.Account{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}

	if update.FullName != nil {
		account.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.PhoneNumber != nil {
		account.PhoneNumber = strings.TrimSpace(*update.PhoneNumber)
	}
	account.UpdatedAt = s.now().UTC()

	if err := s.accounts.Update(ctx, *account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, storeUnavailable("update profile", err)
	}
	return account.Sanitized(), nil
}

// DeleteAccount removes the account after every before-delete hook agreed,
// then revokes the caller's session and every other indexed session of the
// account.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID, sessionKey string) (err error) {
	ctx, finish := s.start(ctx, opDelete)
	defer func() { finish(err) }()

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.hooks.runBeforeDelete(ctx, *account); err != nil {
		return fmt.Errorf("%w: %w", ErrDeletionRejected, err)
	}

	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return storeUnavailable("delete account", err)
	}

	s.revokeSessions(ctx, account.ID, sessionKey)

	s.log(ctx).Info("account deleted", zap.String("account_id", account.ID))
	s.hooks.runAfterDelete(ctx, s.log(ctx), *account)
	return nil
}

func (s *AccountService) revokeSessions(ctx context.Context, accountID, callerKey string) {
	keys := []string{}
	if callerKey != "" {
		keys = append(keys, callerKey)
	}
	if s.sessions != nil {
		indexed, err := s.sessions.Drain(ctx, accountID)
		if err != nil {
			s.log(ctx).Error("list sessions of deleted account", zap.String("account_id", accountID), zap.Error(err))
		}
		for _, key := range indexed {
			if key != callerKey {
				keys = append(keys, key)
			}
		}
	}

	for _, key := range keys {
		if err := s.tokens.Delete(ctx, domain.TokenPurposeSession, key); err != nil {
			s.log(ctx).Error("drop session of deleted account", zap.String("account_id", accountID), zap.Error(err))
		}
	}
}

func (s *AccountService) loadAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrAccountNotFound
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, storeUnavailable("load account", err)
	}
	return account, nil
}
