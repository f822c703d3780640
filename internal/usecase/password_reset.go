package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/infra/logger"
	"github.com/ssuresh1228/finapp/internal/infra/security"
	"github.com/ssuresh1228/finapp/internal/repository"
)

// ForgotPassword starts a password reset for email. The result is identical
// whether or not the account exists: a missing account returns nil, and for an
// existing one the reset token is minted and mailed off the request path so
// response timing does not reveal the difference. Only a failure of the
// lookup itself is reported.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (err error) {
	ctx, finish := s.start(ctx, opForgotPassword)
	defer func() { finish(err) }()

	email = domain.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log(ctx).Info("password reset requested for unknown email", zap.String("email", logger.MaskEmail(email)))
			return nil
		}
		return storeUnavailable("lookup account", err)
	}
	if !account.IsVerified || !account.IsActive {
		return nil
	}

	found := *account
	s.goBackground(ctx, func(ctx context.Context) {
		s.issueResetToken(ctx, found)
	})
	return nil
}

func (s *AccountService) issueResetToken(ctx context.Context, account domain.Account) {
	log := s.log(ctx).With(zap.String("account_id", account.ID))

	token, err := security.GeneratePrefixedToken(string(domain.TokenPurposePasswordReset))
	if err != nil {
		log.Error("generate reset token", zap.Error(err))
		return
	}
	if err := s.tokens.Set(ctx, domain.TokenPurposePasswordReset, token, account.ID, s.ttl.Reset); err != nil {
		log.Error("store reset token", zap.Error(err))
		return
	}
	if err := s.mailer.SendPasswordResetEmail(ctx, account.Email, s.links.PasswordResetURL(token)); err != nil {
		log.Error("send password reset email", zap.Error(err))
		if delErr := s.tokens.Delete(ctx, domain.TokenPurposePasswordReset, token); delErr != nil {
			log.Warn("drop undeliverable reset token", zap.Error(delErr))
		}
		return
	}

	expiresAt := s.now().UTC().Add(s.ttl.Reset)
	log.Info("password reset issued", zap.Time("expires_at", expiresAt))
	s.hooks.runAfterForgotPassword(ctx, log, account, expiresAt)
}

// ResetPassword redeems a reset token and replaces the account's password.
// The policy is checked against the stored account before the token is
// consumed, so a rejected password leaves the token usable.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	ctx, finish := s.start(ctx, opResetPassword)
	defer func() { finish(err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidOrExpiredToken
	}

	accountID, err := s.tokens.Get(ctx, domain.TokenPurposePasswordReset, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storeUnavailable("read reset token", err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if delErr := s.tokens.Delete(ctx, domain.TokenPurposePasswordReset, token); delErr != nil {
				s.log(ctx).Warn("drop orphaned reset token", zap.Error(delErr))
			}
			return ErrAccountNotFound
		}
		return storeUnavailable("load account", err)
	}

	if err := s.policy.Validate(newPassword, account.Identity()); err != nil {
		return weakPassword(err)
	}

	taken, remaining, err := s.tokens.Take(ctx, domain.TokenPurposePasswordReset, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storeUnavailable("take reset token", err)
	}
	if taken != accountID {
		return ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.restoreToken(ctx, domain.TokenPurposePasswordReset, token, taken, remaining)
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account.PasswordHash = hash
	account.PasswordAlgo = s.hasher.Algorithm()
	account.PasswordChangedAt = now
	account.UpdatedAt = now

	if err := s.accounts.Update(ctx, *account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		s.restoreToken(ctx, domain.TokenPurposePasswordReset, token, taken, remaining)
		return storeUnavailable("update password", err)
	}

	s.log(ctx).Info("password reset completed", zap.String("account_id", account.ID))

	changed := *account
	s.goBackground(ctx, func(ctx context.Context) {
		if err := s.mailer.SendPasswordChangeConfirmation(ctx, changed.Email); err != nil {
			s.log(ctx).Error("send password change confirmation",
				zap.String("account_id", changed.ID),
				zap.Error(err),
			)
		}
	})
	s.hooks.runAfterResetPassword(ctx, s.log(ctx), changed)
	return nil
}
