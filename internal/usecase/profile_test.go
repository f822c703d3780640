package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssuresh1228/finapp/internal/core/domain"
)

func TestGetAccountIsSanitized(t *testing.T) {
	h := newHarness(t)
	account := h.registerAndVerify(t, validRegistration())

	got, err := h.svc.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Empty(t, got.PasswordHash)

	_, err = h.svc.GetAccount(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	account := h.registerAndVerify(t, validRegistration())

	_, err := h.svc.UpdateProfile(context.Background(), account.ID, ProfileUpdate{})
	require.ErrorIs(t, err, ErrInvalidInput)

	name := "  Jane Q. Doe "
	updated, err := h.svc.UpdateProfile(context.Background(), account.ID, ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Doe", updated.FullName)
	assert.Equal(t, "5551234567", updated.PhoneNumber, "unset fields stay untouched")

	stored, err := h.accounts.GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Doe", stored.FullName)
	assert.Equal(t, plainHash("saffron-lantern"), stored.PasswordHash)
}

func TestDeleteAccountDropsSession(t *testing.T) {
	h := newHarness(t)
	account := h.registerAndVerify(t, validRegistration())
	login, err := h.svc.Login(context.Background(), "jane@example.com", "saffron-lantern")
	require.NoError(t, err)

	var deleted []string
	h.svc.Hooks().OnAfterDelete(func(_ context.Context, a domain.Account) error {
		deleted = append(deleted, a.ID)
		return nil
	})

	require.NoError(t, h.svc.DeleteAccount(context.Background(), account.ID, login.SessionKey))
	assert.Equal(t, []string{account.ID}, deleted)
	assert.Zero(t, h.accounts.count())
	assert.Empty(t, h.tokens.keys(domain.TokenPurposeSession))

	require.ErrorIs(t, h.svc.DeleteAccount(context.Background(), account.ID, ""), ErrAccountNotFound)
}

func TestDeleteAccountRevokesEverySession(t *testing.T) {
	h := newHarness(t)
	account := h.registerAndVerify(t, validRegistration())
	guard := NewSessionGuard(h.tokens, DefaultExemptPaths)

	phone, err := h.svc.Login(context.Background(), "jane@example.com", "saffron-lantern")
	require.NoError(t, err)
	laptop, err := h.svc.Login(context.Background(), "jane@example.com", "saffron-lantern")
	require.NoError(t, err)
	assert.Equal(t, 2, h.sessions.count(account.ID))

	require.NoError(t, h.svc.DeleteAccount(context.Background(), account.ID, phone.SessionKey))

	_, err = guard.Authorize(context.Background(), "/auth/me", laptop.SessionKey)
	require.ErrorIs(t, err, ErrInvalidSession)
	assert.Empty(t, h.tokens.keys(domain.TokenPurposeSession))
	assert.Zero(t, h.sessions.count(account.ID))
}

func TestDeleteAccountVeto(t *testing.T) {
	h := newHarness(t)
	account := h.registerAndVerify(t, validRegistration())

	errOpenBalance := errors.New("account still holds a balance")
	h.svc.Hooks().OnBeforeDelete(func(context.Context, domain.Account) error {
		return errOpenBalance
	})
	afterCalled := false
	h.svc.Hooks().OnAfterDelete(func(context.Context, domain.Account) error {
		afterCalled = true
		return nil
	})

	err := h.svc.DeleteAccount(context.Background(), account.ID, "")
	require.ErrorIs(t, err, ErrDeletionRejected)
	require.ErrorIs(t, err, errOpenBalance)
	assert.False(t, afterCalled)
	assert.Equal(t, 1, h.accounts.count())
}
