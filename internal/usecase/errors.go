package usecase

import (
	"errors"
	"fmt"

	"github.com/ssuresh1228/finapp/internal/infra/security"
)

var (
	// ErrDuplicateAccount indicates an account already owns the email address.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrUsernameTaken indicates another account already owns the username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrWeakPassword indicates the password policy rejected the candidate. The
	// wrapped *security.PasswordValidationError names the violated rule.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrInvalidOrExpiredToken indicates a verification or reset token is unknown, consumed or expired.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrAccountNotFound indicates no verified account matches the request.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrNoActiveSession indicates the caller presented no session key.
	ErrNoActiveSession = errors.New("active session not found")
	// ErrInvalidSession indicates the session key is unknown or expired.
	ErrInvalidSession = errors.New("invalid or expired session token")
	// ErrAlreadyVerified indicates another registration for the same identity won the race to verify.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrStoreUnavailable indicates a backing store or mail transport failed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidInput indicates a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDeletionRejected indicates a before-delete hook vetoed account removal.
	ErrDeletionRejected = errors.New("account deletion rejected")
)

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func weakPassword(err error) error {
	return fmt.Errorf("%w: %w", ErrWeakPassword, err)
}

// PasswordViolation extracts the rule violation carried by an ErrWeakPassword error.
func PasswordViolation(err error) (*security.PasswordValidationError, bool) {
	var vErr *security.PasswordValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
