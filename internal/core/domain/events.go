package domain

import "time"

// AccountRegisteredEvent is emitted when a registration is staged for verification.
type AccountRegisteredEvent struct {
	EventID      string
	Email        string
	Username     string
	RegisteredAt time.Time
	ExpiresAt    time.Time
}

// AccountVerifiedEvent is emitted once the verification token resolves and the account row exists.
type AccountVerifiedEvent struct {
	EventID    string
	AccountID  string
	Email      string
	Username   string
	VerifiedAt time.Time
}

// SessionEvent is emitted on login and logout.
type SessionEvent struct {
	EventID    string
	AccountID  string
	Action     string
	OccurredAt time.Time
	ExpiresAt  *time.Time
}

// PasswordResetRequestedEvent is emitted when a reset token is issued for an existing account.
type PasswordResetRequestedEvent struct {
	EventID     string
	AccountID   string
	RequestedAt time.Time
	ExpiresAt   time.Time
}

// PasswordChangedEvent is emitted after a reset token has been redeemed.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Source    string
}

// AccountDeletedEvent is emitted after an account row has been removed.
type AccountDeletedEvent struct {
	EventID   string
	AccountID string
	Email     string
	DeletedAt time.Time
}

const (
	SessionActionLogin  = "login"
	SessionActionLogout = "logout"
)
