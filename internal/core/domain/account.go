package domain

import (
	"strings"
	"time"
)

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID                string
	Email             string
	Username          string
	FullName          string
	PhoneNumber       string
	PasswordHash      string
	PasswordAlgo      string
	IsVerified        bool
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PasswordChangedAt time.Time
}

// Identity returns the fields a password must not embed.
func (a Account) Identity() IdentityFields {
	return IdentityFields{
		Email:       a.Email,
		PhoneNumber: a.PhoneNumber,
		FullName:    a.FullName,
	}
}

// Sanitized returns a copy safe to hand to transport layers.
func (a Account) Sanitized() Account {
	a.PasswordHash = ""
	return a
}

// PendingRegistration is the payload staged in the token store until the
// owner of the email address follows the verification link. It never carries
// the plaintext password.
type PendingRegistration struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullname"`
	PhoneNumber  string    `json:"phone_number"`
	PasswordHash string    `json:"password_hash"`
	PasswordAlgo string    `json:"password_algo"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Identity returns the fields a password must not embed.
func (p PendingRegistration) Identity() IdentityFields {
	return IdentityFields{
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		FullName:    p.FullName,
	}
}

// IdentityFields carries the owner details consulted by the password policy.
type IdentityFields struct {
	Email       string
	PhoneNumber string
	FullName    string
}

// NormalizeEmail trims and lower-cases an email address for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
