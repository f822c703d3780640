package port

import "github.com/ssuresh1228/finapp/internal/core/domain"

// PasswordPolicyValidator enforces password rules against the owning account's identity.
type PasswordPolicyValidator interface {
	Validate(password string, identity domain.IdentityFields) error
}

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
	Algorithm() string
}
