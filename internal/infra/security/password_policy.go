package security

import (
	"fmt"

	"github.com/ssuresh1228/finapp/internal/core/domain"
)

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 5

// AccountPasswordPolicy checks a candidate password against the owning account's
// identity fields. Rules run in a fixed order: length, email, phone, full name,
// then the optional zxcvbn score.
type AccountPasswordPolicy struct {
	minLength        int
	minStrengthScore int
}

// NewAccountPasswordPolicy builds the account policy. A minStrengthScore of zero
// disables the zxcvbn rule.
func NewAccountPasswordPolicy(minStrengthScore int) *AccountPasswordPolicy {
	return &AccountPasswordPolicy{
		minLength:        MinPasswordLength,
		minStrengthScore: minStrengthScore,
	}
}

// Validate returns the first violated rule as *PasswordValidationError.
func (p *AccountPasswordPolicy) Validate(password string, identity domain.IdentityFields) error {
	if p == nil {
		return fmt.Errorf("password policy not configured")
	}

	inputs := make([]string, 0, 3)
	for _, v := range []string{identity.Email, identity.PhoneNumber, identity.FullName} {
		if v != "" {
			inputs = append(inputs, v)
		}
	}

	validator := NewPasswordValidator(
		MinLengthRule(p.minLength),
		DisallowSubstringRule(identity.Email, CodeContainsEmail, "email address"),
		DisallowSubstringRule(identity.PhoneNumber, CodeContainsPhone, "phone number"),
		DisallowSubstringRule(identity.FullName, CodeContainsName, "name"),
		RequirePasswordStrengthRule(p.minStrengthScore, inputs...),
	)
	return validator.Validate(password)
}
