package security

import (
	"fmt"
	"strings"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Validation codes reported by the built-in rules.
const (
	CodeMinLength     = "min_length"
	CodeContainsEmail = "contains_email"
	CodeContainsPhone = "contains_phone"
	CodeContainsName  = "contains_name"
	CodeWeakPassword  = "weak_password"
)

// PasswordValidationError represents a single password policy violation.
type PasswordValidationError struct {
	Code    string
	Message string
}

// Error implements error for PasswordValidationError.
func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule validates a password according to a specific policy rule.
type PasswordRule interface {
	Validate(password string) error
}

// PasswordRuleFunc adapts a function to be used as a PasswordRule.
type PasswordRuleFunc func(password string) error

// Validate executes the underlying rule function.
func (f PasswordRuleFunc) Validate(password string) error {
	return f(password)
}

// PasswordValidator applies a sequence of password rules.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// Validate executes all rules in order and returns the first encountered violation.
func (v *PasswordValidator) Validate(password string) error {
	if v == nil {
		return fmt.Errorf("password validator not configured")
	}
	for _, rule := range v.rules {
		if err := rule.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if len([]rune(password)) < min {
			return &PasswordValidationError{
				Code:    CodeMinLength,
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	})
}

// DisallowSubstringRule rejects passwords containing value, compared
// case-insensitively. An empty value disables the rule.
func DisallowSubstringRule(value, code, field string) PasswordRule {
	needle := strings.ToLower(strings.TrimSpace(value))
	return PasswordRuleFunc(func(password string) error {
		if needle == "" {
			return nil
		}
		if strings.Contains(strings.ToLower(password), needle) {
			return &PasswordValidationError{
				Code:    code,
				Message: fmt.Sprintf("password must not contain your %s", field),
			}
		}
		return nil
	})
}

// RequirePasswordStrengthRule enforces a minimum zxcvbn score to reject weak passwords.
func RequirePasswordStrengthRule(minScore int, userInputs ...string) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}

		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score >= minScore {
			return nil
		}

		return &PasswordValidationError{
			Code:    CodeWeakPassword,
			Message: "password is too weak; choose a more complex value",
		}
	})
}
