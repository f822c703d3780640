package domain

// TokenPurpose namespaces entries in the ephemeral token store. A key minted
// for one purpose can never be read back under another.
type TokenPurpose string

const (
	TokenPurposeVerification  TokenPurpose = "verify"
	TokenPurposeSession       TokenPurpose = "session"
	TokenPurposePasswordReset TokenPurpose = "reset_password"
)

// Valid reports whether p is one of the known purposes.
func (p TokenPurpose) Valid() bool {
	switch p {
	case TokenPurposeVerification, TokenPurposeSession, TokenPurposePasswordReset:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (p TokenPurpose) String() string {
	return string(p)
}
