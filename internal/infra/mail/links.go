package mail

import (
	"net/url"
	"strings"
)

// Links renders the frontend URLs embedded in lifecycle emails.
type Links struct {
	base string
}

// NewLinks returns a link builder rooted at frontendURL.
func NewLinks(frontendURL string) Links {
	return Links{base: strings.TrimRight(strings.TrimSpace(frontendURL), "/")}
}

// VerificationURL points at the frontend page that confirms an email address.
func (l Links) VerificationURL(token string) string {
	return l.build("/auth/verify", "verify_token", token)
}

// PasswordResetURL points at the frontend page that collects a new password.
func (l Links) PasswordResetURL(token string) string {
	return l.build("/auth/reset_password", "reset_token", token)
}

func (l Links) build(path, param, token string) string {
	return l.base + path + "?" + url.Values{param: []string{token}}.Encode()
}
