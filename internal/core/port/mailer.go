package port

import "context"

// Mailer delivers account lifecycle notifications. Rendering and transport are
// entirely the implementation's concern; callers hand over the recipient and a
// fully formed URL.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, recipient, verificationURL string) error
	SendPasswordResetEmail(ctx context.Context, recipient, resetURL string) error
	SendPasswordChangeConfirmation(ctx context.Context, recipient string) error
}

// LinkBuilder renders the frontend URLs that carry lifecycle tokens.
type LinkBuilder interface {
	VerificationURL(token string) string
	PasswordResetURL(token string) string
}
