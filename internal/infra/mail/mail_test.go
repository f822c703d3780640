package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssuresh1228/finapp/internal/infra/config"
)

func TestLinks(t *testing.T) {
	links := NewLinks("http://localhost:3000/")

	assert.Equal(t, "http://localhost:3000/auth/verify?verify_token=verify_abc", links.VerificationURL("verify_abc"))
	assert.Equal(t, "http://localhost:3000/auth/reset_password?reset_token=reset_password_x-y", links.PasswordResetURL("reset_password_x-y"))
}

func newCapturingMailer(t *testing.T) (*SMTPMailer, *[]*email.Email) {
	t.Helper()

	m := NewSMTPMailer(config.MailSettings{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		From:     "no-reply@finapp.local",
	}, zaptest.NewLogger(t))

	var sent []*email.Email
	m.send = func(e *email.Email) error {
		sent = append(sent, e)
		return nil
	}
	return m, &sent
}

func TestSMTPMailerVerification(t *testing.T) {
	m, sent := newCapturingMailer(t)

	link := "http://localhost:3000/auth/verify?verify_token=verify_abc"
	require.NoError(t, m.SendVerificationEmail(context.Background(), "jane@example.com", link))

	require.Len(t, *sent, 1)
	e := (*sent)[0]
	assert.Equal(t, "no-reply@finapp.local", e.From)
	assert.Equal(t, []string{"jane@example.com"}, e.To)
	assert.Contains(t, string(e.Text), link)
	assert.True(t, strings.Contains(string(e.HTML), "verify_token=verify_abc"))
}

func TestSMTPMailerResetAndConfirmation(t *testing.T) {
	m, sent := newCapturingMailer(t)

	require.NoError(t, m.SendPasswordResetEmail(context.Background(), "jane@example.com", "http://x/auth/reset_password?reset_token=t"))
	require.NoError(t, m.SendPasswordChangeConfirmation(context.Background(), "jane@example.com"))

	require.Len(t, *sent, 2)
	assert.Equal(t, "Reset your finapp password", (*sent)[0].Subject)
	assert.Equal(t, "Your finapp password was changed", (*sent)[1].Subject)
}

func TestSMTPMailerPropagatesFailure(t *testing.T) {
	m, _ := newCapturingMailer(t)
	m.send = func(*email.Email) error { return errors.New("relay refused") }

	err := m.SendPasswordChangeConfirmation(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay refused")
}

func TestSMTPMailerCancelledContext(t *testing.T) {
	m, sent := newCapturingMailer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, m.SendVerificationEmail(ctx, "jane@example.com", "http://x"), context.Canceled)
	assert.Empty(t, *sent)
}

func TestLoggingMailerMasksRecipient(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLoggingMailer(zap.New(core))

	require.NoError(t, m.SendPasswordResetEmail(context.Background(), "john.doe@example.com", "http://x/reset"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "joh***@example.com", entries[0].ContextMap()["to"])
	assert.Equal(t, "http://x/reset", entries[0].ContextMap()["url"])
}
