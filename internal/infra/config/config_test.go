package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "finapp", cfg.App.Name)
	assert.Equal(t, 10*time.Minute, cfg.Tokens.VerificationTTL)
	assert.Equal(t, 24*time.Hour, cfg.Tokens.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.Tokens.ResetTTL)
	assert.Equal(t, "session_key", cfg.Session.CookieName)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, "http://localhost:3000", cfg.Mail.FrontendURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, uint32(65536), cfg.Argon2.Memory)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
	assert.Equal(t, 10*time.Second, cfg.GRPC.CheckInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FINAPP_APP_ENV", "production")
	t.Setenv("FINAPP_REDIS_HOST", "cache.internal")
	t.Setenv("FINAPP_TOKENS_SESSION_TTL", "2h")
	t.Setenv("FINAPP_SESSION_SECURE", "false")
	t.Setenv("FINAPP_PASSWORD_MIN_STRENGTH_SCORE", "2")
	t.Setenv("FINAPP_GRPC_ADDR", "127.0.0.1:7070")
	t.Setenv("FINAPP_MAIL_SMTP_HOST", "smtp.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.App.IsDevelopment())
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "smtp.internal", cfg.Mail.SMTPHost)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 2*time.Hour, cfg.Tokens.SessionTTL)
	assert.False(t, cfg.Session.Secure)
	assert.Equal(t, 2, cfg.Password.MinStrengthScore)
	assert.Equal(t, "127.0.0.1:7070", cfg.GRPC.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("FINAPP_TOKENS_RESET_TTL", "0s")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsStrengthOutOfRange(t *testing.T) {
	t.Setenv("FINAPP_PASSWORD_MIN_STRENGTH_SCORE", "7")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresSMTPInProduction(t *testing.T) {
	t.Setenv("FINAPP_APP_ENV", "production")
	_, err := Load()
	require.ErrorContains(t, err, "mail.smtp_host")

	t.Setenv("FINAPP_APP_ENV", "staging")
	cfg, err := Load()
	require.NoError(t, err, "non-production environments may log mail")
	assert.Empty(t, cfg.Mail.SMTPHost)
}
