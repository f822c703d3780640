package logger

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is used to store a request identifier on the context.
type RequestIDKey struct{}

// New builds the process logger. Anything other than "production" gets the
// human-readable development encoder.
func New(env, service string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env != "production" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lg, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if service != "" {
		lg = lg.With(zap.String("service", service))
	}
	return lg, nil
}

// WithContext attaches the request id and active trace id carried by ctx.
func WithContext(base *zap.Logger, ctx context.Context) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if ctx == nil {
		return base
	}

	fields := make([]zap.Field, 0, 2)
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

var (
	emailRegex = regexp.MustCompile(`^([^@]{1,3})[^@]*(@.+)$`)
	phoneRegex = regexp.MustCompile(`^(\+?\d{1,3})(\d{3,})(\d{4})$`)
)

// MaskEmail keeps the first three characters and the domain.
// Example: john.doe@example.com -> joh***@example.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	if matches := emailRegex.FindStringSubmatch(email); len(matches) == 3 {
		return matches[1] + "***" + matches[2]
	}
	if _, domain, ok := strings.Cut(email, "@"); ok {
		return "***@" + domain
	}
	return "***"
}

// MaskPhone keeps up to three leading digits and the last four digits.
// Example: +1234567890 -> +123***7890
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}

	if matches := phoneRegex.FindStringSubmatch(phone); len(matches) == 4 {
		return matches[1] + "***" + matches[3]
	}
	if len(phone) > 4 {
		return "***" + phone[len(phone)-4:]
	}
	return "***"
}

// MaskIP keeps the first two IPv4 octets or the first four IPv6 groups.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	if parts := strings.Split(ip, "."); len(parts) == 4 {
		return parts[0] + "." + parts[1] + ".*.*"
	}
	if parts := strings.Split(ip, ":"); len(parts) >= 4 {
		return strings.Join(parts[:4], ":") + ":*:*:*:*"
	}
	return "***"
}

// MaskToken hides a secret token, leaving its purpose prefix and last two
// characters so log lines can still be correlated.
// Example: session_AbCdEf...xyz -> session_***yz
func MaskToken(token string) string {
	if token == "" {
		return ""
	}

	prefix := ""
	if i := strings.LastIndex(token, "_"); i > 0 && i < len(token)-1 {
		prefix, token = token[:i+1], token[i+1:]
	}
	if len(token) <= 4 {
		return prefix + "***"
	}
	return prefix + "***" + token[len(token)-2:]
}
