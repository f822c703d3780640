package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FINAPP"

type AppConfig struct {
	App          AppSettings          `mapstructure:"app"`
	Postgres     PostgresSettings     `mapstructure:"postgres"`
	Redis        RedisSettings        `mapstructure:"redis"`
	Kafka        KafkaSettings        `mapstructure:"kafka"`
	Telemetry    TelemetrySettings    `mapstructure:"telemetry"`
	Argon2       Argon2Settings       `mapstructure:"argon2"`
	Tokens       TokenSettings        `mapstructure:"tokens"`
	Session      SessionSettings      `mapstructure:"session"`
	Mail         MailSettings         `mapstructure:"mail"`
	Verification VerificationSettings `mapstructure:"verification"`
	Password     PasswordSettings     `mapstructure:"password"`
	CORS         CORSSettings         `mapstructure:"cors"`
	GRPC         GRPCSettings         `mapstructure:"grpc"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// IsDevelopment reports whether the service runs with development affordances
// such as echoing tokens in API responses.
func (a AppSettings) IsDevelopment() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == "" || env == "development" || env == "dev" || env == "local"
}

// IsProduction reports whether the service runs with production safeguards.
func (a AppSettings) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(a.Env), "production")
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	MigrateOnStart    bool          `mapstructure:"migrate_on_start"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

// KafkaSettings configures the lifecycle event producer. No brokers means
// events are only logged.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// TelemetrySettings configures OpenTelemetry tracing. An empty OTLP endpoint
// disables export.
type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// Argon2Settings configures Argon2id password hashing parameters
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// TokenSettings holds the lifetimes of the ephemeral token store entries.
type TokenSettings struct {
	VerificationTTL time.Duration `mapstructure:"verification_ttl"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	ResetTTL        time.Duration `mapstructure:"reset_ttl"`
}

// SessionSettings shapes the session cookie.
type SessionSettings struct {
	CookieName string `mapstructure:"cookie_name"`
	Secure     bool   `mapstructure:"secure"`
	Domain     string `mapstructure:"domain"`
	Path       string `mapstructure:"path"`
}

// MailSettings configures outbound mail. An empty SMTP host logs mail instead
// of sending it.
type MailSettings struct {
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	From        string `mapstructure:"from"`
	FrontendURL string `mapstructure:"frontend_url"`
}

type VerificationSettings struct {
	RedirectURL string `mapstructure:"redirect_url"`
}

type PasswordSettings struct {
	MinStrengthScore int `mapstructure:"min_strength_score"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GRPCSettings configures the admin gRPC listener serving the health protocol.
// An empty address disables it.
type GRPCSettings struct {
	Addr          string        `mapstructure:"addr"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.migrate_on_start",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.key_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
		"tokens.verification_ttl",
		"tokens.session_ttl",
		"tokens.reset_ttl",
		"session.cookie_name",
		"session.secure",
		"session.domain",
		"session.path",
		"mail.smtp_host",
		"mail.smtp_port",
		"mail.username",
		"mail.password",
		"mail.from",
		"mail.frontend_url",
		"verification.redirect_url",
		"password.min_strength_score",
		"cors.allowed_origins",
		"grpc.addr",
		"grpc.check_interval",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch {
	case c.Tokens.VerificationTTL <= 0:
		return fmt.Errorf("tokens.verification_ttl must be positive")
	case c.Tokens.SessionTTL <= 0:
		return fmt.Errorf("tokens.session_ttl must be positive")
	case c.Tokens.ResetTTL <= 0:
		return fmt.Errorf("tokens.reset_ttl must be positive")
	case strings.TrimSpace(c.Session.CookieName) == "":
		return fmt.Errorf("session.cookie_name is required")
	case c.Password.MinStrengthScore < 0 || c.Password.MinStrengthScore > 4:
		return fmt.Errorf("password.min_strength_score must be within [0, 4]")
	case c.App.IsProduction() && strings.TrimSpace(c.Mail.SMTPHost) == "":
		// Without SMTP, mail is logged, and logged links carry live tokens.
		return fmt.Errorf("mail.smtp_host is required in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "finapp")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8000)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "finapp")
	v.SetDefault("postgres.password", "finapp_password")
	v.SetDefault("postgres.database", "finapp")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.migrate_on_start", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.key_prefix", "finapp:token")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "finapp")
	v.SetDefault("kafka.async", true)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "finapp")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("argon2.memory", 65536) // 64 MB
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("tokens.verification_ttl", "10m")
	v.SetDefault("tokens.session_ttl", "24h")
	v.SetDefault("tokens.reset_ttl", "10m")

	v.SetDefault("session.cookie_name", "session_key")
	v.SetDefault("session.secure", true)
	v.SetDefault("session.domain", "")
	v.SetDefault("session.path", "/")

	v.SetDefault("mail.smtp_host", "")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "no-reply@finapp.local")
	v.SetDefault("mail.frontend_url", "http://localhost:3000")

	v.SetDefault("verification.redirect_url", "http://localhost:3000/auth/login")

	v.SetDefault("password.min_strength_score", 0)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("grpc.addr", ":9090")
	v.SetDefault("grpc.check_interval", "10s")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envPrefix+"_"+envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
