package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	RabbitMQ     RabbitMQConfig
	Tickets      TicketConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// per-ticket lock; optimistic updates still guard writes.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Service     string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig controls outbound mail.
type NotificationConfig struct {
	EmailFrom  string
	WorkerSize int
}

// RabbitMQConfig locates the mail broker. An empty URL logs mail instead of
// publishing it.
type RabbitMQConfig struct {
	URL          string
	MailExchange string
	MailRouting  string
}

// TicketConfig tunes ticket processing.
type TicketConfig struct {
	RulesFile      string
	LockTTLSeconds int
}

const devJWTSecret = "dev-secret"

// Load reads configuration from the process environment, after merging a
// .env file when one exists. Malformed numeric or boolean values are errors
// rather than silent fallbacks.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	appEnv := env.getEnv("APP_ENV", "development")
	appName := env.getEnv("APP_NAME", "helpdesk")

	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   appEnv,
			Host:                  env.getEnv("APP_HOST", "0.0.0.0"),
			Port:                  env.getEnv("APP_PORT", "8080"),
			Version:               env.getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: env.getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(env.getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(env.getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  env.getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(env.getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(env.getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       env.getEnvAsInt("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level:       env.getEnv("LOG_LEVEL", "info"),
			Service:     appName,
			Development: appEnv == "development",
		},
		Auth: AuthConfig{
			JWTSecret:             env.getEnv("AUTH_JWT_SECRET", devJWTSecret),
			AccessTokenTTLMinutes: env.getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            env.getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  env.getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WorkerSize: env.getEnvAsInt("NOTIFY_WORKER_BUFFER", 256),
		},
		RabbitMQ: RabbitMQConfig{
			URL:          os.Getenv("RABBITMQ_URL"),
			MailExchange: env.getEnv("RABBITMQ_MAIL_EXCHANGE", "helpdesk.mail"),
			MailRouting:  env.getEnv("RABBITMQ_MAIL_ROUTING_KEY", "mail.outbound"),
		},
		Tickets: TicketConfig{
			RulesFile:      os.Getenv("HELPDESK_RULES_FILE"),
			LockTTLSeconds: env.getEnvAsInt("TICKET_LOCK_TTL_SECONDS", 10),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that env parsing alone cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required"))
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		errs = append(errs, fmt.Errorf("POSTGRES_MIN_CONNS (%d) exceeds POSTGRES_MAX_CONNS (%d)", c.Postgres.MinConns, c.Postgres.MaxConns))
	}
	if c.App.Env != "development" && c.Auth.JWTSecret == devJWTSecret {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be set when APP_ENV is %q", c.App.Env))
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Notification.WorkerSize <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKER_BUFFER must be positive"))
	}
	if _, err := strconv.Atoi(c.App.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid APP_PORT %q", c.App.Port))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// LockTTL returns how long a per-ticket lock is held at most.
func (t TicketConfig) LockTTL() time.Duration {
	if t.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(t.LockTTLSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued agent tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RequestTimeout returns the per-request deadline, or 0 for none.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// envReader collects parse failures so Load can report all of them at once.
type envReader struct {
	errs []error
}

func (r *envReader) getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func (r *envReader) getEnvAsInt(key string, fallback int) int {
	val := r.getEnv(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: not an integer", key, val))
		return fallback
	}
	return parsed
}

func (r *envReader) getEnvAsBool(key string, fallback bool) bool {
	val := r.getEnv(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: not a boolean", key, val))
		return fallback
	}
	return parsed
}
