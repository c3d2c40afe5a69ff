package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `validate:"required"`
	DBUrl       string `validate:"required"`
	Port        string `validate:"required,numeric"`

	DB DBConfig

	RequestTimeout  time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	CORSAllowedOrigins []string

	Email           EmailConfig
	AlertRecipients []string `validate:"dive,email"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string
}

// DBConfig sizes the connection pool.
type DBConfig struct {
	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxIdleTime time.Duration `validate:"gte=0"`
	ConnectTimeout  time.Duration `validate:"gte=0"`
}

// EmailConfig configures the status alert mailer.
type EmailConfig struct {
	Provider           string `validate:"oneof=ses noop"`
	FromAddress        string `validate:"required_if=Provider ses,omitempty,email"`
	FromName           string
	AWSRegion          string `validate:"required_if=Provider ses"`
	AWSAccessKeyID     string
	AWSSecretAccessKey string `validate:"required_with=AWSAccessKeyID"`
}

// Defaults applied when the environment leaves a setting empty.
const (
	DefaultPort            = "5000"
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxIdleTime = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// Load loads configuration from environment variables
// It attempts to load from envFiles (default .env) if not in production
func Load(envFiles ...string) (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file if not in production; production relies on the real environment.
	if env != "production" {
		if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: .env file couldn't be loaded: %v", err)
		}
	}

	var errs []error
	cfg := &Config{
		Environment:        env,
		Port:               getString("PORT", DefaultPort),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),
		AlertRecipients:    getList("ALERT_RECIPIENTS"),
		LogLevel:           strings.ToLower(getString("LOG_LEVEL", "info")),
		LogFile:            os.Getenv("LOG_FILE"),
		Email: EmailConfig{
			Provider:           getString("EMAIL_PROVIDER", "noop"),
			FromAddress:        os.Getenv("EMAIL_FROM_ADDRESS"),
			FromName:           os.Getenv("EMAIL_FROM_NAME"),
			AWSRegion:          os.Getenv("AWS_REGION"),
			AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}
	cfg.DB.MaxOpenConns = getInt("DB_MAX_OPEN_CONNS", DefaultMaxOpenConns, &errs)
	cfg.DB.MaxIdleConns = getInt("DB_MAX_IDLE_CONNS", DefaultMaxIdleConns, &errs)
	cfg.DB.ConnMaxIdleTime = getDuration("DB_CONN_MAX_IDLE_TIME", DefaultConnMaxIdleTime, &errs)
	cfg.DB.ConnectTimeout = getDuration("DB_CONNECT_TIMEOUT", DefaultConnectTimeout, &errs)
	cfg.RequestTimeout = getDuration("REQUEST_TIMEOUT", DefaultRequestTimeout, &errs)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout, &errs)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	dsn, err := databaseURL(cfg.DB.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	cfg.DBUrl = dsn

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of cfg.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// databaseURL returns DATABASE_URL, or assembles one from the DB_* variables
// when it is unset. A positive connect timeout is added unless the URL already
// carries one.
func databaseURL(connectTimeout time.Duration) (string, error) {
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		host := os.Getenv("DB_HOST")
		if host == "" {
			return "", errors.New("DATABASE_URL or DB_HOST must be set")
		}
		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(getString("DB_USER", "postgres"), os.Getenv("DB_PASSWORD")),
			Host:   net.JoinHostPort(host, getString("DB_PORT", "5432")),
			Path:   "/" + getString("DB_NAME", "postgres"),
		}
		q := url.Values{}
		q.Set("sslmode", getString("DB_SSLMODE", "disable"))
		u.RawQuery = q.Encode()
		raw = u.String()
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		// key=value connection strings are passed through untouched
		return raw, nil
	}
	q := u.Query()
	if connectTimeout > 0 && q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", strconv.Itoa(int(connectTimeout.Seconds())))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(key string, def int, errs *[]error) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

// getDuration accepts Go durations ("30s") or a bare number of seconds.
func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
