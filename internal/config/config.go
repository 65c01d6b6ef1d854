package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultHTTPAddr        = ":8080"
	defaultDatabaseURL     = "webformular.db"
	defaultFormTokenTTL    = "2h"
	defaultUploadDir       = "./uploads"
	defaultUploadURLBase   = "/static/uploads"
	defaultUploadMaxSize   = 10 * 1024 * 1024
	defaultSMTPPort        = 587
	defaultMailFrom        = "webformular@localhost"
	defaultFirstRedirect   = "/thanks"
	defaultSecondRedirect  = "/"
	defaultRedirectDelay   = "3s"
	defaultLogLevel        = "info"
	defaultAdminTokenTTL   = "24h"
	defaultOperatorAddress = "admin@localhost"
)

// Form completion modes.
const (
	FormModeRedirect = "redirect"
	FormModeInline   = "inline"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL string

	JWTSecret       string
	AdminTokenTTL   time.Duration
	FormTokenSecret string
	FormTokenTTL    time.Duration

	FormMode          string
	FirstRedirectURL  string
	SecondRedirectURL string
	RedirectDelay     time.Duration

	UploadDir     string
	UploadURLBase string
	UploadMaxSize int64

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	MailFrom      string
	OperatorEmail string

	CORSAllowedOrigins []string

	SentryDSN   string
	SentryDebug bool
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", defaultHTTPAddr)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("ADMIN_TOKEN_TTL", defaultAdminTokenTTL)
	v.SetDefault("FORM_TOKEN_SECRET", "")
	v.SetDefault("FORM_TOKEN_TTL", defaultFormTokenTTL)
	v.SetDefault("FORM_MODE", FormModeRedirect)
	v.SetDefault("FIRST_REDIRECT_URL", defaultFirstRedirect)
	v.SetDefault("SECOND_REDIRECT_URL", defaultSecondRedirect)
	v.SetDefault("REDIRECT_DELAY", defaultRedirectDelay)
	v.SetDefault("UPLOAD_DIR", defaultUploadDir)
	v.SetDefault("UPLOAD_URL_BASE", defaultUploadURLBase)
	v.SetDefault("UPLOAD_MAX_SIZE", defaultUploadMaxSize)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", defaultSMTPPort)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", defaultMailFrom)
	v.SetDefault("OPERATOR_EMAIL", defaultOperatorAddress)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_DEBUG", false)
	return v
}

func load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:            strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTPAddr:          strings.TrimSpace(v.GetString("HTTP_ADDR")),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		DatabaseURL:       strings.TrimSpace(v.GetString("DATABASE_URL")),
		JWTSecret:         strings.TrimSpace(v.GetString("JWT_SECRET")),
		FormTokenSecret:   strings.TrimSpace(v.GetString("FORM_TOKEN_SECRET")),
		FormMode:          strings.ToLower(strings.TrimSpace(v.GetString("FORM_MODE"))),
		FirstRedirectURL:  strings.TrimSpace(v.GetString("FIRST_REDIRECT_URL")),
		SecondRedirectURL: strings.TrimSpace(v.GetString("SECOND_REDIRECT_URL")),
		UploadDir:         strings.TrimSpace(v.GetString("UPLOAD_DIR")),
		UploadURLBase:     strings.TrimRight(strings.TrimSpace(v.GetString("UPLOAD_URL_BASE")), "/"),
		UploadMaxSize:     v.GetInt64("UPLOAD_MAX_SIZE"),
		SMTPHost:          strings.TrimSpace(v.GetString("SMTP_HOST")),
		SMTPPort:          v.GetInt("SMTP_PORT"),
		SMTPUsername:      v.GetString("SMTP_USERNAME"),
		SMTPPassword:      v.GetString("SMTP_PASSWORD"),
		MailFrom:          strings.TrimSpace(v.GetString("MAIL_FROM")),
		OperatorEmail:     strings.TrimSpace(v.GetString("OPERATOR_EMAIL")),
		SentryDSN:         strings.TrimSpace(v.GetString("SENTRY_DSN")),
		SentryDebug:       v.GetBool("SENTRY_DEBUG"),
	}

	var err error
	if cfg.AdminTokenTTL, err = parseDuration(v, "ADMIN_TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.FormTokenTTL, err = parseDuration(v, "FORM_TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.RedirectDelay, err = parseDuration(v, "REDIRECT_DELAY"); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and refuses default secrets in prod-like envs.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.FormMode != FormModeRedirect && c.FormMode != FormModeInline {
		return fmt.Errorf("FORM_MODE must be one of: %s, %s", FormModeRedirect, FormModeInline)
	}
	if c.FormTokenTTL <= 0 {
		return fmt.Errorf("FORM_TOKEN_TTL must be > 0")
	}
	if c.AdminTokenTTL <= 0 {
		return fmt.Errorf("ADMIN_TOKEN_TTL must be > 0")
	}
	if c.RedirectDelay < 0 {
		return fmt.Errorf("REDIRECT_DELAY must be >= 0")
	}
	if c.FormMode == FormModeRedirect && c.FirstRedirectURL == "" {
		return fmt.Errorf("FIRST_REDIRECT_URL must be set when FORM_MODE=redirect")
	}
	if c.UploadMaxSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be > 0")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		return fmt.Errorf("SMTP_PORT must be a valid port")
	}
	if c.OperatorEmail == "" {
		return fmt.Errorf("OPERATOR_EMAIL must not be empty")
	}
	if c.IsProduction() {
		if isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if c.SMTPHost == "" {
			return fmt.Errorf("in prod/release SMTP_HOST must be set")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

// SMTPAddr returns host:port of the outgoing mail server.
func (c *Config) SMTPAddr() string {
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}
