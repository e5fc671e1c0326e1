// Package config resolves process settings from defaults, an optional .env
// file and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultPort           = "8080"
	defaultCORSOrigins    = "http://localhost:5173,http://127.0.0.1:5173"
	defaultSMTPPort       = 587
	defaultRequestTimeout = 15 * time.Second
	defaultPublicBaseURL  = "http://localhost:5173"

	envFileName   = ".env"
	envFileLevels = 5
)

var keys = []string{
	"PORT",
	"DATABASE_URL",
	"CORS_ORIGINS",
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USER",
	"SMTP_PASS",
	"SMTP_FROM_EMAIL",
	"SUPPORT_EMAIL",
	"PUBLIC_BASE_URL",
	"REQUEST_TIMEOUT",
}

type Config struct {
	Port                string
	DatabaseURL         string
	CORSOrigins         []string
	StripeSecretKey     string
	StripeWebhookSecret string
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPass            string
	SMTPFromEmail       string
	SupportEmail        string
	PublicBaseURL       string
	RequestTimeout      time.Duration

	// EnvFile is the .env file that was read, if any.
	EnvFile string
}

func (c Config) StoreConfigured() bool {
	return c.DatabaseURL != ""
}

func (c Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func (c Config) PaymentsConfigured() bool {
	return c.StripeSecretKey != ""
}

// Load reads configuration starting the .env search in dir. An empty dir
// means the working directory.
func Load(dir string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := viper.New()
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("CORS_ORIGINS", defaultCORSOrigins)
	v.SetDefault("SMTP_PORT", defaultSMTPPort)
	v.SetDefault("PUBLIC_BASE_URL", defaultPublicBaseURL)
	v.SetDefault("REQUEST_TIMEOUT", defaultRequestTimeout)
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("working directory: %w", err)
		}
		dir = wd
	}
	envFile := findEnvFile(dir)
	if envFile == "" {
		logger.Warn(".env not found in current or parent directories")
	} else {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("failed to load env file", slog.String("path", envFile), slog.Any("error", err))
			envFile = ""
		} else {
			logger.Info("loaded env file", slog.String("path", envFile))
		}
	}

	cfg := Config{
		Port:                strings.TrimSpace(v.GetString("PORT")),
		DatabaseURL:         strings.TrimSpace(v.GetString("DATABASE_URL")),
		CORSOrigins:         parseCSV(v.GetString("CORS_ORIGINS")),
		StripeSecretKey:     strings.TrimSpace(v.GetString("STRIPE_SECRET_KEY")),
		StripeWebhookSecret: strings.TrimSpace(v.GetString("STRIPE_WEBHOOK_SECRET")),
		SMTPHost:            strings.TrimSpace(v.GetString("SMTP_HOST")),
		SMTPPort:            v.GetInt("SMTP_PORT"),
		SMTPUser:            strings.TrimSpace(v.GetString("SMTP_USER")),
		SMTPPass:            v.GetString("SMTP_PASS"),
		SMTPFromEmail:       strings.TrimSpace(v.GetString("SMTP_FROM_EMAIL")),
		SupportEmail:        strings.TrimSpace(v.GetString("SUPPORT_EMAIL")),
		PublicBaseURL:       strings.TrimRight(strings.TrimSpace(v.GetString("PUBLIC_BASE_URL")), "/"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		EnvFile:             envFile,
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.SMTPPort <= 0 {
		return Config{}, fmt.Errorf("invalid SMTP_PORT %q", v.GetString("SMTP_PORT"))
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT %q", v.GetString("REQUEST_TIMEOUT"))
	}
	if cfg.SMTPFromEmail == "" {
		cfg.SMTPFromEmail = cfg.SMTPUser
	}
	return cfg, nil
}

// Warn logs settings whose absence degrades the service.
func (c Config) Warn(logger *slog.Logger) {
	if !c.StoreConfigured() {
		logger.Warn("DATABASE_URL not set, orders and tickets are unavailable")
	}
	if !c.MailConfigured() {
		logger.Warn("SMTP credentials not set, confirmation emails are unavailable")
	}
	if !c.PaymentsConfigured() {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout is unavailable")
	}
	if c.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be rejected")
	}
}

func findEnvFile(dir string) string {
	for i := 0; i <= envFileLevels; i++ {
		path := filepath.Join(dir, envFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
