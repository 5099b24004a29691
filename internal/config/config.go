package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	AppName       string
	Port          string
	DBConn        string
	Storage       string
	LogLevel      string
	TokenTTL      time.Duration
	CookieSecure  bool
	PurgeSchedule string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		AppName:       getEnv("APP_NAME", "Task Manager"),
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=tasks sslmode=disable"),
		Storage:       getEnv("STORAGE", StoragePostgres),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		PurgeSchedule: getEnv("PURGE_SCHEDULE", "@hourly"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "336h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", ttl)
	}
	cfg.TokenTTL = ttl

	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}
	cfg.CookieSecure = secure

	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}

	if cfg.SMTPHost != "" && cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SENDER_EMAIL is required when SMTP_HOST is set")
	}

	return cfg, nil
}

// MailEnabled reports whether welcome mails should be sent.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
