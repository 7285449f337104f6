// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:3000"] (Next.js dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// SyncInterval is how often the background email sync runs.
	// Defaults to 10 minutes. Set SYNC_INTERVAL to a Go duration string.
	SyncInterval time.Duration

	// IngestTimeout is the wall-clock budget for one email sync run, so a
	// stuck mailbox or model call cannot block the next scheduled run.
	// Defaults to 5 minutes.
	IngestTimeout time.Duration

	// Mailbox configures the monitored Gmail inbox. All fields are
	// required for email sync but optional for the API server itself;
	// validation happens when a sync is triggered, not at startup.
	Mailbox MailboxConfig

	// Oracle configures the text-generation service used to classify and
	// extract reservation emails.
	Oracle OracleConfig
}

// MailboxConfig holds the Gmail OAuth credentials and the monitored address.
type MailboxConfig struct {
	// Address is the magic mailbox email address users forward
	// reservations to. Env: MAGIC_MAILBOX_EMAIL.
	Address string

	// ClientID / ClientSecret identify the OAuth application.
	// Env: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET.
	ClientID     string
	ClientSecret string

	// RefreshToken is the long-lived token obtained out-of-band.
	// Env: GMAIL_REFRESH_TOKEN.
	RefreshToken string
}

// Validate returns an error naming every missing mailbox variable.
func (m MailboxConfig) Validate() error {
	var missing []string
	if m.Address == "" {
		missing = append(missing, "MAGIC_MAILBOX_EMAIL")
	}
	if m.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if m.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if m.RefreshToken == "" {
		missing = append(missing, "GMAIL_REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("gmail credentials not configured: %s not set", strings.Join(missing, ", "))
	}
	return nil
}

// OracleConfig holds the settings for the extraction model endpoint.
type OracleConfig struct {
	// APIKey authenticates to the model API. Env: OPENAI_API_KEY.
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a proxy or a
	// compatible provider. Optional. Env: OPENAI_BASE_URL.
	BaseURL string

	// Model names the chat model used for extraction.
	// Defaults to "gpt-4o-mini". Env: OPENAI_MODEL.
	Model string
}

// Validate returns an error if the oracle cannot be constructed.
func (o OracleConfig) Validate() error {
	if o.APIKey == "" {
		return fmt.Errorf("extraction model not configured: OPENAI_API_KEY not set")
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
// Mailbox and Oracle fields are read but not validated here; they gate the
// email sync feature, not the server.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		SyncInterval:  getDuration("SYNC_INTERVAL", 10*time.Minute),
		IngestTimeout: getDuration("INGEST_TIMEOUT", 5*time.Minute),
		Mailbox: MailboxConfig{
			Address:      os.Getenv("MAGIC_MAILBOX_EMAIL"),
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RefreshToken: os.Getenv("GMAIL_REFRESH_TOKEN"),
		},
		Oracle: OracleConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses the environment variable named by key as a Go duration,
// falling back on missing or malformed values.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
