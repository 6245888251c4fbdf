// Package config loads the server's immutable configuration from the
// environment once at startup. All defaults are compiled in; nothing here
// is re-read after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the immutable, process-wide configuration.
type Config struct {
	Port     string
	Host     string

	DatabaseURL string
	DBPoolSize  int

	SchedulerPollInterval time.Duration
	SchedulerBatchSize    int
	SchedulerLockTimeout  time.Duration

	MaxActiveTasks int
	MaxPayloadSize int

	WebhookTimeout     time.Duration
	WebhookMaxRetries  int

	HMACSecret string

	AllowedWebhookDomains []string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Environment is the raw NODE_ENV-equivalent token. Only "production" has
	// behavioral meaning (enforces HTTPS in URL validation, suppresses raw
	// error messages at the HTTP boundary).
	Environment string
}

// IsProduction reports whether behavior gated on the production environment
// should be active.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load builds a Config from the process environment, matching the
// enumerated keys of the external interface: PORT, HOST, DATABASE_URL,
// DB_POOL_SIZE, SCHEDULER_POLL_INTERVAL, SCHEDULER_BATCH_SIZE,
// SCHEDULER_LOCK_TIMEOUT, MAX_ACTIVE_TASKS, MAX_PAYLOAD_SIZE,
// WEBHOOK_TIMEOUT, WEBHOOK_MAX_RETRIES, HMAC_SECRET,
// ALLOWED_WEBHOOK_DOMAINS, NODE_ENV, plus the email dispatcher's own
// SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  envOr("PORT", "8080"),
		Host:                  envOr("HOST", "0.0.0.0"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		DBPoolSize:            envInt("DB_POOL_SIZE", 10),
		SchedulerPollInterval: envSeconds("SCHEDULER_POLL_INTERVAL", 10*time.Second),
		SchedulerBatchSize:    envInt("SCHEDULER_BATCH_SIZE", 50),
		SchedulerLockTimeout:  envSeconds("SCHEDULER_LOCK_TIMEOUT", 60*time.Second),
		MaxActiveTasks:        envInt("MAX_ACTIVE_TASKS", 100),
		MaxPayloadSize:        envInt("MAX_PAYLOAD_SIZE", 65536),
		WebhookTimeout:        envSeconds("WEBHOOK_TIMEOUT", 30*time.Second),
		WebhookMaxRetries:     envInt("WEBHOOK_MAX_RETRIES", 3),
		HMACSecret:            os.Getenv("HMAC_SECRET"),
		AllowedWebhookDomains: envList("ALLOWED_WEBHOOK_DOMAINS"),
		Environment:           firstNonEmpty(os.Getenv("NODE_ENV"), os.Getenv("ENVIRONMENT")),

		SMTPHost:     envOr("SMTP_HOST", "localhost"),
		SMTPPort:     envOr("SMTP_PORT", "25"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     envOr("SMTP_FROM", "scheduler@localhost"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.HMACSecret == "" {
		return nil, fmt.Errorf("config: HMAC_SECRET is required")
	}
	if cfg.IsProduction() {
		// Nothing else to validate eagerly; HTTPS enforcement happens per-URL
		// in the safety layer, which reads IsProduction() at validation time.
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Second
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
