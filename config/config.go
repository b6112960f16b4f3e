package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Push     PushConfig     `yaml:"push"`
	Mail     MailConfig     `yaml:"mail"`
}

// PushConfig holds the VAPID keys and dispatch tuning for web push.
type PushConfig struct {
	PublicKey      string `yaml:"vapid_public_key"`
	PrivateKey     string `yaml:"vapid_private_key"`
	Subject        string `yaml:"subject"`
	TTL            int    `yaml:"ttl"`
	Workers        int    `yaml:"workers"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	EncryptPayload bool   `yaml:"encrypt_payload"`

	Timeout time.Duration `yaml:"-"`
}

// MailConfig holds the Mailgun settings for feedback notifications.
// Feedback email is disabled when APIKey is empty.
type MailConfig struct {
	Domain         string `yaml:"domain"`
	APIKey         string `yaml:"api_key"`
	From           string `yaml:"from"`
	AdminEmail     string `yaml:"admin_email"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	StatsCacheTTL   int     `yaml:"stats_cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path. Secrets may be
// supplied (or overridden) through the environment: VAPID_PUBLIC_KEY,
// VAPID_PRIVATE_KEY and MAILGUN_API_KEY.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}
	if v := os.Getenv("MAILGUN_API_KEY"); v != "" {
		cfg.Mail.APIKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.StatsCacheTTL <= 0 {
		cfg.Server.StatsCacheTTL = 60
	}
	if cfg.Push.Subject == "" {
		cfg.Push.Subject = "mailto:admin@studyx.app"
	}
	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 86400
	}
	if cfg.Push.Workers <= 0 {
		log.Printf("push.workers is not set or invalid; defaulting to 16")
		cfg.Push.Workers = 16
	}
	if cfg.Push.TimeoutSeconds <= 0 {
		cfg.Push.TimeoutSeconds = 10
	}
	cfg.Push.Timeout = time.Duration(cfg.Push.TimeoutSeconds) * time.Second

	if cfg.Mail.TimeoutSeconds <= 0 {
		cfg.Mail.TimeoutSeconds = 10
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = "StudyX <noreply@studyx.app>"
	}
}
