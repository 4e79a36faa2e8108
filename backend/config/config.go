package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen       string          `yaml:"listen"`
	PublicURL    string          `yaml:"public_url"`
	DatabasePath string          `yaml:"database_path"`
	Session      SessionConfig   `yaml:"session"`
	TLS          TLSConfig       `yaml:"tls"`
	Mail         MailConfig      `yaml:"mail"`
	Logs         LogsConfig      `yaml:"logs"`
	Analytics    AnalyticsConfig `yaml:"analytics"`
}

type SessionConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Secret  string        `yaml:"secret"`
}

type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// MailConfig selects and parameterizes the verification email transport.
// Transport is "local" (sendmail hand-off), "smtp" or "none".
type MailConfig struct {
	Transport  string        `yaml:"transport"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Encryption string        `yaml:"encryption"` // "tls" (STARTTLS), "ssl" (implicit TLS) or empty
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	FromEmail  string        `yaml:"from_email"`
	FromName   string        `yaml:"from_name"`
	Timeout    time.Duration `yaml:"timeout"`
	EhloDomain string        `yaml:"ehlo_domain"`
}

type LogsConfig struct {
	Retention time.Duration `yaml:"retention"`
}

type AnalyticsConfig struct {
	CloudflareZoneID   string `yaml:"cloudflare_zone_id"`
	CloudflareAPIToken string `yaml:"cloudflare_api_token"`
}

var C Config

func Load() error {
	// Defaults
	C = Config{
		Listen:       ":8080",
		PublicURL:    "http://localhost:8080",
		DatabasePath: "app.db",
		Session: SessionConfig{
			Timeout: 24 * time.Hour,
		},
		Mail: MailConfig{
			Transport:  "local",
			Port:       587,
			Encryption: "tls",
			FromName:   "IntelligenceDev",
			Timeout:    30 * time.Second,
		},
		Logs: LogsConfig{
			Retention: 48 * time.Hour,
		},
	}

	// Load from YAML if exists
	if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &C); err != nil {
			return err
		}
	}

	// Environment overrides
	if v := os.Getenv("LISTEN"); v != "" {
		C.Listen = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		C.PublicURL = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		C.DatabasePath = v
	}
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Session.Timeout = d
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		C.Session.Secret = v
	}
	if v := os.Getenv("TLS_ENABLED"); v == "true" {
		C.TLS.Enabled = true
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		C.TLS.Cert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		C.TLS.Key = v
	}
	if v := os.Getenv("MAIL_TRANSPORT"); v != "" {
		C.Mail.Transport = v
	}
	if v := os.Getenv("MAIL_HOST"); v != "" {
		C.Mail.Host = v
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.Mail.Port = p
		}
	}
	if v := os.Getenv("MAIL_ENCRYPTION"); v != "" {
		C.Mail.Encryption = v
	}
	if v := os.Getenv("MAIL_USER"); v != "" {
		C.Mail.Username = v
	}
	if v := os.Getenv("MAIL_PASS"); v != "" {
		C.Mail.Password = v
	}
	if v := os.Getenv("MAIL_FROM_EMAIL"); v != "" {
		C.Mail.FromEmail = v
	}
	if v := os.Getenv("MAIL_FROM_NAME"); v != "" {
		C.Mail.FromName = v
	}
	if v := os.Getenv("MAIL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Mail.Timeout = d
		}
	}
	if v := os.Getenv("MAIL_EHLO_DOMAIN"); v != "" {
		C.Mail.EhloDomain = v
	}
	if v := os.Getenv("LOGS_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Logs.Retention = d
		}
	}
	if v := os.Getenv("CLOUDFLARE_ZONE_ID"); v != "" {
		C.Analytics.CloudflareZoneID = v
	}
	if v := os.Getenv("CLOUDFLARE_API_TOKEN"); v != "" {
		C.Analytics.CloudflareAPIToken = v
	}

	return nil
}
