package config

import (
	"os"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	C = Config{}
	for _, key := range []string{"SESSION_TIMEOUT", "MAIL_TRANSPORT", "MAIL_PORT", "MAIL_ENCRYPTION"} {
		os.Unsetenv(key)
	}

	if err := Load(); err != nil {
		t.Fatal(err)
	}

	if C.Session.Timeout != 24*time.Hour {
		t.Errorf("Expected default session timeout 24h, got %v", C.Session.Timeout)
	}
	if C.Mail.Transport != "local" {
		t.Errorf("Expected default mail transport local, got %q", C.Mail.Transport)
	}
	if C.Mail.Port != 587 {
		t.Errorf("Expected default mail port 587, got %d", C.Mail.Port)
	}
	if C.Mail.Encryption != "tls" {
		t.Errorf("Expected default mail encryption tls, got %q", C.Mail.Encryption)
	}
	if C.Mail.Timeout != 30*time.Second {
		t.Errorf("Expected default mail timeout 30s, got %v", C.Mail.Timeout)
	}
	if C.Logs.Retention != 48*time.Hour {
		t.Errorf("Expected default log retention 48h, got %v", C.Logs.Retention)
	}
}

// Environment variables take precedence over built-in defaults.
func TestConfig_MailEnvOverrides(t *testing.T) {
	C = Config{}
	env := map[string]string{
		"MAIL_TRANSPORT":   "smtp",
		"MAIL_HOST":        "smtp.example.com",
		"MAIL_PORT":        "2525",
		"MAIL_ENCRYPTION":  "ssl",
		"MAIL_USER":        "mailer",
		"MAIL_PASS":        "hunter2",
		"MAIL_FROM_EMAIL":  "noreply@example.com",
		"MAIL_FROM_NAME":   "Example",
		"MAIL_TIMEOUT":     "5s",
		"MAIL_EHLO_DOMAIN": "example.com",
	}
	for k, v := range env {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	if err := Load(); err != nil {
		t.Fatal(err)
	}

	if C.Mail.Transport != "smtp" {
		t.Errorf("Expected mail transport smtp, got %q", C.Mail.Transport)
	}
	if C.Mail.Host != "smtp.example.com" {
		t.Errorf("Expected mail host smtp.example.com, got %q", C.Mail.Host)
	}
	if C.Mail.Port != 2525 {
		t.Errorf("Expected mail port 2525, got %d", C.Mail.Port)
	}
	if C.Mail.Encryption != "ssl" {
		t.Errorf("Expected mail encryption ssl, got %q", C.Mail.Encryption)
	}
	if C.Mail.Username != "mailer" || C.Mail.Password != "hunter2" {
		t.Error("Expected mail credentials from environment")
	}
	if C.Mail.FromEmail != "noreply@example.com" || C.Mail.FromName != "Example" {
		t.Error("Expected mail sender from environment")
	}
	if C.Mail.Timeout != 5*time.Second {
		t.Errorf("Expected mail timeout 5s, got %v", C.Mail.Timeout)
	}
	if C.Mail.EhloDomain != "example.com" {
		t.Errorf("Expected EHLO domain example.com, got %q", C.Mail.EhloDomain)
	}
}

func TestConfig_SessionTimeoutEnv(t *testing.T) {
	C = Config{}
	os.Setenv("SESSION_TIMEOUT", "1h")
	defer os.Unsetenv("SESSION_TIMEOUT")

	if err := Load(); err != nil {
		t.Fatal(err)
	}

	if C.Session.Timeout != time.Hour {
		t.Errorf("Expected session timeout 1h, got %v", C.Session.Timeout)
	}
}

func TestConfig_InvalidDurationIgnored(t *testing.T) {
	C = Config{}
	os.Setenv("SESSION_TIMEOUT", "soon")
	defer os.Unsetenv("SESSION_TIMEOUT")

	if err := Load(); err != nil {
		t.Fatal(err)
	}

	if C.Session.Timeout != 24*time.Hour {
		t.Errorf("Expected default timeout to survive a bad value, got %v", C.Session.Timeout)
	}
}
