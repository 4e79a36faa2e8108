package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config parameterizes the verification email transport. It mirrors the
// mail section of the application config but keeps this package free of a
// dependency on the config package.
type Config struct {
	Host       string
	Port       int
	Encryption string // "tls" (STARTTLS), "ssl" (implicit TLS) or empty
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	Timeout    time.Duration
	EhloDomain string

	// SendmailPath overrides the sendmail binary used by the local
	// transport. Empty means /usr/sbin/sendmail.
	SendmailPath string
}

// Mailer delivers a verification email to a single recipient.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, code string) error
}

// New selects a transport. "smtp" speaks the protocol directly, "none"
// disables delivery (callers then surface the code in the session), and
// anything else hands the message to the local sendmail binary.
func New(transport string, cfg Config) Mailer {
	switch strings.ToLower(transport) {
	case "smtp":
		return &SMTPMailer{cfg: cfg}
	case "none":
		return nil
	default:
		return &SendmailMailer{cfg: cfg}
	}
}

// TransportError reports a failed delivery attempt. Response carries the
// offending server reply, if any, for diagnostics; it is logged server-side
// and never shown to the user.
type TransportError struct {
	Op       string
	Response string
	Err      error
}

func (e *TransportError) Error() string {
	switch {
	case e.Response != "" && e.Err != nil:
		return fmt.Sprintf("mail transport %s: %v (server said: %s)", e.Op, e.Err, e.Response)
	case e.Response != "":
		return fmt.Sprintf("mail transport %s: unexpected server response: %s", e.Op, e.Response)
	default:
		return fmt.Sprintf("mail transport %s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
