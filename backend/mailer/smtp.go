package mailer

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultSMTPTimeout = 30 * time.Second

// SMTPMailer speaks the SMTP dialogue directly over a raw socket:
// greeting, EHLO, optional STARTTLS upgrade, optional AUTH LOGIN, then the
// MAIL FROM / RCPT TO / DATA sequence. Every step checks the server reply
// before the next command is sent.
type SMTPMailer struct {
	cfg Config
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, code string) error {
	cfg := m.cfg
	if cfg.Host == "" {
		return &TransportError{Op: "connect", Err: errors.New("SMTP host is not configured")}
	}

	from := cfg.FromEmail
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return &TransportError{Op: "connect", Err: errors.New("cannot determine sender address for SMTP delivery")}
	}
	cfg.FromEmail = from

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: timeout}
	encryption := strings.ToLower(cfg.Encryption)

	var conn net.Conn
	var err error
	if encryption == "ssl" {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return &TransportError{Op: "connect", Err: err}
	}

	c := &smtpConn{conn: conn, r: bufio.NewReader(conn), timeout: timeout}
	defer func() { c.conn.Close() }()

	if _, err := c.expect(220); err != nil {
		return err
	}

	domain := sanitizeEhloDomain(cfg.EhloDomain, cfg.Host)
	if _, err := c.cmd("EHLO "+domain, 250); err != nil {
		return err
	}

	if encryption == "tls" {
		if _, err := c.cmd("STARTTLS", 220); err != nil {
			return err
		}
		if err := c.upgradeTLS(cfg.Host); err != nil {
			return err
		}
		if _, err := c.cmd("EHLO "+domain, 250); err != nil {
			return err
		}
	}

	if cfg.Username != "" {
		if _, err := c.cmd("AUTH LOGIN", 334); err != nil {
			return err
		}
		if _, err := c.cmd(base64.StdEncoding.EncodeToString([]byte(cfg.Username)), 334); err != nil {
			return err
		}
		if _, err := c.cmd(base64.StdEncoding.EncodeToString([]byte(cfg.Password)), 235); err != nil {
			return err
		}
	}

	if _, err := c.cmd("MAIL FROM: <"+cfg.FromEmail+">", 250); err != nil {
		return err
	}
	if _, err := c.cmd("RCPT TO: <"+toEmail+">", 250, 251); err != nil {
		return err
	}
	if _, err := c.cmd("DATA", 354); err != nil {
		return err
	}

	msg := verificationMessage(cfg, toEmail, toName, code)
	if err := c.write(stuffDots(msg.render()) + "\r\n."); err != nil {
		return err
	}
	if _, err := c.expect(250); err != nil {
		return err
	}
	if _, err := c.cmd("QUIT", 221); err != nil {
		return err
	}
	return nil
}

type smtpConn struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

func (c *smtpConn) cmd(command string, want ...int) (string, error) {
	if err := c.write(command); err != nil {
		return "", err
	}
	return c.expect(want...)
}

func (c *smtpConn) write(data string) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte(data + "\r\n")); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// expect reads one (possibly multiline) reply and checks its status code.
func (c *smtpConn) expect(want ...int) (string, error) {
	c.conn.SetReadDeadline(time.Now().Add(c.timeout))

	var b strings.Builder
	for {
		line, err := c.r.ReadString('\n')
		b.WriteString(line)
		if err != nil {
			if b.Len() == 0 {
				return "", &TransportError{Op: "read", Err: err}
			}
			break
		}
		// The last line of a reply has a space after the status code, or
		// nothing at all; only a dash marks a continuation.
		if len(line) >= 4 && (line[3] == ' ' || line[3] == '\r' || line[3] == '\n') {
			break
		}
	}

	resp := b.String()
	if strings.TrimSpace(resp) == "" {
		return "", &TransportError{Op: "read", Err: errors.New("empty response from SMTP server")}
	}

	code := 0
	if len(resp) >= 3 {
		code, _ = strconv.Atoi(resp[:3])
	}
	for _, w := range want {
		if code == w {
			return resp, nil
		}
	}
	return resp, &TransportError{Op: "dialogue", Response: strings.TrimSpace(resp)}
}

func (c *smtpConn) upgradeTLS(host string) error {
	tlsConn := tls.Client(c.conn, &tls.Config{ServerName: host})
	tlsConn.SetDeadline(time.Now().Add(c.timeout))
	if err := tlsConn.Handshake(); err != nil {
		return &TransportError{Op: "starttls", Err: err}
	}
	tlsConn.SetDeadline(time.Time{})
	c.conn = tlsConn
	c.r = bufio.NewReader(tlsConn)
	return nil
}

var (
	schemePrefix  = regexp.MustCompile(`(?i)^[a-z0-9.+-]+://`)
	invalidDomain = regexp.MustCompile(`[^A-Za-z0-9.-]`)
)

// sanitizeEhloDomain strips scheme prefixes and characters that are not
// valid in a hostname, falling back to the target host, then "localhost".
func sanitizeEhloDomain(domain, fallbackHost string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		domain = fallbackHost
	}
	domain = schemePrefix.ReplaceAllString(domain, "")
	domain = invalidDomain.ReplaceAllString(domain, "")
	domain = strings.TrimRight(domain, ".")
	if domain == "" {
		fallback := invalidDomain.ReplaceAllString(fallbackHost, "")
		if fallback != "" {
			return fallback
		}
		return "localhost"
	}
	return domain
}
