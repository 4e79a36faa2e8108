package mailer

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"
)

const verificationSubject = "Verify your email address"

type message struct {
	FromEmail string
	FromName  string
	ToEmail   string
	ToName    string
	Subject   string
	TextBody  string
	HTMLBody  string
}

func verificationMessage(cfg Config, toEmail, toName, code string) *message {
	name := toName
	if name == "" {
		name = "member"
	}

	text := fmt.Sprintf("Hello %s,\n\n"+
		"Thanks for creating an account on IntelligenceDev. Enter the following code to verify your email address: %s.\n"+
		"The code is valid for 30 minutes. If it expires, request a new one from the verification page.\n\n"+
		"See you soon,\nThe IntelligenceDev team", name, code)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Verify your email address</title>
</head>
<body>
    <p>Hello %s,</p>
    <p>Thanks for creating an account on IntelligenceDev. To finish signing up, enter the verification code below:</p>
    <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px;">%s</p>
    <p>The code is valid for 30 minutes. If it expires, request a new one from the verification page.</p>
    <p>See you soon,<br>The IntelligenceDev team</p>
</body>
</html>`, name, code)

	return &message{
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		ToEmail:   toEmail,
		ToName:    toName,
		Subject:   verificationSubject,
		TextBody:  text,
		HTMLBody:  html,
	}
}

// render produces the full RFC 2822 message with a multipart/alternative
// body. Line endings are normalized to CRLF; SMTP dot-stuffing is applied
// separately by the SMTP transport.
func (m *message) render() string {
	boundary := randomBoundary()

	headers := []string{
		"From: " + formatAddress(m.FromEmail, m.FromName),
		"To: " + formatAddress(m.ToEmail, m.ToName),
		"Reply-To: " + formatAddress(m.FromEmail, m.FromName),
		"Subject: " + encodeHeader(m.Subject),
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="` + boundary + `"`,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"X-Mailer: IntelligenceDev",
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, "\r\n"))
	b.WriteString("\r\n\r\n")
	b.WriteString("This is a multipart message in MIME format.\r\n\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(normalizeCRLF(m.TextBody))
	b.WriteString("\r\n\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(normalizeCRLF(m.HTMLBody))
	b.WriteString("\r\n\r\n")
	b.WriteString("--" + boundary + "--\r\n")
	return b.String()
}

func randomBoundary() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// formatAddress renders "Name <addr>" with RFC 2047 encoding for non-ASCII
// display names.
func formatAddress(email, name string) string {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	addr := mail.Address{Name: name, Address: email}
	return addr.String()
}

func encodeHeader(value string) string {
	return mime.BEncoding.Encode("UTF-8", value)
}

// normalizeCRLF rewrites every line ending (CRLF, bare CR, bare LF) as CRLF.
func normalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// stuffDots doubles any leading dot so a body line is never mistaken for
// the SMTP end-of-data marker.
func stuffDots(s string) string {
	if strings.HasPrefix(s, ".") {
		s = "." + s
	}
	return strings.ReplaceAll(s, "\r\n.", "\r\n..")
}
