package mailer

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

const defaultSendmailPath = "/usr/sbin/sendmail"

// SendmailMailer hands the message to the host's local mail submission
// binary. Recipients are taken from the message headers (-t) and a lone
// dot does not terminate input (-i).
type SendmailMailer struct {
	cfg Config
}

func (m *SendmailMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, code string) error {
	if m.cfg.FromEmail == "" {
		return &TransportError{Op: "sendmail", Err: errors.New("sender address is not configured")}
	}

	msg := verificationMessage(m.cfg, toEmail, toName, code)

	path := m.cfg.SendmailPath
	if path == "" {
		path = defaultSendmailPath
	}

	cmd := exec.CommandContext(ctx, path, "-t", "-i")
	cmd.Stdin = strings.NewReader(msg.render())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &TransportError{Op: "sendmail", Response: strings.TrimSpace(string(out)), Err: err}
	}
	return nil
}
