// Package mailer is the outbound email sink. Delivery is advisory:
// every send is best-effort and never blocks or rolls back a mutation.
package mailer

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"backend-smartqueue/internal/config"

	"go.uber.org/zap"
)

type Sender interface {
	Send(to string, subject string, html string) error
}

// SMTPSender delivers via plain SMTP (Mailpit-compatible in dev).
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@smartqueue.local"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
}

func (s *SMTPSender) Send(to, subject, html string) error {
	msg := buildMessage(s.from, to, subject, html)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, html string) string {
	return fmt.Sprintf(
		"From: \"SmartQueue\" <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		html,
	)
}

// Default is the process-wide sender, set up in main. Nil in tests that
// never configure mail; SendAsync treats that as a no-op.
var Default Sender

func Init() {
	Default = NewSMTPSender(
		os.Getenv("SMTP_HOST"),
		config.GetEnv("SMTP_PORT", "25"),
		os.Getenv("SMTP_FROM"),
	)
}

// SendAsync delivers in the background. Failures are logged and swallowed.
func SendAsync(to, subject, html string) {
	if Default == nil || to == "" {
		return
	}
	go func() {
		if err := Default.Send(to, subject, html); err != nil {
			config.Logger().Warn("email send failed",
				zap.String("to", to), zap.String("subject", subject), zap.Error(err))
			return
		}
		config.Logger().Debug("email sent",
			zap.String("to", to), zap.String("subject", subject))
	}()
}
