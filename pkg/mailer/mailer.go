package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/wonny/finrag-metrics/pkg/config"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// ErrNotConfigured is returned when SMTP settings are incomplete
var ErrNotConfigured = errors.New("smtp not configured")

// Attachment is a file attached to a message
type Attachment struct {
	Name string
	Data []byte
}

// Message is a plain-text email with optional attachments
type Message struct {
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer sends alert emails over SMTP (STARTTLS)
// ⭐ SSOT: 알림 메일 발송은 여기서만
type Mailer struct {
	sender  gomail.Sender
	dialer  *gomail.Dialer
	from    string
	to      []string
	enabled bool
	logger  *logger.Logger
}

// New creates a mailer from config. Incomplete settings yield a disabled mailer.
func New(cfg *config.Config, log *logger.Logger) *Mailer {
	if log == nil {
		log = logger.NewNop()
	}
	m := &Mailer{
		from:    cfg.SMTP.From,
		to:      splitRecipients(cfg.SMTP.To),
		enabled: cfg.SMTPEnabled(),
		logger:  log.Component("mailer"),
	}
	if m.enabled {
		m.dialer = gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password)
	}
	return m
}

// NewWithSender creates an enabled mailer that delivers through sender
func NewWithSender(from, to string, sender gomail.Sender, log *logger.Logger) *Mailer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Mailer{
		sender:  sender,
		from:    from,
		to:      splitRecipients(to),
		enabled: true,
		logger:  log.Component("mailer"),
	}
}

// Enabled reports whether messages will be delivered
func (m *Mailer) Enabled() bool {
	return m.enabled
}

// Send delivers msg to every configured recipient
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.enabled {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", m.to...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	for _, a := range msg.Attachments {
		data := a.Data
		gm.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	var err error
	if m.sender != nil {
		err = gomail.Send(m.sender, gm)
	} else {
		err = m.dialer.DialAndSend(gm)
	}
	if err != nil {
		return fmt.Errorf("failed to send %q: %w", msg.Subject, err)
	}

	m.logger.WithFields(map[string]interface{}{
		"subject": msg.Subject,
		"to":      strings.Join(m.to, ","),
	}).Info("Email sent")
	return nil
}

func splitRecipients(to string) []string {
	var out []string
	for _, part := range strings.Split(to, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
