package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/sakif/grindboard/internal/model"
)

// DefaultEmailSubject is used when the day's content has no subject line.
const DefaultEmailSubject = "Time to grind"

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Segoe UI, sans-serif; line-height: 1.5;">
  <h2 style="margin-bottom: 16px;">{{.Subject}}</h2>
  <div style="white-space: pre-line;">{{.Body}}</div>
  <p style="color: #888; font-size: 12px; margin-top: 32px;">
    You get this because you set a daily grind time. Change it on your profile.
  </p>
</body>
</html>`))

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Email sends reminders over SMTP using gomail.
type Email struct {
	from     string
	sendMail func(m ...*gomail.Message) error
}

// NewEmail builds an SMTP channel. The connection is opened per message;
// a dispatch run sends at most a batch worth of mail at a time.
func NewEmail(cfg EmailConfig) *Email {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Email{
		from:     cfg.From,
		sendMail: d.DialAndSend,
	}
}

func (e *Email) Name() string { return "email" }

// Send renders msg for u and hands it to the SMTP server.
func (e *Email) Send(ctx context.Context, u model.User, msg Message) error {
	if u.Email == "" {
		return ErrNoAddress
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", u.Email)

	if msg.Templated() {
		var html bytes.Buffer
		if err := emailTemplate.Execute(&html, msg); err != nil {
			return fmt.Errorf("email: rendering template: %w", err)
		}
		m.SetHeader("Subject", msg.Subject)
		m.SetBody("text/plain", msg.Fallback)
		m.AddAlternative("text/html", html.String())
	} else {
		m.SetHeader("Subject", DefaultEmailSubject)
		m.SetBody("text/plain", msg.Fallback)
	}

	return e.deliver(ctx, m)
}

// deliver runs the blocking SMTP exchange and gives up when ctx ends.
// gomail has no context support; an abandoned exchange finishes in the
// background, bounded by the dialer's own network timeout.
func (e *Email) deliver(ctx context.Context, m *gomail.Message) error {
	errc := make(chan error, 1)
	go func() { errc <- e.sendMail(m) }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email: %w", ctx.Err())
	}
}
