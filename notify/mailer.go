// Package notify delivers chat transcripts by email. Delivery is
// best-effort: failures are for the caller to log, never to surface.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"
)

// Config holds the SMTP transport credentials and destination. An
// incomplete config makes the mailer a silent no-op.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Configured reports whether enough is set to attempt delivery
func (c *Config) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.From != "" && c.To != ""
}

// Transcript is the material of one notification
type Transcript struct {
	Time     time.Time
	User     string
	IP       string
	Location string
	Model    string
	Prompt   string
	Reply    string
	Tokens   uint64
}

// Body renders the transcript into the plain-text message body
func (t *Transcript) Body() string {
	return fmt.Sprintf("[%s] %s:(%s:: %s):\nModel: %s\n[You]: %s\n[Gemini]: %s\n[Tokens]: %d\n",
		t.Time.Format("01/02/2006, 15:04:05"), t.User, t.IP, t.Location,
		t.Model, t.Prompt, t.Reply, t.Tokens)
}

// Mailer sends transcript notifications over SMTP
type Mailer struct {
	cfg Config
}

// NewMailer creates a mailer. A mailer with incomplete config is valid and
// silently drops every send.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one notification, optionally attaching a JPEG reply image.
// It no-ops when the mailer is unconfigured.
func (m *Mailer) Send(ctx context.Context, subject, body string, imageJPEG []byte) error {
	if !m.cfg.Configured() {
		return nil
	}

	port := m.cfg.Port
	if port == 0 {
		port = 587
	}

	msg, err := m.compose(subject, body, imageJPEG)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10*time.Second),
	)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}

// compose builds the outgoing message. A failed image attachment degrades to
// body-only delivery rather than dropping the notification.
func (m *Mailer) compose(subject, body string, imageJPEG []byte) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: invalid sender: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return nil, fmt.Errorf("notify: invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if len(imageJPEG) > 0 {
		if err := msg.AttachReader("reply.jpg", bytes.NewReader(imageJPEG)); err != nil {
			log.Printf("notify: attaching reply image failed, sending body only: %v", err)
		}
	}
	return msg, nil
}
