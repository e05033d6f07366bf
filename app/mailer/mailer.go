// Package mailer delivers plain-text email, over SMTP in production and
// into an in-memory outbox in development and tests.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

// ErrDelivery wraps every failure to hand a message to the transport.
var ErrDelivery = errors.New("mail delivery failed")

// Message is a single plain-text email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPMailer sends mail through an SMTP server using go-mail.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer for the given server.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := out.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients %v: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}

func (m *SMTPMailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return mail.NewClient(m.cfg.Host, opts...)
}

// Send delivers msg. Any failure is returned wrapped in ErrDelivery.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.build(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	c, err := m.client()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	if err := c.DialAndSendWithContext(ctx, out); err != nil {
		m.logger.Error("smtp send failed", "host", m.cfg.Host, "to", msg.To, "error", err)
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	m.logger.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Outbox keeps sent messages in memory. Fail makes every send fail.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(ctx context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, o.err)
	}
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}

// Fail sets or clears the error every send returns.
func (o *Outbox) Fail(err error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
}
