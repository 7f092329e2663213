package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"time"

	"formrelay/internal/domain"
)

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	AppURL    string
}

// Mailer sends the notification for one recorded submission over SMTP.
// Delivery is synchronous and best-effort: one attempt, no queue. The
// orchestrator records any returned error on the submission and moves on.
type Mailer struct {
	cfg         Config
	dialTimeout time.Duration
	ioTimeout   time.Duration
}

func New(cfg Config) *Mailer {
	return &Mailer{
		cfg:         cfg,
		dialTimeout: 10 * time.Second,
		ioTimeout:   30 * time.Second,
	}
}

// Deliver renders and sends the notification email to the key's recipient,
// with every staged file attached. The submission must already be persisted:
// its fields, files and metadata are read as-is.
func (m *Mailer) Deliver(ctx context.Context, key *domain.ApiKey, sub *domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	msg, err := buildMessage(m.cfg, key, sub)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := m.send(key.RecipientEmail, msg); err != nil {
		return err
	}

	log.Printf("email_sent recipient=%s submission_id=%d", key.RecipientEmail, sub.ID)
	return nil
}

func (m *Mailer) send(recipient string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, m.dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	// A server that accepts the connection and then stalls must not hang
	// the request; the deadline covers the whole SMTP conversation.
	_ = conn.SetDeadline(time.Now().Add(m.ioTimeout))

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: m.cfg.Host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := client.Mail(m.cfg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}
	return nil
}
