package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/anushreddydasari/cpqagri/internal/config"
)

// Mailer delivers signing links over SMTP with the quote PDF attached.
type Mailer struct {
	cfg config.SMTPConfig
}

// New returns nil when no SMTP host is configured; callers treat a nil
// mailer as delivery disabled.
func New(cfg config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) SendSigningLink(ctx context.Context, to, quoteNumber, link string, pdf []byte, filename string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("Quote %s is ready for your signature", quoteNumber))
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Quote %s is attached.\n\nReview and sign it here: %s\n\nThis link is personal, do not forward it.\n",
		quoteNumber, link,
	))
	if err := msg.AttachReader(filename, bytes.NewReader(pdf)); err != nil {
		return fmt.Errorf("attach pdf: %w", err)
	}

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
