package email

import (
	"context"

	"github.com/wneessen/go-mail"

	"planivo/internal/platform/config"
)

// Sender wraps the SMTP client used by the notifier worker.
type Sender struct {
	client *mail.Client
	from   string
}

func New(cfg config.Config) (*Sender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}
	return &Sender{client: client, from: cfg.EmailFrom}, nil
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return s.client.DialAndSendWithContext(ctx, msg)
}

func (s *Sender) Close() {
	_ = s.client.Close()
}
