package mail

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"

	"github.com/rs/zerolog"
)

// smtpTransport relays through a plain SMTP listener, typically MailHog or a
// local postfix. No auth, no TLS: this path is for development environments
// only.
type smtpTransport struct {
	addr string
	from mail.Address
	cfg  Config
	log  zerolog.Logger
}

func newSMTPTransport(cfg Config, log zerolog.Logger) *smtpTransport {
	return &smtpTransport{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: mail.Address{Name: cfg.FromName, Address: cfg.FromAddress},
		cfg:  cfg,
		log:  log,
	}
}

func (t *smtpTransport) Name() string { return BackendSMTP }

func (t *smtpTransport) Send(ctx context.Context, msg *Message) error {
	raw, err := buildMIME(t.from, msg, headerOverrides{
		ReplyTo:         t.cfg.ReplyTo,
		ListUnsubscribe: t.cfg.ListUnsubscribe,
	})
	if err != nil {
		return err
	}

	if err := smtp.SendMail(t.addr, nil, t.from.Address, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("smtp relay %s: %w", t.addr, err)
	}

	t.log.Info().Str("to", msg.To).Str("relay", t.addr).Msg("email sent")
	return nil
}

var _ Transport = (*smtpTransport)(nil)
