// Package mail renders and delivers the dispatcher's transactional email.
// Delivery goes through a pluggable transport: a local SMTP relay during
// development, Amazon SES everywhere else.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/lumeo-app/message-dispatcher/internal/errors"
)

// Backend names accepted in EMAIL_BACKEND.
const (
	BackendAuto = "auto"
	BackendSMTP = "smtp"
	BackendSES  = "ses"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config carries everything the mailer needs. Values come straight from the
// process environment.
type Config struct {
	Enabled             bool
	Backend             string
	Environment         string
	FromAddress         string
	FromName            string
	ReplyTo             string
	ListUnsubscribe     string
	SupportEmail        string
	SMTPHost            string
	SMTPPort            int
	AWSRegion           string
	SESConfigurationSet string
}

// Message is one fully rendered email ready for a transport.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers one rendered message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

// NewMessageEmail is the template payload for the new-message notification.
type NewMessageEmail struct {
	Brand             string
	RecipientUsername string
	SenderUsername    string
	ConversationURL   string
	SupportEmail      string
}

// Service renders templates and hands the result to the configured transport.
type Service struct {
	cfg       Config
	transport Transport
	templates *template.Template
	log       zerolog.Logger
}

// New builds the mail service. With sending disabled no transport is
// initialized at all, so a disabled run never touches AWS credentials.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Service, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing mail templates: %w", err)
	}

	svc := &Service{cfg: cfg, templates: templates, log: log}
	if !cfg.Enabled {
		log.Info().Msg("email sending disabled")
		return svc, nil
	}

	backend := ResolveBackend(cfg.Backend, cfg.Environment)
	switch backend {
	case BackendSMTP:
		svc.transport = newSMTPTransport(cfg, log)
	case BackendSES:
		transport, err := newSESTransport(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		svc.transport = transport
	default:
		return nil, apperrors.NewUnsupportedBackend(backend)
	}

	log.Info().Str("backend", svc.transport.Name()).Msg("email transport ready")
	return svc, nil
}

// ResolveBackend maps the auto backend to a concrete one: local-looking
// environments relay to SMTP, everything else goes to SES. Explicit backends
// pass through.
func ResolveBackend(backend, environment string) string {
	b := strings.ToLower(strings.TrimSpace(backend))
	if b != "" && b != BackendAuto {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development":
		return BackendSMTP
	default:
		return BackendSES
	}
}

// SendNewMessage renders and sends the new-message email for one recipient.
// With sending disabled it is a no-op, not an error.
func (s *Service) SendNewMessage(ctx context.Context, to, recipientName, senderName, conversationURL string) error {
	if !s.cfg.Enabled {
		s.log.Debug().Str("to", to).Msg("email disabled, skipping send")
		return nil
	}

	data := NewMessageEmail{
		Brand:             s.cfg.FromName,
		RecipientUsername: recipientName,
		SenderUsername:    senderName,
		ConversationURL:   conversationURL,
		SupportEmail:      s.cfg.SupportEmail,
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "new_message.html", data); err != nil {
		return fmt.Errorf("rendering new message email: %w", err)
	}

	html := buf.String()
	msg := &Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] You have a new message", s.cfg.FromName),
		HTML:    html,
		Text:    htmlToText(html),
	}

	if err := s.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending via %s: %w", s.transport.Name(), err)
	}
	return nil
}
