// Package config reads and validates the process environment for one
// dispatch run.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Config is the environment contract of the dispatcher. Every run is
// parameterized entirely through these variables; there are no flags.
type Config struct {
	// GroupTag selects which delivery group this run releases. The raw value
	// is normalized with TrimGroupTag before use.
	GroupTag     string `env:"GROUP_BY,required" validate:"required"`
	SenderUserID string `env:"SENDER_USER_ID,required" validate:"required"`
	DatabaseURL  string `env:"DATABASE_URL,required" validate:"required"`

	FrontendURL string `env:"FRONTEND_URL,default=http://localhost:3000" validate:"required,url"`
	CDNBaseURL  string `env:"CDN_BASE_URL,default=https://cdn.lumeo.app" validate:"required,url"`

	Environment string `env:"ENV,default=local"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=json" validate:"oneof=json console"`

	EmailEnabled        bool   `env:"EMAIL_ENABLED,default=true"`
	EmailBackend        string `env:"EMAIL_BACKEND,default=auto" validate:"oneof=auto smtp ses"`
	MailFrom            string `env:"MAIL_FROM,default=no-reply@lumeo.app" validate:"required,email"`
	MailFromName        string `env:"MAIL_FROM_NAME,default=Lumeo" validate:"required"`
	ReplyTo             string `env:"REPLY_TO" validate:"omitempty,email"`
	ListUnsubscribe     string `env:"LIST_UNSUBSCRIBE"`
	SupportEmail        string `env:"SUPPORT_EMAIL,default=support@lumeo.app" validate:"required,email"`
	SMTPHost            string `env:"SMTP_HOST,default=127.0.0.1" validate:"required"`
	SMTPPort            int    `env:"SMTP_PORT,default=1025" validate:"min=1,max=65535"`
	AWSRegion           string `env:"AWS_REGION,default=us-east-1" validate:"required"`
	SESConfigurationSet string `env:"SES_CONFIGURATION_SET"`
}

// Load reads the process environment, normalizes the delivery group tag, and
// validates the result. A returned error is fatal: the run must not start.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, lookuper); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.GroupTag = TrimGroupTag(cfg.GroupTag)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// TrimGroupTag strips surrounding whitespace and one matching pair of single
// or double quotes. Quoted values sneak in when the tag is exported as
// GROUP_BY="..." by cron wrappers.
func TrimGroupTag(raw string) string {
	tag := strings.TrimSpace(raw)
	if len(tag) >= 2 {
		first, last := tag[0], tag[len(tag)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			tag = tag[1 : len(tag)-1]
		}
	}
	return tag
}
