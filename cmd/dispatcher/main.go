package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/lumeo-app/message-dispatcher/internal/config"
	"github.com/lumeo-app/message-dispatcher/internal/db"
	"github.com/lumeo-app/message-dispatcher/internal/logging"
	"github.com/lumeo-app/message-dispatcher/internal/mail"
	"github.com/lumeo-app/message-dispatcher/internal/repository"
	"github.com/lumeo-app/message-dispatcher/internal/service"
)

// The dispatcher is a one-shot batch: it releases one delivery group of
// scheduled messages and exits. Exit code 0 means the run completed, even
// when individual messages failed; those are reported in the summary log.
func main() {
	ctx := context.Background()
	log := logging.New("info", "console")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on OS environment")
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	log = logging.New(cfg.LogLevel, cfg.LogFormat)

	pool, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(pool, log); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	mailer, err := mail.New(ctx, mail.Config{
		Enabled:             cfg.EmailEnabled,
		Backend:             cfg.EmailBackend,
		Environment:         cfg.Environment,
		FromAddress:         cfg.MailFrom,
		FromName:            cfg.MailFromName,
		ReplyTo:             cfg.ReplyTo,
		ListUnsubscribe:     cfg.ListUnsubscribe,
		SupportEmail:        cfg.SupportEmail,
		SMTPHost:            cfg.SMTPHost,
		SMTPPort:            cfg.SMTPPort,
		AWSRegion:           cfg.AWSRegion,
		SESConfigurationSet: cfg.SESConfigurationSet,
	}, log.With().Str("component", "mail").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("mail transport init failed")
	}

	participants := &repository.ParticipantRepository{DB: pool}

	runner := &service.RunController{
		Messages: &repository.MessageRepository{DB: pool},
		Users:    &repository.UserRepository{DB: pool},
		Dispatcher: &service.MessageDispatcher{
			Participants: participants,
			Emitter: &service.NotificationEmitter{
				Filter: &service.EligibilityFilter{
					Settings:     &repository.SettingsRepository{DB: pool},
					Participants: participants,
					Log:          log.With().Str("component", "eligibility").Logger(),
				},
				Notifications: &repository.NotificationRepository{DB: pool},
				Mailer:        mailer,
				FrontendURL:   cfg.FrontendURL,
				CDNBaseURL:    cfg.CDNBaseURL,
				Log:           log.With().Str("component", "emitter").Logger(),
			},
			Log: log.With().Str("component", "dispatcher").Logger(),
		},
		GroupTag:     cfg.GroupTag,
		SenderUserID: cfg.SenderUserID,
		Log:          log.With().Str("component", "runner").Logger(),
	}

	if _, err := runner.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("dispatch run failed")
	}
}
