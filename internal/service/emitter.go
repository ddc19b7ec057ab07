package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumeo-app/message-dispatcher/internal/model"
	"github.com/lumeo-app/message-dispatcher/internal/repository"
)

// DeliveryOutcome classifies one (message, recipient) attempt.
type DeliveryOutcome int

const (
	OutcomeNotified DeliveryOutcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o DeliveryOutcome) String() string {
	switch o {
	case OutcomeNotified:
		return "notified"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Mailer sends the per-recipient notification email.
type Mailer interface {
	SendNewMessage(ctx context.Context, to, recipientName, senderName, conversationURL string) error
}

// NotificationEmitter delivers to a single recipient: it persists the in-app
// notification, then attempts the email. The notification insert commits on
// its own, so it survives even when the surrounding message later rolls back.
// The email is best effort; its failure never changes the outcome.
type NotificationEmitter struct {
	Filter        *EligibilityFilter
	Notifications repository.NotificationRepositoryInterface
	Mailer        Mailer
	FrontendURL   string
	CDNBaseURL    string
	Log           zerolog.Logger
}

// Emit runs the full per-recipient sequence. It never returns an error; the
// outcome says everything the dispatcher needs to aggregate.
func (e *NotificationEmitter) Emit(ctx context.Context, msg *model.ScheduledMessage, sender model.SenderInfo, rcpt model.Recipient) DeliveryOutcome {
	if !e.Filter.Eligible(ctx, rcpt.ParticipantID, msg.ConversationID) {
		return OutcomeSkipped
	}

	notification := &model.Notification{
		UserID:  rcpt.ParticipantID,
		Kind:    model.NotificationKindMessage,
		Payload: model.NewMessagePayload(sender, msg.ConversationID, msg.ID, e.CDNBaseURL),
	}
	if err := e.Notifications.Insert(ctx, notification); err != nil {
		e.Log.Error().Err(err).
			Stringer("message_id", msg.ID).
			Stringer("user_id", rcpt.ParticipantID).
			Msg("notification insert failed")
		return OutcomeFailed
	}

	e.Log.Debug().
		Stringer("notification_id", notification.ID).
		Stringer("user_id", rcpt.ParticipantID).
		Msg("notification stored")

	e.sendEmail(ctx, msg, sender, rcpt)
	return OutcomeNotified
}

func (e *NotificationEmitter) sendEmail(ctx context.Context, msg *model.ScheduledMessage, sender model.SenderInfo, rcpt model.Recipient) {
	if rcpt.Email == nil || *rcpt.Email == "" {
		e.Log.Warn().Stringer("user_id", rcpt.ParticipantID).Msg("recipient has no email address")
		return
	}

	recipientName := "there"
	if rcpt.Username != nil && *rcpt.Username != "" {
		recipientName = *rcpt.Username
	}

	url := e.conversationURL(msg.ConversationID.String())
	if err := e.Mailer.SendNewMessage(ctx, *rcpt.Email, recipientName, sender.DisplayName(), url); err != nil {
		// Email is the second, non-durable leg. Log and move on.
		e.Log.Error().Err(err).
			Stringer("message_id", msg.ID).
			Stringer("user_id", rcpt.ParticipantID).
			Msg("email send failed")
		return
	}

	e.Log.Debug().Stringer("user_id", rcpt.ParticipantID).Msg("email dispatched")
}

func (e *NotificationEmitter) conversationURL(conversationID string) string {
	return fmt.Sprintf("%s/message/conversation/%s", strings.TrimRight(e.FrontendURL, "/"), conversationID)
}
