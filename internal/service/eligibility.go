package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumeo-app/message-dispatcher/internal/repository"
)

// EligibilityFilter decides whether one user may be notified about activity
// in one conversation. It never returns an error: settings problems fail
// open, membership problems fail closed, and both are logged.
type EligibilityFilter struct {
	Settings     repository.SettingsRepositoryInterface
	Participants repository.ParticipantRepositoryInterface
	Log          zerolog.Logger
}

// Eligible applies the two gates in order: the user's message-notification
// preference, then the per-conversation mute flag.
func (f *EligibilityFilter) Eligible(ctx context.Context, userID, conversationID uuid.UUID) bool {
	settings, err := f.Settings.GetByUserID(ctx, userID)
	if err != nil {
		// An unreadable preference row must never suppress delivery.
		f.Log.Warn().Err(err).Stringer("user_id", userID).
			Msg("settings lookup failed, treating message notifications as enabled")
	} else if settings != nil && !settings.Settings.MessageEnabled() {
		f.Log.Debug().Stringer("user_id", userID).Msg("message notifications disabled by user")
		return false
	}

	participant, err := f.Participants.Get(ctx, conversationID, userID)
	if err != nil {
		f.Log.Warn().Err(err).Stringer("user_id", userID).Stringer("conversation_id", conversationID).
			Msg("participant lookup failed, skipping recipient")
		return false
	}
	if participant == nil {
		f.Log.Debug().Stringer("user_id", userID).Stringer("conversation_id", conversationID).
			Msg("user is not a conversation participant")
		return false
	}
	if participant.NotificationsMuted {
		f.Log.Debug().Stringer("user_id", userID).Stringer("conversation_id", conversationID).
			Msg("conversation muted by user")
		return false
	}
	return true
}
