package model

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantType values for conversation_participants.participant_type.
const (
	ParticipantTypeUser  int16 = 1
	ParticipantTypeAdmin int16 = 2
)

// Participant is one user's membership in a conversation, including the
// per-conversation mute flag consulted during fan-out.
type Participant struct {
	ID                 uuid.UUID     `db:"id"`
	ConversationID     uuid.UUID     `db:"conversation_id"`
	ParticipantID      uuid.UUID     `db:"participant_id"`
	ParticipantType    int16         `db:"participant_type"`
	Role               int16         `db:"role"`
	JoinedAt           time.Time     `db:"joined_at"`
	LastReadMessageID  uuid.NullUUID `db:"last_read_message_id"`
	NotificationsMuted bool          `db:"notifications_muted"`
	IsBlocked          bool          `db:"is_blocked"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

// Recipient is one conversation member resolved for fan-out, joined with the
// contact and profile columns the emitter needs. The sender never appears
// here.
type Recipient struct {
	ParticipantID      uuid.UUID `db:"participant_id"`
	ConversationID     uuid.UUID `db:"conversation_id"`
	NotificationsMuted bool      `db:"notifications_muted"`
	Email              *string   `db:"email"`
	Username           *string   `db:"username"`
}
