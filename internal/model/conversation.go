package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversationKind values for conversations.kind.
const (
	ConversationKindDirect int16 = 1
	ConversationKindGroup  int16 = 2
)

// Conversation is the thread a scheduled message belongs to. The dispatcher
// only ever advances its last-message head; everything else is owned by the
// messaging API.
type Conversation struct {
	ID            uuid.UUID     `db:"id"`
	Kind          int16         `db:"kind"`
	IsActive      bool          `db:"is_active"`
	LastMessageID uuid.NullUUID `db:"last_message_id"`
	LastMessageAt *time.Time    `db:"last_message_at"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
	DeletedAt     *time.Time    `db:"deleted_at"`
}
