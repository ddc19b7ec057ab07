package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus tracks where a scheduled message is in its delivery lifecycle.
// The numeric values are shared with the wider platform schema and must not be
// reordered.
type DeliveryStatus int16

const (
	DeliverySent    DeliveryStatus = 1
	DeliveryPending DeliveryStatus = 2
)

// MessageKind values for conversation_messages.kind.
const (
	MessageKindText int16 = 1
)

// ScheduledMessage is a conversation message composed ahead of time and held
// back until its delivery group is released by a dispatch run.
type ScheduledMessage struct {
	ID              uuid.UUID      `db:"id"`
	ConversationID  uuid.UUID      `db:"conversation_id"`
	SenderUserID    uuid.NullUUID  `db:"sender_user_id"`
	SenderAdminID   uuid.NullUUID  `db:"sender_admin_id"`
	DeliveryStatus  DeliveryStatus `db:"delivery_status"`
	Kind            int16          `db:"kind"`
	GroupTag        *string        `db:"group_tag"`
	BodyText        *string        `db:"body_text"`
	ParentMessageID uuid.NullUUID  `db:"parent_message_id"`
	Moderation      int16          `db:"moderation"`
	ScheduledAt     *time.Time     `db:"scheduled_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}
