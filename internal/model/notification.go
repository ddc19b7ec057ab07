package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationKind distinguishes who produced an in-app notification.
type NotificationKind int16

const (
	NotificationKindAdmin   NotificationKind = 1
	NotificationKindMessage NotificationKind = 2
	NotificationKindPayment NotificationKind = 3
)

// PayloadTypeNewMessage is the client-side discriminator for message
// notifications.
const PayloadTypeNewMessage = "new_message"

// Notification is one persisted in-app notification row. Payload is stored as
// JSONB.
type Notification struct {
	ID        uuid.UUID        `db:"id"`
	UserID    uuid.UUID        `db:"user_id"`
	Kind      NotificationKind `db:"kind"`
	Payload   MessagePayload   `db:"payload"`
	IsRead    bool             `db:"is_read"`
	ReadAt    *time.Time       `db:"read_at"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

// MessagePayload is the client-facing body of a new-message notification. The
// field set and JSON keys are part of the mobile client contract.
type MessagePayload struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Message        string `json:"message"`
	Avatar         string `json:"avatar"`
	RedirectURL    string `json:"redirect_url"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// NewMessagePayload builds the payload for one (message, recipient) pair. A
// blank sender identity produces a payload without a name or avatar; delivery
// still proceeds.
func NewMessagePayload(sender SenderInfo, conversationID, messageID uuid.UUID, cdnBaseURL string) MessagePayload {
	title := "You have a new message"
	if name := sender.DisplayName(); name != "" {
		title = fmt.Sprintf("%s sent you a message", name)
	}
	return MessagePayload{
		Type:           PayloadTypeNewMessage,
		Title:          title,
		Subtitle:       title,
		Message:        title,
		Avatar:         ResolveAvatarURL(cdnBaseURL, sender.Avatar()),
		RedirectURL:    fmt.Sprintf("/message/conversation/%s", conversationID),
		ConversationID: conversationID.String(),
		MessageID:      messageID.String(),
	}
}

// ResolveAvatarURL joins a stored avatar path with the CDN base. Absolute URLs
// pass through untouched and an empty path stays empty.
func ResolveAvatarURL(cdnBaseURL, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(cdnBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
