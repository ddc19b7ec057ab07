package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserSettingsKind values for user_settings.kind.
const (
	UserSettingsKindNotifications int16 = 1
)

// UserNotificationSettings is a user's notification preference row. The
// settings column is a loosely-typed JSON bag written by several clients, so
// reads must tolerate anything.
type UserNotificationSettings struct {
	ID        uuid.UUID   `db:"id"`
	UserID    uuid.UUID   `db:"user_id"`
	Kind      int16       `db:"kind"`
	Settings  SettingsBag `db:"settings"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

// SettingsBag holds the raw settings JSON keyed by preference name. Only the
// "message" key gates this dispatcher; every decode rule here fails open so a
// broken preference row never suppresses delivery by accident.
type SettingsBag map[string]json.RawMessage

// Scan implements sql.Scanner. Malformed JSON decodes to an empty bag rather
// than an error.
func (b *SettingsBag) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		return b.decode(v)
	case string:
		return b.decode([]byte(v))
	default:
		return fmt.Errorf("unsupported settings type %T", src)
	}
}

func (b *SettingsBag) decode(raw []byte) error {
	if len(raw) == 0 {
		*b = nil
		return nil
	}
	var bag map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bag); err != nil {
		*b = nil
		return nil
	}
	*b = bag
	return nil
}

// MessageEnabled reports whether the user accepts message notifications. An
// absent key, a non-boolean value, or a nil bag all mean enabled.
func (b SettingsBag) MessageEnabled() bool {
	raw, ok := b["message"]
	if !ok {
		return true
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		return true
	}
	return enabled
}
