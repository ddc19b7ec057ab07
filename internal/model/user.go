package model

import (
	"time"

	"github.com/google/uuid"
)

// User carries the account columns the dispatcher reads. The table itself is
// owned by the accounts service.
type User struct {
	ID          uuid.UUID  `db:"id"`
	Email       *string    `db:"email"`
	ProfileName *string    `db:"profile_name"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

// Profile is the public-facing profile attached to a user.
type Profile struct {
	UserID    uuid.UUID `db:"user_id"`
	Username  *string   `db:"username"`
	AvatarURL *string   `db:"avatar_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SenderInfo is the sender identity stamped onto outgoing notifications and
// emails. The zero value is the blank identity used when the sender cannot be
// resolved.
type SenderInfo struct {
	ID          uuid.UUID `db:"id"`
	ProfileName *string   `db:"profile_name"`
	Username    *string   `db:"username"`
	AvatarURL   *string   `db:"avatar_url"`
}

// DisplayName resolves the name shown to recipients: the account profile name
// wins, then the profile username, then empty.
func (s SenderInfo) DisplayName() string {
	if s.ProfileName != nil && *s.ProfileName != "" {
		return *s.ProfileName
	}
	if s.Username != nil && *s.Username != "" {
		return *s.Username
	}
	return ""
}

// Avatar returns the stored avatar path, or empty when the sender has none.
func (s SenderInfo) Avatar() string {
	if s.AvatarURL == nil {
		return ""
	}
	return *s.AvatarURL
}
