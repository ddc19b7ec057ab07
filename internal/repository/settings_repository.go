package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumeo-app/message-dispatcher/internal/model"
)

type SettingsRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserNotificationSettings, error)
}

type SettingsRepository struct {
	DB *sqlx.DB
}

// GetByUserID loads a user's notification settings row. Users without one
// return (nil, nil); callers treat that as everything enabled.
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserNotificationSettings, error) {
	query := `
        SELECT id, user_id, kind, settings, created_at, updated_at
        FROM user_settings
        WHERE user_id = $1
        ORDER BY created_at
        LIMIT 1
    `
	var settings model.UserNotificationSettings
	err := r.DB.GetContext(ctx, &settings, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings for user %s: %w", userID, err)
	}
	return &settings, nil
}

var _ SettingsRepositoryInterface = (*SettingsRepository)(nil)
