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

type UserRepositoryInterface interface {
	GetSenderInfo(ctx context.Context, userID uuid.UUID) (*model.SenderInfo, error)
}

type UserRepository struct {
	DB *sqlx.DB
}

// GetSenderInfo loads the display identity of the run's sender. An unknown
// user returns (nil, nil); the run then continues with a blank identity.
func (r *UserRepository) GetSenderInfo(ctx context.Context, userID uuid.UUID) (*model.SenderInfo, error) {
	query := `
        SELECT u.id, u.profile_name, p.username, p.avatar_url
        FROM users u
        LEFT JOIN profiles p ON p.user_id = u.id
        WHERE u.id = $1 AND u.deleted_at IS NULL
    `
	var sender model.SenderInfo
	err := r.DB.GetContext(ctx, &sender, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading sender %s: %w", userID, err)
	}
	return &sender, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
