package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lumeo-app/message-dispatcher/internal/model"
)

type NotificationRepositoryInterface interface {
	Insert(ctx context.Context, n *model.Notification) error
}

// NotificationRepository writes notifications on the shared pool, outside the
// run transaction. Each insert commits on its own, so a notification survives
// even when its message later rolls back.
type NotificationRepository struct {
	DB *sqlx.DB
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("encoding notification payload: %w", err)
	}

	query := `
        INSERT INTO notifications (user_id, kind, payload, is_read)
        VALUES ($1, $2, $3, false)
        RETURNING id, created_at, updated_at
    `
	err = r.DB.QueryRowxContext(ctx, query, n.UserID, n.Kind, payload).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting notification for user %s: %w", n.UserID, err)
	}
	return nil
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)
