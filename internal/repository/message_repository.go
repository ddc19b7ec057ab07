package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lumeo-app/message-dispatcher/internal/model"
)

type MessageRepositoryInterface interface {
	SelectDue(ctx context.Context, groupTag string) ([]model.ScheduledMessage, error)
	Begin(ctx context.Context) (RunTx, error)
}

type MessageRepository struct {
	DB *sqlx.DB
}

// SelectDue returns the pending, non-deleted messages of one delivery group in
// creation order. An empty group is a normal result, not an error.
func (r *MessageRepository) SelectDue(ctx context.Context, groupTag string) ([]model.ScheduledMessage, error) {
	query := `
        SELECT id, conversation_id, sender_user_id, sender_admin_id, delivery_status,
               kind, group_tag, body_text, parent_message_id, moderation,
               scheduled_at, deleted_at, created_at, updated_at
        FROM conversation_messages
        WHERE group_tag = $1
          AND delivery_status = $2
          AND deleted_at IS NULL
        ORDER BY created_at, id
    `
	messages := []model.ScheduledMessage{}
	if err := r.DB.SelectContext(ctx, &messages, query, groupTag, model.DeliveryPending); err != nil {
		return nil, fmt.Errorf("selecting due messages for group %q: %w", groupTag, err)
	}
	return messages, nil
}

// Begin opens the run-wide write transaction. Message claims and conversation
// updates flow through the returned RunTx; notification inserts do not.
func (r *MessageRepository) Begin(ctx context.Context) (RunTx, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("opening run transaction: %w", err)
	}
	return &runTx{tx: tx}, nil
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
