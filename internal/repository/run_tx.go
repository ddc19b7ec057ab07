package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lumeo-app/message-dispatcher/internal/model"
)

// RunTx is the single write transaction covering one dispatch run. Each
// message is processed inside its own savepoint so a failed message rolls
// back alone while the rest of the run commits.
type RunTx interface {
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error

	// ClaimSent flips one message from PENDING to SENT. It returns false when
	// the message is no longer claimable, which means another run already
	// delivered it or it was deleted in the meantime.
	ClaimSent(ctx context.Context, msg *model.ScheduledMessage) (bool, error)

	// SetConversationHead advances the conversation's last-message marker. A
	// missing conversation row returns false without error.
	SetConversationHead(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) (bool, error)

	Commit() error
	Rollback() error
}

type runTx struct {
	tx *sqlx.Tx
}

func (t *runTx) Savepoint(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("creating savepoint %s: %w", name, err)
	}
	return nil
}

func (t *runTx) RollbackTo(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("rolling back to savepoint %s: %w", name, err)
	}
	return nil
}

func (t *runTx) Release(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("releasing savepoint %s: %w", name, err)
	}
	return nil
}

func (t *runTx) ClaimSent(ctx context.Context, msg *model.ScheduledMessage) (bool, error) {
	query := `
        UPDATE conversation_messages
        SET delivery_status = $1, updated_at = COALESCE(scheduled_at, now())
        WHERE id = $2 AND delivery_status = $3 AND deleted_at IS NULL
        RETURNING updated_at
    `
	var updatedAt time.Time
	err := t.tx.QueryRowxContext(ctx, query, model.DeliverySent, msg.ID, model.DeliveryPending).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claiming message %s: %w", msg.ID, err)
	}

	msg.DeliveryStatus = model.DeliverySent
	msg.UpdatedAt = updatedAt
	return true, nil
}

func (t *runTx) SetConversationHead(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) (bool, error) {
	query := `
        UPDATE conversations
        SET last_message_id = $1, last_message_at = $2, updated_at = now()
        WHERE id = $3
    `
	res, err := t.tx.ExecContext(ctx, query, messageID, at, conversationID)
	if err != nil {
		return false, fmt.Errorf("updating conversation %s: %w", conversationID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating conversation %s: %w", conversationID, err)
	}
	return affected > 0, nil
}

func (t *runTx) Commit() error {
	return t.tx.Commit()
}

func (t *runTx) Rollback() error {
	return t.tx.Rollback()
}

var _ RunTx = (*runTx)(nil)
