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

type ParticipantRepositoryInterface interface {
	ListRecipients(ctx context.Context, conversationID uuid.UUID, excludeUserID uuid.NullUUID) ([]model.Recipient, error)
	Get(ctx context.Context, conversationID, userID uuid.UUID) (*model.Participant, error)
}

type ParticipantRepository struct {
	DB *sqlx.DB
}

// ListRecipients resolves the members of a conversation for fan-out, joined
// with their account email and profile username. Members without a user row
// are dropped by the inner join; the excluded user (the run's sender) never
// appears.
func (r *ParticipantRepository) ListRecipients(ctx context.Context, conversationID uuid.UUID, excludeUserID uuid.NullUUID) ([]model.Recipient, error) {
	query := `
        SELECT cp.participant_id,
               cp.conversation_id,
               cp.notifications_muted,
               u.email,
               p.username
        FROM conversation_participants cp
        JOIN users u ON u.id = cp.participant_id
        LEFT JOIN profiles p ON p.user_id = cp.participant_id
        WHERE cp.conversation_id = $1
          AND ($2::uuid IS NULL OR cp.participant_id <> $2)
        ORDER BY cp.joined_at, cp.id
    `
	recipients := []model.Recipient{}
	if err := r.DB.SelectContext(ctx, &recipients, query, conversationID, excludeUserID); err != nil {
		return nil, fmt.Errorf("listing recipients for conversation %s: %w", conversationID, err)
	}
	return recipients, nil
}

// Get fetches one membership row. A user who is not in the conversation
// returns (nil, nil).
func (r *ParticipantRepository) Get(ctx context.Context, conversationID, userID uuid.UUID) (*model.Participant, error) {
	query := `
        SELECT id, conversation_id, participant_id, participant_type, role, joined_at,
               last_read_message_id, notifications_muted, is_blocked, created_at, updated_at
        FROM conversation_participants
        WHERE conversation_id = $1 AND participant_id = $2
    `
	var participant model.Participant
	err := r.DB.GetContext(ctx, &participant, query, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading participant %s in conversation %s: %w", userID, conversationID, err)
	}
	return &participant, nil
}

var _ ParticipantRepositoryInterface = (*ParticipantRepository)(nil)
