package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumeo-app/message-dispatcher/internal/model"
	"github.com/lumeo-app/message-dispatcher/internal/repository"
)

// DispatchResult reports one message's fan-out.
type DispatchResult struct {
	// Sent is false when the message could not be claimed, meaning a
	// concurrent run already delivered it. That case carries no error.
	Sent               bool
	RecipientsNotified int
	RecipientsSkipped  int
	RecipientsFailed   int
}

// Emitter delivers to one recipient. Implemented by NotificationEmitter.
type Emitter interface {
	Emit(ctx context.Context, msg *model.ScheduledMessage, sender model.SenderInfo, rcpt model.Recipient) DeliveryOutcome
}

// MessageDispatcher owns the per-message unit of work: claim the message,
// fan out to recipients, advance the conversation head. Everything runs
// inside a savepoint on the run transaction so one broken message rolls back
// alone.
type MessageDispatcher struct {
	Participants repository.ParticipantRepositoryInterface
	Emitter      Emitter
	Log          zerolog.Logger
}

// Dispatch processes one due message. A returned error means the message's
// savepoint was rolled back and the message stays pending; notifications
// already written by the emitter are deliberately not undone.
func (d *MessageDispatcher) Dispatch(ctx context.Context, tx repository.RunTx, msg *model.ScheduledMessage, sender model.SenderInfo, excludeSender uuid.NullUUID) (DispatchResult, error) {
	var res DispatchResult

	sp := savepointName(msg.ID)
	if err := tx.Savepoint(ctx, sp); err != nil {
		return res, err
	}

	// Claim before fan-out: once the message is flipped here, a concurrent
	// run blocks on the row until this transaction resolves and then sees
	// nothing left to claim.
	claimed, err := tx.ClaimSent(ctx, msg)
	if err != nil {
		return res, d.rollback(ctx, tx, sp, err)
	}
	if !claimed {
		if err := tx.Release(ctx, sp); err != nil {
			return res, err
		}
		d.Log.Info().Stringer("message_id", msg.ID).Msg("message no longer pending, skipping")
		return res, nil
	}

	recipients, err := d.Participants.ListRecipients(ctx, msg.ConversationID, excludeSender)
	if err != nil {
		return res, d.rollback(ctx, tx, sp, err)
	}

	for _, rcpt := range recipients {
		switch d.Emitter.Emit(ctx, msg, sender, rcpt) {
		case OutcomeNotified:
			res.RecipientsNotified++
		case OutcomeSkipped:
			res.RecipientsSkipped++
		case OutcomeFailed:
			res.RecipientsFailed++
		}
	}

	headSet, err := tx.SetConversationHead(ctx, msg.ConversationID, msg.ID, msg.UpdatedAt)
	if err != nil {
		return res, d.rollback(ctx, tx, sp, err)
	}
	if !headSet {
		// No foreign keys in this schema: the conversation row can be gone
		// while its messages remain. The message still counts as sent.
		d.Log.Warn().Stringer("conversation_id", msg.ConversationID).
			Msg("conversation row missing, last-message head not updated")
	}

	if err := tx.Release(ctx, sp); err != nil {
		return res, err
	}

	res.Sent = true
	return res, nil
}

// rollback returns the savepoint to its start and hands back the original
// error, annotated if the rollback itself also failed.
func (d *MessageDispatcher) rollback(ctx context.Context, tx repository.RunTx, sp string, cause error) error {
	if err := tx.RollbackTo(ctx, sp); err != nil {
		return fmt.Errorf("%w (savepoint rollback also failed: %v)", cause, err)
	}
	return cause
}

func savepointName(id uuid.UUID) string {
	return "sp_" + strings.ReplaceAll(id.String(), "-", "")
}
