package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumeo-app/message-dispatcher/internal/model"
	"github.com/lumeo-app/message-dispatcher/internal/repository"
)

// Summary is the run-level outcome: how many messages were delivered and how
// many rolled back. Messages claimed by a concurrent run count in neither.
type Summary struct {
	Sent   int
	Failed int
}

// Dispatcher processes one due message inside the run transaction.
// Implemented by MessageDispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, tx repository.RunTx, msg *model.ScheduledMessage, sender model.SenderInfo, excludeSender uuid.NullUUID) (DispatchResult, error)
}

// RunController drives one dispatch run for one delivery group: resolve the
// sender, select the due messages, dispatch each inside the shared write
// transaction, commit once at the end.
type RunController struct {
	Messages   repository.MessageRepositoryInterface
	Users      repository.UserRepositoryInterface
	Dispatcher Dispatcher

	// GroupTag is already normalized by the config layer.
	GroupTag string
	// SenderUserID is the raw environment value; parsing failures degrade to
	// a blank sender identity instead of aborting the run.
	SenderUserID string

	Log zerolog.Logger
}

// Run executes one dispatch pass. An empty group is a successful no-op that
// never opens a write transaction.
func (c *RunController) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	sender, senderID := c.resolveSender(ctx)

	messages, err := c.Messages.SelectDue(ctx, c.GroupTag)
	if err != nil {
		return summary, err
	}
	if len(messages) == 0 {
		c.Log.Info().Str("group_tag", c.GroupTag).Msg("no pending messages for delivery group")
		return summary, nil
	}

	c.Log.Info().Str("group_tag", c.GroupTag).Int("messages", len(messages)).Msg("dispatch run starting")

	tx, err := c.Messages.Begin(ctx)
	if err != nil {
		return summary, err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			c.Log.Warn().Err(err).Msg("run transaction rollback failed")
		}
	}()

	for i := range messages {
		msg := &messages[i]
		res, err := c.Dispatcher.Dispatch(ctx, tx, msg, sender, senderID)
		if err != nil {
			summary.Failed++
			c.Log.Error().Err(err).
				Stringer("message_id", msg.ID).
				Stringer("conversation_id", msg.ConversationID).
				Msg("message dispatch failed, rolled back")
			continue
		}
		if !res.Sent {
			continue
		}
		summary.Sent++
		c.Log.Info().
			Stringer("message_id", msg.ID).
			Stringer("conversation_id", msg.ConversationID).
			Int("notified", res.RecipientsNotified).
			Int("skipped", res.RecipientsSkipped).
			Int("failed", res.RecipientsFailed).
			Msg("message dispatched")
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("committing run: %w", err)
	}
	committed = true

	c.Log.Info().
		Str("group_tag", c.GroupTag).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Msg("dispatch run complete")
	return summary, nil
}

// resolveSender turns SENDER_USER_ID into a display identity and an exclusion
// id for recipient resolution. Anything that goes wrong here is logged and
// degrades to a blank identity; scheduled sends must go out regardless.
func (c *RunController) resolveSender(ctx context.Context) (model.SenderInfo, uuid.NullUUID) {
	id, err := uuid.Parse(c.SenderUserID)
	if err != nil {
		c.Log.Error().Err(err).Str("sender_user_id", c.SenderUserID).
			Msg("invalid sender id, continuing with blank sender identity")
		return model.SenderInfo{}, uuid.NullUUID{}
	}

	exclude := uuid.NullUUID{UUID: id, Valid: true}

	sender, err := c.Users.GetSenderInfo(ctx, id)
	if err != nil {
		c.Log.Error().Err(err).Stringer("sender_user_id", id).
			Msg("sender lookup failed, continuing with blank sender identity")
		return model.SenderInfo{}, exclude
	}
	if sender == nil {
		c.Log.Warn().Stringer("sender_user_id", id).
			Msg("sender not found, continuing with blank sender identity")
		return model.SenderInfo{}, exclude
	}
	return *sender, exclude
}
