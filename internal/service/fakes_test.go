package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumeo-app/message-dispatcher/internal/model"
	"github.com/lumeo-app/message-dispatcher/internal/repository"
)

// In-memory stand-ins for the repository layer. They emulate just enough
// Postgres behavior for the dispatch flow: claimable sets, savepoint logs,
// sender exclusion.

var fakeNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeMessageRepo struct {
	due        []model.ScheduledMessage
	selectErr  error
	lastTag    string
	tx         *fakeRunTx
	beginErr   error
	beginCount int
}

func (f *fakeMessageRepo) SelectDue(ctx context.Context, groupTag string) ([]model.ScheduledMessage, error) {
	f.lastTag = groupTag
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return f.due, nil
}

func (f *fakeMessageRepo) Begin(ctx context.Context) (repository.RunTx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.beginCount++
	return f.tx, nil
}

type headUpdate struct {
	MessageID uuid.UUID
	At        time.Time
}

type fakeRunTx struct {
	pending       map[uuid.UUID]*time.Time // claimable messages -> scheduled_at
	conversations map[uuid.UUID]bool       // existing conversation rows

	claimed      []uuid.UUID
	heads        map[uuid.UUID]headUpdate
	savepoints   []string
	released     []string
	rolledBackTo []string

	committed  bool
	rolledBack bool

	claimErrFor map[uuid.UUID]error
	headErrFor  map[uuid.UUID]error
	commitErr   error
}

func newFakeRunTx() *fakeRunTx {
	return &fakeRunTx{
		pending:       map[uuid.UUID]*time.Time{},
		conversations: map[uuid.UUID]bool{},
		heads:         map[uuid.UUID]headUpdate{},
		claimErrFor:   map[uuid.UUID]error{},
		headErrFor:    map[uuid.UUID]error{},
	}
}

func (t *fakeRunTx) Savepoint(ctx context.Context, name string) error {
	t.savepoints = append(t.savepoints, name)
	return nil
}

func (t *fakeRunTx) RollbackTo(ctx context.Context, name string) error {
	t.rolledBackTo = append(t.rolledBackTo, name)
	return nil
}

func (t *fakeRunTx) Release(ctx context.Context, name string) error {
	t.released = append(t.released, name)
	return nil
}

func (t *fakeRunTx) ClaimSent(ctx context.Context, msg *model.ScheduledMessage) (bool, error) {
	if err := t.claimErrFor[msg.ID]; err != nil {
		return false, err
	}
	scheduledAt, ok := t.pending[msg.ID]
	if !ok {
		return false, nil
	}
	delete(t.pending, msg.ID)

	msg.DeliveryStatus = model.DeliverySent
	if scheduledAt != nil {
		msg.UpdatedAt = *scheduledAt
	} else {
		msg.UpdatedAt = fakeNow
	}
	t.claimed = append(t.claimed, msg.ID)
	return true, nil
}

func (t *fakeRunTx) SetConversationHead(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) (bool, error) {
	if err := t.headErrFor[conversationID]; err != nil {
		return false, err
	}
	if !t.conversations[conversationID] {
		return false, nil
	}
	t.heads[conversationID] = headUpdate{MessageID: messageID, At: at}
	return true, nil
}

func (t *fakeRunTx) Commit() error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeRunTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type fakeParticipantRepo struct {
	recipients  map[uuid.UUID][]model.Recipient // by conversation, sender included
	members     map[string]*model.Participant
	listErrFor  map[uuid.UUID]error
	getErr      error
	lastExclude uuid.NullUUID
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{
		recipients: map[uuid.UUID][]model.Recipient{},
		members:    map[string]*model.Participant{},
		listErrFor: map[uuid.UUID]error{},
	}
}

func memberKey(conversationID, userID uuid.UUID) string {
	return conversationID.String() + "/" + userID.String()
}

func (f *fakeParticipantRepo) addMember(conversationID, userID uuid.UUID, muted bool, email, username string) {
	f.members[memberKey(conversationID, userID)] = &model.Participant{
		ID:                 uuid.New(),
		ConversationID:     conversationID,
		ParticipantID:      userID,
		ParticipantType:    model.ParticipantTypeUser,
		NotificationsMuted: muted,
		JoinedAt:           fakeNow,
	}
	rcpt := model.Recipient{
		ParticipantID:      userID,
		ConversationID:     conversationID,
		NotificationsMuted: muted,
	}
	if email != "" {
		rcpt.Email = &email
	}
	if username != "" {
		rcpt.Username = &username
	}
	f.recipients[conversationID] = append(f.recipients[conversationID], rcpt)
}

func (f *fakeParticipantRepo) ListRecipients(ctx context.Context, conversationID uuid.UUID, excludeUserID uuid.NullUUID) ([]model.Recipient, error) {
	f.lastExclude = excludeUserID
	if err := f.listErrFor[conversationID]; err != nil {
		return nil, err
	}
	out := []model.Recipient{}
	for _, rcpt := range f.recipients[conversationID] {
		if excludeUserID.Valid && rcpt.ParticipantID == excludeUserID.UUID {
			continue
		}
		out = append(out, rcpt)
	}
	return out, nil
}

func (f *fakeParticipantRepo) Get(ctx context.Context, conversationID, userID uuid.UUID) (*model.Participant, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.members[memberKey(conversationID, userID)], nil
}

type fakeSettingsRepo struct {
	rows   map[uuid.UUID]*model.UserNotificationSettings
	errFor map[uuid.UUID]error
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{
		rows:   map[uuid.UUID]*model.UserNotificationSettings{},
		errFor: map[uuid.UUID]error{},
	}
}

func (f *fakeSettingsRepo) setBag(userID uuid.UUID, bag model.SettingsBag) {
	f.rows[userID] = &model.UserNotificationSettings{
		ID:       uuid.New(),
		UserID:   userID,
		Kind:     model.UserSettingsKindNotifications,
		Settings: bag,
	}
}

func (f *fakeSettingsRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserNotificationSettings, error) {
	if err := f.errFor[userID]; err != nil {
		return nil, err
	}
	return f.rows[userID], nil
}

type fakeNotificationRepo struct {
	inserted []model.Notification
	errFor   map[uuid.UUID]error // by recipient user id
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{errFor: map[uuid.UUID]error{}}
}

func (f *fakeNotificationRepo) Insert(ctx context.Context, n *model.Notification) error {
	if err := f.errFor[n.UserID]; err != nil {
		return err
	}
	n.ID = uuid.New()
	n.CreatedAt = fakeNow
	n.UpdatedAt = fakeNow
	f.inserted = append(f.inserted, *n)
	return nil
}

func (f *fakeNotificationRepo) forUser(userID uuid.UUID) []model.Notification {
	out := []model.Notification{}
	for _, n := range f.inserted {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakeUserRepo struct {
	senders map[uuid.UUID]*model.SenderInfo
	err     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{senders: map[uuid.UUID]*model.SenderInfo{}}
}

func (f *fakeUserRepo) GetSenderInfo(ctx context.Context, userID uuid.UUID) (*model.SenderInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.senders[userID], nil
}

type sentEmail struct {
	To              string
	RecipientName   string
	SenderName      string
	ConversationURL string
}

type fakeMailer struct {
	sent   []sentEmail
	errFor map[string]error // by address
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{errFor: map[string]error{}}
}

func (f *fakeMailer) SendNewMessage(ctx context.Context, to, recipientName, senderName, conversationURL string) error {
	if err := f.errFor[to]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentEmail{To: to, RecipientName: recipientName, SenderName: senderName, ConversationURL: conversationURL})
	return nil
}
