package messaging

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/model"
	"github.com/jrozner/roomboard/web/store"
	"github.com/jrozner/roomboard/web/store/storetest"
)

type fixture struct {
	db      *gorm.DB
	service *Service
	logs    *bytes.Buffer

	alice model.User
	bob   model.User
	carol model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := storetest.Open(t)
	logs := &bytes.Buffer{}

	f := &fixture{
		db:      db,
		logs:    logs,
		service: NewService(store.NewMessageStore(db), store.NewUserStore(db), store.NewListingStore(db), zerolog.New(logs)),
		alice:   storetest.CreateUser(t, db, "alice"),
		bob:     storetest.CreateUser(t, db, "bob"),
		carol:   storetest.CreateUser(t, db, "carol"),
	}

	return f
}

func (f *fixture) send(t *testing.T, from, to model.User, related model.Related) uint64 {
	t.Helper()

	id, err := f.service.Send(context.Background(), SendRequest{
		SenderID:   from.ID,
		ReceiverID: to.ID,
		Body:       "hello " + to.Username,
		Related:    related,
	})
	require.NoError(t, err)

	return id
}

func (f *fixture) unread(t *testing.T, user model.User) int64 {
	t.Helper()

	count, err := f.service.UnreadCount(context.Background(), user.ID)
	require.NoError(t, err)

	return count
}

// assertConserved checks that the per-conversation unread counts add up to
// the user's total.
func (f *fixture) assertConserved(t *testing.T, user model.User) {
	t.Helper()

	conversations, err := f.service.ListConversations(context.Background(), user.ID)
	require.NoError(t, err)

	var sum int64
	for _, conversation := range conversations {
		sum += conversation.UnreadCount
	}

	assert.Equal(t, f.unread(t, user), sum)
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		req  SendRequest
		err  error
	}{
		{name: "missing receiver", req: SendRequest{SenderID: f.alice.ID, Body: "hi"}, err: apperr.ErrMissingReceiver},
		{name: "missing body", req: SendRequest{SenderID: f.alice.ID, ReceiverID: f.bob.ID}, err: apperr.ErrMissingBody},
		{name: "blank body", req: SendRequest{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Body: "  \n"}, err: apperr.ErrMissingBody},
		{name: "self", req: SendRequest{SenderID: f.alice.ID, ReceiverID: f.alice.ID, Body: "hi"}, err: apperr.ErrSelfMessage},
		{name: "unknown receiver", req: SendRequest{SenderID: f.alice.ID, ReceiverID: 404, Body: "hi"}, err: apperr.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Send(ctx, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.Zero(t, f.unread(t, f.bob))
}

func TestSendStoresCanonicalRelated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.service.Send(ctx, SendRequest{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Subject:    "Couch",
		Body:       "still available?",
		Related:    model.NewRelated(model.RelatedGeneral, 3),
	})
	require.NoError(t, err)

	message, err := f.service.GetMessage(ctx, f.bob.ID, id)
	require.NoError(t, err)
	assert.Nil(t, message.RelatedType)
	assert.Nil(t, message.RelatedID)
	require.NotNil(t, message.Subject)
	assert.Equal(t, "Couch", *message.Subject)
	assert.False(t, message.IsRead)
}

func TestSendDoesNotChangeReadState(t *testing.T) {
	f := newFixture(t)

	f.send(t, f.alice, f.bob, model.General)
	_, err := f.service.MarkConversationRead(context.Background(), f.bob.ID, f.alice.ID, model.GeneralScope())
	require.NoError(t, err)

	f.send(t, f.bob, f.alice, model.General)
	f.send(t, f.alice, f.bob, model.General)

	assert.Equal(t, int64(1), f.unread(t, f.bob))
	assert.Equal(t, int64(1), f.unread(t, f.alice))
}

func TestGeneralConversationScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.bob, model.General)
	assert.Equal(t, int64(1), f.unread(t, f.bob))

	affected, err := f.service.MarkConversationRead(ctx, f.bob.ID, f.alice.ID, model.ParseReadScope("", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Zero(t, f.unread(t, f.bob))
}

func TestRelatedConversationScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.bob, model.NewRelated(model.RelatedHousing, 1))
	f.send(t, f.alice, f.bob, model.NewRelated(model.RelatedRoommate, 2))
	assert.Equal(t, int64(2), f.unread(t, f.bob))
	f.assertConserved(t, f.bob)

	affected, err := f.service.MarkConversationRead(ctx, f.bob.ID, f.alice.ID, model.ParseReadScope("housing", "1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Equal(t, int64(1), f.unread(t, f.bob))
	f.assertConserved(t, f.bob)

	affected, err = f.service.MarkConversationRead(ctx, f.bob.ID, f.alice.ID, model.ParseReadScope("roommate", "2"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Zero(t, f.unread(t, f.bob))
	f.assertConserved(t, f.bob)
}

func TestMarkConversationReadIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.bob, model.General)
	f.send(t, f.alice, f.bob, model.General)

	affected, err := f.service.MarkConversationRead(ctx, f.bob.ID, f.alice.ID, model.GeneralScope())
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	affected, err = f.service.MarkConversationRead(ctx, f.bob.ID, f.alice.ID, model.GeneralScope())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestMarkConversationReadDirectional(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.bob, model.General)
	f.send(t, f.bob, f.alice, model.General)

	affected, err := f.service.MarkConversationRead(ctx, f.alice.ID, f.bob.ID, model.GeneralScope())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	assert.Zero(t, f.unread(t, f.alice))
	assert.Equal(t, int64(1), f.unread(t, f.bob), "alice's own message to bob stays unread for bob")
}

func TestMarkConversationReadSynonyms(t *testing.T) {
	for _, in := range [][2]string{{"", ""}, {"general", "0"}, {"general", ""}, {"", "0"}} {
		t.Run(in[0]+"/"+in[1], func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)

			f.send(t, f.alice, f.bob, model.General)
			empty := ""
			legacy := model.Message{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Body: "legacy", RelatedType: &empty}
			require.NoError(t, f.db.Create(&legacy).Error)
			f.send(t, f.alice, f.bob, model.NewRelated(model.RelatedBuddy, 1))

			affected, err := f.service.MarkConversationRead(ctx, f.bob.ID, f.alice.ID, model.ParseReadScope(in[0], in[1]))
			require.NoError(t, err)
			assert.Equal(t, int64(2), affected)
			assert.Equal(t, int64(1), f.unread(t, f.bob))
		})
	}
}

func TestMarkConversationReadFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.bob, model.General)
	f.send(t, f.alice, f.bob, model.NewRelated(model.RelatedHousing, 1))
	f.send(t, f.carol, f.bob, model.General)

	affected, err := f.service.MarkConversationRead(ctx, f.bob.ID, f.alice.ID, model.ParseReadScope("housing", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.Equal(t, int64(1), f.unread(t, f.bob))
	assert.Contains(t, f.logs.String(), `"level":"warn"`)
	assert.Contains(t, f.logs.String(), `"related_type":"housing"`)
}

func TestMarkConversationReadUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.MarkConversationRead(context.Background(), f.bob.ID, 404, model.GeneralScope())
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.bob, model.General)
	f.send(t, f.bob, f.alice, model.General)
	f.send(t, f.carol, f.bob, model.NewRelated(model.RelatedHousing, 7))
	latest := f.send(t, f.alice, f.bob, model.NewRelated(model.RelatedHousing, 7))

	conversations, err := f.service.ListConversations(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 3)

	first := conversations[0]
	assert.Equal(t, latest, first.LatestMessageID)
	assert.Equal(t, f.alice.ID, first.OtherUserID)
	assert.Equal(t, "alice", first.OtherUsername)
	assert.Equal(t, "alice@example.com", first.OtherEmail)
	require.NotNil(t, first.RelatedType)
	assert.Equal(t, "housing", *first.RelatedType)
	assert.Equal(t, uint64(7), *first.RelatedID)

	assert.Equal(t, f.carol.ID, conversations[1].OtherUserID)

	general := conversations[2]
	assert.Nil(t, general.RelatedType)
	assert.Nil(t, general.RelatedID)
	assert.Equal(t, int64(2), general.TotalMessages)
	assert.Equal(t, int64(1), general.UnreadCount)
	assert.Equal(t, "hello alice", general.LatestMessage)

	for i := 1; i < len(conversations); i++ {
		assert.False(t, conversations[i].LatestMessageTime.After(conversations[i-1].LatestMessageTime))
	}

	f.assertConserved(t, f.bob)
	f.assertConserved(t, f.alice)
}

func TestListConversationsMissingParticipant(t *testing.T) {
	f := newFixture(t)

	f.send(t, f.carol, f.bob, model.General)
	require.NoError(t, f.db.Delete(&model.User{}, f.carol.ID).Error)

	conversations, err := f.service.ListConversations(context.Background(), f.bob.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, f.carol.ID, conversations[0].OtherUserID)
	assert.Empty(t, conversations[0].OtherUsername)
	assert.Contains(t, f.logs.String(), "conversation participant no longer exists")
}

func TestConversationMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.send(t, f.alice, f.bob, model.General)
	f.send(t, f.bob, f.alice, model.NewRelated(model.RelatedBuddy, 2))
	second := f.send(t, f.bob, f.alice, model.General)
	f.send(t, f.carol, f.alice, model.General)

	messages, err := f.service.ConversationMessages(ctx, f.alice.ID, f.bob.ID, model.GeneralScope())
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, first, messages[0].ID)
	assert.Equal(t, second, messages[1].ID)
	assert.False(t, messages[1].CreatedAt.Before(messages[0].CreatedAt))

	messages, err = f.service.ConversationMessages(ctx, f.alice.ID, f.bob.ID, model.ParseReadScope("buddy", "2"))
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	messages, err = f.service.ConversationMessages(ctx, f.alice.ID, f.bob.ID, model.ParseReadScope("", "2"))
	require.NoError(t, err)
	assert.Len(t, messages, 3)
	assert.Contains(t, f.logs.String(), "ambiguous related filter")

	_, err = f.service.ConversationMessages(ctx, f.alice.ID, 404, model.GeneralScope())
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestMarkMessageRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.send(t, f.alice, f.bob, model.General)

	affected, err := f.service.MarkMessageRead(ctx, f.carol.ID, id)
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = f.service.MarkMessageRead(ctx, f.bob.ID, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Zero(t, f.unread(t, f.bob))
}

func TestGetMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.send(t, f.alice, f.bob, model.General)

	message, err := f.service.GetMessage(ctx, f.alice.ID, id)
	require.NoError(t, err)
	assert.Equal(t, "hello bob", message.Body)

	_, err = f.service.GetMessage(ctx, f.carol.ID, id)
	assert.ErrorIs(t, err, apperr.ErrMessageNotFound)
}

func TestContactOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	housing := model.Housing{OwnerID: f.bob.ID, Address: "12 Main St"}
	roommate := model.RoommateRequest{OwnerID: f.bob.ID, PreferredLocation: "Downtown"}
	buddy := model.Buddy{OwnerID: f.bob.ID, ActivityType: "hiking"}
	require.NoError(t, f.db.Create(&housing).Error)
	require.NoError(t, f.db.Create(&roommate).Error)
	require.NoError(t, f.db.Create(&buddy).Error)

	tests := []struct {
		kind    string
		id      uint64
		subject string
	}{
		{kind: model.RelatedHousing, id: housing.ID, subject: "Inquiry about housing at 12 Main St"},
		{kind: model.RelatedRoommate, id: roommate.ID, subject: "Interest in your roommate request"},
		{kind: model.RelatedBuddy, id: buddy.ID, subject: "Regarding: hiking activity"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			id, err := f.service.ContactOwner(ctx, f.alice.ID, tt.kind, tt.id, "is this available?")
			require.NoError(t, err)

			message, err := f.service.GetMessage(ctx, f.bob.ID, id)
			require.NoError(t, err)
			assert.Equal(t, f.bob.ID, message.ReceiverID)
			require.NotNil(t, message.Subject)
			assert.Equal(t, tt.subject, *message.Subject)
			assert.Equal(t, model.NewRelated(tt.kind, tt.id), message.Related())
		})
	}

	assert.Equal(t, int64(3), f.unread(t, f.bob))
	f.assertConserved(t, f.bob)

	t.Run("own listing", func(t *testing.T) {
		_, err := f.service.ContactOwner(ctx, f.bob.ID, model.RelatedHousing, housing.ID, "hi")
		assert.ErrorIs(t, err, apperr.ErrOwnListing)
	})

	t.Run("missing body", func(t *testing.T) {
		_, err := f.service.ContactOwner(ctx, f.alice.ID, model.RelatedHousing, housing.ID, "")
		assert.ErrorIs(t, err, apperr.ErrMissingBody)
	})

	t.Run("missing listing", func(t *testing.T) {
		_, err := f.service.ContactOwner(ctx, f.alice.ID, model.RelatedHousing, 404, "hi")
		assert.ErrorIs(t, err, apperr.ErrListingNotFound)
	})
}

type mockStore struct {
	mock.Mock
	MessageStore
}

func (m *mockStore) ForUser(ctx context.Context, userID uint64) ([]model.Message, error) {
	args := m.Called(ctx, userID)
	messages, _ := args.Get(0).([]model.Message)
	return messages, args.Error(1)
}

func (m *mockStore) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	failure := apperr.Store("unable to load messages", errors.New("connection reset"))

	messages := &mockStore{}
	messages.On("ForUser", mock.Anything, uint64(1)).Return(nil, failure)
	messages.On("CountUnread", mock.Anything, uint64(1)).Return(int64(0), failure)

	service := NewService(messages, nil, nil, zerolog.Nop())

	_, err := service.ListConversations(ctx, 1)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))

	_, err = service.UnreadCount(ctx, 1)
	assert.ErrorIs(t, err, failure)

	messages.AssertExpectations(t)
}
