// Package messaging implements conversations over the flat message log:
// sending, deriving threads, unread accounting and read-state transitions.
package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/model"
)

type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	Get(ctx context.Context, id uint64) (model.Message, error)
	ForUser(ctx context.Context, userID uint64) ([]model.Message, error)
	Between(ctx context.Context, userID, otherID uint64, scope model.ReadScope) ([]model.Message, error)
	MarkRead(ctx context.Context, messageID, userID uint64) (int64, error)
	MarkConversationRead(ctx context.Context, receiverID, senderID uint64, scope model.ReadScope) (int64, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
	UnreadByConversation(ctx context.Context, userID uint64) (map[model.ConversationKey]int64, error)
}

// Directory resolves users for addressing and display.
type Directory interface {
	User(ctx context.Context, id uint64) (model.User, error)
	Users(ctx context.Context, ids []uint64) (map[uint64]model.User, error)
}

type ListingResolver interface {
	Owner(ctx context.Context, kind string, id uint64) (model.ListingOwner, error)
}

type Service struct {
	messages MessageStore
	users    Directory
	listings ListingResolver
	log      zerolog.Logger
}

func NewService(messages MessageStore, users Directory, listings ListingResolver, log zerolog.Logger) *Service {
	return &Service{
		messages: messages,
		users:    users,
		listings: listings,
		log:      log.With().Str("component", "messaging").Logger(),
	}
}

type SendRequest struct {
	SenderID   uint64
	ReceiverID uint64
	Subject    string
	Body       string
	Related    model.Related
}

// Send appends a message and returns its id. It never touches the read state
// of any other message and is not safe to retry blindly.
func (s *Service) Send(ctx context.Context, req SendRequest) (uint64, error) {
	if req.ReceiverID == 0 {
		return 0, apperr.ErrMissingReceiver
	}

	if strings.TrimSpace(req.Body) == "" {
		return 0, apperr.ErrMissingBody
	}

	if req.ReceiverID == req.SenderID {
		return 0, apperr.ErrSelfMessage
	}

	_, err := s.users.User(ctx, req.ReceiverID)
	if err != nil {
		return 0, err
	}

	message := model.Message{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
	}
	if req.Subject != "" {
		subject := req.Subject
		message.Subject = &subject
	}
	message.SetRelated(req.Related)

	err = s.messages.Create(ctx, &message)
	if err != nil {
		return 0, err
	}

	s.log.Debug().
		Uint64("message_id", message.ID).
		Uint64("sender_id", message.SenderID).
		Uint64("receiver_id", message.ReceiverID).
		Str("conversation", message.Key().String()).
		Msg("message sent")

	return message.ID, nil
}

// ContactOwner sends body to the owner of a listing, tagged with that
// listing.
func (s *Service) ContactOwner(ctx context.Context, senderID uint64, kind string, listingID uint64, body string) (uint64, error) {
	if strings.TrimSpace(body) == "" {
		return 0, apperr.ErrMissingBody
	}

	owner, err := s.listings.Owner(ctx, kind, listingID)
	if err != nil {
		return 0, err
	}

	if owner.OwnerID == senderID {
		return 0, apperr.ErrOwnListing
	}

	return s.Send(ctx, SendRequest{
		SenderID:   senderID,
		ReceiverID: owner.OwnerID,
		Subject:    contactSubject(owner),
		Body:       body,
		Related:    owner.Related(),
	})
}

func contactSubject(owner model.ListingOwner) string {
	switch owner.Kind {
	case model.RelatedHousing:
		return fmt.Sprintf("Inquiry about housing at %s", owner.Detail)
	case model.RelatedRoommate:
		return "Interest in your roommate request"
	case model.RelatedBuddy:
		return fmt.Sprintf("Regarding: %s activity", owner.Detail)
	default:
		return ""
	}
}

// ListConversations derives userID's conversations from the full message
// log. Cost is linear in the number of messages the user has.
func (s *Service) ListConversations(ctx context.Context, userID uint64) ([]Conversation, error) {
	messages, err := s.messages.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.messages.UnreadByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	threads := Derive(userID, messages, unread)

	ids := make([]uint64, 0, len(threads))
	seen := make(map[uint64]bool, len(threads))
	for _, thread := range threads {
		if !seen[thread.OtherUserID] {
			seen[thread.OtherUserID] = true
			ids = append(ids, thread.OtherUserID)
		}
	}

	users, err := s.users.Users(ctx, ids)
	if err != nil {
		return nil, err
	}

	conversations := make([]Conversation, 0, len(threads))
	for _, thread := range threads {
		other, ok := users[thread.OtherUserID]
		if !ok {
			s.log.Warn().
				Uint64("user_id", userID).
				Uint64("other_user_id", thread.OtherUserID).
				Msg("conversation participant no longer exists")
		}

		conversations = append(conversations, newConversation(thread, other))
	}

	return conversations, nil
}

// ConversationMessages returns the messages of one conversation, oldest
// first.
func (s *Service) ConversationMessages(ctx context.Context, userID, otherID uint64, scope model.ReadScope) ([]model.Message, error) {
	_, err := s.users.User(ctx, otherID)
	if err != nil {
		return nil, err
	}

	if scope.Fallback() {
		s.log.Warn().
			Uint64("user_id", userID).
			Uint64("other_user_id", otherID).
			Str("related_type", scope.RawType).
			Str("related_id", scope.RawID).
			Msg("ambiguous related filter; returning the whole history between the pair")
	}

	return s.messages.Between(ctx, userID, otherID, scope)
}

// MarkConversationRead flags as read the unread messages otherID sent to
// userID in the conversation selected by scope and returns how many changed.
// Messages userID sent are never touched. Calling it again with the same
// arguments returns 0 unless new messages arrived in between.
func (s *Service) MarkConversationRead(ctx context.Context, userID, otherID uint64, scope model.ReadScope) (int64, error) {
	_, err := s.users.User(ctx, otherID)
	if err != nil {
		return 0, err
	}

	if scope.Fallback() {
		s.log.Warn().
			Uint64("user_id", userID).
			Uint64("other_user_id", otherID).
			Str("related_type", scope.RawType).
			Str("related_id", scope.RawID).
			Msg("ambiguous related filter; marking every message from the sender as read")
	}

	affected, err := s.messages.MarkConversationRead(ctx, userID, otherID, scope)
	if err != nil {
		return 0, err
	}

	s.log.Debug().
		Uint64("user_id", userID).
		Uint64("other_user_id", otherID).
		Stringer("scope", scope.Kind).
		Int64("affected", affected).
		Msg("conversation marked read")

	return affected, nil
}

// MarkMessageRead flags a single message read. A message the user did not
// receive is left alone and reported as 0 affected, not as an error.
func (s *Service) MarkMessageRead(ctx context.Context, userID, messageID uint64) (int64, error) {
	return s.messages.MarkRead(ctx, messageID, userID)
}

// GetMessage returns a message the user sent or received.
func (s *Service) GetMessage(ctx context.Context, userID, messageID uint64) (model.Message, error) {
	message, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return model.Message{}, err
	}

	if message.SenderID != userID && message.ReceiverID != userID {
		return model.Message{}, apperr.ErrMessageNotFound
	}

	return message, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.messages.CountUnread(ctx, userID)
}
