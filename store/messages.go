package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/model"
)

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// unreadFor is the single definition of "unread for userID". The total and
// per-conversation unread counts and every read-marking update are built on
// it.
func unreadFor(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("receiver_id = ? AND is_read = ?", userID, false)
	}
}

// inScope restricts a query to the related-entity bucket of scope.
func inScope(scope model.ReadScope) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		switch scope.Kind {
		case model.ScopeGeneral:
			return tx.Where("(related_type IS NULL OR related_type IN ?)", []string{"", model.RelatedGeneral})
		case model.ScopeRelated:
			return tx.Where("related_type = ? AND related_id = ?", scope.Type, scope.ID)
		default:
			return tx
		}
	}
}

func between(a, b uint64) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a)
	}
}

// Create appends m to the log. ID and CreatedAt are assigned by the store.
func (s *MessageStore) Create(ctx context.Context, m *model.Message) error {
	m.ID = 0
	m.IsRead = false

	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.ErrUserNotFound
		}

		return apperr.Store("unable to store message", errors.Wrap(err, "messageStore.Create"))
	}

	return nil
}

func (s *MessageStore) Get(ctx context.Context, id uint64) (model.Message, error) {
	var message model.Message
	err := s.db.WithContext(ctx).Preload("Sender").First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Message{}, apperr.ErrMessageNotFound
		}

		return model.Message{}, apperr.Store("unable to load message", errors.Wrap(err, "messageStore.Get"))
	}

	return message, nil
}

// ForUser returns every message userID sent or received, newest first.
func (s *MessageStore) ForUser(ctx context.Context, userID uint64) ([]model.Message, error) {
	var messages []model.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Store("unable to load messages", errors.Wrap(err, "messageStore.ForUser"))
	}

	return messages, nil
}

// Between returns the messages exchanged by the two users in scope, oldest
// first.
func (s *MessageStore) Between(ctx context.Context, userID, otherID uint64, scope model.ReadScope) ([]model.Message, error) {
	var messages []model.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Scopes(between(userID, otherID), inScope(scope)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Store("unable to load conversation", errors.Wrap(err, "messageStore.Between"))
	}

	return messages, nil
}

// MarkRead flags one message read. Only the receiver can do so; for anyone
// else the update matches nothing and 0 is returned.
func (s *MessageStore) MarkRead(ctx context.Context, messageID, userID uint64) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Message{}).
		Scopes(unreadFor(userID)).
		Where("id = ?", messageID).
		Update("is_read", true)
	if result.Error != nil {
		return 0, apperr.Store("unable to mark message read", errors.Wrap(result.Error, "messageStore.MarkRead"))
	}

	return result.RowsAffected, nil
}

// MarkConversationRead flags every unread message senderID sent to
// receiverID within scope. It is one UPDATE; rows inserted after the
// statement runs are left unread.
func (s *MessageStore) MarkConversationRead(ctx context.Context, receiverID, senderID uint64, scope model.ReadScope) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Message{}).
		Scopes(unreadFor(receiverID), inScope(scope)).
		Where("sender_id = ?", senderID).
		Update("is_read", true)
	if result.Error != nil {
		return 0, apperr.Store("unable to mark conversation read", errors.Wrap(result.Error, "messageStore.MarkConversationRead"))
	}

	return result.RowsAffected, nil
}

func (s *MessageStore) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Message{}).
		Scopes(unreadFor(userID)).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Store("unable to count unread messages", errors.Wrap(err, "messageStore.CountUnread"))
	}

	return count, nil
}

type unreadRow struct {
	SenderID    uint64
	RelatedType *string
	RelatedID   *uint64
	Unread      int64
}

// UnreadByConversation counts userID's unread messages per conversation. The
// stored spellings of the general bucket are grouped apart by the database
// and merged here under their canonical key.
func (s *MessageStore) UnreadByConversation(ctx context.Context, userID uint64) (map[model.ConversationKey]int64, error) {
	var rows []unreadRow
	err := s.db.WithContext(ctx).
		Model(&model.Message{}).
		Scopes(unreadFor(userID)).
		Select("sender_id, related_type, related_id, COUNT(*) AS unread").
		Group("sender_id, related_type, related_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Store("unable to count unread messages", errors.Wrap(err, "messageStore.UnreadByConversation"))
	}

	counts := make(map[model.ConversationKey]int64, len(rows))
	for _, row := range rows {
		message := model.Message{
			SenderID:    row.SenderID,
			ReceiverID:  userID,
			RelatedType: row.RelatedType,
			RelatedID:   row.RelatedID,
		}
		counts[message.Key()] += row.Unread
	}

	return counts, nil
}
