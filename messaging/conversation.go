package messaging

import (
	"time"

	"github.com/jrozner/roomboard/web/model"
)

// Conversation is the list view of a thread.
type Conversation struct {
	ConversationID    string    `json:"conversation_id"`
	LatestMessageID   uint64    `json:"latest_message_id"`
	LatestMessage     string    `json:"latest_message"`
	Subject           *string   `json:"subject"`
	LatestMessageTime time.Time `json:"latest_message_time"`
	SenderID          uint64    `json:"sender_id"`
	ReceiverID        uint64    `json:"receiver_id"`
	RelatedType       *string   `json:"related_type"`
	RelatedID         *uint64   `json:"related_id"`
	OtherUserID       uint64    `json:"other_user_id"`
	OtherUsername     string    `json:"other_username"`
	OtherEmail        string    `json:"other_email"`
	UnreadCount       int64     `json:"unread_count"`
	TotalMessages     int64     `json:"total_messages"`
}

func newConversation(thread Thread, other model.User) Conversation {
	latest := thread.Latest

	conversation := Conversation{
		ConversationID:    thread.Key.String(),
		LatestMessageID:   latest.ID,
		LatestMessage:     latest.Body,
		Subject:           latest.Subject,
		LatestMessageTime: latest.CreatedAt,
		SenderID:          latest.SenderID,
		ReceiverID:        latest.ReceiverID,
		OtherUserID:       thread.OtherUserID,
		OtherUsername:     other.Username,
		OtherEmail:        other.Email,
		UnreadCount:       thread.UnreadCount,
		TotalMessages:     thread.TotalMessages,
	}

	related := thread.Key.Related
	if !related.IsGeneral() {
		kind, id := related.Kind, related.ID
		conversation.RelatedType = &kind
		conversation.RelatedID = &id
	}

	return conversation
}
