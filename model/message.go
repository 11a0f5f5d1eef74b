package model

import "time"

type Message struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	SenderID    uint64    `json:"sender_id" gorm:"not null;index"`
	Sender      *User     `json:"sender,omitempty" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	ReceiverID  uint64    `json:"receiver_id" gorm:"not null;index:idx_messages_receiver_read,priority:1"`
	Receiver    *User     `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	Subject     *string   `json:"subject" gorm:"size:255"`
	Body        string    `json:"message" gorm:"type:text;not null"`
	RelatedType *string   `json:"related_type" gorm:"size:50"`
	RelatedID   *uint64   `json:"related_id"`
	IsRead      bool      `json:"is_read" gorm:"not null;default:false;index:idx_messages_receiver_read,priority:2"`
	CreatedAt   time.Time `json:"created_at"`
}

// Related returns the canonical related entity of the message. Rows written
// before normalisation may carry an empty or "general" type; those collapse
// to General like a NULL type does.
func (m Message) Related() Related {
	if m.RelatedType == nil {
		return General
	}

	var id uint64
	if m.RelatedID != nil {
		id = *m.RelatedID
	}

	return NewRelated(*m.RelatedType, id)
}

// SetRelated stores r in canonical form: General is written as NULL/NULL and
// a zero related id as NULL.
func (m *Message) SetRelated(r Related) {
	if r.IsGeneral() {
		m.RelatedType = nil
		m.RelatedID = nil
		return
	}

	kind := r.Kind
	m.RelatedType = &kind
	m.RelatedID = nil
	if r.ID != 0 {
		id := r.ID
		m.RelatedID = &id
	}
}

// Key returns the conversation the message belongs to.
func (m Message) Key() ConversationKey {
	return NewConversationKey(m.SenderID, m.ReceiverID, m.Related())
}

// Other returns the participant that is not userID. A message a user sent to
// themselves has the receiver as the other side.
func (m Message) Other(userID uint64) uint64 {
	if m.SenderID == userID {
		return m.ReceiverID
	}

	return m.SenderID
}

// After reports whether m is newer than o: later created_at, with the higher
// id breaking ties.
func (m Message) After(o Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.After(o.CreatedAt)
	}

	return m.ID > o.ID
}
