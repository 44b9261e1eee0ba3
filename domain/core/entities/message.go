package entities

import (
	"sort"
	"time"

	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// Message is an immutable direct message. Its CreatedAt is assigned by the server
// and, together with ID, defines its position in the conversation.
type Message struct {
	ID         valueobjects.MessageID `json:"id"`
	FromUserID valueobjects.UserID    `json:"fromUserId"`
	ToUserID   valueobjects.UserID    `json:"toUserId"`
	Content    string                 `json:"content"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// NewMessage creates a message stamped with now
func NewMessage(from, to valueobjects.UserID, content valueobjects.MessageContent, now time.Time) (*Message, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.NewValidationError("both users are required")
	}
	if from == to {
		return nil, pkgerrors.NewValidationError("cannot send a message to yourself")
	}
	if content.IsEmpty() {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}

	return &Message{
		FromUserID: from,
		ToUserID:   to,
		Content:    content.String(),
		CreatedAt:  now,
	}, nil
}

// ConversationKey returns the unordered pair the message belongs to
func (m *Message) ConversationKey() valueobjects.ConversationKey {
	return valueobjects.NewConversationKey(m.FromUserID, m.ToUserID)
}

// Clone returns an independent copy
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// MessageLess orders messages by creation time, then by ID
func MessageLess(a, b *Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortConversation sorts messages into conversation order in place
func SortConversation(messages []*Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return MessageLess(messages[i], messages[j])
	})
}

// TailConversation keeps the most recent limit messages of an already sorted slice.
// A limit of zero or less keeps everything.
func TailConversation(messages []*Message, limit int) []*Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}
