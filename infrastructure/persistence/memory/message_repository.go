package memory

import (
	"context"
	"sync"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// MessageRepository is an in-memory, append-only message log indexed by conversation
type MessageRepository struct {
	mu            sync.RWMutex
	conversations map[valueobjects.ConversationKey][]*entities.Message
	nextID        valueobjects.MessageID
	lastCreatedAt time.Time
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates an empty message log
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		conversations: make(map[valueobjects.ConversationKey][]*entities.Message),
		nextID:        1,
	}
}

// Create appends a copy of msg under a fresh ID. A CreatedAt earlier than the
// previous message's is raised to it, so insertion order and (CreatedAt, ID)
// order always agree.
func (r *MessageRepository) Create(ctx context.Context, msg *entities.Message) (*entities.Message, error) {
	if msg == nil {
		return nil, pkgerrors.NewValidationError("message is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := msg.Clone()
	stored.ID = r.nextID
	r.nextID++
	if stored.CreatedAt.Before(r.lastCreatedAt) {
		stored.CreatedAt = r.lastCreatedAt
	}
	r.lastCreatedAt = stored.CreatedAt

	key := stored.ConversationKey()
	r.conversations[key] = append(r.conversations[key], stored)
	return stored.Clone(), nil
}

// ListConversation returns copies of the conversation's messages in conversation order
func (r *MessageRepository) ListConversation(ctx context.Context, key valueobjects.ConversationKey) ([]*entities.Message, error) {
	r.mu.RLock()
	stored := r.conversations[key]
	result := make([]*entities.Message, len(stored))
	for i, msg := range stored {
		result[i] = msg.Clone()
	}
	r.mu.RUnlock()

	entities.SortConversation(result)
	return result, nil
}
