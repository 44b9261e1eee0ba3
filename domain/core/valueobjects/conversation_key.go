package valueobjects

import "fmt"

// ConversationKey identifies the conversation between two users.
// The pair is unordered: NewConversationKey(a, b) == NewConversationKey(b, a).
type ConversationKey struct {
	low  UserID
	high UserID
}

// NewConversationKey normalizes the pair so the lower ID comes first
func NewConversationKey(a, b UserID) ConversationKey {
	if a > b {
		a, b = b, a
	}
	return ConversationKey{low: a, high: b}
}

// Participants returns both users, lower ID first
func (k ConversationKey) Participants() (UserID, UserID) { return k.low, k.high }

// Includes reports whether a message between from and to belongs to this conversation
func (k ConversationKey) Includes(from, to UserID) bool {
	return NewConversationKey(from, to) == k
}

// IsSelf reports whether both participants are the same user
func (k ConversationKey) IsSelf() bool { return k.low == k.high }

func (k ConversationKey) String() string {
	return fmt.Sprintf("%d#%d", k.low, k.high)
}
