// Package memory provides the in-process record store. Each entity type has a single
// owner guarded by its own mutex; ID assignment and insert happen under the same lock.
package memory

// Store groups the repositories that make up the record store
type Store struct {
	Users    *UserRepository
	Profiles *ProfileRepository
	Requests *CollaborationRequestRepository
	Messages *MessageRepository
}

// NewStore creates an empty record store
func NewStore() *Store {
	return &Store{
		Users:    NewUserRepository(),
		Profiles: NewProfileRepository(),
		Requests: NewCollaborationRequestRepository(),
		Messages: NewMessageRepository(),
	}
}
