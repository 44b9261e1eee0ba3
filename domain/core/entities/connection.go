package entities

import (
	"time"

	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// Connection is a live channel connection registered outside the process.
// UserID is zero for anonymous connections.
type Connection struct {
	ID          string              `json:"id"`
	UserID      valueobjects.UserID `json:"userId"`
	ConnectedAt time.Time           `json:"connectedAt"`
	ExpiresAt   time.Time           `json:"expiresAt"`
}

// NewConnection registers id for userID until now+ttl
func NewConnection(id string, userID valueobjects.UserID, now time.Time, ttl time.Duration) (*Connection, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("connection id is required")
	}
	return &Connection{
		ID:          id,
		UserID:      userID,
		ConnectedAt: now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

// Expired reports whether the registration outlived its ttl
func (c *Connection) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
