package valueobjects

import (
	"strconv"
	"strings"

	pkgerrors "venturelink/pkg/errors"
)

// UserID identifies a user. Identifiers are positive and assigned by the record store.
type UserID int64

// RequestID identifies a collaboration request.
type RequestID int64

// MessageID identifies a message.
type MessageID int64

// ParseUserID parses a user ID from a path or body value
func ParseUserID(raw string) (UserID, error) {
	v, err := parsePositive("user ID", raw)
	return UserID(v), err
}

// ParseRequestID parses a request ID from a path value
func ParseRequestID(raw string) (RequestID, error) {
	v, err := parsePositive("request ID", raw)
	return RequestID(v), err
}

func parsePositive(name, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, pkgerrors.NewValidationError(name + " cannot be empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.NewValidationError(name + " must be an integer")
	}
	if v <= 0 {
		return 0, pkgerrors.NewValidationError(name + " must be positive")
	}
	return v, nil
}

// Int64 returns the raw identifier
func (id UserID) Int64() int64 { return int64(id) }

func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsZero reports whether the ID is unset
func (id UserID) IsZero() bool { return id <= 0 }

// Int64 returns the raw identifier
func (id RequestID) Int64() int64 { return int64(id) }

func (id RequestID) String() string { return strconv.FormatInt(int64(id), 10) }

// Int64 returns the raw identifier
func (id MessageID) Int64() int64 { return int64(id) }

func (id MessageID) String() string { return strconv.FormatInt(int64(id), 10) }
