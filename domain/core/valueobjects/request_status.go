package valueobjects

import (
	pkgerrors "venturelink/pkg/errors"
)

// RequestStatus is the lifecycle state of a collaboration request.
//
// pending is the only initial state. accepted and declined are terminal:
// once a request reaches either of them it never changes again.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
)

// ParseResponseStatus parses the status a recipient may respond with.
// Only the terminal states are accepted; pending can never be requested.
func ParseResponseStatus(raw string) (RequestStatus, error) {
	status := RequestStatus(raw)
	if !status.IsTerminal() {
		return "", pkgerrors.NewValidationError("status must be one of: accepted, declined").
			WithDetails(map[string]interface{}{"status": raw})
	}
	return status, nil
}

// IsValid reports whether the status is one of the known states
func (s RequestStatus) IsValid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusDeclined
}

// IsTerminal reports whether no further transition is allowed
func (s RequestStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// CanTransitionTo reports whether moving from s to next is a legal transition
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return s == StatusPending && next.IsTerminal()
}

func (s RequestStatus) String() string { return string(s) }
