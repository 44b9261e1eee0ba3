package valueobjects

import (
	pkgerrors "venturelink/pkg/errors"
)

// Role is the side of the marketplace a user is on
type Role string

const (
	RoleInvestor     Role = "investor"
	RoleEntrepreneur Role = "entrepreneur"
)

// ParseRole validates a role string
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.IsValid() {
		return "", pkgerrors.NewValidationError("role must be one of: investor, entrepreneur")
	}
	return role, nil
}

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	return r == RoleInvestor || r == RoleEntrepreneur
}

func (r Role) String() string { return string(r) }
