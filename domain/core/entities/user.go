package entities

import (
	"net/mail"
	"strings"
	"time"

	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// User is an account on the platform. Only display fields change after creation.
type User struct {
	ID              valueobjects.UserID `json:"id"`
	Email           string              `json:"email"`
	PasswordHash    string              `json:"-"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	Role            valueobjects.Role   `json:"role"`
	ProfileImageURL string              `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// NewUser validates the identity fields of a new account. The ID is assigned by the store.
func NewUser(email, passwordHash, firstName, lastName string, role valueobjects.Role, imageURL string, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.NewValidationError("email must be a valid email")
	}
	if passwordHash == "" {
		return nil, pkgerrors.NewValidationError("password hash cannot be empty")
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, pkgerrors.NewValidationError("first and last name are required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.NewValidationError("role must be one of: investor, entrepreneur")
	}

	return &User{
		Email:           email,
		PasswordHash:    passwordHash,
		FirstName:       strings.TrimSpace(firstName),
		LastName:        strings.TrimSpace(lastName),
		Role:            role,
		ProfileImageURL: imageURL,
		CreatedAt:       now,
	}, nil
}

// Clone returns an independent copy
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// UserWithProfile is the public projection of a user: credentials are never serialized
// and the profile is attached when one exists.
type UserWithProfile struct {
	User
	Profile *Profile `json:"profile"`
}

// NewUserWithProfile builds the public projection from independent copies
func NewUserWithProfile(user *User, profile *Profile) *UserWithProfile {
	public := user.Clone()
	public.PasswordHash = ""
	return &UserWithProfile{User: *public, Profile: profile.Clone()}
}
