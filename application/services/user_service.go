package services

import (
	"context"
	"strings"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password Register accepts
const MinPasswordLength = 6

// UserService answers identity questions for the session layer and
// serves the public view of users.
type UserService struct {
	users    ports.UserRepository
	profiles ports.ProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users ports.UserRepository, profiles ports.ProfileRepository, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// Registration is a new account as submitted by the sign-up form
type Registration struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Role            valueobjects.Role
	ProfileImageURL string
}

// ProfileUpdate is a partial profile edit. Nil fields are left unchanged and an
// empty list clears the field.
type ProfileUpdate struct {
	Bio                 *string
	Location            *string
	Website             *string
	LinkedIn            *string
	Phone               *string
	InvestmentInterests *[]string
	PortfolioCompanies  *[]string
	InvestmentRange     *string
	CompanyName         *string
	CompanyDescription  *string
	Industry            *string
	FundingStage        *string
	FundingGoal         *string
	PitchDeckURL        *string
	TeamMembers         *[]entities.TeamMember
}

// Register creates an account with an empty profile. A taken email fails with CONFLICT.
func (s *UserService) Register(ctx context.Context, reg Registration) (*entities.UserWithProfile, error) {
	if len(reg.Password) < MinPasswordLength {
		return nil, pkgerrors.NewValidationError("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to hash password").WithCause(err)
	}

	user, err := entities.NewUser(reg.Email, string(hash), reg.FirstName, reg.LastName, reg.Role, reg.ProfileImageURL, s.now().UTC())
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Create(ctx, &entities.Profile{UserID: created.ID})
	if err != nil {
		s.logger.Error("Failed to create profile for new user", zap.Error(err), zap.Int64("userID", created.ID.Int64()))
		return nil, err
	}

	s.logger.Info("User registered",
		zap.Int64("userID", created.ID.Int64()),
		zap.String("role", created.Role.String()),
	)
	return entities.NewUserWithProfile(created, profile), nil
}

// UpdateProfile applies a partial edit to the profile of userID
func (s *UserService) UpdateProfile(ctx context.Context, userID valueobjects.UserID, update ProfileUpdate) (*entities.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	update.applyTo(profile)

	updated, err := s.profiles.Update(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Profile updated", zap.Int64("userID", userID.Int64()))
	return updated, nil
}

// List returns the public view of every user of role except viewer, ordered
// by ID. An empty role lists both roles.
func (s *UserService) List(ctx context.Context, viewer valueobjects.UserID, role valueobjects.Role) ([]*entities.UserWithProfile, error) {
	if role != "" && !role.IsValid() {
		return nil, pkgerrors.NewValidationError("role must be one of: investor, entrepreneur")
	}

	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, err
	}

	result := make([]*entities.UserWithProfile, 0, len(users))
	for _, user := range users {
		if user.ID == viewer {
			continue
		}
		public, err := s.withProfile(ctx, user)
		if err != nil {
			return nil, err
		}
		result = append(result, public)
	}
	return result, nil
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entities.UserWithProfile, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("Login rejected", zap.Int64("userID", user.ID.Int64()))
		return nil, pkgerrors.NewUnauthorizedError("invalid email or password")
	}

	return s.withProfile(ctx, user)
}

// GetPublicUser returns a user and their profile without credentials
func (s *UserService) GetPublicUser(ctx context.Context, id valueobjects.UserID) (*entities.UserWithProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withProfile(ctx, user)
}

// WithClock replaces the clock used to stamp new accounts
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func (s *UserService) withProfile(ctx context.Context, user *entities.User) (*entities.UserWithProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}
	return entities.NewUserWithProfile(user, profile), nil
}

// requireSender resolves the acting user. A session whose account no longer
// exists is unauthorized rather than not found.
func requireSender(ctx context.Context, users ports.UserRepository, id valueobjects.UserID) error {
	if _, err := users.GetByID(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewUnauthorizedError("sender account no longer exists")
		}
		return err
	}
	return nil
}

func (u ProfileUpdate) applyTo(p *entities.Profile) {
	setString(&p.Bio, u.Bio)
	setString(&p.Location, u.Location)
	setString(&p.Website, u.Website)
	setString(&p.LinkedIn, u.LinkedIn)
	setString(&p.Phone, u.Phone)
	setString(&p.InvestmentRange, u.InvestmentRange)
	setString(&p.CompanyName, u.CompanyName)
	setString(&p.CompanyDescription, u.CompanyDescription)
	setString(&p.Industry, u.Industry)
	setString(&p.FundingStage, u.FundingStage)
	setString(&p.FundingGoal, u.FundingGoal)
	setString(&p.PitchDeckURL, u.PitchDeckURL)
	if u.InvestmentInterests != nil {
		p.InvestmentInterests = append([]string(nil), *u.InvestmentInterests...)
	}
	if u.PortfolioCompanies != nil {
		p.PortfolioCompanies = append([]string(nil), *u.PortfolioCompanies...)
	}
	if u.TeamMembers != nil {
		p.TeamMembers = append([]entities.TeamMember(nil), *u.TeamMembers...)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
