package handlers

import (
	"net/http"

	"venturelink/application/services"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
	"venturelink/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler serves the user directory and profile edits
type UserHandler struct {
	users        UserService
	logger       *zap.Logger
	errorHandler *pkgerrors.ErrorHandler
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserService, logger *zap.Logger, errorHandler *pkgerrors.ErrorHandler) *UserHandler {
	return &UserHandler{
		users:        users,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// ListUsers handles GET /users?role=. The caller is never listed.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	users, err := h.users.List(r.Context(), me, valueobjects.Role(r.URL.Query().Get("role")))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, users)
}

// GetUser handles GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.users.GetPublicUser(r.Context(), id)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, user)
}

// UpdateProfileRequest is the body of PUT /profile. Omitted fields are kept.
type UpdateProfileRequest struct {
	Bio                 *string                `json:"bio" validate:"omitempty,max=2000"`
	Location            *string                `json:"location" validate:"omitempty,max=200"`
	Website             *string                `json:"website" validate:"omitempty,url"`
	LinkedIn            *string                `json:"linkedin" validate:"omitempty,url"`
	Phone               *string                `json:"phone" validate:"omitempty,max=50"`
	InvestmentInterests *[]string              `json:"investmentInterests"`
	PortfolioCompanies  *[]string              `json:"portfolioCompanies"`
	InvestmentRange     *string                `json:"investmentRange"`
	CompanyName         *string                `json:"companyName" validate:"omitempty,max=200"`
	CompanyDescription  *string                `json:"companyDescription" validate:"omitempty,max=2000"`
	Industry            *string                `json:"industry"`
	FundingStage        *string                `json:"fundingStage"`
	FundingGoal         *string                `json:"fundingGoal"`
	PitchDeckURL        *string                `json:"pitchDeckUrl" validate:"omitempty,url"`
	TeamMembers         *[]entities.TeamMember `json:"teamMembers"`
}

// UpdateProfile handles PUT /profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), me, services.ProfileUpdate{
		Bio:                 req.Bio,
		Location:            req.Location,
		Website:             req.Website,
		LinkedIn:            req.LinkedIn,
		Phone:               req.Phone,
		InvestmentInterests: req.InvestmentInterests,
		PortfolioCompanies:  req.PortfolioCompanies,
		InvestmentRange:     req.InvestmentRange,
		CompanyName:         req.CompanyName,
		CompanyDescription:  req.CompanyDescription,
		Industry:            req.Industry,
		FundingStage:        req.FundingStage,
		FundingGoal:         req.FundingGoal,
		PitchDeckURL:        req.PitchDeckURL,
		TeamMembers:         req.TeamMembers,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, profile)
}
