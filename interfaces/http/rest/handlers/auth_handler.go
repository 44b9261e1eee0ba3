package handlers

import (
	"net/http"

	"venturelink/application/services"
	"venturelink/domain/core/valueobjects"
	"venturelink/pkg/auth"
	pkgerrors "venturelink/pkg/errors"
	"venturelink/pkg/utils"

	"go.uber.org/zap"
)

// SessionTokenHeader carries the issued token for clients that authenticate with a Bearer header
const SessionTokenHeader = "X-Session-Token"

// AuthHandler handles registration, login, logout and the current account
type AuthHandler struct {
	users        UserService
	sessions     *auth.SessionManager
	logger       *zap.Logger
	errorHandler *pkgerrors.ErrorHandler
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserService, sessions *auth.SessionManager, logger *zap.Logger, errorHandler *pkgerrors.ErrorHandler) *AuthHandler {
	return &AuthHandler{
		users:        users,
		sessions:     sessions,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.startSession(w, user.ID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.logger.Info("User logged in", zap.Int64("userID", user.ID.Int64()))
	respondJSON(w, h.logger, http.StatusOK, user)
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=investor entrepreneur"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,url"`
}

// Register handles POST /auth/register. The new account is signed in at once.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), services.Registration{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Role:            valueobjects.Role(req.Role),
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.startSession(w, user.ID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, userID valueobjects.UserID) error {
	token, err := h.sessions.Issue(userID)
	if err != nil {
		return pkgerrors.NewInternalError("failed to issue session").WithCause(err)
	}
	h.sessions.SetCookie(w, token)
	w.Header().Set(SessionTokenHeader, token)
	return nil
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.users.GetPublicUser(r.Context(), me)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, user)
}
