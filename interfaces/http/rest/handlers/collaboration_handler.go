package handlers

import (
	"net/http"

	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
	"venturelink/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CollaborationHandler handles collaboration request endpoints
type CollaborationHandler struct {
	requests     CollaborationService
	logger       *zap.Logger
	errorHandler *pkgerrors.ErrorHandler
}

// NewCollaborationHandler creates a new collaboration handler
func NewCollaborationHandler(requests CollaborationService, logger *zap.Logger, errorHandler *pkgerrors.ErrorHandler) *CollaborationHandler {
	return &CollaborationHandler{
		requests:     requests,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// CreateRequestRequest is the body of POST /collaboration-requests
type CreateRequestRequest struct {
	ToUserID int64  `json:"toUserId" validate:"required,gt=0"`
	Message  string `json:"message,omitempty" validate:"max=2000"`
}

// UpdateStatusRequest is the body of PUT /collaboration-requests/{requestID}
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}

// ListInbound handles GET /collaboration-requests
func (h *CollaborationHandler) ListInbound(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	requests, err := h.requests.ListInbound(r.Context(), me)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, requests)
}

// Create handles POST /collaboration-requests
func (h *CollaborationHandler) Create(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req CreateRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	created, err := h.requests.Create(r.Context(), me, valueobjects.UserID(req.ToUserID), req.Message)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("Collaboration request created",
		zap.Int64("requestID", created.ID.Int64()),
		zap.Int64("fromUserID", me.Int64()),
		zap.Int64("toUserID", req.ToUserID),
	)
	respondJSON(w, h.logger, http.StatusCreated, created)
}

// UpdateStatus handles PUT /collaboration-requests/{requestID}
func (h *CollaborationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	id, err := valueobjects.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	status, err := valueobjects.ParseResponseStatus(req.Status)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	updated, err := h.requests.SetStatus(r.Context(), me, id, status)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, updated)
}
