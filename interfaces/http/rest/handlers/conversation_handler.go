package handlers

import (
	"net/http"
	"strconv"

	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ConversationHandler handles direct messaging requests
type ConversationHandler struct {
	conversations ConversationService
	logger        *zap.Logger
	errorHandler  *pkgerrors.ErrorHandler
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations ConversationService, logger *zap.Logger, errorHandler *pkgerrors.ErrorHandler) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		logger:        logger,
		errorHandler:  errorHandler,
	}
}

// SendMessageRequest is the body of POST /conversations/{peerID}/messages
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ListMessages handles GET /conversations/{peerID}
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	peer, err := valueobjects.ParseUserID(chi.URLParam(r, "peerID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	messages, err := h.conversations.List(r.Context(), me, peer, limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, messages)
}

// SendMessage handles POST /conversations/{peerID}/messages
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	peer, err := valueobjects.ParseUserID(chi.URLParam(r, "peerID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	msg, err := h.conversations.Append(r.Context(), me, peer, req.Content)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, msg)
}

// parseLimit accepts an absent limit (everything) or a positive integer
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, pkgerrors.NewValidationError("limit must be a positive integer").
			WithDetails(map[string]interface{}{"limit": raw})
	}
	return limit, nil
}
