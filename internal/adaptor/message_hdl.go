package adaptor

import (
	"net/http"

	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MessageHandler struct {
	service usecase.MessageService
	log     *zap.Logger
}

func NewMessageHandler(service usecase.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		log:     log.With(zap.String("handler", "message")),
	}
}

// StartConversation handles POST /api/listings/{id}/messages (verified)
func (h *MessageHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req, ok := h.decodeMessage(w, r)
	if !ok {
		return
	}

	resp, err := h.service.StartConversation(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.log, err, "start conversation")
		return
	}

	utils.ResponseCreated(w, "Message sent", resp)
}

// Reply handles POST /api/messages/conversations/{id}
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req, ok := h.decodeMessage(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Reply(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.log, err, "reply")
		return
	}

	utils.ResponseCreated(w, "Message sent", resp)
}

// Conversations handles GET /api/messages/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.service.Conversations(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "list conversations")
		return
	}

	utils.ResponseSuccess(w, "Conversations retrieved successfully", resp)
}

// Thread handles GET /api/messages/conversations/{id}?page=&limit=
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	pagination := parsePagination(r)
	resp, err := h.service.Thread(r.Context(), userID, chi.URLParam(r, "id"), &pagination)
	if err != nil {
		writeServiceError(w, h.log, err, "get conversation")
		return
	}

	utils.ResponseSuccess(w, "Conversation retrieved successfully", resp)
}

// MarkRead handles PUT /api/messages/conversations/{id}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	updated, err := h.service.MarkRead(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "mark conversation read")
		return
	}

	utils.ResponseSuccess(w, "Messages marked as read", map[string]int64{"updated": updated})
}

func (h *MessageHandler) decodeMessage(w http.ResponseWriter, r *http.Request) (*request.SendMessageRequest, bool) {
	var req request.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return nil, false
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return nil, false
	}
	return &req, true
}
