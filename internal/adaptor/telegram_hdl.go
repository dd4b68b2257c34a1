package adaptor

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/dto/response"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
)

const initDataMaxAge = 24 * time.Hour

// TelegramHandler serves the verification handshake. The bot and the polling
// client expect bare JSON bodies, so these routes skip the envelope.
type TelegramHandler struct {
	service  usecase.VerificationService
	botToken string
	log      *zap.Logger
}

func NewTelegramHandler(service usecase.VerificationService, botToken string, log *zap.Logger) *TelegramHandler {
	return &TelegramHandler{
		service:  service,
		botToken: botToken,
		log:      log.With(zap.String("handler", "telegram")),
	}
}

// IssueToken handles POST /api/auth/telegram/verify-token
func (h *TelegramHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Issue(r.Context(), nil)
	if err != nil {
		h.log.Error("Failed to issue verification token", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// Status handles GET /api/auth/telegram/verify-status/{token}
func (h *TelegramHandler) Status(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	resp, err := h.service.Status(r.Context(), token)
	if err != nil {
		h.log.Error("Failed to check verification status", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// BotVerifyToken handles POST /api/auth/telegram/bot/verify-token
func (h *TelegramHandler) BotVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req request.BotVerifyTokenRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.VerifyToken) == "" {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "error": "verifyToken is required"})
		return
	}

	_, user, err := h.service.Resolve(r.Context(), req.VerifyToken)
	if err != nil {
		code, msg := h.verificationFailure(err, "resolve verification token")
		utils.WriteJSON(w, code, map[string]any{"valid": false, "error": msg})
		return
	}

	utils.WriteJSON(w, http.StatusOK, response.BotVerifyTokenResponse{
		Valid: true,
		User:  response.BotUserFrom(user),
	})
}

// BotConfirm handles POST /api/auth/telegram/bot/confirm
func (h *TelegramHandler) BotConfirm(w http.ResponseWriter, r *http.Request) {
	var req request.BotConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request body"})
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   utils.FormatValidationErrors(validationErrors),
		})
		return
	}

	h.confirm(w, r, usecase.ConfirmInput{
		Token:      req.VerifyToken,
		TelegramID: string(req.TelegramID),
		Phone:      req.Phone,
		Name:       req.Name,
	})
}

// WebAppConfirm handles POST /api/auth/telegram/webapp/confirm. The Mini App
// init data is signed with the bot token; its user replaces the telegramId
// the bot would otherwise send.
func (h *TelegramHandler) WebAppConfirm(w http.ResponseWriter, r *http.Request) {
	var req request.WebAppConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request body"})
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   utils.FormatValidationErrors(validationErrors),
		})
		return
	}

	if h.botToken == "" {
		h.log.Error("Web app confirmation requested but bot token is not configured")
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Internal server error"})
		return
	}

	if err := initdata.Validate(req.InitData, h.botToken, initDataMaxAge); err != nil {
		h.log.Warn("Rejected web app init data", zap.Error(err))
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid init data"})
		return
	}

	parsed, err := initdata.Parse(req.InitData)
	if err != nil || parsed.User.ID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Init data has no user"})
		return
	}

	var name *string
	if full := strings.TrimSpace(parsed.User.FirstName + " " + parsed.User.LastName); full != "" {
		name = &full
	}

	h.confirm(w, r, usecase.ConfirmInput{
		Token:      req.VerifyToken,
		TelegramID: strconv.FormatInt(parsed.User.ID, 10),
		Name:       name,
	})
}

func (h *TelegramHandler) confirm(w http.ResponseWriter, r *http.Request, in usecase.ConfirmInput) {
	user, err := h.service.Confirm(r.Context(), in)
	if err != nil {
		code, msg := h.verificationFailure(err, "confirm verification")
		utils.WriteJSON(w, code, map[string]any{"success": false, "error": msg})
		return
	}

	utils.WriteJSON(w, http.StatusOK, response.BotConfirmResponse{
		Success: true,
		Message: "User verified successfully",
		User:    response.BotUserFrom(user),
	})
}

// verificationFailure maps handshake errors: token and identity conflicts are
// the caller's problem (400), anything else is ours.
func (h *TelegramHandler) verificationFailure(err error, operation string) (int, string) {
	if usecase.IsVerificationError(err) {
		h.log.Warn(operation+" rejected", zap.Error(err))
		return http.StatusBadRequest, err.Error()
	}
	h.log.Error("Failed to "+operation, zap.Error(err))
	return http.StatusInternalServerError, "Internal server error"
}
