package adaptor

import (
	"net/http"

	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	// Validate request
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful. Confirm your account in Telegram.", resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	pair, err := h.service.Refresh(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "refresh token")
		return
	}

	utils.ResponseSuccess(w, "Token refreshed", pair)
}

// Logout handles POST /api/auth/logout (protected). Tokens are stateless;
// the client drops them.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		h.log.Info("User logged out", zap.String("user_id", userID.String()))
	}
	utils.ResponseSuccess(w, "Logout successful", nil)
}

// RequestTelegram handles POST /api/auth/telegram/request (protected)
func (h *AuthHandler) RequestTelegram(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.service.RequestTelegramVerification(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "request telegram verification")
		return
	}

	utils.ResponseSuccess(w, "Open the link in Telegram to confirm your account", resp)
}

func (h *AuthHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	writeServiceError(w, h.log, err, operation)
}
