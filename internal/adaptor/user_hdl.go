package adaptor

import (
	"net/http"

	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	upload  usecase.UploadService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, upload usecase.UploadService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		upload:  upload,
		log:     log.With(zap.String("handler", "user")),
	}
}

// Me handles GET /api/users/me (protected)
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.service.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", resp)
}

// UpdateMe handles PUT /api/users/me (protected)
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update profile")
		return
	}

	utils.ResponseSuccess(w, "Profile updated successfully", resp)
}

// UploadAvatar handles POST /api/users/me/avatar (protected, multipart "avatar")
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxFileBytes()+multipartOverhead)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.ResponseBadRequest(w, "Avatar file is required", nil)
		return
	}
	defer file.Close()

	if header.Size > h.upload.MaxFileBytes() {
		utils.ResponseTooLarge(w, "Avatar is too large")
		return
	}

	url, err := h.upload.StoreAvatar(r.Context(), userID, usecase.Upload{Filename: header.Filename, Reader: file})
	if err != nil {
		writeServiceError(w, h.log, err, "store avatar")
		return
	}

	resp, err := h.service.UpdateAvatar(r.Context(), userID, url)
	if err != nil {
		writeServiceError(w, h.log, err, "update avatar")
		return
	}

	utils.ResponseSuccess(w, "Avatar updated successfully", resp)
}

// PublicProfile handles GET /api/users/{id}
func (h *UserHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.PublicProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get public profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", resp)
}
