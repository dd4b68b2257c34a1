package adaptor

import (
	"mime/multipart"
	"net/http"

	"myvillage-api/internal/dto/response"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"go.uber.org/zap"
)

// multipartOverhead leaves room for boundaries and part headers.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	service usecase.UploadService
	log     *zap.Logger
}

func NewUploadHandler(service usecase.UploadService, log *zap.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		log:     log.With(zap.String("handler", "upload")),
	}
}

// UploadImages handles POST /api/uploads/images (protected, multipart "images")
func (h *UploadHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	limit := int64(h.service.MaxFiles())*h.service.MaxFileBytes() + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(h.service.MaxFileBytes()); err != nil {
		h.log.Warn("Failed to parse multipart form", zap.Error(err))
		utils.ResponseTooLarge(w, "Upload is too large or malformed")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		utils.ResponseBadRequest(w, "At least one image is required", nil)
		return
	}
	if len(headers) > h.service.MaxFiles() {
		utils.ResponseBadRequest(w, "Too many files", nil)
		return
	}

	uploads := make([]usecase.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.service.MaxFileBytes() {
			utils.ResponseTooLarge(w, "File "+fh.Filename+" is too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			closeAll(uploads)
			writeServiceError(w, h.log, err, "open uploaded file")
			return
		}
		uploads = append(uploads, usecase.Upload{Filename: fh.Filename, Reader: f})
	}
	defer closeAll(uploads)

	urls, err := h.service.StoreImages(r.Context(), userID, uploads)
	if err != nil {
		writeServiceError(w, h.log, err, "store images")
		return
	}

	utils.ResponseCreated(w, "Images uploaded successfully", response.UploadResponse{URLs: urls})
}

func closeAll(uploads []usecase.Upload) {
	for _, u := range uploads {
		if f, ok := u.Reader.(multipart.File); ok {
			f.Close()
		}
	}
}
