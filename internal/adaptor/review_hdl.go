package adaptor

import (
	"net/http"

	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// CreateReview handles POST /api/listings/{id}/reviews (verified)
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.CreateReview(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Review created successfully", resp)
}

// GetListingReviews handles GET /api/listings/{id}/reviews?rating=
func (h *ReviewHandler) GetListingReviews(w http.ResponseWriter, r *http.Request) {
	rating := utils.ParseIntPtr(r.URL.Query().Get("rating"))
	pagination := parsePagination(r)

	resp, err := h.service.GetListingReviews(r.Context(), chi.URLParam(r, "id"), rating, &pagination)
	if err != nil {
		writeServiceError(w, h.log, err, "get reviews")
		return
	}

	utils.ResponseSuccess(w, "Reviews retrieved successfully", resp)
}

// UpdateReview handles PUT /api/listings/reviews/{id} (author)
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.UpdateReview(r.Context(), chi.URLParam(r, "id"), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update review")
		return
	}

	utils.ResponseSuccess(w, "Review updated successfully", resp)
}

// DeleteReview handles DELETE /api/listings/reviews/{id} (author or admin)
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeleteReview(r.Context(), chi.URLParam(r, "id"), viewerFrom(r)); err != nil {
		writeServiceError(w, h.log, err, "delete review")
		return
	}

	utils.ResponseSuccess(w, "Review deleted successfully", nil)
}
