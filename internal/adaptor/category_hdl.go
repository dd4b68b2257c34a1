package adaptor

import (
	"net/http"

	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	service usecase.CategoryService
	log     *zap.Logger
}

func NewCategoryHandler(service usecase.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "category")),
	}
}

// Tree handles GET /api/categories
func (h *CategoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Tree(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "get category tree")
		return
	}

	utils.ResponseSuccess(w, "Categories retrieved successfully", resp)
}

// All handles GET /api/categories/all
func (h *CategoryHandler) All(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.All(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "list categories")
		return
	}

	utils.ResponseSuccess(w, "Categories retrieved successfully", resp)
}

// Get handles GET /api/categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get category")
		return
	}

	utils.ResponseSuccess(w, "Category retrieved successfully", resp)
}

// Create handles POST /api/categories (admin)
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create category")
		return
	}

	utils.ResponseCreated(w, "Category created successfully", resp)
}

// Update handles PUT /api/categories/{id} (admin)
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.CategoryUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update category")
		return
	}

	utils.ResponseSuccess(w, "Category updated successfully", resp)
}

// Delete handles DELETE /api/categories/{id} (admin). The category is
// deactivated, not removed.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "delete category")
		return
	}

	utils.ResponseSuccess(w, "Category deactivated successfully", nil)
}
