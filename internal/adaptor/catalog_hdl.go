package adaptor

import (
	"net/http"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/dto/response"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves one catalog (listings, services or marketplace items).
// Search results are returned under the collection key, e.g.
// {"listings": [...], "pagination": {...}}.
type CatalogHandler struct {
	service    usecase.CatalogService
	collection string
	log        *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, collection string, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:    service,
		collection: collection,
		log:        log.With(zap.String("handler", collection)),
	}
}

// Search handles GET /api/{collection}
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	req := parseCatalogQuery(r)

	page, err := h.service.Search(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "search "+h.collection)
		return
	}

	h.writePage(w, page)
}

// Mine handles GET /api/{collection}/my (protected)
func (h *CatalogHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	page, err := h.service.Mine(r.Context(), userID, parseCatalogQuery(r))
	if err != nil {
		writeServiceError(w, h.log, err, "list own "+h.collection)
		return
	}

	h.writePage(w, page)
}

// Get handles GET /api/{collection}/{id}. Authentication is optional; it only
// widens visibility for owners and admins.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), viewerFrom(r))
	if err != nil {
		writeServiceError(w, h.log, err, "get "+h.collection)
		return
	}

	utils.ResponseSuccess(w, "Item retrieved successfully", resp)
}

// Create handles POST /api/{collection} (verified users)
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CatalogItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create "+h.collection)
		return
	}

	utils.ResponseCreated(w, "Item created successfully", resp)
}

// Update handles PUT /api/{collection}/{id} (owner)
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CatalogUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), viewerFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update "+h.collection)
		return
	}

	utils.ResponseSuccess(w, "Item updated successfully", resp)
}

// Delete handles DELETE /api/{collection}/{id} (owner or admin)
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), viewerFrom(r)); err != nil {
		writeServiceError(w, h.log, err, "delete "+h.collection)
		return
	}

	utils.ResponseSuccess(w, "Item deleted successfully", nil)
}

func (h *CatalogHandler) writePage(w http.ResponseWriter, page *response.PaginatedResponse[response.CatalogItemResponse]) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		h.collection: page.Data,
		"pagination": page.Pagination,
	})
}

func parseCatalogQuery(r *http.Request) *request.CatalogSearchRequest {
	q := r.URL.Query()
	return &request.CatalogSearchRequest{
		PaginatedRequest: parsePagination(r),
		Search:           q.Get("search"),
		Category:         q.Get("category"),
		SortBy:           q.Get("sortBy"),
		Status:           q.Get("status"),
		MinPrice:         utils.ParseFloatPtr(q.Get("minPrice")),
		MaxPrice:         utils.ParseFloatPtr(q.Get("maxPrice")),
	}
}

func parsePagination(r *http.Request) request.PaginatedRequest {
	q := r.URL.Query()
	return request.PaginatedRequest{
		Page:    utils.ParseInt(q.Get("page"), 1),
		PerPage: utils.ParseInt(q.Get("limit"), request.DefaultPageSize),
	}.Normalize()
}

func viewerFrom(r *http.Request) usecase.Viewer {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	role, _ := utils.GetRoleFromContext(r.Context())
	return usecase.Viewer{UserID: userID, Admin: role == string(entity.RoleAdmin)}
}
