package adaptor

import (
	"net/http"

	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	service     usecase.ModerationService
	listings    usecase.CatalogService
	services    usecase.CatalogService
	marketplace usecase.CatalogService
	log         *zap.Logger
}

func NewAdminHandler(
	service usecase.ModerationService,
	listings, services, marketplace usecase.CatalogService,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		service:     service,
		listings:    listings,
		services:    services,
		marketplace: marketplace,
		log:         log.With(zap.String("handler", "admin")),
	}
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "get stats")
		return
	}

	utils.ResponseSuccess(w, "Stats retrieved successfully", resp)
}

// ListingQueue handles GET /api/admin/listings?status=
func (h *AdminHandler) ListingQueue(w http.ResponseWriter, r *http.Request) {
	h.queue(w, r, h.listings, "listings")
}

// ServiceQueue handles GET /api/admin/services?status=
func (h *AdminHandler) ServiceQueue(w http.ResponseWriter, r *http.Request) {
	h.queue(w, r, h.services, "services")
}

// MarketplaceQueue handles GET /api/admin/marketplace?status=
func (h *AdminHandler) MarketplaceQueue(w http.ResponseWriter, r *http.Request) {
	h.queue(w, r, h.marketplace, "marketplace items")
}

// ModerateListing handles POST /api/admin/listings/{id}/moderate
func (h *AdminHandler) ModerateListing(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.listings)
}

// ModerateService handles POST /api/admin/services/{id}/moderate
func (h *AdminHandler) ModerateService(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.services)
}

// ModerateMarketplace handles POST /api/admin/marketplace/{id}/moderate
func (h *AdminHandler) ModerateMarketplace(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.marketplace)
}

// ListUsers handles GET /api/admin/users?search=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	pagination := parsePagination(r)

	resp, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("search"), &pagination)
	if err != nil {
		writeServiceError(w, h.log, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", resp)
}

// BanUser handles POST /api/admin/users/{id}/ban
func (h *AdminHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.BanUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.BanUser(r.Context(), adminID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "ban user")
		return
	}

	utils.ResponseSuccess(w, "User banned", resp)
}

// UnbanUser handles POST /api/admin/users/{id}/unban
func (h *AdminHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.UnbanUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "unban user")
		return
	}

	utils.ResponseSuccess(w, "User unbanned", resp)
}

func (h *AdminHandler) queue(w http.ResponseWriter, r *http.Request, catalog usecase.CatalogService, name string) {
	resp, err := catalog.Queue(r.Context(), parseCatalogQuery(r))
	if err != nil {
		writeServiceError(w, h.log, err, "list "+name+" queue")
		return
	}

	utils.ResponseSuccess(w, "Moderation queue retrieved successfully", resp)
}

func (h *AdminHandler) moderate(w http.ResponseWriter, r *http.Request, catalog usecase.CatalogService) {
	var req request.ModerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Moderate(r.Context(), catalog, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "moderate")
		return
	}

	utils.ResponseSuccess(w, "Moderation applied", resp)
}
