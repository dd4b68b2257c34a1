package wire

import (
	"myvillage-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAdmin(r chi.Router, adminHandler *adaptor.AdminHandler, rt *routes) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(rt.auth)
		r.Use(rt.admin)

		r.Get("/stats", adminHandler.Stats)

		// Moderation queues, PENDING unless ?status= says otherwise
		r.Get("/listings", adminHandler.ListingQueue)
		r.Get("/services", adminHandler.ServiceQueue)
		r.Get("/marketplace", adminHandler.MarketplaceQueue)

		r.Post("/listings/{id}/moderate", adminHandler.ModerateListing)
		r.Post("/services/{id}/moderate", adminHandler.ModerateService)
		r.Post("/marketplace/{id}/moderate", adminHandler.ModerateMarketplace)

		r.Get("/users", adminHandler.ListUsers)
		r.Post("/users/{id}/ban", adminHandler.BanUser)
		r.Post("/users/{id}/unban", adminHandler.UnbanUser)
	})
}
