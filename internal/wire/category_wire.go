package wire

import (
	"myvillage-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCategory(r chi.Router, categoryHandler *adaptor.CategoryHandler, rt *routes) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/categories", categoryHandler.Tree)
	r.Get("/api/categories/all", categoryHandler.All)
	r.Get("/api/categories/{id}", categoryHandler.Get)

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)
		r.Use(rt.admin)

		r.Post("/api/categories", categoryHandler.Create)
		r.Put("/api/categories/{id}", categoryHandler.Update)
		r.Delete("/api/categories/{id}", categoryHandler.Delete)
	})
}
