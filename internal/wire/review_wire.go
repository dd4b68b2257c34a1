package wire

import (
	"myvillage-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireReview(r chi.Router, reviewHandler *adaptor.ReviewHandler, rt *routes) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)

		// PUT /api/listings/reviews/{id} - Update review (author only)
		r.Put("/api/listings/reviews/{id}", reviewHandler.UpdateReview)

		// DELETE /api/listings/reviews/{id} - Delete review (author or admin)
		r.Delete("/api/listings/reviews/{id}", reviewHandler.DeleteReview)
	})
}
