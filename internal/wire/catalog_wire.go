package wire

import (
	"myvillage-api/internal/adaptor"
	"myvillage-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

// wireCatalog mounts one catalog under prefix, plus the reviews and the
// first-message endpoint that hang off its items.
func wireCatalog(
	r chi.Router,
	prefix string,
	catalogHandler *adaptor.CatalogHandler,
	reviewHandler *adaptor.ReviewHandler,
	messageHandler *adaptor.MessageHandler,
	rt *routes,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET {prefix} - Search active items
	r.Get(prefix, catalogHandler.Search)

	// GET {prefix}/{id}/reviews - Reviews of an item
	r.Get(prefix+"/{id}/reviews", reviewHandler.GetListingReviews)

	// GET {prefix}/{id} - Owners and admins also see inactive items
	r.With(rt.optional).Get(prefix+"/{id}", catalogHandler.Get)

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)

		// GET {prefix}/my - Caller's items in every status
		r.Get(prefix+"/my", catalogHandler.Mine)

		// PUT {prefix}/{id} - Owner edit
		r.Put(prefix+"/{id}", catalogHandler.Update)

		// DELETE {prefix}/{id} - Owner or admin
		r.Delete(prefix+"/{id}", catalogHandler.Delete)

		// Verified users only
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireVerified)

			r.With(rt.limit("listing", rt.rateLimit.ListingRequests, rt.rateLimit.ListingWindowMinutes,
				middleware.KeyByUser, "Too many listings created, please try again later")).
				Post(prefix, catalogHandler.Create)

			r.Post(prefix+"/{id}/reviews", reviewHandler.CreateReview)
			r.Post(prefix+"/{id}/messages", messageHandler.StartConversation)
		})
	})
}
