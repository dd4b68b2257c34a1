package wire

import (
	"myvillage-api/internal/adaptor"
	"myvillage-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, rt *routes) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)

		r.Get("/api/users/me", userHandler.Me)
		r.Put("/api/users/me", userHandler.UpdateMe)

		r.With(rt.limit("upload", rt.rateLimit.UploadRequests, rt.rateLimit.UploadWindowMinutes,
			middleware.KeyByUser, "Too many uploads, please try again later")).
			Post("/api/users/me/avatar", userHandler.UploadAvatar)
	})

	// ==================== PUBLIC ROUTES ====================
	// GET /api/users/{id} - Public profile
	r.Get("/api/users/{id}", userHandler.PublicProfile)
}

func wireUpload(r chi.Router, uploadHandler *adaptor.UploadHandler, rt *routes) {
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)
		r.Use(middleware.RequireVerified)
		r.Use(rt.limit("upload", rt.rateLimit.UploadRequests, rt.rateLimit.UploadWindowMinutes,
			middleware.KeyByUser, "Too many uploads, please try again later"))

		// POST /api/uploads/images - multipart "images", returns URLs
		r.Post("/api/uploads/images", uploadHandler.UploadImages)
	})
}
