package wire

import (
	"myvillage-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireMessage(r chi.Router, messageHandler *adaptor.MessageHandler, rt *routes) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)

		r.Get("/api/messages/conversations", messageHandler.Conversations)
		r.Get("/api/messages/conversations/{id}", messageHandler.Thread)
		r.Post("/api/messages/conversations/{id}", messageHandler.Reply)
		r.Put("/api/messages/conversations/{id}/read", messageHandler.MarkRead)
	})
}
