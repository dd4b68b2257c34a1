package wire

import (
	"myvillage-api/internal/adaptor"
	"myvillage-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, rt *routes) {
	// ==================== PUBLIC ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.limit("auth", rt.rateLimit.AuthRequests, rt.rateLimit.AuthWindowMinutes,
			middleware.KeyByIP, "Too many authentication attempts, please try again later"))

		// POST /api/auth/register - Register with phone and password
		r.Post("/api/auth/register", authHandler.Register)

		// POST /api/auth/login - Login, returns access and refresh tokens
		r.Post("/api/auth/login", authHandler.Login)
	})

	// POST /api/auth/refresh - Exchange a refresh token for a new pair
	r.Post("/api/auth/refresh", authHandler.Refresh)

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.auth)

		r.Post("/api/auth/logout", authHandler.Logout)

		// POST /api/auth/telegram/request - Issue a token owned by the caller
		r.Post("/api/auth/telegram/request", authHandler.RequestTelegram)
	})
}

func wireTelegram(r chi.Router, telegramHandler *adaptor.TelegramHandler, rt *routes) {
	// ==================== CLIENT ROUTES ====================
	// POST /api/auth/telegram/verify-token - Anonymous verification token
	r.Post("/api/auth/telegram/verify-token", telegramHandler.IssueToken)

	// GET /api/auth/telegram/verify-status/{token} - Polled by the client
	r.Get("/api/auth/telegram/verify-status/{token}", telegramHandler.Status)

	// POST /api/auth/telegram/webapp/confirm - Mini App confirmation, signed by Telegram
	r.Post("/api/auth/telegram/webapp/confirm", telegramHandler.WebAppConfirm)

	// ==================== BOT ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(rt.limit("bot", rt.rateLimit.BotRequests, rt.rateLimit.BotWindowMinutes,
			middleware.KeyByIP, "Too many bot requests"))
		r.Use(middleware.BotSecret(rt.config.Telegram.BotSecret))

		r.Post("/api/auth/telegram/bot/verify-token", telegramHandler.BotVerifyToken)
		r.Post("/api/auth/telegram/bot/confirm", telegramHandler.BotConfirm)
	})
}
