package adaptor

import (
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth        *AuthHandler
	Telegram    *TelegramHandler
	User        *UserHandler
	Listing     *CatalogHandler
	Service     *CatalogHandler
	Marketplace *CatalogHandler
	Review      *ReviewHandler
	Category    *CategoryHandler
	Message     *MessageHandler
	Admin       *AdminHandler
	Upload      *UploadHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(service.Auth, log),
		Telegram:    NewTelegramHandler(service.Verification, config.Telegram.BotToken, log),
		User:        NewUserHandler(service.User, service.Upload, log),
		Listing:     NewCatalogHandler(service.Listing, "listings", log),
		Service:     NewCatalogHandler(service.ServiceOffer, "services", log),
		Marketplace: NewCatalogHandler(service.Marketplace, "items", log),
		Review:      NewReviewHandler(service.Review, log),
		Category:    NewCategoryHandler(service.Category, log),
		Message:     NewMessageHandler(service.Message, log),
		Admin:       NewAdminHandler(service.Moderation, service.Listing, service.ServiceOffer, service.Marketplace, log),
		Upload:      NewUploadHandler(service.Upload, log),
	}
}
