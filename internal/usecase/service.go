package usecase

import (
	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/data/repository"
	"myvillage-api/pkg/storage"
	"myvillage-api/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth         AuthService
	Verification VerificationService
	User         UserService
	Listing      CatalogService
	ServiceOffer CatalogService
	Marketplace  CatalogService
	Review       ReviewService
	Category     CategoryService
	Message      MessageService
	Moderation   ModerationService
	Upload       UploadService
}

func NewService(
	repo *repository.Repository,
	jwt *utils.JWTManager,
	store storage.Storage,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	verification := NewVerificationService(repo, jwt, config, log)

	listings := NewCatalogService(repo, ListingKind("listing", entity.ListingTypeListing), log)
	services := NewCatalogService(repo, ListingKind("service", entity.ListingTypeService), log)
	marketplace := NewCatalogService(repo, MarketplaceKind(), log)

	return &Service{
		Auth:         NewAuthService(repo, jwt, verification, log),
		Verification: verification,
		User:         NewUserService(repo, log),
		Listing:      listings,
		ServiceOffer: services,
		Marketplace:  marketplace,
		Review:       NewReviewService(repo, log, listings, services, marketplace),
		Category:     NewCategoryService(repo, log),
		Message:      NewMessageService(repo, log, listings, services, marketplace),
		Moderation:   NewModerationService(repo, listings, services, marketplace, log),
		Upload:       NewUploadService(store, config.Upload, log),
	}
}
