package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/data/repository"
	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/dto/response"
	"myvillage-api/internal/search"
	"myvillage-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Viewer is the caller of a catalog read. A zero Viewer is anonymous.
type Viewer struct {
	UserID uuid.UUID
	Admin  bool
}

func (v Viewer) owns(userID uuid.UUID) bool {
	return v.UserID != uuid.Nil && v.UserID == userID
}

// CatalogKind adapts the generic catalog service to one entity: which
// repository stores it, how new items start out and how kind specific fields
// are read and written.
type CatalogKind[T entity.CatalogEntry] struct {
	Name          string
	Store         func(repo *repository.Repository) repository.CatalogRepository[T]
	Kind          string
	InitialStatus entity.ItemStatus
	PriceRequired bool

	New      func(core entity.CatalogItem, req *request.CatalogItemRequest) T
	Apply    func(item T, req *request.CatalogUpdateRequest)
	Belongs  func(item T) bool
	Decorate func(resp *response.CatalogItemResponse, item T)
}

// ListingKind serves rows of the listings table with the given type.
func ListingKind(name string, kind entity.ListingType) CatalogKind[*entity.Listing] {
	return CatalogKind[*entity.Listing]{
		Name:          name,
		Store:         func(repo *repository.Repository) repository.CatalogRepository[*entity.Listing] { return repo.Listing },
		Kind:          string(kind),
		InitialStatus: entity.StatusPending,
		New: func(core entity.CatalogItem, _ *request.CatalogItemRequest) *entity.Listing {
			return &entity.Listing{CatalogItem: core, Type: kind}
		},
		Apply:   func(*entity.Listing, *request.CatalogUpdateRequest) {},
		Belongs: func(item *entity.Listing) bool { return item.Type == kind },
		Decorate: func(resp *response.CatalogItemResponse, item *entity.Listing) {
			resp.Type = item.Type
		},
	}
}

// MarketplaceKind serves marketplace items: published immediately, price required.
func MarketplaceKind() CatalogKind[*entity.MarketplaceItem] {
	return CatalogKind[*entity.MarketplaceItem]{
		Name: "marketplace item",
		Store: func(repo *repository.Repository) repository.CatalogRepository[*entity.MarketplaceItem] {
			return repo.Marketplace
		},
		InitialStatus: entity.StatusActive,
		PriceRequired: true,
		New: func(core entity.CatalogItem, req *request.CatalogItemRequest) *entity.MarketplaceItem {
			return &entity.MarketplaceItem{CatalogItem: core, Location: toLocation(req.Location)}
		},
		Apply: func(item *entity.MarketplaceItem, req *request.CatalogUpdateRequest) {
			if req.Location != nil {
				item.Location = toLocation(req.Location)
			}
		},
		Belongs: func(*entity.MarketplaceItem) bool { return true },
		Decorate: func(resp *response.CatalogItemResponse, item *entity.MarketplaceItem) {
			resp.Location = item.Location
		},
	}
}

func toLocation(req *request.LocationRequest) *entity.Location {
	if req == nil {
		return nil
	}
	return &entity.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   strings.TrimSpace(req.Address),
	}
}

type CatalogService interface {
	Create(ctx context.Context, userID uuid.UUID, req *request.CatalogItemRequest) (*response.CatalogItemResponse, error)
	// Get hides items that are not active from everyone but the owner and admins.
	Get(ctx context.Context, id string, viewer Viewer) (*response.CatalogItemResponse, error)
	// Search lists active items only.
	Search(ctx context.Context, req *request.CatalogSearchRequest) (*response.PaginatedResponse[response.CatalogItemResponse], error)
	// Mine lists the caller's items in every status unless req.Status narrows it.
	Mine(ctx context.Context, userID uuid.UUID, req *request.CatalogSearchRequest) (*response.PaginatedResponse[response.CatalogItemResponse], error)
	// Queue lists items in one status for moderators; PENDING when empty.
	Queue(ctx context.Context, req *request.CatalogSearchRequest) (*response.PaginatedResponse[response.CatalogItemResponse], error)
	Update(ctx context.Context, id string, viewer Viewer, req *request.CatalogUpdateRequest) (*response.CatalogItemResponse, error)
	Delete(ctx context.Context, id string, viewer Viewer) error
	SetStatus(ctx context.Context, id string, status entity.ItemStatus, note *string) (*response.CatalogItemResponse, error)
	// Ref returns the owner, title and status of an item in any status.
	Ref(ctx context.Context, id uuid.UUID) (*ItemRef, error)
	Count(ctx context.Context, statuses ...entity.ItemStatus) (int64, error)
}

// ItemRef identifies a catalog item for reviews and conversations.
type ItemRef struct {
	OwnerID uuid.UUID
	Title   string
	Status  entity.ItemStatus
}

// OpenTo reports whether userID may review or message the item:
// published items are open to everyone, the rest only to their owner.
func (r *ItemRef) OpenTo(userID uuid.UUID) bool {
	return r.Status == entity.StatusActive || r.OwnerID == userID
}

type catalogService[T entity.CatalogEntry] struct {
	repo  *repository.Repository
	store repository.CatalogRepository[T]
	kind  CatalogKind[T]
	log   *zap.Logger
}

func NewCatalogService[T entity.CatalogEntry](repo *repository.Repository, kind CatalogKind[T], log *zap.Logger) CatalogService {
	return &catalogService[T]{
		repo:  repo,
		store: kind.Store(repo),
		kind:  kind,
		log:   log.With(zap.String("service", "catalog"), zap.String("kind", kind.Name)),
	}
}

func (s *catalogService[T]) Create(ctx context.Context, userID uuid.UUID, req *request.CatalogItemRequest) (*response.CatalogItemResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	if s.kind.PriceRequired && req.Price == nil {
		return nil, fmt.Errorf("%w: price is required", ErrValidation)
	}

	now := time.Now()
	core := entity.CatalogItem{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		Images:      cleanImages(req.Images),
		Status:      s.kind.InitialStatus,
		UserID:      userID,
	}
	item := s.kind.New(core, req)

	if err := s.store.Create(ctx, item); err != nil {
		s.log.Error("Failed to create item", zap.Error(err))
		return nil, fmt.Errorf("create %s: %w", s.kind.Name, err)
	}

	s.log.Info("Item created",
		zap.String("id", core.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("status", string(core.Status)))

	return s.load(ctx, core.ID)
}

func (s *catalogService[T]) Get(ctx context.Context, id string, viewer Viewer) (*response.CatalogItemResponse, error) {
	hit, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	core := hit.Item.Core()
	if core.Status != entity.StatusActive && !viewer.Admin && !viewer.owns(core.UserID) {
		return nil, fmt.Errorf("%s %s: %w", s.kind.Name, id, ErrNotFound)
	}

	resp := s.toResponse(hit)
	return &resp, nil
}

func (s *catalogService[T]) Search(ctx context.Context, req *request.CatalogSearchRequest) (*response.PaginatedResponse[response.CatalogItemResponse], error) {
	filter := s.filter(req)
	filter.Statuses = []entity.ItemStatus{entity.StatusActive}
	return s.page(ctx, req, filter)
}

func (s *catalogService[T]) Mine(ctx context.Context, userID uuid.UUID, req *request.CatalogSearchRequest) (*response.PaginatedResponse[response.CatalogItemResponse], error) {
	filter := s.filter(req)
	filter.UserID = &userID
	if req.Status != "" {
		status := entity.ItemStatus(strings.ToUpper(req.Status))
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
		}
		filter.Statuses = []entity.ItemStatus{status}
	}
	return s.page(ctx, req, filter)
}

func (s *catalogService[T]) Queue(ctx context.Context, req *request.CatalogSearchRequest) (*response.PaginatedResponse[response.CatalogItemResponse], error) {
	status := entity.StatusPending
	if req.Status != "" {
		status = entity.ItemStatus(strings.ToUpper(req.Status))
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
		}
	}
	filter := s.filter(req)
	filter.Statuses = []entity.ItemStatus{status}
	return s.page(ctx, req, filter)
}

func (s *catalogService[T]) Update(ctx context.Context, id string, viewer Viewer, req *request.CatalogUpdateRequest) (*response.CatalogItemResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	hit, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	item := hit.Item
	core := item.Core()
	if !viewer.owns(core.UserID) {
		return nil, fmt.Errorf("update %s %s: %w", s.kind.Name, id, ErrForbidden)
	}

	if req.Title != nil {
		core.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		core.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		core.Price = req.Price
	}
	if req.Category != nil {
		core.Category = strings.TrimSpace(*req.Category)
	}
	if req.Images != nil {
		core.Images = cleanImages(req.Images)
	}
	s.kind.Apply(item, req)
	core.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, item); err != nil {
		s.log.Error("Failed to update item", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("update %s: %w", s.kind.Name, err)
	}

	return s.load(ctx, core.ID)
}

func (s *catalogService[T]) Delete(ctx context.Context, id string, viewer Viewer) error {
	hit, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	core := hit.Item.Core()
	if !viewer.Admin && !viewer.owns(core.UserID) {
		return fmt.Errorf("delete %s %s: %w", s.kind.Name, id, ErrForbidden)
	}

	err = s.repo.Tx.RunInTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Review.DeleteByListing(ctx, core.ID); err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		return s.kind.Store(tx).Delete(ctx, core.ID)
	})
	if err != nil {
		s.log.Error("Failed to delete item", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete %s: %w", s.kind.Name, err)
	}

	s.log.Info("Item deleted", zap.String("id", id), zap.String("by", viewer.UserID.String()))
	return nil
}

func (s *catalogService[T]) SetStatus(ctx context.Context, id string, status entity.ItemStatus, note *string) (*response.CatalogItemResponse, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	hit, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	core := hit.Item.Core()
	if err := s.store.UpdateStatus(ctx, core.ID, status, note); err != nil {
		s.log.Error("Failed to update status", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("update %s status: %w", s.kind.Name, err)
	}

	s.log.Info("Item status changed",
		zap.String("id", id),
		zap.String("from", string(core.Status)),
		zap.String("to", string(status)))

	return s.load(ctx, core.ID)
}

func (s *catalogService[T]) Ref(ctx context.Context, id uuid.UUID) (*ItemRef, error) {
	hit, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.kind.Name, err)
	}
	if hit == nil || !s.kind.Belongs(hit.Item) {
		return nil, fmt.Errorf("%s %s: %w", s.kind.Name, id, ErrNotFound)
	}
	core := hit.Item.Core()
	return &ItemRef{OwnerID: core.UserID, Title: core.Title, Status: core.Status}, nil
}

func (s *catalogService[T]) Count(ctx context.Context, statuses ...entity.ItemStatus) (int64, error) {
	return s.store.Count(ctx, repository.CatalogFilter{Kind: s.kind.Kind, Statuses: statuses})
}

func (s *catalogService[T]) find(ctx context.Context, id string) (*entity.CatalogHit[T], error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s ID", ErrValidation, s.kind.Name)
	}

	hit, err := s.store.FindByID(ctx, itemID)
	if err != nil {
		s.log.Error("Failed to find item", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("find %s: %w", s.kind.Name, err)
	}
	if hit == nil || !s.kind.Belongs(hit.Item) {
		return nil, fmt.Errorf("%s %s: %w", s.kind.Name, id, ErrNotFound)
	}
	return hit, nil
}

func (s *catalogService[T]) load(ctx context.Context, id uuid.UUID) (*response.CatalogItemResponse, error) {
	hit, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", s.kind.Name, err)
	}
	if hit == nil {
		return nil, fmt.Errorf("%s %s: %w", s.kind.Name, id, ErrNotFound)
	}
	resp := s.toResponse(hit)
	return &resp, nil
}

func (s *catalogService[T]) filter(req *request.CatalogSearchRequest) repository.CatalogFilter {
	page := req.PaginatedRequest.Normalize()
	return repository.CatalogFilter{
		Query:    strings.TrimSpace(req.Search),
		Category: strings.TrimSpace(req.Category),
		Kind:     s.kind.Kind,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Sort:     search.ParseSort(req.SortBy),
		Limit:    page.Limit(),
		Offset:   page.Offset(),
	}
}

func (s *catalogService[T]) page(ctx context.Context, req *request.CatalogSearchRequest, filter repository.CatalogFilter) (*response.PaginatedResponse[response.CatalogItemResponse], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrValidation)
	}

	hits, total, err := s.store.Search(ctx, filter)
	if err != nil {
		s.log.Error("Failed to search items", zap.Error(err))
		return nil, fmt.Errorf("search %s: %w", s.kind.Name, err)
	}

	data := make([]response.CatalogItemResponse, 0, len(hits))
	for _, hit := range hits {
		data = append(data, s.toResponse(hit))
	}

	page := req.PaginatedRequest.Normalize()
	return response.NewPaginatedResponse(data, page.Page, page.PerPage, total), nil
}

func (s *catalogService[T]) toResponse(hit *entity.CatalogHit[T]) response.CatalogItemResponse {
	resp := response.CatalogHitToResponse(hit)
	s.kind.Decorate(&resp, hit.Item)
	return resp
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}
