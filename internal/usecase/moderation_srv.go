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
	"myvillage-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ModerationService interface {
	Stats(ctx context.Context) (*response.PlatformStats, error)
	// Moderate applies an approve/reject/ban decision to an item of catalog.
	Moderate(ctx context.Context, catalog CatalogService, id string, req *request.ModerateRequest) (*response.CatalogItemResponse, error)
	BanUser(ctx context.Context, adminID uuid.UUID, id string, req *request.BanUserRequest) (*response.UserResponse, error)
	UnbanUser(ctx context.Context, id string) (*response.UserResponse, error)
	ListUsers(ctx context.Context, term string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
}

type moderationService struct {
	repo        *repository.Repository
	listings    CatalogService
	services    CatalogService
	marketplace CatalogService
	now         func() time.Time
	log         *zap.Logger
}

func NewModerationService(
	repo *repository.Repository,
	listings, services, marketplace CatalogService,
	log *zap.Logger,
) ModerationService {
	return &moderationService{
		repo:        repo,
		listings:    listings,
		services:    services,
		marketplace: marketplace,
		now:         time.Now,
		log:         log.With(zap.String("service", "moderation")),
	}
}

// ActionStatus maps a moderation action to the status it sets.
func ActionStatus(action string) (entity.ItemStatus, bool) {
	switch strings.ToLower(action) {
	case "approve":
		return entity.StatusActive, true
	case "reject":
		return entity.StatusRejected, true
	case "ban":
		return entity.StatusBanned, true
	}
	return "", false
}

func (s *moderationService) Stats(ctx context.Context) (*response.PlatformStats, error) {
	users, err := s.repo.User.Count(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	var stats response.PlatformStats
	stats.Users = users

	for _, catalog := range []CatalogService{s.listings, s.services} {
		total, err := catalog.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count listings: %w", err)
		}
		pending, err := catalog.Count(ctx, entity.StatusPending)
		if err != nil {
			return nil, fmt.Errorf("count pending listings: %w", err)
		}
		stats.Listings += total
		stats.PendingListings += pending
	}

	if stats.MarketplaceItems, err = s.marketplace.Count(ctx); err != nil {
		return nil, fmt.Errorf("count marketplace items: %w", err)
	}
	if stats.Reviews, err = s.repo.Review.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	return &stats, nil
}

func (s *moderationService) Moderate(ctx context.Context, catalog CatalogService, id string, req *request.ModerateRequest) (*response.CatalogItemResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	status, ok := ActionStatus(req.Action)
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action)
	}

	item, err := catalog.SetStatus(ctx, id, status, trimmedPtr(req.Reason))
	if err != nil {
		return nil, err
	}

	s.log.Info("Item moderated",
		zap.String("id", id),
		zap.String("action", req.Action))
	return item, nil
}

func (s *moderationService) BanUser(ctx context.Context, adminID uuid.UUID, id string, req *request.BanUserRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID == adminID {
		return nil, fmt.Errorf("%w: cannot ban yourself", ErrValidation)
	}
	if user.Role == entity.RoleAdmin {
		return nil, fmt.Errorf("ban admin %s: %w", id, ErrForbidden)
	}

	reason := strings.TrimSpace(req.Reason)
	var until *time.Time
	if req.DurationDays != nil {
		t := s.now().Add(time.Duration(*req.DurationDays) * 24 * time.Hour)
		until = &t
	}

	if err := s.repo.User.SetBan(ctx, user.ID, true, &reason, until); err != nil {
		s.log.Error("Failed to ban user", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("ban user: %w", err)
	}

	s.log.Info("User banned",
		zap.String("user_id", id),
		zap.String("admin_id", adminID.String()),
		zap.Bool("permanent", until == nil))

	user.IsBanned = true
	user.BanReason = &reason
	user.BannedUntil = until
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *moderationService) UnbanUser(ctx context.Context, id string) (*response.UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.User.SetBan(ctx, user.ID, false, nil, nil); err != nil {
		s.log.Error("Failed to unban user", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("unban user: %w", err)
	}

	s.log.Info("User unbanned", zap.String("user_id", id))

	user.IsBanned = false
	user.BanReason = nil
	user.BannedUntil = nil
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *moderationService) ListUsers(ctx context.Context, term string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	page := req.Normalize()
	term = strings.TrimSpace(term)

	users, err := s.repo.User.List(ctx, term, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	total, err := s.repo.User.Count(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	data := make([]response.UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, response.UserToResponse(u))
	}
	return response.NewPaginatedResponse(data, page.Page, page.PerPage, total), nil
}

func (s *moderationService) findUser(ctx context.Context, id string) (*entity.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID", ErrValidation)
	}
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, nil
}
