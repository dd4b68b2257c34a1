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
	"myvillage-api/pkg/database"
	"myvillage-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*response.UserResponse, error)
	PublicProfile(ctx context.Context, id string) (*response.PublicProfileResponse, error)
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		holder, err := s.repo.User.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if holder != nil && holder.ID != user.ID {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		user.Email = &email
	}

	user.UpdatedAt = time.Now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		s.log.Error("Failed to update profile", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("update user: %w", err)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*response.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Avatar = &avatarURL
	user.UpdatedAt = time.Now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	s.log.Info("Avatar updated", zap.String("user_id", userID.String()))
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) PublicProfile(ctx context.Context, id string) (*response.PublicProfileResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID", ErrValidation)
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := repository.CatalogFilter{
		UserID:   &user.ID,
		Statuses: []entity.ItemStatus{entity.StatusActive},
	}
	listings, err := s.repo.Listing.Count(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	items, err := s.repo.Marketplace.Count(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("count marketplace items: %w", err)
	}
	reviews, err := s.repo.Review.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	return &response.PublicProfileResponse{
		ID:           user.ID.String(),
		Name:         user.Name,
		Avatar:       user.Avatar,
		IsVerified:   user.IsVerified,
		ListingCount: listings + items,
		ReviewCount:  reviews,
		CreatedAt:    user.CreatedAt,
	}, nil
}

func (s *userService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to find user", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return user, nil
}
