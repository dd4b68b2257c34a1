package usecase

import (
	"context"
	"errors"
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

type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, listingID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	// GetListingReviews pages the reviews of a listing or marketplace item, optionally by rating.
	GetListingReviews(ctx context.Context, listingID string, rating *int, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	UpdateReview(ctx context.Context, reviewID string, userID uuid.UUID, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, reviewID string, viewer Viewer) error
}

type reviewService struct {
	repo    *repository.Repository
	targets []CatalogService
	log     *zap.Logger
}

// NewReviewService accepts the catalogs a review may target; the first one
// holding the id wins.
func NewReviewService(repo *repository.Repository, log *zap.Logger, targets ...CatalogService) ReviewService {
	return &reviewService{
		repo:    repo,
		targets: targets,
		log:     log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, listingID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	targetID, err := s.findTarget(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	review := &entity.Review{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:    userID,
		ListingID: targetID,
		Rating:    req.Rating,
		Comment:   trimmedPtr(req.Comment),
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		s.log.Error("Failed to create review", zap.Error(err))
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("listing_id", targetID.String()),
		zap.Int("rating", review.Rating))

	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := response.ReviewToResponse(review, author)
	return &resp, nil
}

func (s *reviewService) GetListingReviews(ctx context.Context, listingID string, rating *int, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	targetID, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID", ErrValidation)
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	page := req.Normalize()

	reviews, err := s.repo.Review.FindByListing(ctx, targetID, rating, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to get reviews", zap.String("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("find reviews: %w", err)
	}

	total, err := s.repo.Review.CountByListing(ctx, targetID, rating)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	data := make([]response.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		author := r.Author
		data = append(data, response.ReviewToResponse(&r.Review, &author))
	}

	return response.NewPaginatedResponse(data, page.Page, page.PerPage, total), nil
}

func (s *reviewService) UpdateReview(ctx context.Context, reviewID string, userID uuid.UUID, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	review, err := s.find(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, fmt.Errorf("update review %s: %w", reviewID, ErrForbidden)
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = trimmedPtr(req.Comment)
	}
	review.UpdatedAt = time.Now()

	if err := s.repo.Review.Update(ctx, review); err != nil {
		s.log.Error("Failed to update review", zap.String("review_id", reviewID), zap.Error(err))
		return nil, fmt.Errorf("update review: %w", err)
	}

	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := response.ReviewToResponse(review, author)
	return &resp, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, reviewID string, viewer Viewer) error {
	review, err := s.find(ctx, reviewID)
	if err != nil {
		return err
	}
	if !viewer.Admin && review.UserID != viewer.UserID {
		return fmt.Errorf("delete review %s: %w", reviewID, ErrForbidden)
	}

	if err := s.repo.Review.Delete(ctx, review.ID); err != nil {
		s.log.Error("Failed to delete review", zap.String("review_id", reviewID), zap.Error(err))
		return fmt.Errorf("delete review: %w", err)
	}

	s.log.Info("Review deleted", zap.String("review_id", reviewID))
	return nil
}

// findTarget checks that id names an item in one of the review targets
// that is open to userID.
func (s *reviewService) findTarget(ctx context.Context, userID uuid.UUID, id string) (uuid.UUID, error) {
	targetID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid listing ID", ErrValidation)
	}

	for _, target := range s.targets {
		ref, err := target.Ref(ctx, targetID)
		if err == nil {
			if !ref.OpenTo(userID) {
				break
			}
			return targetID, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return uuid.Nil, err
		}
	}
	return uuid.Nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
}

func (s *reviewService) find(ctx context.Context, id string) (*entity.Review, error) {
	reviewID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid review ID", ErrValidation)
	}

	review, err := s.repo.Review.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return review, nil
}

func (s *reviewService) author(ctx context.Context, userID uuid.UUID) (*entity.UserSummary, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find review author: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return &entity.UserSummary{
		ID:     user.ID.String(),
		Name:   user.Name,
		Avatar: user.Avatar,
	}, nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
