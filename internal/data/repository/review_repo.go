package repository

import (
	"context"
	"errors"
	"fmt"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/search"
	"myvillage-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	// FindByListing pages reviews of one target, optionally only with the given rating.
	FindByListing(ctx context.Context, listingID uuid.UUID, rating *int, limit, offset int) ([]*entity.ReviewWithAuthor, error)
	CountByListing(ctx context.Context, listingID uuid.UUID, rating *int) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByListing(ctx context.Context, listingID uuid.UUID) error
}

type reviewRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewReviewRepository(db database.DBTX, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, listing_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.ListingID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("user_id", review.UserID.String()),
			zap.String("listing_id", review.ListingID.String()),
		)
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT id, user_id, listing_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	var review entity.Review
	err := r.db.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.UserID,
		&review.ListingID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return nil, fmt.Errorf("find review %s: %w", id, err)
	}

	return &review, nil
}

func reviewFilter(listingID uuid.UUID, rating *int, args *search.Args) string {
	where := "r.listing_id = " + args.Add(listingID)
	if rating != nil {
		where += " AND r.rating = " + args.Add(*rating)
	}
	return where
}

func (r *reviewRepository) FindByListing(ctx context.Context, listingID uuid.UUID, rating *int, limit, offset int) ([]*entity.ReviewWithAuthor, error) {
	args := &search.Args{}
	where := reviewFilter(listingID, rating, args)
	query := `
		SELECT r.id, r.user_id, r.listing_id, r.rating, r.comment, r.created_at, r.updated_at,
		       u.id::text, u.name, u.avatar
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE ` + where + `
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ` + args.Add(limit) + ` OFFSET ` + args.Add(offset)

	rows, err := r.db.Query(ctx, query, args.Values()...)
	if err != nil {
		r.log.Error("Failed to get listing reviews",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return nil, fmt.Errorf("find reviews for %s: %w", listingID, err)
	}
	defer rows.Close()

	reviews := make([]*entity.ReviewWithAuthor, 0)
	for rows.Next() {
		var rv entity.ReviewWithAuthor
		if err := rows.Scan(
			&rv.ID,
			&rv.UserID,
			&rv.ListingID,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&rv.Author.ID,
			&rv.Author.Name,
			&rv.Author.Avatar,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, &rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count reviews", zap.Error(err))
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

func (r *reviewRepository) CountByListing(ctx context.Context, listingID uuid.UUID, rating *int) (int64, error) {
	args := &search.Args{}
	where := reviewFilter(listingID, rating, args)
	return r.count(ctx, `SELECT COUNT(*) FROM reviews r WHERE `+where, args.Values()...)
}

func (r *reviewRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID)
}

func (r *reviewRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM reviews`)
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	query := `
		UPDATE reviews
		SET rating = $2, comment = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		review.ID,
		review.Rating,
		review.Comment,
		review.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update review",
			zap.Error(err),
			zap.String("review_id", review.ID.String()),
		)
		return fmt.Errorf("update review %s: %w", review.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", review.ID, ErrNoRows)
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete review",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return fmt.Errorf("delete review %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNoRows)
	}

	return nil
}

func (r *reviewRepository) DeleteByListing(ctx context.Context, listingID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE listing_id = $1`, listingID); err != nil {
		r.log.Error("Failed to delete listing reviews",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return fmt.Errorf("delete reviews for %s: %w", listingID, err)
	}
	return nil
}
