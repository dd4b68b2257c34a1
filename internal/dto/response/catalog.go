package response

import (
	"time"

	"myvillage-api/internal/data/entity"
)

type CatalogItemResponse struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Price          *float64           `json:"price"`
	Category       string             `json:"category"`
	Images         []string           `json:"images"`
	Status         entity.ItemStatus  `json:"status"`
	Type           entity.ListingType `json:"type,omitempty"`
	Location       *entity.Location   `json:"location,omitempty"`
	UserID         string             `json:"userId"`
	User           entity.UserSummary `json:"user"`
	ModerationNote *string            `json:"moderationNote,omitempty"`
	AverageRating  float64            `json:"averageRating"`
	ReviewsCount   int64              `json:"reviewsCount"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// CatalogHitToResponse converts the shared part of a hit; kind specific fields
// are filled by the caller.
func CatalogHitToResponse[T entity.CatalogEntry](hit *entity.CatalogHit[T]) CatalogItemResponse {
	core := hit.Item.Core()
	return CatalogItemResponse{
		ID:             core.ID.String(),
		Title:          core.Title,
		Description:    core.Description,
		Price:          core.Price,
		Category:       core.Category,
		Images:         core.Images,
		Status:         core.Status,
		UserID:         core.UserID.String(),
		User:           hit.Owner,
		ModerationNote: core.ModerationNote,
		AverageRating:  hit.AverageRating,
		ReviewsCount:   hit.ReviewsCount,
		CreatedAt:      core.CreatedAt,
		UpdatedAt:      core.UpdatedAt,
	}
}
