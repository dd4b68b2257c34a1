package response

import (
	"time"

	"myvillage-api/internal/data/entity"
)

type ReviewResponse struct {
	ID        string              `json:"id"`
	ListingID string              `json:"listingId"`
	UserID    string              `json:"userId"`
	User      *entity.UserSummary `json:"user,omitempty"`
	Rating    int                 `json:"rating"`
	Comment   *string             `json:"comment,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func ReviewToResponse(review *entity.Review, author *entity.UserSummary) ReviewResponse {
	return ReviewResponse{
		ID:        review.ID.String(),
		ListingID: review.ListingID.String(),
		UserID:    review.UserID.String(),
		User:      author,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}
