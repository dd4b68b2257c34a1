package entity

import (
	"github.com/google/uuid"
)

// Review targets either a listing or a marketplace item; ListingID carries the id of either.
type Review struct {
	Base
	UserID    uuid.UUID `db:"user_id"`
	ListingID uuid.UUID `db:"listing_id"`
	Rating    int       `db:"rating"` // 1-5
	Comment   *string   `db:"comment"`
}

type ReviewWithAuthor struct {
	Review
	Author UserSummary
}
