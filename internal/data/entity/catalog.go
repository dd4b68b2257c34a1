package entity

import (
	"github.com/google/uuid"
)

type ItemStatus string

const (
	StatusPending  ItemStatus = "PENDING"
	StatusActive   ItemStatus = "ACTIVE"
	StatusRejected ItemStatus = "REJECTED"
	StatusBanned   ItemStatus = "BANNED"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected, StatusBanned:
		return true
	}
	return false
}

type ListingType string

const (
	ListingTypeListing ListingType = "LISTING"
	ListingTypeService ListingType = "SERVICE"
)

// CatalogItem holds the columns shared by listings and marketplace items.
type CatalogItem struct {
	Base
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	Price          *float64   `db:"price"`
	Category       string     `db:"category"`
	Images         []string   `db:"images"`
	Status         ItemStatus `db:"status"`
	UserID         uuid.UUID  `db:"user_id"`
	ModerationNote *string    `db:"moderation_note"`
}

// CatalogEntry is implemented by every searchable catalog entity.
type CatalogEntry interface {
	Core() *CatalogItem
}

type Listing struct {
	CatalogItem
	Type ListingType `db:"type"`
}

func (l *Listing) Core() *CatalogItem { return &l.CatalogItem }

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type MarketplaceItem struct {
	CatalogItem
	Location *Location `db:"location"`
}

func (m *MarketplaceItem) Core() *CatalogItem { return &m.CatalogItem }

// CatalogHit is a catalog row joined with its owner and review aggregate.
type CatalogHit[T CatalogEntry] struct {
	Item          T
	Owner         UserSummary
	AverageRating float64
	ReviewsCount  int64
	Relevance     int
}
