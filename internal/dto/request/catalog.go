package request

type LocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address" validate:"max=300"`
}

type CatalogItemRequest struct {
	Title       string           `json:"title" validate:"required,min=3,max=200"`
	Description string           `json:"description" validate:"required,min=10,max=5000"`
	Price       *float64         `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    string           `json:"category" validate:"required,max=300"`
	Images      []string         `json:"images,omitempty" validate:"omitempty,max=10,dive,required,max=1000"`
	Location    *LocationRequest `json:"location,omitempty"`
}

type CatalogUpdateRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=10,max=5000"`
	Price       *float64         `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=300"`
	Images      []string         `json:"images,omitempty" validate:"omitempty,max=10,dive,required,max=1000"`
	Location    *LocationRequest `json:"location,omitempty"`
}

// CatalogSearchRequest carries the query string of a catalog listing endpoint.
type CatalogSearchRequest struct {
	PaginatedRequest
	Search   string
	Category string
	SortBy   string
	Status   string
	MinPrice *float64
	MaxPrice *float64
}
