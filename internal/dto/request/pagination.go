package request

import (
	"math"

	"myvillage-api/pkg/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps the offset inside an int32 for any page size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"limit" validate:"min=1,max=100"`
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(min(p.Page, MaxPage), p.Limit())
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return DefaultPageSize
	}
	if p.PerPage > MaxPageSize {
		return MaxPageSize
	}
	return p.PerPage
}

// Normalize clamps page and limit into their valid ranges.
func (p PaginatedRequest) Normalize() PaginatedRequest {
	p.Page = max(1, min(p.Page, MaxPage))
	p.PerPage = p.Limit()
	return p
}
