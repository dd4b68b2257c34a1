package search

import "strings"

type Sort string

const (
	SortNewest    Sort = "date_desc"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRating    Sort = "rating_desc"
)

// ParseSort maps the sortBy query value. Unknown values fall back to newest first.
func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortRating:
		return SortRating
	}
	return SortNewest
}

// OrderColumns names the expressions the ORDER BY clause sorts on.
type OrderColumns struct {
	Relevance string
	CreatedAt string
	Price     string
	Rating    string
	ID        string
}

// OrderBy builds the ORDER BY list. Relevance leads only when a query is
// present; prices without a value always sort last; id breaks ties so pages
// are stable.
func OrderBy(sort Sort, hasQuery bool, c OrderColumns) string {
	var keys []string
	if hasQuery {
		keys = append(keys, c.Relevance+" DESC")
	}

	switch sort {
	case SortPriceAsc:
		keys = append(keys, c.Price+" ASC NULLS LAST")
	case SortPriceDesc:
		keys = append(keys, c.Price+" DESC NULLS LAST")
	case SortRating:
		keys = append(keys, c.Rating+" DESC")
	}
	keys = append(keys, c.CreatedAt+" DESC", c.ID+" DESC")

	return strings.Join(keys, ", ")
}
