package pagination

import (
	"slices"

	apperrors "pfa/internal/errors"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 10

// AllowedLimits are the page sizes a user can pick from.
var AllowedLimits = []int{5, 10, 20, 50, 100}

// IsAllowedLimit reports whether n is one of AllowedLimits.
func IsAllowedLimit(n int) bool {
	return slices.Contains(AllowedLimits, n)
}

// PageRequest holds the 1-based page cursor sent with a list query.
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Defaults fills in default values when page or limit are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
}

// Validate rejects a page below 1 or a limit outside AllowedLimits.
func (p PageRequest) Validate() error {
	if p.Page < 1 {
		return apperrors.ErrPageOutOfRange
	}
	if !IsAllowedLimit(p.Limit) {
		return apperrors.ErrInvalidLimit
	}
	return nil
}

// TotalPages returns ceil(total/limit), and 1 when there is nothing to show
// so that page 1 is always navigable.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Clamp returns page forced into [1, TotalPages(total, limit)].
func Clamp(page int, total int64, limit int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, limit); page > last {
		return last
	}
	return page
}

// Bounds describes the navigable window around the current page.
type Bounds struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

// NewBounds computes navigation bounds for the given cursor and total.
func NewBounds(page, limit int, total int64) Bounds {
	last := TotalPages(total, limit)
	return Bounds{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: last,
		HasPrev:    page > 1,
		HasNext:    page < last,
	}
}
