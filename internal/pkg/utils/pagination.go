package utils

import (
	"net/http"
	"strconv"

	"github.com/driftboard/driftboard/internal/pkg/errors"
)

// PaginationParams contains pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalItems int64       `json:"total_items"`
	TotalPages int         `json:"total_pages"`
}

// DefaultLimit is the default number of items per page
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// ParsePaginationParams parses page/limit from the query string.
// Out-of-range values are a validation error, not clamped.
func ParsePaginationParams(r *http.Request) (PaginationParams, *errors.AppError) {
	page := 1
	limit := DefaultLimit

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return PaginationParams{}, errors.BadRequest("page must be a positive integer")
		}
		page = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return PaginationParams{}, errors.BadRequest("limit must be between 1 and 100")
		}
		limit = n
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, nil
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, page, limit int, totalItems int64) PaginatedResponse {
	totalPages := int(totalItems) / limit
	if int(totalItems)%limit != 0 {
		totalPages++
	}

	return PaginatedResponse{
		Data:       data,
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
