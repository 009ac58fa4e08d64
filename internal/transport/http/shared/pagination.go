package shared

import (
	"net/http"
	"strconv"

	"hrpay/internal/platform/apperr"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset, capping limit at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (Pagination, error) {
	page := Pagination{Limit: defaultLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return Pagination{}, apperr.Validation("limit", "must be a positive integer")
		}
		page.Limit = v
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return Pagination{}, apperr.Validation("offset", "must be a non-negative integer")
		}
		page.Offset = v
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page, nil
}
