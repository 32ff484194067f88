package request

import (
	"net/http"
	"strconv"

	"github.com/mcoot/bullcow/internal/api/apierr"
	"github.com/mcoot/bullcow/internal/services/history"
)

// HistoryQuery holds the query parameters of a match history request
type HistoryQuery struct {
	Limit int
}

// ParseHistoryQuery reads ?limit=N. A missing limit uses the default;
// values above the maximum are capped.
func ParseHistoryQuery(r *http.Request) (HistoryQuery, error) {
	q := HistoryQuery{Limit: history.DefaultLimit}

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return q, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return q, apierr.NewInvalidRequestError("limit must be a positive integer")
	}
	q.Limit = min(limit, history.MaxLimit)
	return q, nil
}
