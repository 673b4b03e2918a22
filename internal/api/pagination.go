package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nemorize/restdown/internal/models"
)

// intParam parses raw, falling back to def when absent. Non-integers map to
// -1 so they fail validation.
func intParam(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

// parsePage reads and validates offset, limit and query from r.
func parsePage(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	page := models.Page{
		Offset: intParam(q.Get("offset"), models.DefaultOffset),
		Limit:  intParam(q.Get("limit"), models.DefaultLimit),
		Query:  q.Get("query"),
	}
	if err := page.Validate(); err != nil {
		return models.Page{}, err
	}
	return page, nil
}
