package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params is a 1-based page request.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// Spec names the query keys and bounds for one endpoint.
type Spec struct {
	PageKey    string
	SizeKey    string
	DefaultPer int
	MaxPer     int
}

// SavedList is used by the saved-products listing.
var SavedList = Spec{PageKey: "page", SizeKey: "per_page", DefaultPer: 20, MaxPer: 100}

// Search is used by product search.
var Search = Spec{PageKey: "page", SizeKey: "pageSize", DefaultPer: 20, MaxPer: 100}

// Parse reads page and size from q. Missing keys take defaults; present but
// invalid or out-of-range values are an error.
func (s Spec) Parse(q url.Values) (Params, error) {
	p := Params{Page: 1, PerPage: s.DefaultPer}

	if raw := q.Get(s.PageKey); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return Params{}, fmt.Errorf("%s must be a positive integer", s.PageKey)
		}
		p.Page = v
	}

	if raw := q.Get(s.SizeKey); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > s.MaxPer {
			return Params{}, fmt.Errorf("%s must be between 1 and %d", s.SizeKey, s.MaxPer)
		}
		p.PerPage = v
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p, nil
}

// TotalPages rounds total/perPage up.
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
