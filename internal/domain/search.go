package domain

import (
	"github.com/shopspring/decimal"
)

// Sort orders understood by search.
const (
	SortVolumeDesc   = "volume_desc"
	SortVolumeAsc    = "volume_asc"
	SortRatingDesc   = "rating_desc"
	SortRatingAsc    = "rating_asc"
	SortDiscountDesc = "discount_desc"
	SortPriceAsc     = "price_asc"
	SortPriceDesc    = "price_desc"
)

// DefaultSort is applied when the caller gives none.
const DefaultSort = SortVolumeDesc

// Page size bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ValidSorts lists every accepted sort key.
func ValidSorts() []string {
	return []string{
		SortVolumeDesc, SortVolumeAsc,
		SortRatingDesc, SortRatingAsc,
		SortDiscountDesc,
		SortPriceAsc, SortPriceDesc,
	}
}

// IsValidSort reports whether s is an accepted sort key.
func IsValidSort(s string) bool {
	for _, v := range ValidSorts() {
		if v == s {
			return true
		}
	}
	return false
}

// SearchRequest is a validated search query.
type SearchRequest struct {
	Keywords       string
	CategoryID     string
	Page           int
	PageSize       int
	Sort           string
	HasVideo       *bool
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	DemoMode       bool
	Hot            bool
	TargetCurrency string
	TargetLanguage string
	// Passthrough holds whitelisted provider keys copied from the inbound query.
	Passthrough map[string]string
}

// PagedResult is one page of assembled products. HasMore is true when the
// page came back full; the provider does not report a total, so a full last
// page still reports more.
type PagedResult struct {
	Items    []Product `json:"items"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	HasMore  bool      `json:"hasMore"`
}
