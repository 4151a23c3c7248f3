package domain

import "time"

// Search sources reported to clients and recorded in history.
const (
	SourceLive  = "live"
	SourceCache = "cache"
	SourceDemo  = "demo_data"
	SourceHot   = "hot_products"
	SourceEmpty = "empty"
)

// SearchRecord is one row of search history.
type SearchRecord struct {
	EventID      string    `json:"event_id"`
	Query        string    `json:"query"`
	CategoryID   string    `json:"category_id,omitempty"`
	ResultsCount int       `json:"results_count"`
	Source       string    `json:"source"`
	ClientIP     string    `json:"client_ip,omitempty"`
	SearchedAt   time.Time `json:"searched_at"`
}

// Stats summarizes stored data.
type Stats struct {
	SavedProducts     int  `json:"saved_products"`
	AffiliateLinks    int  `json:"affiliate_links"`
	TotalSearches     int  `json:"total_searches"`
	CatalogConfigured bool `json:"catalog_configured"`
}
