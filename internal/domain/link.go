package domain

import (
	"regexp"
	"time"
)

// AffiliateLink maps a source URL to its tracked promotion link.
type AffiliateLink struct {
	SourceValue   string    `json:"source_value"`
	PromotionLink string    `json:"promotion_link"`
	ProductID     string    `json:"product_id"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

var itemPathRe = regexp.MustCompile(`item/(\d+)\.`)

// ProductIDFromURL extracts the numeric id from ".../item/<id>.html", or
// returns "unknown".
func ProductIDFromURL(u string) string {
	if m := itemPathRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return "unknown"
}
