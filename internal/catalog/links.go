package catalog

import (
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// NormalizeLinks extracts link.generate results. Entries without a
// promotion link are skipped.
func NormalizeLinks(raw RawResponse) []domain.AffiliateLink {
	out := []domain.AffiliateLink{}
	if len(raw) == 0 {
		return out
	}

	res := resultNode(envelope(raw))
	var entries []map[string]any
	switch t := res["promotion_links"].(type) {
	case []any:
		entries = objects(t)
	case map[string]any:
		switch inner := t["promotion_link"].(type) {
		case []any:
			entries = objects(inner)
		case map[string]any:
			entries = []map[string]any{inner}
		}
	}
	if len(entries) == 0 {
		if list, ok := res["links"].([]any); ok {
			entries = objects(list)
		}
	}

	for _, e := range entries {
		link := firstString(e, "promotion_link", "link")
		if link == "" {
			continue
		}
		source := firstString(e, "source_value", "source")
		out = append(out, domain.AffiliateLink{
			SourceValue:   source,
			PromotionLink: link,
			ProductID:     domain.ProductIDFromURL(source),
		})
	}
	return out
}
