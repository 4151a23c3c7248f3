package catalog

import (
	"sort"
	"strings"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// shape is where a response keeps its products.
type shape int

const (
	shapeNone shape = iota
	// result.products is an array.
	shapeList
	// result.products.product is an array.
	shapeWrappedList
	// result.products.product is one object.
	shapeWrappedSingle
	// result.products is one product object.
	shapeSingle
	// products found under an alternate key.
	shapeAlternate
)

func (s shape) String() string {
	switch s {
	case shapeList:
		return "list"
	case shapeWrappedList:
		return "wrapped_list"
	case shapeWrappedSingle:
		return "wrapped_single"
	case shapeSingle:
		return "single"
	case shapeAlternate:
		return "alternate"
	default:
		return "none"
	}
}

var (
	alternateResultKeys   = []string{"product_list", "ae_hot_products", "ae_products"}
	alternateTopLevelKeys = []string{"product_list", "items", "list"}
)

// Normalize maps any known provider response to canonical products. Items
// without an id are dropped. Unknown shapes give an empty slice.
func Normalize(raw RawResponse) []domain.Product {
	items, _ := detect(raw)

	out := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if p, ok := mapProduct(item); ok {
			out = append(out, p)
		}
	}
	return out
}

// detect finds the product objects in raw and reports the shape used.
func detect(raw RawResponse) ([]map[string]any, shape) {
	if len(raw) == 0 {
		return nil, shapeNone
	}

	res := resultNode(envelope(raw))
	if items, s := classify(res["products"]); len(items) > 0 {
		return items, s
	}

	for _, k := range alternateResultKeys {
		if items, _ := classify(res[k]); len(items) > 0 {
			return items, shapeAlternate
		}
	}
	for _, k := range alternateTopLevelKeys {
		if items, _ := classify(raw[k]); len(items) > 0 {
			return items, shapeAlternate
		}
	}
	return nil, shapeNone
}

// envelope returns the first "*_response" object by key order, else raw.
func envelope(raw map[string]any) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if strings.HasSuffix(k, "_response") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if obj, ok := raw[k].(map[string]any); ok {
			return obj
		}
	}
	return raw
}

// resultNode descends resp_result.result, then result, else returns env.
func resultNode(env map[string]any) map[string]any {
	if rr, ok := env["resp_result"].(map[string]any); ok {
		if r, ok := rr["result"].(map[string]any); ok {
			return r
		}
	}
	if r, ok := env["result"].(map[string]any); ok {
		return r
	}
	return env
}

func classify(v any) ([]map[string]any, shape) {
	switch t := v.(type) {
	case []any:
		return objects(t), shapeList
	case map[string]any:
		if inner, ok := t["product"]; ok {
			switch it := inner.(type) {
			case []any:
				return objects(it), shapeWrappedList
			case map[string]any:
				return []map[string]any{it}, shapeWrappedSingle
			}
			return nil, shapeNone
		}
		if firstString(t, idFields...) != "" {
			return []map[string]any{t}, shapeSingle
		}
	}
	return nil, shapeNone
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if obj, ok := e.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func mapProduct(item map[string]any) (domain.Product, bool) {
	id := firstString(item, idFields...)
	if id == "" {
		return domain.Product{}, false
	}

	p := domain.Product{
		ProductID:       id,
		Title:           firstString(item, titleFields...),
		MainImageURL:    firstString(item, imageFields...),
		VideoURL:        firstString(item, videoFields...),
		SalesVolume:     firstVolume(item),
		Rating:          rating(item),
		CategoryID:      firstString(item, categoryFields...),
		PromotionLink:   firstString(item, promotionFields...),
		DetailURL:       firstString(item, detailFields...),
		ShopURL:         firstString(item, "shop_url"),
		ShopTitle:       firstString(item, shopTitleFields...),
		DiscountPercent: firstDecimal(item, discountFields...),
		CommissionRate:  firstDecimal(item, commissionFields...),
		ExtraImageURLs:  imageList(item["product_small_image_urls"]),
	}
	p.SalePrice, p.SalePriceCurrency = firstPrice(item, salePriceFields...)
	p.OriginalPrice, p.OriginalPriceCurrency = firstPrice(item, originalPriceFields...)
	return p, true
}
