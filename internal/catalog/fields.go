package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// Provider field names in precedence order.
var (
	idFields            = []string{"product_id", "item_id", "sku_id", "id"}
	titleFields         = []string{"product_title", "title", "subject"}
	imageFields         = []string{"product_main_image_url", "main_image_url", "image_url"}
	videoFields         = []string{"product_video_url", "video_url"}
	salePriceFields     = []string{"target_sale_price", "sale_price", "app_sale_price"}
	originalPriceFields = []string{"target_original_price", "original_price"}
	volumeFields        = []string{"lastest_volume", "volume", "sales"}
	percentRatingFields = []string{"evaluate_rate", "rating_percent", "positive_feedback_rate", "avg_evaluation_rate", "avg_rating_percent"}
	starRatingFields    = []string{"rating", "avg_rating"}
	categoryFields      = []string{"first_level_category_id", "category_id", "second_level_category_id"}
	promotionFields     = []string{"promotion_link", "target_url"}
	detailFields        = []string{"product_detail_url", "detail_url"}
	shopTitleFields     = []string{"shop_name", "shop_title"}
	discountFields      = []string{"discount", "discount_percent"}
	commissionFields    = []string{"hot_product_commission_rate", "commission_rate"}
)

var (
	five    = decimal.NewFromInt(5)
	hundred = decimal.NewFromInt(100)
)

// scalarString renders a JSON scalar as a trimmed string. Objects, arrays
// and null give "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func firstString(item map[string]any, fields ...string) string {
	for _, f := range fields {
		if s := scalarString(item[f]); s != "" {
			return s
		}
	}
	return ""
}

// parseLooseDecimal reads the first number in values such as
// "US $1,234.50", "1.234,50 €", "48%", "4.7/5" or 12.5. Reading stops at the
// first character after the digits that is not a digit or separator.
func parseLooseDecimal(v any) (decimal.Decimal, bool) {
	s := scalarString(v)
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return decimal.Decimal{}, false
	}
	end := start
	for end < len(s) && (isDigit(rune(s[end])) || s[end] == '.' || s[end] == ',') {
		end++
	}

	num := normalizeSeparators(strings.TrimRight(s[start:end], ".,"))
	if start > 0 && s[start-1] == '-' {
		num = "-" + num
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// normalizeSeparators rewrites a run of digits and separators to a plain
// decimal. With both '.' and ',' present the last one is the decimal point.
// A lone ',' is decimal only when one or two digits follow it; repeated
// separators of one kind group thousands.
func normalizeSeparators(num string) string {
	dot := strings.LastIndexByte(num, '.')
	comma := strings.LastIndexByte(num, ',')

	point := -1
	switch {
	case dot >= 0 && comma >= 0:
		point = max(dot, comma)
	case comma >= 0:
		if strings.Count(num, ",") == 1 && len(num)-comma-1 <= 2 {
			point = comma
		}
	case dot >= 0:
		if strings.Count(num, ".") == 1 {
			point = dot
		}
	}

	var b strings.Builder
	for i := 0; i < len(num); i++ {
		switch {
		case num[i] >= '0' && num[i] <= '9':
			b.WriteByte(num[i])
		case i == point:
			b.WriteByte('.')
		}
	}
	return b.String()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func firstDecimal(item map[string]any, fields ...string) *decimal.Decimal {
	for _, f := range fields {
		if d, ok := parseLooseDecimal(item[f]); ok {
			return &d
		}
	}
	return nil
}

// firstPrice returns the first parseable price and its currency. A value may
// be a scalar or a {value|amount, currency|currency_code} object; a scalar's
// currency comes from "<field>_currency".
func firstPrice(item map[string]any, fields ...string) (*decimal.Decimal, string) {
	for _, f := range fields {
		raw, ok := item[f]
		if !ok {
			continue
		}

		var value any = raw
		currency := ""
		if obj, isObj := raw.(map[string]any); isObj {
			value = obj["value"]
			if value == nil {
				value = obj["amount"]
			}
			currency = firstString(obj, "currency", "currency_code")
		}

		d, ok := parseLooseDecimal(value)
		if !ok {
			continue
		}
		if currency == "" {
			currency = firstString(item, f+"_currency")
		}
		if currency == "" {
			currency = domain.DefaultCurrency
		}
		return &d, strings.ToUpper(currency)
	}
	return nil, ""
}

func firstVolume(item map[string]any) *int64 {
	for _, f := range volumeFields {
		d, ok := parseLooseDecimal(item[f])
		if !ok || d.IsNegative() {
			continue
		}
		n := d.IntPart()
		return &n
	}
	return nil
}

// percentToStars converts a percentage to a 0-5 rating with one decimal.
// Zero or negative means unknown.
func percentToStars(pct decimal.Decimal) (decimal.Decimal, bool) {
	if !pct.IsPositive() {
		return decimal.Decimal{}, false
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct.Div(hundred).Mul(five).Round(1), true
}

func rating(item map[string]any) *decimal.Decimal {
	for _, f := range percentRatingFields {
		pct, ok := parseLooseDecimal(item[f])
		if !ok {
			continue
		}
		if stars, ok := percentToStars(pct); ok {
			return &stars
		}
	}

	for _, f := range starRatingFields {
		v, ok := parseLooseDecimal(item[f])
		if !ok || !v.IsPositive() {
			continue
		}
		if strings.HasSuffix(scalarString(item[f]), "%") || v.GreaterThan(five) {
			if stars, ok := percentToStars(v); ok {
				return &stars
			}
			continue
		}
		r := v.Round(1)
		return &r
	}
	return nil
}

// imageList accepts a list, a {"string": [...]} wrapper or a comma-separated
// string. It never returns nil.
func imageList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if s := scalarString(e); s != "" {
				out = append(out, s)
			}
		}
	case map[string]any:
		if inner, ok := t["string"]; ok {
			return imageList(inner)
		}
		for _, inner := range t {
			if _, ok := inner.([]any); ok {
				return imageList(inner)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
