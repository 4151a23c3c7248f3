package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// Remote operations.
const (
	OperationProductQuery = "aliexpress.affiliate.product.query"
	OperationHotProducts  = "aliexpress.affiliate.hotproduct.query"
	OperationLinkGenerate = "aliexpress.affiliate.link.generate"
)

// ProductFields is requested from the provider on product operations.
const ProductFields = "product_id,product_title,original_price,sale_price,sale_price_currency," +
	"target_original_price,target_sale_price,target_sale_price_currency,product_detail_url," +
	"product_main_image_url,product_small_image_urls,discount,commission_rate," +
	"hot_product_commission_rate,first_level_category_id,second_level_category_id,shop_id," +
	"shop_name,shop_url,product_video_url,sku_id,lastest_volume,app_sale_price," +
	"evaluate_rate,rating_percent,positive_feedback_rate,avg_evaluation_rate," +
	"avg_rating_percent,promotion_link"

// DefaultPassthrough lists inbound query keys forwarded to the provider verbatim.
var DefaultPassthrough = []string{
	"fields", "ship_to_country", "delivery_days", "sort", "platform_product_type",
	"promotion_name", "min_sale_price", "max_sale_price", "target_country", "country",
}

const md5Timestamp = "2006-01-02 15:04:05"

// Credentials are the provider settings needed to sign a request.
type Credentials struct {
	AppKey     string
	AppSecret  string
	TrackingID string
	Scheme     Scheme
}

// Configured reports whether both key and secret are set.
func (c Credentials) Configured() bool {
	return c.AppKey != "" && c.AppSecret != ""
}

// RequestBuilder assembles signed parameter sets.
type RequestBuilder struct {
	creds Credentials
	clock func() time.Time
}

// NewRequestBuilder returns a builder. A nil clock uses time.Now.
func NewRequestBuilder(creds Credentials, clock func() time.Time) *RequestBuilder {
	if clock == nil {
		clock = time.Now
	}
	if creds.Scheme == 0 {
		creds.Scheme = SchemeMD5Wrap
	}
	return &RequestBuilder{creds: creds, clock: clock}
}

// Credentials returns the builder's credentials.
func (b *RequestBuilder) Credentials() Credentials {
	return b.creds
}

// Build merges system params, business params and whitelisted passthrough
// keys (later wins), signs the result and appends sign. A nil passthrough
// uses DefaultPassthrough.
func (b *RequestBuilder) Build(operation string, business map[string]any, passthrough []string, incoming url.Values) (url.Values, error) {
	if b.creds.AppKey == "" {
		return nil, &domain.ConfigurationError{Field: "ALI_APP_KEY"}
	}

	merged := map[string]string{
		"method":          operation,
		"app_key":         b.creds.AppKey,
		"sign_method":     b.creds.Scheme.String(),
		"timestamp":       b.timestamp(),
		"format":          "json",
		"v":               "2.0",
		"target_currency": "USD",
		"target_language": "EN",
	}
	if b.creds.TrackingID != "" {
		merged["tracking_id"] = b.creds.TrackingID
	}

	for k, v := range business {
		if s, ok := formatValue(v); ok {
			merged[k] = s
		}
	}

	if passthrough == nil {
		passthrough = DefaultPassthrough
	}
	for _, k := range passthrough {
		if incoming.Has(k) {
			merged[k] = incoming.Get(k)
		}
	}

	sign, err := Sign(merged, b.creds.AppSecret, b.creds.Scheme)
	if err != nil {
		return nil, err
	}

	out := make(url.Values, len(merged)+1)
	for k, v := range merged {
		out.Set(k, v)
	}
	out.Set("sign", sign)
	return out, nil
}

func (b *RequestBuilder) timestamp() string {
	now := b.clock().UTC()
	if b.creds.Scheme == SchemeHMACSHA256 {
		return strconv.FormatInt(now.UnixMilli(), 10)
	}
	return now.Format(md5Timestamp)
}

// formatValue renders v as a provider parameter. ok is false for nil and
// empty values.
func formatValue(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case *string:
		if t == nil {
			return "", false
		}
		s = *t
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	case *bool:
		if t == nil {
			return "", false
		}
		s = strconv.FormatBool(*t)
	case decimal.Decimal:
		s = t.String()
	case *decimal.Decimal:
		if t == nil {
			return "", false
		}
		s = t.String()
	case []string:
		s = strings.Join(t, ",")
	default:
		s = fmt.Sprint(t)
	}
	return s, s != ""
}

var providerSort = map[string]string{
	domain.SortVolumeDesc: "LAST_VOLUME_DESC",
	domain.SortVolumeAsc:  "LAST_VOLUME_ASC",
	domain.SortPriceAsc:   "SALE_PRICE_ASC",
	domain.SortPriceDesc:  "SALE_PRICE_DESC",
}

// SearchOperation picks the remote operation for req.
func SearchOperation(req domain.SearchRequest) string {
	if req.Hot {
		return OperationHotProducts
	}
	return OperationProductQuery
}

// SearchParams maps req to business parameters. Sorts the provider cannot
// do are left to the caller.
func SearchParams(req domain.SearchRequest) map[string]any {
	p := map[string]any{
		"page_no":      req.Page,
		"page_size":    req.PageSize,
		"keywords":     req.Keywords,
		"category_ids": req.CategoryID,
		"fields":       ProductFields,
		"sort":         providerSort[req.Sort],
	}
	if req.TargetCurrency != "" {
		p["target_currency"] = req.TargetCurrency
	}
	if req.TargetLanguage != "" {
		p["target_language"] = req.TargetLanguage
	}
	if !req.Hot {
		p["min_sale_price"] = req.MinPrice
		p["max_sale_price"] = req.MaxPrice
		if req.HasVideo != nil && *req.HasVideo {
			p["has_video"] = true
		}
	}
	return p
}

// LinkParams builds the link.generate business parameters.
func LinkParams(urls []string) map[string]any {
	return map[string]any{
		"source_values":       urls,
		"promotion_link_type": "1",
	}
}
