// Package demo decides when synthetic products replace live catalog data and
// generates them.
package demo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// Response markers for synthetic data.
const (
	Method = "demo_search"
	Source = domain.SourceDemo
)

// Reason says why demo data was served.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonRequested          Reason = "requested"
	ReasonMissingCredentials Reason = "credentials_missing"
	ReasonEmptyResult        Reason = "empty_result"
	ReasonTransportError     Reason = "transport_error"
)

// Config is read once at startup.
type Config struct {
	CredentialsConfigured bool
	OnMissingCredentials  bool
	OnEmpty               bool
	OnError               bool
}

// Policy applies Config to individual requests.
type Policy struct {
	cfg Config
}

// NewPolicy returns a policy for cfg.
func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// ShouldUseDemo reports whether req skips the provider entirely.
func (p *Policy) ShouldUseDemo(req domain.SearchRequest) (bool, Reason) {
	if req.DemoMode {
		return true, ReasonRequested
	}
	if !p.cfg.CredentialsConfigured && p.cfg.OnMissingCredentials {
		return true, ReasonMissingCredentials
	}
	return false, ReasonNone
}

// FallbackOnEmpty reports whether an empty live result is replaced.
func (p *Policy) FallbackOnEmpty() bool { return p.cfg.OnEmpty }

// FallbackOnError reports whether a failed live call is replaced.
func (p *Policy) FallbackOnError() bool { return p.cfg.OnError }

type template struct {
	title    string
	noun     string
	video    string
	sale     string
	original string
	volume   int64
	rating   string
	category string
	discount string
	comm     string
}

const videoBase = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/"

var templates = []template{
	{"Demo Product for '%s' - High Quality", "search", videoBase + "BigBuckBunny.mp4", "25.99", "49.99", 1250, "4.8", "100001", "48", "8.5"},
	{"Smart %s - Premium Quality", "Device", videoBase + "ElephantsDream.mp4", "89.99", "159.99", 890, "4.6", "100002", "44", "12"},
	{"Portable %s - Fast Performance", "Gadget", "", "19.99", "35.99", 2100, "4.7", "100003", "44", "6.5"},
	{"Wireless %s - Best Seller", "Speaker", videoBase + "ForBiggerBlazes.mp4", "34.50", "59.00", 1780, "4.5", "100001", "42", "9"},
	{"Professional %s - Top Rated", "Tool", "", "129.00", "199.00", 460, "4.9", "100006", "35", "10"},
}

const baseID int64 = 1005001234567890

// Products synthesizes at most min(page_size, 5) products for req. Output
// depends only on keyword, page and page size.
func (p *Policy) Products(req domain.SearchRequest) []domain.Product {
	size := req.PageSize
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	count := min(size, len(templates))
	keyword := strings.TrimSpace(req.Keywords)

	out := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		offset := (page-1)*size + i
		tpl := templates[offset%len(templates)]
		out = append(out, tpl.product(keyword, offset))
	}
	return out
}

func (t template) product(keyword string, offset int) domain.Product {
	noun := keyword
	if noun == "" {
		noun = t.noun
	}
	id := strconv.FormatInt(baseID+int64(offset), 10)
	volume := t.volume

	return domain.Product{
		ProductID:             id,
		Title:                 fmt.Sprintf(t.title, noun),
		MainImageURL:          fmt.Sprintf("https://ae01.alicdn.com/kf/H%d.jpg", 123456789+offset),
		VideoURL:              t.video,
		SalePrice:             dec(t.sale),
		SalePriceCurrency:     domain.DefaultCurrency,
		OriginalPrice:         dec(t.original),
		OriginalPriceCurrency: domain.DefaultCurrency,
		SalesVolume:           &volume,
		Rating:                dec(t.rating),
		CategoryID:            t.category,
		PromotionLink:         fmt.Sprintf("https://s.click.aliexpress.com/demo%d", offset+1),
		DetailURL:             fmt.Sprintf("https://www.aliexpress.com/item/%s.html", id),
		ShopTitle:             "Alibee Demo Store",
		DiscountPercent:       dec(t.discount),
		CommissionRate:        dec(t.comm),
		ExtraImageURLs:        []string{},
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
