package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultCurrency is assumed when the provider omits a currency.
const DefaultCurrency = "USD"

// Product is one catalog item in canonical form.
type Product struct {
	ProductID             string           `json:"product_id"`
	Title                 string           `json:"title"`
	MainImageURL          string           `json:"main_image_url,omitempty"`
	VideoURL              string           `json:"video_url,omitempty"`
	SalePrice             *decimal.Decimal `json:"sale_price,omitempty"`
	SalePriceCurrency     string           `json:"sale_price_currency,omitempty"`
	OriginalPrice         *decimal.Decimal `json:"original_price,omitempty"`
	OriginalPriceCurrency string           `json:"original_price_currency,omitempty"`
	SalesVolume           *int64           `json:"sales_volume,omitempty"`
	Rating                *decimal.Decimal `json:"rating,omitempty"`
	CategoryID            string           `json:"category_id,omitempty"`
	PromotionLink         string           `json:"promotion_link,omitempty"`
	DetailURL             string           `json:"detail_url,omitempty"`
	ShopURL               string           `json:"shop_url,omitempty"`
	ShopTitle             string           `json:"shop_title,omitempty"`
	DiscountPercent       *decimal.Decimal `json:"discount_percent,omitempty"`
	CommissionRate        *decimal.Decimal `json:"commission_rate,omitempty"`
	ExtraImageURLs        []string         `json:"extra_image_urls"`
	SavedAt               *time.Time       `json:"saved_at"`
}

// HasVideo reports whether the product carries a non-empty video URL.
func (p *Product) HasVideo() bool {
	return p.VideoURL != ""
}

// EffectivePrice is the sale price, else the original price, else nil.
func (p *Product) EffectivePrice() *decimal.Decimal {
	if p.SalePrice != nil {
		return p.SalePrice
	}
	return p.OriginalPrice
}

var hundred = decimal.NewFromInt(100)

// ComputedDiscount is (original-sale)/original*100. Missing or non-positive
// prices yield zero.
func (p *Product) ComputedDiscount() decimal.Decimal {
	if p.SalePrice == nil || p.OriginalPrice == nil {
		return decimal.Zero
	}
	if !p.OriginalPrice.IsPositive() || !p.SalePrice.IsPositive() {
		return decimal.Zero
	}
	return p.OriginalPrice.Sub(*p.SalePrice).Div(*p.OriginalPrice).Mul(hundred)
}
