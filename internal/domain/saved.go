package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavedProduct is a persisted bookmark with display fields mirrored from the
// last seen Product.
type SavedProduct struct {
	ProductID     string           `json:"product_id"`
	Title         string           `json:"title"`
	CustomTitle   string           `json:"custom_title,omitempty"`
	MainImageURL  string           `json:"main_image_url,omitempty"`
	VideoURL      string           `json:"video_url,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Currency      string           `json:"currency"`
	Rating        *decimal.Decimal `json:"rating,omitempty"`
	SalesVolume   *int64           `json:"sales_volume,omitempty"`
	PromotionLink string           `json:"promotion_link,omitempty"`
	DetailURL     string           `json:"detail_url,omitempty"`
	ShopTitle     string           `json:"shop_title,omitempty"`
	ShopURL       string           `json:"shop_url,omitempty"`
	// RefreshSavedAt moves saved_at to now on an update. Not persisted.
	RefreshSavedAt bool      `json:"-"`
	SavedAt        time.Time `json:"saved_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DisplayTitle prefers the custom title.
func (s *SavedProduct) DisplayTitle() string {
	if s.CustomTitle != "" {
		return s.CustomTitle
	}
	return s.Title
}

// SavedFromProduct mirrors the display fields of p.
func SavedFromProduct(p *Product) *SavedProduct {
	currency := p.SalePriceCurrency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &SavedProduct{
		ProductID:     p.ProductID,
		Title:         p.Title,
		MainImageURL:  p.MainImageURL,
		VideoURL:      p.VideoURL,
		SalePrice:     p.SalePrice,
		OriginalPrice: p.OriginalPrice,
		Currency:      currency,
		Rating:        p.Rating,
		SalesVolume:   p.SalesVolume,
		PromotionLink: p.PromotionLink,
		DetailURL:     p.DetailURL,
		ShopTitle:     p.ShopTitle,
		ShopURL:       p.ShopURL,
	}
}

// SavedState is what search needs to annotate a product.
type SavedState struct {
	SavedAt     time.Time
	CustomTitle string
}

// Saved list sort keys.
const (
	SavedSortSavedAtDesc = "saved_at_desc"
	SavedSortSavedAtAsc  = "saved_at_asc"
	SavedSortTitleAsc    = "title_asc"
	SavedSortTitleDesc   = "title_desc"
)

// IsValidSavedSort reports whether s is an accepted saved-list sort.
func IsValidSavedSort(s string) bool {
	switch s {
	case SavedSortSavedAtDesc, SavedSortSavedAtAsc, SavedSortTitleAsc, SavedSortTitleDesc:
		return true
	}
	return false
}
