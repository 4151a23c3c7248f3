package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	itemA = `{"product_id":1005001,"product_title":"Smart Watch","sale_price":"19.99","sale_price_currency":"usd",
		"original_price":"39.98","lastest_volume":120,"evaluate_rate":"94%","product_video_url":"https://v/1.mp4",
		"product_small_image_urls":{"string":["https://i/1.jpg","https://i/2.jpg"]},"discount":"50%",
		"shop_name":"Shop A","first_level_category_id":"100001","promotion_link":"https://s.click/a",
		"hot_product_commission_rate":"7.5%"}`
	itemB  = `{"item_id":"B-2","title":"Band","app_sale_price":5,"lastest_volume":"1,234","product_small_image_urls":"https://i/3.jpg, https://i/4.jpg"}`
	noID   = `{"product_title":"nobody"}`
	twoRaw = "[" + itemA + "," + itemB + "," + noID + "]"
)

func mustRaw(t *testing.T, body string) RawResponse {
	t.Helper()
	raw, err := DecodeRaw([]byte(body))
	require.NoError(t, err, body)
	return raw
}

// --- shape detection ---

func TestNormalize_ListShapesAreEquivalent(t *testing.T) {
	bodies := map[string]string{
		"wrapped list": fmt.Sprintf(`{"aliexpress_affiliate_product_query_response":{"resp_result":{"result":{"products":{"product":%s}}}}}`, twoRaw),
		"bare list":    fmt.Sprintf(`{"aliexpress_affiliate_product_query_response":{"resp_result":{"result":{"products":%s}}}}`, twoRaw),
		"bare result":  fmt.Sprintf(`{"result":{"products":%s}}`, twoRaw),
		"alternate":    fmt.Sprintf(`{"aliexpress_affiliate_hotproduct_query_response":{"resp_result":{"result":{"products":[],"product_list":%s}}}}`, twoRaw),
		"hot key":      fmt.Sprintf(`{"x_response":{"result":{"ae_hot_products":{"product":%s}}}}`, twoRaw),
		"top items":    fmt.Sprintf(`{"items":%s}`, twoRaw),
	}

	for name, body := range bodies {
		got := Normalize(mustRaw(t, body))
		ids := make([]string, 0, len(got))
		for _, p := range got {
			ids = append(ids, p.ProductID)
		}
		assert.Equal(t, []string{"1005001", "B-2"}, ids, name)
	}
}

func TestNormalize_SingletonShapesAreEquivalent(t *testing.T) {
	wrapped := Normalize(mustRaw(t, `{"a_response":{"resp_result":{"result":{"products":{"product":`+itemA+`}}}}}`))
	single := Normalize(mustRaw(t, `{"a_response":{"resp_result":{"result":{"products":`+itemA+`}}}}`))
	list := Normalize(mustRaw(t, `{"a_response":{"resp_result":{"result":{"products":[`+itemA+`]}}}}`))

	require.Len(t, wrapped, 1)
	assert.Equal(t, wrapped, single)
	assert.Equal(t, wrapped, list)
}

func TestDetect_ReportsShape(t *testing.T) {
	tests := []struct {
		body string
		want shape
	}{
		{`{"result":{"products":[` + itemA + `]}}`, shapeList},
		{`{"result":{"products":{"product":[` + itemA + `]}}}`, shapeWrappedList},
		{`{"result":{"products":{"product":` + itemA + `}}}`, shapeWrappedSingle},
		{`{"result":{"products":` + itemA + `}}`, shapeSingle},
		{`{"product_list":[` + itemA + `]}`, shapeAlternate},
		{`{"result":{"products":[]}}`, shapeNone},
	}
	for _, tt := range tests {
		_, got := detect(mustRaw(t, tt.body))
		assert.Equal(t, tt.want, got, tt.body)
		assert.NotEmpty(t, got.String())
	}
}

func TestNormalize_EnvelopeSkipsNonObjects(t *testing.T) {
	body := `{"a_response":"oops","b_response":{"result":{"products":[` + itemB + `]}}}`
	got := Normalize(mustRaw(t, body))
	require.Len(t, got, 1)
	assert.Equal(t, "B-2", got[0].ProductID)
}

func TestNormalize_GarbageYieldsEmpty(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"foo":1}`,
		`{"x_response":"str"}`,
		`{"x_response":{"resp_result":{"result":null}}}`,
		`{"result":{"products":"str"}}`,
		`{"result":{"products":{"product":5}}}`,
		`{"result":{"products":[1,"a",null,[]]}}`,
		`{"result":{"products":{"total":3}}}`,
		`{"items":{"nested":{"deep":true}}}`,
	}
	for _, body := range bodies {
		got := Normalize(mustRaw(t, body))
		assert.NotNil(t, got, body)
		assert.Empty(t, got, body)
	}

	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Normalize(RawResponse{}))
}

func TestDecodeRaw_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{`[]`, `"x"`, `<html>`, ``, `42`} {
		_, err := DecodeRaw([]byte(body))
		assert.Error(t, err, body)
	}
}

// --- field mapping ---

func TestNormalize_FieldMapping(t *testing.T) {
	got := Normalize(mustRaw(t, `{"result":{"products":[`+itemA+`,`+itemB+`]}}`))
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "1005001", a.ProductID)
	assert.Equal(t, "Smart Watch", a.Title)
	assert.Equal(t, "19.99", a.SalePrice.String())
	assert.Equal(t, "USD", a.SalePriceCurrency)
	assert.Equal(t, "39.98", a.OriginalPrice.String())
	assert.Equal(t, int64(120), *a.SalesVolume)
	assert.Equal(t, "4.7", a.Rating.String())
	assert.Equal(t, "https://v/1.mp4", a.VideoURL)
	assert.Equal(t, []string{"https://i/1.jpg", "https://i/2.jpg"}, a.ExtraImageURLs)
	assert.Equal(t, "50", a.DiscountPercent.String())
	assert.Equal(t, "7.5", a.CommissionRate.String())
	assert.Equal(t, "Shop A", a.ShopTitle)
	assert.Equal(t, "100001", a.CategoryID)
	assert.Equal(t, "https://s.click/a", a.PromotionLink)
	assert.Nil(t, a.SavedAt)

	b := got[1]
	assert.Equal(t, "B-2", b.ProductID)
	assert.Equal(t, "Band", b.Title)
	assert.Equal(t, "5", b.SalePrice.String())
	assert.Nil(t, b.OriginalPrice)
	assert.Equal(t, int64(1234), *b.SalesVolume)
	assert.Nil(t, b.Rating)
	assert.Equal(t, []string{"https://i/3.jpg", "https://i/4.jpg"}, b.ExtraImageURLs)
}

func TestNormalize_IdentityPrecedence(t *testing.T) {
	got := Normalize(mustRaw(t, `{"items":[{"id":"4","sku_id":"3","subject":"S","title":"T"}]}`))
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ProductID)
	assert.Equal(t, "T", got[0].Title)
}

func TestNormalize_PriceShapes(t *testing.T) {
	body := `{"items":[
		{"product_id":"1","target_sale_price":{"value":"12.50","currency":"eur"},"sale_price":"99"},
		{"product_id":"2","sale_price":"US $1,299.00","original_price":{"amount":2000,"currency_code":"USD"}},
		{"product_id":"3","sale_price":"n/a","app_sale_price":"4.20","app_sale_price_currency":"GBP"}
	]}`
	got := Normalize(mustRaw(t, body))
	require.Len(t, got, 3)

	assert.Equal(t, "12.5", got[0].SalePrice.String())
	assert.Equal(t, "EUR", got[0].SalePriceCurrency)

	assert.Equal(t, "1299", got[1].SalePrice.String())
	assert.Equal(t, "USD", got[1].SalePriceCurrency)
	assert.Equal(t, "2000", got[1].OriginalPrice.String())

	assert.Equal(t, "4.2", got[2].SalePrice.String())
	assert.Equal(t, "GBP", got[2].SalePriceCurrency)
}

func TestNormalize_Rating(t *testing.T) {
	tests := []struct {
		item string
		want string
	}{
		{`{"product_id":"1","evaluate_rate":"94%"}`, "4.7"},
		{`{"product_id":"1","evaluate_rate":"94.0%"}`, "4.7"},
		{`{"product_id":"1","evaluate_rate":"100%"}`, "5"},
		{`{"product_id":"1","evaluate_rate":"0.0%"}`, ""},
		{`{"product_id":"1","evaluate_rate":""}`, ""},
		{`{"product_id":"1"}`, ""},
		{`{"product_id":"1","evaluate_rate":"0%","positive_feedback_rate":"90%"}`, "4.5"},
		{`{"product_id":"1","rating":4.55}`, "4.6"},
		{`{"product_id":"1","avg_rating":"88%"}`, "4.4"},
		{`{"product_id":"1","rating":0}`, ""},
	}
	for _, tt := range tests {
		got := Normalize(mustRaw(t, `{"items":[`+tt.item+`]}`))
		require.Len(t, got, 1)
		if tt.want == "" {
			assert.Nil(t, got[0].Rating, tt.item)
			continue
		}
		require.NotNil(t, got[0].Rating, tt.item)
		assert.Equal(t, tt.want, got[0].Rating.String(), tt.item)
	}
}

func TestImageList(t *testing.T) {
	assert.Equal(t, []string{}, imageList(nil))
	assert.Equal(t, []string{"a"}, imageList([]any{"a", "", nil}))
	assert.Equal(t, []string{"x", "y"}, imageList(map[string]any{"urls": []any{"x", "y"}}))
}

func TestParseLooseDecimal(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"4.7/5", "4.7"},
		{"1.234,50", "1234.5"},
		{"1.234,50 €", "1234.5"},
		{"$1,299.00", "1299"},
		{"US $1,234.50", "1234.5"},
		{"12,5", "12.5"},
		{"1,234", "1234"},
		{"1.234.567", "1234567"},
		{"48%", "48"},
		{"-3.25", "-3.25"},
		{"2.", "2"},
		{12.5, "12.5"},
		{"n/a", ""},
		{"", ""},
		{nil, ""},
	}
	for _, tt := range tests {
		got, ok := parseLooseDecimal(tt.in)
		if tt.want == "" {
			assert.False(t, ok, "%v", tt.in)
			continue
		}
		require.True(t, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got.String(), "%v", tt.in)
	}
}
