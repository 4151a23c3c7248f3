package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/httputil"
)

const saveBody = `{"product_id":"1005001","title":"Steel Watch","sale_price":"19.99","sale_price_currency":"USD","custom_title":"Gift"}`

func TestSave_InsertThenUpdate(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodPost, "/api/v1/saved", saveBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[envelope[domain.SavedProduct]](t, rec)
	assert.Equal(t, "1005001", body.Data.ProductID)
	assert.Equal(t, "Gift", body.Data.CustomTitle)
	assert.Equal(t, "19.99", body.Data.SalePrice.String())

	rec = f.do(t, http.MethodPost, "/api/v1/saved", `{"product_id":"1005001","title":"Steel Watch v2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[envelope[domain.SavedProduct]](t, rec)
	assert.Equal(t, "Steel Watch v2", body.Data.Title)
	assert.Equal(t, "Gift", body.Data.CustomTitle)
}

func TestSave_MissingProductID(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodPost, "/api/v1/saved", `{"title":"no id"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[envelope[any]](t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestSave_MalformedBody(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodPost, "/api/v1/saved", `{"product_id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSave_RejectsNonJSONContentType(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	req := newRequest(http.MethodPost, "/api/v1/saved", saveBody)
	req.Header.Set("Content-Type", "text/plain")
	rec := serve(f, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, f.saved.rows)
}

func TestSave_StoreDown(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.saved.err = errors.New("connection refused")

	rec := f.do(t, http.MethodPost, "/api/v1/saved", saveBody)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[envelope[any]](t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "PERSISTENCE_ERROR", body.Error.Code)
}

func TestUnsave_Delete(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.saved.rows["42"] = domain.SavedProduct{ProductID: "42", Title: "x"}

	rec := f.do(t, http.MethodDelete, "/api/v1/saved/42", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[envelope[unsaveResponse]](t, rec)
	assert.True(t, body.Data.Removed)
	assert.Equal(t, "42", body.Data.ProductID)
	assert.NotContains(t, f.saved.rows, "42")

	rec = f.do(t, http.MethodDelete, "/api/v1/saved/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnsave_Post(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.saved.rows["42"] = domain.SavedProduct{ProductID: "42", Title: "x"}

	rec := f.do(t, http.MethodPost, "/api/v1/unsave", `{"product_id":"42"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.saved.rows)

	rec = f.do(t, http.MethodPost, "/api/v1/unsave", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[envelope[any]](t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Fields, "product_id")
}

const firstDemoID = "1005001234567890"

func demoSavedAt(t *testing.T, f *fixture) map[string]bool {
	t.Helper()
	rec := f.do(t, http.MethodGet, "/api/v1/search?q=watch&demo=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := make(map[string]bool)
	for _, p := range decode[searchResponse](t, rec).Items {
		out[p.ProductID] = p.SavedAt != nil
	}
	return out
}

func TestSaveThenUnsave_SearchReflectsState(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodPost, "/api/v1/saved", `{"product_id":"`+firstDemoID+`","title":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, demoSavedAt(t, f)[firstDemoID])

	rec = f.do(t, http.MethodDelete, "/api/v1/saved/"+firstDemoID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	saved := demoSavedAt(t, f)
	require.Contains(t, saved, firstDemoID)
	assert.False(t, saved[firstDemoID])
}

func TestUpdateTitle(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.saved.rows["7"] = domain.SavedProduct{ProductID: "7", Title: "Original"}

	rec := f.do(t, http.MethodPatch, "/api/v1/saved/7", `{"custom_title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[envelope[domain.SavedProduct]](t, rec)
	assert.Equal(t, "Renamed", body.Data.CustomTitle)

	rec = f.do(t, http.MethodPatch, "/api/v1/saved/8", `{"custom_title":"Renamed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSaved(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.saved.rows["7"] = domain.SavedProduct{ProductID: "7", Title: "Original"}

	rec := f.do(t, http.MethodGet, "/api/v1/saved/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "Original", decode[envelope[domain.SavedProduct]](t, rec).Data.Title)

	rec = f.do(t, http.MethodGet, "/api/v1/saved/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSaved(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.saved.rows["1"] = domain.SavedProduct{ProductID: "1", Title: "Steel Watch"}
	f.saved.rows["2"] = domain.SavedProduct{ProductID: "2", Title: "Desk Lamp"}

	rec := f.do(t, http.MethodGet, "/api/v1/saved?q=watch&per_page=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[httputil.PaginatedResponse[domain.SavedProduct]](t, rec)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "1", body.Data[0].ProductID)
	assert.Equal(t, 1, body.TotalCount)
	assert.Equal(t, 10, body.PerPage)
	assert.False(t, body.HasNext)
}

func TestListSaved_InvalidParameters(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	for _, q := range []string{"sort=newest", "per_page=0", "page=x"} {
		rec := f.do(t, http.MethodGet, "/api/v1/saved?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}
