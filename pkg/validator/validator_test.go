package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkBody struct {
	URLs []string `json:"urls" validate:"required,min=1,max=2,dive,required,http_url"`
}

type titleBody struct {
	CustomTitle string `json:"custom_title" validate:"required,max=10"`
	Rank        int    `json:"rank" validate:"gte=0,lte=5"`
	Sort        string `json:"sort" validate:"omitempty,oneof=saved_at_desc title_asc"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(titleBody{CustomTitle: "Watch", Rank: 3}))
	assert.NoError(t, Validate(linkBody{URLs: []string{"https://www.aliexpress.com/item/1.html"}}))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(titleBody{Rank: 3})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["custom_title"])
}

func TestValidate_Messages(t *testing.T) {
	err := Validate(titleBody{CustomTitle: strings.Repeat("x", 11), Rank: 9, Sort: "bogus"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be at most 10 characters", fields["custom_title"])
	assert.Equal(t, "must be less than or equal to 5", fields["rank"])
	assert.Equal(t, "must be one of: saved_at_desc title_asc", fields["sort"])
	assert.Contains(t, err.Error(), "field 'rank'")
}

func TestValidate_ListBounds(t *testing.T) {
	err := Validate(linkBody{URLs: []string{}})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must contain at least 1 items", valErr.Fields()["urls"])

	err = Validate(linkBody{URLs: []string{"https://a.example", "https://b.example", "https://c.example"}})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must contain at most 2 items", valErr.Fields()["urls"])
}

func TestValidate_DiveURL(t *testing.T) {
	err := Validate(linkBody{URLs: []string{"not a url"}})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid URL", valErr.Fields()["urls[0]"])
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"custom_title":"Nice"}`))
	var body titleBody
	require.NoError(t, DecodeAndValidate(req, &body))
	assert.Equal(t, "Nice", body.CustomTitle)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	var body titleBody
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
