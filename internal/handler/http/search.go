package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/httputil"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/pagination"
)

// SearchHandler serves product search.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{service: svc, logger: logger}
}

// searchResponse is the search body. demo_mode is present whenever the items
// are synthetic.
type searchResponse struct {
	Items          []domain.Product `json:"items"`
	Page           int              `json:"page"`
	PageSize       int              `json:"pageSize"`
	HasMore        bool             `json:"hasMore"`
	Method         string           `json:"method"`
	Source         string           `json:"source"`
	DemoMode       bool             `json:"demo_mode,omitempty"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, msg := parseSearchRequest(r)
	if msg != "" {
		httputil.WriteInvalidParameter(w, msg)
		return
	}

	res, err := h.service.Search(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	body := searchResponse{
		Items:    res.Items,
		Page:     res.Page,
		PageSize: res.PageSize,
		HasMore:  res.HasMore,
		Method:   res.Method,
		Source:   res.Source,
		DemoMode: res.DemoMode,
	}
	if res.Outcome.Kind == service.OutcomeFallback {
		body.FallbackReason = res.Outcome.Reason
	}
	if body.Items == nil {
		body.Items = []domain.Product{}
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

// parseSearchRequest validates the query string. A non-empty message means
// the request is rejected with 400.
func parseSearchRequest(r *http.Request) (domain.SearchRequest, string) {
	q := r.URL.Query()

	pg, err := pagination.Search.Parse(q)
	if err != nil {
		return domain.SearchRequest{}, err.Error()
	}

	req := domain.SearchRequest{
		Keywords:       strings.TrimSpace(q.Get("q")),
		CategoryID:     strings.TrimSpace(q.Get("categoryId")),
		Page:           pg.Page,
		PageSize:       pg.PerPage,
		Sort:           domain.DefaultSort,
		TargetCurrency: strings.ToUpper(strings.TrimSpace(q.Get("target_currency"))),
		TargetLanguage: strings.ToUpper(strings.TrimSpace(q.Get("target_language"))),
	}

	if v := q.Get("sort"); v != "" {
		if !domain.IsValidSort(v) {
			return req, "sort must be one of: " + strings.Join(domain.ValidSorts(), ", ")
		}
		req.Sort = v
	}

	if v := q.Get("hasVideo"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, "hasVideo must be true or false"
		}
		req.HasVideo = &b
	}

	for _, f := range []struct {
		key string
		dst **decimal.Decimal
	}{{"minPrice", &req.MinPrice}, {"maxPrice", &req.MaxPrice}} {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return req, f.key + " must be a non-negative number"
		}
		*f.dst = &d
	}
	if req.MinPrice != nil && req.MaxPrice != nil && req.MinPrice.GreaterThan(*req.MaxPrice) {
		return req, "minPrice must not exceed maxPrice"
	}

	if req.DemoMode, err = optionalBool(q.Get("demo")); err != nil {
		return req, "demo must be true or false"
	}
	if req.Hot, err = optionalBool(q.Get("hot")); err != nil {
		return req, "hot must be true or false"
	}

	// sort is interpreted above; everything else on the whitelist goes to
	// the provider as is.
	for _, k := range catalog.DefaultPassthrough {
		if k == "sort" || !q.Has(k) {
			continue
		}
		if req.Passthrough == nil {
			req.Passthrough = make(map[string]string)
		}
		req.Passthrough[k] = q.Get(k)
	}

	return req, ""
}

func optionalBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
