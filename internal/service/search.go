package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/assembler"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/demo"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/event"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	apperrors "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/errors"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/logger"
)

// OutcomeKind classifies how a search was answered.
type OutcomeKind int

const (
	OutcomeLive OutcomeKind = iota
	OutcomeFallback
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeLive:
		return "live"
	case OutcomeFallback:
		return "fallback"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Fallback reasons beyond the demo.Reason values.
const (
	ReasonCache          = "cache"
	ReasonHotProducts    = "hot_products"
	ReasonTransportError = "transport_error"
)

// Outcome is the explicit result of the live/fallback decision. Err is set
// only for OutcomeError.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

var searchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "search_outcomes_total",
	Help: "Searches by outcome kind and fallback reason",
}, []string{"kind", "reason"})

// Catalog is the provider call used by the services.
type Catalog interface {
	Call(ctx context.Context, params url.Values) (catalog.RawResponse, error)
}

// SearchResult is a page of products plus where it came from.
type SearchResult struct {
	domain.PagedResult
	Method   string
	Source   string
	DemoMode bool
	Outcome  Outcome
}

// SearchOptions tunes the fallbacks of SearchService.
type SearchOptions struct {
	// VideoExtraPages is how many further pages a hasVideo=true search may
	// try when the requested page has no video products.
	VideoExtraPages int
	// HotFallbackOnEmpty retries an empty keyword search against hot products.
	HotFallbackOnEmpty bool
	// Budget bounds the whole search: no further provider call (widening
	// page or hot fallback) starts once it has elapsed. Zero means unbounded.
	Budget time.Duration
}

// finishTimeout bounds the saved-state lookup, cache write and history
// publish that follow the provider call.
const finishTimeout = 5 * time.Second

// SearchService runs the product query pipeline.
type SearchService struct {
	builder   *catalog.RequestBuilder
	catalog   Catalog
	policy    *demo.Policy
	assembler *assembler.Assembler
	cache     repository.ResponseCache
	producer  *event.Producer
	opts      SearchOptions
	logger    *slog.Logger
}

// NewSearchService creates a search service. cache may be nil.
func NewSearchService(
	builder *catalog.RequestBuilder,
	cat Catalog,
	policy *demo.Policy,
	asm *assembler.Assembler,
	cache repository.ResponseCache,
	producer *event.Producer,
	opts SearchOptions,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		builder:   builder,
		catalog:   cat,
		policy:    policy,
		assembler: asm,
		cache:     cache,
		producer:  producer,
		opts:      opts,
		logger:    logger,
	}
}

// CatalogConfigured reports whether live calls are possible.
func (s *SearchService) CatalogConfigured() bool {
	return s.builder.Credentials().Configured()
}

// Search answers req. Only a configuration problem without a demo fallback
// is an error.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*SearchResult, error) {
	incoming := make(url.Values, len(req.Passthrough))
	for k, v := range req.Passthrough {
		incoming.Set(k, v)
	}
	products, res := s.resolve(ctx, req, incoming, time.Now())

	searchOutcomes.WithLabelValues(res.Outcome.Kind.String(), res.Outcome.Reason).Inc()

	if res.Outcome.Kind == OutcomeError {
		return nil, apperrors.ServiceUnavailable("CONFIGURATION_ERROR",
			"product catalog is not configured", res.Outcome.Err)
	}

	// The caller's context may have expired while the gateway call ran.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	res.PagedResult = s.assembler.Assemble(finishCtx, products, req)

	if res.Outcome.Kind == OutcomeFallback {
		s.logger.InfoContext(ctx, "search served from fallback",
			slog.String("reason", res.Outcome.Reason),
			slog.String("source", res.Source),
			slog.Int("items", len(res.Items)),
		)
	}

	if err := s.producer.PublishSearchPerformed(finishCtx, event.SearchPerformedData{
		Query:        req.Keywords,
		CategoryID:   req.CategoryID,
		ResultsCount: len(res.Items),
		Source:       res.Source,
		ClientIP:     logger.ClientIPFromContext(ctx),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish search.performed event",
			slog.String("error", err.Error()),
		)
	}

	return res, nil
}

func (s *SearchService) resolve(ctx context.Context, req domain.SearchRequest, incoming url.Values, start time.Time) ([]domain.Product, *SearchResult) {
	if use, reason := s.policy.ShouldUseDemo(req); use {
		return s.demo(req, reason)
	}

	if creds := s.builder.Credentials(); !creds.Configured() {
		field := "ALI_APP_KEY"
		if creds.AppKey != "" {
			field = "ALI_APP_SECRET"
		}
		return nil, &SearchResult{Outcome: Outcome{Kind: OutcomeError, Reason: "configuration", Err: &domain.ConfigurationError{Field: field}}}
	}

	operation := catalog.SearchOperation(req)
	products, err := s.fetch(ctx, req, incoming)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, &SearchResult{Outcome: Outcome{Kind: OutcomeError, Reason: "configuration", Err: err}}
		}
		return s.recover(ctx, req, operation, err)
	}

	if wantsVideo(req) && countVideo(products) == 0 {
		products = s.widenForVideo(ctx, req, incoming, products, start)
	}

	if len(products) > 0 {
		return products, &SearchResult{Method: operation, Source: domain.SourceLive, Outcome: Outcome{Kind: OutcomeLive}}
	}

	if s.opts.HotFallbackOnEmpty && !req.Hot && s.canCallAgain(ctx, start) {
		hot := req
		hot.Hot = true
		if items, err := s.fetch(ctx, hot, incoming); err == nil && len(items) > 0 {
			return items, &SearchResult{
				Method:  catalog.OperationHotProducts,
				Source:  domain.SourceHot,
				Outcome: Outcome{Kind: OutcomeFallback, Reason: ReasonHotProducts},
			}
		}
	}

	if s.policy.FallbackOnEmpty() {
		return s.demo(req, demo.ReasonEmptyResult)
	}
	return products, &SearchResult{Method: operation, Source: domain.SourceLive, Outcome: Outcome{Kind: OutcomeLive}}
}

// fetch makes one provider call for req and caches the raw reply.
func (s *SearchService) fetch(ctx context.Context, req domain.SearchRequest, incoming url.Values) ([]domain.Product, error) {
	params, err := s.builder.Build(catalog.SearchOperation(req), catalog.SearchParams(req), nil, incoming)
	if err != nil {
		return nil, err
	}

	raw, err := s.catalog.Call(ctx, params)
	if err != nil {
		return nil, err
	}

	products := catalog.Normalize(raw)
	if len(products) > 0 {
		s.store(ctx, req, raw)
	}
	return products, nil
}

// recover picks the fallback for a failed provider call: cached reply, then
// demo data, then an empty page.
func (s *SearchService) recover(ctx context.Context, req domain.SearchRequest, operation string, cause error) ([]domain.Product, *SearchResult) {
	s.logger.WarnContext(ctx, "catalog search failed",
		slog.String("operation", operation),
		slog.String("error", cause.Error()),
	)

	if products, ok := s.cached(ctx, req); ok {
		return products, &SearchResult{
			Method:  operation,
			Source:  domain.SourceCache,
			Outcome: Outcome{Kind: OutcomeFallback, Reason: ReasonCache},
		}
	}

	if s.policy.FallbackOnError() {
		return s.demo(req, demo.ReasonTransportError)
	}

	return []domain.Product{}, &SearchResult{
		Method:  operation,
		Source:  domain.SourceEmpty,
		Outcome: Outcome{Kind: OutcomeFallback, Reason: ReasonTransportError},
	}
}

// widenForVideo walks up to VideoExtraPages further pages collecting video
// products until a full page of them is gathered. The original page is kept
// if none turn up.
func (s *SearchService) widenForVideo(ctx context.Context, req domain.SearchRequest, incoming url.Values, current []domain.Product, start time.Time) []domain.Product {
	limit := req.PageSize
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}

	videos := make([]domain.Product, 0, limit)
	last := req.Page
	for i := 1; i <= s.opts.VideoExtraPages && len(videos) < limit; i++ {
		if !s.canCallAgain(ctx, start) {
			break
		}
		next := req
		next.Page = req.Page + i

		products, err := s.fetch(ctx, next, incoming)
		if err != nil || len(products) == 0 {
			break
		}
		last = next.Page
		for j := range products {
			if products[j].HasVideo() && len(videos) < limit {
				videos = append(videos, products[j])
			}
		}
	}

	if len(videos) == 0 {
		return current
	}
	s.logger.DebugContext(ctx, "video search widened",
		slog.Int("from_page", req.Page),
		slog.Int("to_page", last),
		slog.Int("videos", len(videos)),
	)
	return videos
}

// canCallAgain reports whether another provider call may start for a search
// that began at start.
func (s *SearchService) canCallAgain(ctx context.Context, start time.Time) bool {
	if ctx.Err() != nil {
		return false
	}
	return s.opts.Budget <= 0 || time.Since(start) < s.opts.Budget
}

func (s *SearchService) demo(req domain.SearchRequest, reason demo.Reason) ([]domain.Product, *SearchResult) {
	return s.policy.Products(req), &SearchResult{
		Method:   demo.Method,
		Source:   demo.Source,
		DemoMode: true,
		Outcome:  Outcome{Kind: OutcomeFallback, Reason: string(reason)},
	}
}

func (s *SearchService) store(ctx context.Context, req domain.SearchRequest, raw catalog.RawResponse) {
	if s.cache == nil {
		return
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := s.cache.Set(ctx, catalog.CacheKey(req), body); err != nil {
		s.logger.WarnContext(ctx, "failed to cache catalog response", slog.String("error", err.Error()))
	}
}

func (s *SearchService) cached(ctx context.Context, req domain.SearchRequest) ([]domain.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	body, ok, err := s.cache.Get(ctx, catalog.CacheKey(req))
	if err != nil {
		s.logger.WarnContext(ctx, "response cache unavailable", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	raw, err := catalog.DecodeRaw(body)
	if err != nil {
		return nil, false
	}
	products := catalog.Normalize(raw)
	return products, len(products) > 0
}

func wantsVideo(req domain.SearchRequest) bool {
	return req.HasVideo != nil && *req.HasVideo
}

func countVideo(products []domain.Product) int {
	n := 0
	for i := range products {
		if products[i].HasVideo() {
			n++
		}
	}
	return n
}
