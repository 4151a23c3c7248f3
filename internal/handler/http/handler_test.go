package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/assembler"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/demo"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/event"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
	apperrors "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/errors"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/health"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var fixedClock = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

// catalogFunc adapts a function to service.Catalog.
type catalogFunc func(ctx context.Context, params url.Values) (catalog.RawResponse, error)

func (f catalogFunc) Call(ctx context.Context, params url.Values) (catalog.RawResponse, error) {
	return f(ctx, params)
}

// --- memSaved ---

type memSaved struct {
	mu   sync.Mutex
	rows map[string]domain.SavedProduct
	err  error
	// failOnDone makes Lookup fail on a finished context the way pgx does.
	failOnDone bool
}

func newMemSaved() *memSaved {
	return &memSaved{rows: make(map[string]domain.SavedProduct)}
}

func (m *memSaved) Lookup(ctx context.Context, ids []string) (map[string]domain.SavedState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.failOnDone && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	out := make(map[string]domain.SavedState)
	for _, id := range ids {
		if r, ok := m.rows[id]; ok {
			out[id] = domain.SavedState{SavedAt: r.SavedAt, CustomTitle: r.CustomTitle}
		}
	}
	return out, nil
}

func (m *memSaved) Upsert(_ context.Context, p *domain.SavedProduct) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	existing, ok := m.rows[p.ProductID]
	if ok && p.CustomTitle == "" {
		p.CustomTitle = existing.CustomTitle
	}
	p.SavedAt, p.CreatedAt, p.UpdatedAt = fixedClock(), fixedClock(), fixedClock()
	m.rows[p.ProductID] = *p
	return !ok, nil
}

func (m *memSaved) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memSaved) Get(_ context.Context, id string) (*domain.SavedProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NotFound("saved product", id)
	}
	return &r, nil
}

func (m *memSaved) UpdateTitle(_ context.Context, id, title string) (*domain.SavedProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NotFound("saved product", id)
	}
	r.CustomTitle = title
	m.rows[id] = r
	return &r, nil
}

func (m *memSaved) List(_ context.Context, f repository.SavedFilter) ([]domain.SavedProduct, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	out := []domain.SavedProduct{}
	for _, r := range m.rows {
		if f.Query == "" || strings.Contains(strings.ToLower(r.DisplayTitle()), strings.ToLower(f.Query)) {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *memSaved) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), m.err
}

// --- memLinks / memHistory ---

type memLinks struct {
	mu    sync.Mutex
	links []domain.AffiliateLink
}

func (m *memLinks) Upsert(_ context.Context, links []domain.AffiliateLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, links...)
	return nil
}

func (m *memLinks) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links), nil
}

type memHistory struct {
	mu      sync.Mutex
	records []domain.SearchRecord
}

func (m *memHistory) Record(_ context.Context, rec *domain.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

func (m *memHistory) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

// --- fixture ---

type fixture struct {
	router  http.Handler
	saved   *memSaved
	links   *memLinks
	history *memHistory
}

type fixtureOptions struct {
	creds         catalog.Credentials
	catalog       service.Catalog
	searchTimeout time.Duration
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	logger := testLogger()

	saved := newMemSaved()
	links := &memLinks{}
	history := &memHistory{}

	inline := event.NewInlinePublisher(logger)
	inline.Handle(event.TopicSearchPerformed, event.HistoryHandler(history, logger))
	producer := event.NewProducer(inline, logger)

	cat := opts.catalog
	if cat == nil {
		cat = catalogFunc(func(context.Context, url.Values) (catalog.RawResponse, error) {
			t.Fatal("provider must not be called")
			return nil, nil
		})
	}

	builder := catalog.NewRequestBuilder(opts.creds, fixedClock)
	policy := demo.NewPolicy(demo.Config{
		CredentialsConfigured: opts.creds.Configured(),
		OnMissingCredentials:  false,
	})

	svcs := Services{
		Search: service.NewSearchService(builder, cat, policy, assembler.New(saved, logger), nil, producer,
			service.SearchOptions{}, logger),
		Saved: service.NewSavedService(saved, producer, logger),
		Links: service.NewLinkService(builder, cat, links, logger),
		Stats: service.NewStatsService(saved, links, history, opts.creds.Configured()),
	}

	router := NewRouter(svcs, health.NewHandler(), RouterConfig{
		CORS:          middleware.DefaultCORSConfig(),
		SearchTimeout: opts.searchTimeout,
	}, logger)
	return &fixture{router: router, saved: saved, links: links, history: history}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(method, target, body)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return serve(f, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// envelope mirrors httputil.Response with a typed payload.
type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return httptest.NewRequest(method, target, r)
}

func serve(f *fixture, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}
