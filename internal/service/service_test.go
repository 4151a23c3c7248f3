package service

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	apperrors "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/errors"
	pkgkafka "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/kafka"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var fixedClock = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func configuredBuilder() *catalog.RequestBuilder {
	return catalog.NewRequestBuilder(catalog.Credentials{AppKey: "key", AppSecret: "secret", TrackingID: "track"}, fixedClock)
}

// --- mockCatalog ---

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Call(ctx context.Context, params url.Values) (catalog.RawResponse, error) {
	args := m.Called(ctx, params)
	raw, _ := args.Get(0).(catalog.RawResponse)
	return raw, args.Error(1)
}

func page(method string, n string) any {
	return mock.MatchedBy(func(p url.Values) bool {
		return p.Get("method") == method && p.Get("page_no") == n
	})
}

func rawProducts(t *testing.T, items ...string) catalog.RawResponse {
	t.Helper()
	body := `{"aliexpress_affiliate_product_query_response":{"resp_result":{"result":{"products":{"product":[` +
		strings.Join(items, ",") + `]}}}}}`
	raw, err := catalog.DecodeRaw([]byte(body))
	require.NoError(t, err)
	return raw
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
	now := fixedClock()
	existing, ok := m.rows[p.ProductID]
	if ok {
		if p.CustomTitle == "" {
			p.CustomTitle = existing.CustomTitle
		}
		p.CreatedAt = existing.CreatedAt
		p.SavedAt = existing.SavedAt
		if p.RefreshSavedAt {
			p.SavedAt = now
		}
	} else {
		p.CreatedAt, p.SavedAt = now, now
	}
	p.UpdatedAt = now
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
	if m.err != nil {
		return nil, m.err
	}
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
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, len(out), nil
}

func (m *memSaved) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), m.err
}

// --- recordingPublisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []*pkgkafka.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, topic string, evt *pkgkafka.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, evt)
	return nil
}
