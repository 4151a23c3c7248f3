package repository

import (
	"context"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// SavedStateLookup answers which of a set of products are saved.
type SavedStateLookup interface {
	// Lookup returns the saved state of every id in ids that is saved, in
	// one round trip.
	Lookup(ctx context.Context, ids []string) (map[string]domain.SavedState, error)
}

// SavedFilter selects and orders saved products.
type SavedFilter struct {
	Query   string
	Sort    string
	Page    int
	PerPage int
}

// SavedRepository persists saved products keyed by product_id.
type SavedRepository interface {
	SavedStateLookup

	// Upsert inserts p or overwrites its display fields. saved_at only moves
	// on update when p.RefreshSavedAt is set. inserted is false on update.
	Upsert(ctx context.Context, p *domain.SavedProduct) (inserted bool, err error)

	// Delete removes productID and reports whether a row was removed.
	Delete(ctx context.Context, productID string) (bool, error)

	// Get returns one saved product or apperrors.ErrNotFound.
	Get(ctx context.Context, productID string) (*domain.SavedProduct, error)

	// UpdateTitle sets custom_title. An empty title clears it.
	UpdateTitle(ctx context.Context, productID, title string) (*domain.SavedProduct, error)

	// List returns a page of saved products and the total matching count.
	List(ctx context.Context, filter SavedFilter) ([]domain.SavedProduct, int, error)

	Count(ctx context.Context) (int, error)
}

// LinkRepository records generated affiliate links.
type LinkRepository interface {
	Upsert(ctx context.Context, links []domain.AffiliateLink) error
	Count(ctx context.Context) (int, error)
}

// HistoryRepository stores search history.
type HistoryRepository interface {
	// Record inserts rec. A repeated EventID is ignored.
	Record(ctx context.Context, rec *domain.SearchRecord) error
	Count(ctx context.Context) (int, error)
}

// ResponseCache keeps raw provider bodies for use when the provider fails.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}
