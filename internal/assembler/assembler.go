// Package assembler joins normalized products with saved state and applies
// filters and ordering.
package assembler

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
)

// Assembler builds a PagedResult from a page of products.
type Assembler struct {
	store  repository.SavedStateLookup
	logger *slog.Logger
}

// New returns an assembler. store may be nil, in which case nothing is
// annotated.
func New(store repository.SavedStateLookup, logger *slog.Logger) *Assembler {
	return &Assembler{store: store, logger: logger}
}

// Assemble annotates, filters and sorts products for req. A failing store
// is logged and leaves every saved_at nil.
func (a *Assembler) Assemble(ctx context.Context, products []domain.Product, req domain.SearchRequest) domain.PagedResult {
	items := make([]domain.Product, len(products))
	copy(items, products)

	a.annotate(ctx, items)
	items = FilterVideo(items, req.HasVideo)
	items = FilterPrice(items, req.MinPrice, req.MaxPrice)
	Sort(items, req.Sort)

	return domain.PagedResult{
		Items:    items,
		Page:     req.Page,
		PageSize: req.PageSize,
		HasMore:  req.PageSize > 0 && len(items) >= req.PageSize,
	}
}

func (a *Assembler) annotate(ctx context.Context, items []domain.Product) {
	if a.store == nil || len(items) == 0 {
		return
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, p := range items {
		if _, dup := seen[p.ProductID]; dup {
			continue
		}
		seen[p.ProductID] = struct{}{}
		ids = append(ids, p.ProductID)
	}

	states, err := a.store.Lookup(ctx, ids)
	if err != nil {
		perr := &domain.PersistenceError{Op: "lookup", Err: err}
		a.logger.WarnContext(ctx, "saved state unavailable, results not annotated",
			slog.Int("products", len(ids)),
			slog.String("error", perr.Error()),
		)
		for i := range items {
			items[i].SavedAt = nil
		}
		return
	}

	for i := range items {
		st, ok := states[items[i].ProductID]
		if !ok {
			items[i].SavedAt = nil
			continue
		}
		savedAt := st.SavedAt
		items[i].SavedAt = &savedAt
		if st.CustomTitle != "" && st.CustomTitle != items[i].Title {
			items[i].Title = st.CustomTitle
		}
	}
}

// FilterVideo keeps products with a video when want is true and those
// without when false. nil keeps everything.
func FilterVideo(items []domain.Product, want *bool) []domain.Product {
	if want == nil {
		return items
	}
	out := items[:0:0]
	for _, p := range items {
		if p.HasVideo() == *want {
			out = append(out, p)
		}
	}
	return out
}

// FilterPrice keeps products whose effective price lies in [minPrice,
// maxPrice]. With any bound set, unpriced products are dropped.
func FilterPrice(items []domain.Product, minPrice, maxPrice *decimal.Decimal) []domain.Product {
	if minPrice == nil && maxPrice == nil {
		return items
	}
	out := items[:0:0]
	for _, p := range items {
		price := p.EffectivePrice()
		if price == nil {
			continue
		}
		if minPrice != nil && price.LessThan(*minPrice) {
			continue
		}
		if maxPrice != nil && price.GreaterThan(*maxPrice) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort orders items in place. Equal keys keep their input order; unknown
// keys leave items untouched.
func Sort(items []domain.Product, key string) {
	var less func(a, b *domain.Product) bool

	switch key {
	case domain.SortVolumeDesc:
		less = func(a, b *domain.Product) bool { return volume(a) > volume(b) }
	case domain.SortVolumeAsc:
		less = func(a, b *domain.Product) bool { return volume(a) < volume(b) }
	case domain.SortRatingDesc:
		less = func(a, b *domain.Product) bool { return rating(a).GreaterThan(rating(b)) }
	case domain.SortRatingAsc:
		less = func(a, b *domain.Product) bool { return rating(a).LessThan(rating(b)) }
	case domain.SortDiscountDesc:
		less = func(a, b *domain.Product) bool { return a.ComputedDiscount().GreaterThan(b.ComputedDiscount()) }
	case domain.SortPriceAsc:
		less = func(a, b *domain.Product) bool { return priceLess(a, b, false) }
	case domain.SortPriceDesc:
		less = func(a, b *domain.Product) bool { return priceLess(a, b, true) }
	default:
		return
	}

	sort.SliceStable(items, func(i, j int) bool { return less(&items[i], &items[j]) })
}

func volume(p *domain.Product) int64 {
	if p.SalesVolume == nil {
		return 0
	}
	return *p.SalesVolume
}

func rating(p *domain.Product) decimal.Decimal {
	if p.Rating == nil {
		return decimal.Zero
	}
	return *p.Rating
}

// priceLess sorts unpriced products last in both directions.
func priceLess(a, b *domain.Product, desc bool) bool {
	pa, pb := a.EffectivePrice(), b.EffectivePrice()
	switch {
	case pa == nil:
		return false
	case pb == nil:
		return true
	case desc:
		return pa.GreaterThan(*pb)
	default:
		return pa.LessThan(*pb)
	}
}
