package postgres

import (
	"context"
	"fmt"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/database"
)

// LinkRepository implements repository.LinkRepository on PostgreSQL.
type LinkRepository struct {
	db database.DBTX
}

// NewLinkRepository creates an affiliate-link repository.
func NewLinkRepository(db database.DBTX) *LinkRepository {
	return &LinkRepository{db: db}
}

var _ repository.LinkRepository = (*LinkRepository)(nil)

// Upsert stores links keyed by source value in one statement.
func (r *LinkRepository) Upsert(ctx context.Context, links []domain.AffiliateLink) (err error) {
	if len(links) == 0 {
		return nil
	}

	sources := make([]string, len(links))
	promos := make([]string, len(links))
	productIDs := make([]string, len(links))
	for i, l := range links {
		sources[i] = l.SourceValue
		promos[i] = l.PromotionLink
		productIDs[i] = l.ProductID
		if productIDs[i] == "" {
			productIDs[i] = domain.ProductIDFromURL(l.SourceValue)
		}
	}

	query := `
		INSERT INTO affiliate_links (source_value, promotion_link, product_id)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
		ON CONFLICT (source_value) DO UPDATE SET
			promotion_link = EXCLUDED.promotion_link,
			product_id     = EXCLUDED.product_id,
			updated_at     = now()`

	ctx, end := database.TraceQuery(ctx, "UpsertLinks", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, sources, promos, productIDs); err != nil {
		return fmt.Errorf("upsert affiliate links: %w", err)
	}
	return nil
}

// Count returns the number of stored links.
func (r *LinkRepository) Count(ctx context.Context) (n int, err error) {
	query := `SELECT count(*) FROM affiliate_links`

	ctx, end := database.TraceQuery(ctx, "CountLinks", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count affiliate links: %w", err)
	}
	return n, nil
}
