package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/database"
)

// HistoryRepository implements repository.HistoryRepository on PostgreSQL.
type HistoryRepository struct {
	db database.DBTX
}

// NewHistoryRepository creates a search-history repository.
func NewHistoryRepository(db database.DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

var _ repository.HistoryRepository = (*HistoryRepository)(nil)

// Record inserts rec unless its event id was already recorded.
func (r *HistoryRepository) Record(ctx context.Context, rec *domain.SearchRecord) (err error) {
	query := `
		INSERT INTO search_history (event_id, query, category_id, results_count, source, client_ip, searched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "RecordSearch", query)
	defer func() { end(err) }()

	searchedAt := rec.SearchedAt
	if searchedAt.IsZero() {
		searchedAt = time.Now().UTC()
	}

	_, err = r.db.Exec(ctx, query,
		rec.EventID,
		rec.Query,
		nullableText(rec.CategoryID),
		rec.ResultsCount,
		rec.Source,
		nullableText(rec.ClientIP),
		searchedAt,
	)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// Count returns the number of recorded searches.
func (r *HistoryRepository) Count(ctx context.Context) (n int, err error) {
	query := `SELECT count(*) FROM search_history`

	ctx, end := database.TraceQuery(ctx, "CountSearches", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count searches: %w", err)
	}
	return n, nil
}
