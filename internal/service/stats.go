package service

import (
	"context"
	"fmt"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	apperrors "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/errors"
)

// StatsService counts stored rows.
type StatsService struct {
	saved      repository.SavedRepository
	links      repository.LinkRepository
	history    repository.HistoryRepository
	configured bool
}

// NewStatsService creates a stats service.
func NewStatsService(saved repository.SavedRepository, links repository.LinkRepository, history repository.HistoryRepository, catalogConfigured bool) *StatsService {
	return &StatsService{saved: saved, links: links, history: history, configured: catalogConfigured}
}

// Stats returns row counts and whether the catalog is configured.
func (s *StatsService) Stats(ctx context.Context) (*domain.Stats, error) {
	st := &domain.Stats{CatalogConfigured: s.configured}

	var err error
	if st.SavedProducts, err = s.saved.Count(ctx); err != nil {
		return nil, unavailable("count saved products", err)
	}
	if st.AffiliateLinks, err = s.links.Count(ctx); err != nil {
		return nil, unavailable("count affiliate links", err)
	}
	if st.TotalSearches, err = s.history.Count(ctx); err != nil {
		return nil, unavailable("count searches", err)
	}
	return st, nil
}

func unavailable(op string, err error) error {
	return apperrors.ServiceUnavailable("PERSISTENCE_ERROR", fmt.Sprintf("%s failed", op),
		&domain.PersistenceError{Op: op, Err: err})
}
