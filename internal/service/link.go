package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	apperrors "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/errors"
)

// MaxLinkURLs bounds one link generation request.
const MaxLinkURLs = 50

// LinkService turns product URLs into tracked promotion links.
type LinkService struct {
	builder *catalog.RequestBuilder
	catalog Catalog
	repo    repository.LinkRepository
	logger  *slog.Logger
}

// NewLinkService creates a link service.
func NewLinkService(builder *catalog.RequestBuilder, cat Catalog, repo repository.LinkRepository, logger *slog.Logger) *LinkService {
	return &LinkService{builder: builder, catalog: cat, repo: repo, logger: logger}
}

// Generate asks the provider for promotion links and records them. A failed
// write is logged; the links are still returned.
func (s *LinkService) Generate(ctx context.Context, urls []string) ([]domain.AffiliateLink, error) {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperrors.InvalidInput("at least one url is required")
	}
	if len(cleaned) > MaxLinkURLs {
		return nil, apperrors.InvalidInput("too many urls")
	}

	params, err := s.builder.Build(catalog.OperationLinkGenerate, catalog.LinkParams(cleaned), []string{}, url.Values{})
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, apperrors.ServiceUnavailable("CONFIGURATION_ERROR", "product catalog is not configured", err)
		}
		return nil, err
	}

	raw, err := s.catalog.Call(ctx, params)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("CATALOG_UNAVAILABLE", "link generation is temporarily unavailable", err)
	}

	links := catalog.NormalizeLinks(raw)
	for i := range links {
		if links[i].ProductID == "" {
			links[i].ProductID = domain.ProductIDFromURL(links[i].SourceValue)
		}
	}

	if err := s.repo.Upsert(ctx, links); err != nil {
		s.logger.WarnContext(ctx, "failed to record affiliate links",
			slog.Int("links", len(links)),
			slog.String("error", (&domain.PersistenceError{Op: "record links", Err: err}).Error()),
		)
	}

	s.logger.InfoContext(ctx, "affiliate links generated",
		slog.Int("requested", len(cleaned)),
		slog.Int("generated", len(links)),
	)
	return links, nil
}
