package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/event"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	apperrors "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/errors"
)

// SavedService saves, unsaves, renames and lists saved products.
type SavedService struct {
	repo     repository.SavedRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewSavedService creates a saved-products service.
func NewSavedService(repo repository.SavedRepository, producer *event.Producer, logger *slog.Logger) *SavedService {
	return &SavedService{repo: repo, producer: producer, logger: logger}
}

// SaveInput is a product to bookmark.
type SaveInput struct {
	Product        domain.Product
	CustomTitle    string
	RefreshSavedAt bool
}

// Save upserts the product. inserted is false when it was already saved.
func (s *SavedService) Save(ctx context.Context, in SaveInput) (*domain.SavedProduct, bool, error) {
	if strings.TrimSpace(in.Product.ProductID) == "" {
		return nil, false, apperrors.InvalidInput("product_id is required")
	}

	saved := domain.SavedFromProduct(&in.Product)
	saved.ProductID = strings.TrimSpace(saved.ProductID)
	saved.CustomTitle = strings.TrimSpace(in.CustomTitle)
	saved.RefreshSavedAt = in.RefreshSavedAt

	inserted, err := s.repo.Upsert(ctx, saved)
	if err != nil {
		return nil, false, s.persistence(ctx, "save", saved.ProductID, err)
	}

	if err := s.producer.PublishProductSaved(ctx, saved, inserted); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.saved event",
			slog.String("product_id", saved.ProductID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product saved",
		slog.String("product_id", saved.ProductID),
		slog.Bool("inserted", inserted),
	)
	return saved, inserted, nil
}

// Unsave removes a saved product. A product that was not saved is NotFound.
func (s *SavedService) Unsave(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return apperrors.InvalidInput("product_id is required")
	}

	removed, err := s.repo.Delete(ctx, productID)
	if err != nil {
		return s.persistence(ctx, "unsave", productID, err)
	}
	if !removed {
		return apperrors.NotFound("saved product", productID)
	}

	if err := s.producer.PublishProductUnsaved(ctx, productID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.unsaved event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product unsaved", slog.String("product_id", productID))
	return nil
}

// UpdateTitle sets the custom title. An empty title restores the original.
func (s *SavedService) UpdateTitle(ctx context.Context, productID, title string) (*domain.SavedProduct, error) {
	saved, err := s.repo.UpdateTitle(ctx, productID, strings.TrimSpace(title))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, s.persistence(ctx, "update title", productID, err)
	}
	return saved, nil
}

// Get returns one saved product.
func (s *SavedService) Get(ctx context.Context, productID string) (*domain.SavedProduct, error) {
	saved, err := s.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, s.persistence(ctx, "get", productID, err)
	}
	return saved, nil
}

// List returns a page of saved products and the total count.
func (s *SavedService) List(ctx context.Context, filter repository.SavedFilter) ([]domain.SavedProduct, int, error) {
	if filter.Sort != "" && !domain.IsValidSavedSort(filter.Sort) {
		return nil, 0, apperrors.InvalidInput("invalid sort: " + filter.Sort)
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, s.persistence(ctx, "list", "", err)
	}
	return items, total, nil
}

func (s *SavedService) persistence(ctx context.Context, op, productID string, err error) error {
	perr := &domain.PersistenceError{Op: op, Err: err}
	s.logger.ErrorContext(ctx, "saved product store failed",
		slog.String("op", op),
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
	return apperrors.ServiceUnavailable("PERSISTENCE_ERROR", "saved products are temporarily unavailable", perr)
}
