package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	pkgkafka "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/kafka"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/logger"
)

// Topics for affiliate events.
var (
	TopicProductSaved    = pkgkafka.Topic("product", "saved")
	TopicProductUnsaved  = pkgkafka.Topic("product", "unsaved")
	TopicSearchPerformed = pkgkafka.Topic("search", "performed")
)

// SourceAffiliateAPI identifies events produced by this service.
const SourceAffiliateAPI = "affiliate-api"

// ProductSavedData is the payload for product.saved.
type ProductSavedData struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	Inserted  bool      `json:"inserted"`
	SavedAt   time.Time `json:"saved_at"`
}

// ProductUnsavedData is the payload for product.unsaved.
type ProductUnsavedData struct {
	ProductID string `json:"product_id"`
}

// SearchPerformedData is the payload for search.performed.
type SearchPerformedData struct {
	Query        string    `json:"query"`
	CategoryID   string    `json:"category_id,omitempty"`
	ResultsCount int       `json:"results_count"`
	Source       string    `json:"source"`
	ClientIP     string    `json:"client_ip,omitempty"`
	SearchedAt   time.Time `json:"searched_at"`
}

// Producer publishes affiliate domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates an event producer on top of publisher.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishProductSaved publishes a product.saved event.
func (p *Producer) PublishProductSaved(ctx context.Context, saved *domain.SavedProduct, inserted bool) error {
	return p.publish(ctx, TopicProductSaved, saved.ProductID, ProductSavedData{
		ProductID: saved.ProductID,
		Title:     saved.DisplayTitle(),
		Inserted:  inserted,
		SavedAt:   saved.SavedAt,
	})
}

// PublishProductUnsaved publishes a product.unsaved event.
func (p *Producer) PublishProductUnsaved(ctx context.Context, productID string) error {
	return p.publish(ctx, TopicProductUnsaved, productID, ProductUnsavedData{ProductID: productID})
}

// PublishSearchPerformed publishes a search.performed event keyed by query.
func (p *Producer) PublishSearchPerformed(ctx context.Context, data SearchPerformedData) error {
	if data.SearchedAt.IsZero() {
		data.SearchedAt = time.Now().UTC()
	}
	return p.publish(ctx, TopicSearchPerformed, data.Query, data)
}

func (p *Producer) publish(ctx context.Context, topic, key string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, key, SourceAffiliateAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
