package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	pkgkafka "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/kafka"
)

// HistoryHandler stores search.performed events as search history rows.
// The event id doubles as the row key, so redelivery is harmless.
func HistoryHandler(repo repository.HistoryRepository, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, evt *pkgkafka.Event) error {
		var data SearchPerformedData
		if err := evt.DecodeData(&data); err != nil {
			return err
		}

		rec := &domain.SearchRecord{
			EventID:      evt.EventID,
			Query:        data.Query,
			CategoryID:   data.CategoryID,
			ResultsCount: data.ResultsCount,
			Source:       data.Source,
			ClientIP:     data.ClientIP,
			SearchedAt:   data.SearchedAt,
		}
		if err := repo.Record(ctx, rec); err != nil {
			return fmt.Errorf("record search history: %w", err)
		}

		logger.DebugContext(ctx, "search recorded",
			slog.String("event_id", evt.EventID),
			slog.String("source", data.Source),
			slog.Int("results", data.ResultsCount),
		)
		return nil
	}
}

// InlinePublisher hands events straight to registered handlers instead of a
// broker. Topics without a handler are dropped. Used when Kafka is off.
type InlinePublisher struct {
	mu       sync.RWMutex
	handlers map[string]pkgkafka.Handler
	logger   *slog.Logger
}

// NewInlinePublisher creates a publisher with no handlers.
func NewInlinePublisher(logger *slog.Logger) *InlinePublisher {
	return &InlinePublisher{handlers: make(map[string]pkgkafka.Handler), logger: logger}
}

// Handle registers h for topic, replacing any previous handler.
func (p *InlinePublisher) Handle(topic string, h pkgkafka.Handler) {
	p.mu.Lock()
	p.handlers[topic] = h
	p.mu.Unlock()
}

// Publish runs the handler for topic synchronously.
func (p *InlinePublisher) Publish(ctx context.Context, topic string, evt *pkgkafka.Event) error {
	p.mu.RLock()
	h, ok := p.handlers[topic]
	p.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := h(ctx, evt); err != nil {
		p.logger.WarnContext(ctx, "inline event handler failed",
			slog.String("topic", topic),
			slog.String("event_id", evt.EventID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

var _ pkgkafka.Publisher = (*InlinePublisher)(nil)
