package http

import (
	"log/slog"
	"net/http"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/httputil"
)

// CatalogHandler serves the read-only reference endpoints.
type CatalogHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

// NewCatalogHandler creates a handler for categories and stats.
func NewCatalogHandler(stats *service.StatsService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{stats: stats, logger: logger}
}

// Categories handles GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: domain.Categories()})
}

// Stats handles GET /api/v1/stats
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
