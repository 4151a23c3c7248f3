package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/config"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/health"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/middleware"
)

// Services groups what the router dispatches to.
type Services struct {
	Search *service.SearchService
	Saved  *service.SavedService
	Links  *service.LinkService
	Stats  *service.StatsService
}

// RouterConfig carries the HTTP-level options.
type RouterConfig struct {
	CORS         middleware.CORSConfig
	PprofEnabled bool
	PprofCIDRs   []string
	// SearchLimiter throttles /search per client IP. nil disables it.
	SearchLimiter *middleware.RateLimiter
	// RequestTimeout bounds every /api/v1 route except /search. Zero means 30s.
	RequestTimeout time.Duration
	// SearchTimeout bounds /search. It must cover the search budget plus one
	// provider call. Zero leaves /search unbounded.
	SearchTimeout time.Duration
}

// NewRouter creates a chi router with every API route registered.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(config.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(config.ServiceName))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	searchHandler := NewSearchHandler(svcs.Search, logger)
	savedHandler := NewSavedHandler(svcs.Saved, logger)
	linkHandler := NewLinkHandler(svcs.Links, logger)
	catalogHandler := NewCatalogHandler(svcs.Stats, logger)

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.SearchTimeout > 0 {
				r.Use(chimw.Timeout(cfg.SearchTimeout))
			}
			if cfg.SearchLimiter != nil {
				r.Use(cfg.SearchLimiter.Middleware)
			}
			r.Get("/search", searchHandler.Search)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			r.With(middleware.CacheControl(time.Hour)).Get("/categories", catalogHandler.Categories)
			r.With(middleware.NoStore).Get("/stats", catalogHandler.Stats)

			r.Route("/saved", func(r chi.Router) {
				r.Use(middleware.NoStore)
				r.Get("/", savedHandler.List)
				r.Get("/{productID}", savedHandler.Get)
				r.Delete("/{productID}", savedHandler.Delete)

				r.Group(func(r chi.Router) {
					r.Use(ContentTypeJSON)
					r.Post("/", savedHandler.Save)
					r.Patch("/{productID}", savedHandler.UpdateTitle)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/unsave", savedHandler.Unsave)
				r.Post("/links", linkHandler.Generate)
			})
		})
	})

	return r
}
