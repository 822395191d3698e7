// internal/api/router.go
package api

import (
	"net/http"

	"cypher-catalog/internal/api/middleware"
	"cypher-catalog/internal/common/config"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/lineage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Queries QueryService
	Catalog CatalogBrowser
	Lineage LineageTraverser
	// Probes are run by GET /ready, keyed by dependency name.
	Probes map[string]Probe
	// Gatherer backs GET /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the chi router for the catalog API.
func NewRouter(deps Deps, cfg *config.Config, log logger.Logger) http.Handler {
	h := &Handler{
		queries:      deps.Queries,
		catalog:      deps.Catalog,
		lineage:      deps.Lineage,
		defaultDepth: cfg.Lineage.DefaultDepth,
		probes:       deps.Probes,
		app:          Banner{Name: cfg.App.Name, Version: cfg.App.Version},
		logger:       logger.Component(log, "api"),
	}
	if h.defaultDepth == 0 {
		h.defaultDepth = lineage.DefaultDepth
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/", h.root)
	MountOps(r, h, deps.Gatherer)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
		if wt := config.GetDuration(cfg.Server.WriteTimeout); wt > 0 {
			r.Use(chimw.Timeout(wt - wt/10))
		}

		r.Post("/ask", h.ask)
		r.Post("/query/cypher", h.runCypher)
		r.Get("/schema/tables", h.listTables)
		r.Get("/schema/table/{name}", h.tableDetail)
		r.Get("/lineage/{name}", h.lineageGraph)
		r.Get("/search/tables", h.searchTables)
		r.Get("/stats", h.stats)
	})

	return r
}

// MountOps registers /health, /ready and /metrics on r.
func MountOps(r chi.Router, h *Handler, gatherer prometheus.Gatherer) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// NewOpsRouter serves only the probes and metrics, for a separate metrics listener.
func NewOpsRouter(probes map[string]Probe, gatherer prometheus.Gatherer, log logger.Logger) http.Handler {
	h := &Handler{probes: probes, logger: logger.Component(log, "ops")}
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	MountOps(r, h, gatherer)
	return r
}
