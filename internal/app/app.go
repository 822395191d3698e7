// Package app assembles the catalog services from configuration and their backing stores.
package app

import (
	"net/http"

	"cypher-catalog/internal/api"
	"cypher-catalog/internal/catalog"
	"cypher-catalog/internal/common/config"
	"cypher-catalog/internal/common/database"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/observability"
	"cypher-catalog/internal/executor"
	"cypher-catalog/internal/genai"
	"cypher-catalog/internal/lineage"
	"cypher-catalog/internal/maintenance"
	"cypher-catalog/internal/pipeline"
	"cypher-catalog/internal/summary"
	"cypher-catalog/internal/synthesis"

	"github.com/prometheus/client_golang/prometheus"
)

// App holds the wired services. All of them are safe for concurrent use.
type App struct {
	Config      *config.Config
	Executor    *executor.Executor
	Catalog     *catalog.Reader
	Lineage     *lineage.Engine
	Pipeline    *pipeline.Service
	Maintenance *maintenance.Service

	logger logger.Logger
}

type options struct {
	cache catalog.SchemaCache
	obs   *observability.Observability
}

// Option configures New.
type Option func(*options)

// WithSchemaCache caches schema contexts between questions.
func WithSchemaCache(cache catalog.SchemaCache) Option {
	return func(o *options) { o.cache = cache }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *options) { o.obs = obs }
}

// New wires every service over store and model.
func New(cfg *config.Config, store database.GraphStore, model genai.Completer, log logger.Logger, opts ...Option) *App {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	exec := executor.New(store, log, o.obs)

	var readerOpts []catalog.Option
	if o.cache != nil {
		readerOpts = append(readerOpts, catalog.WithCache(o.cache))
	}
	reader := catalog.NewReader(exec, cfg.Catalog, log, readerOpts...)

	svc := pipeline.NewService(
		reader,
		synthesis.NewSynthesizer(model, log),
		exec,
		summary.New(model, cfg.Summary.SampleSize, log),
		cfg.Pipeline,
		log,
		pipeline.WithTranslator(synthesis.NewTranslator(model, log)),
		pipeline.WithObservability(o.obs),
	)

	return &App{
		Config:      cfg,
		Executor:    exec,
		Catalog:     reader,
		Lineage:     lineage.NewEngine(exec, cfg.Lineage, log),
		Pipeline:    svc,
		Maintenance: maintenance.NewService(exec, log),
		logger:      log,
	}
}

// Router returns the HTTP API over the wired services.
func (a *App) Router(probes map[string]api.Probe, gatherer prometheus.Gatherer) http.Handler {
	return api.NewRouter(api.Deps{
		Queries:  a.Pipeline,
		Catalog:  a.Catalog,
		Lineage:  a.Lineage,
		Probes:   probes,
		Gatherer: gatherer,
	}, a.Config, a.logger)
}
