// cmd/catalog-service/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cypher-catalog/internal/api"
	"cypher-catalog/internal/app"
	"cypher-catalog/internal/catalog"
	"cypher-catalog/internal/common/camunda"
	"cypher-catalog/internal/common/config"
	"cypher-catalog/internal/common/database"
	commonhttp "cypher-catalog/internal/common/http"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/observability"
	"cypher-catalog/internal/genai"

	askquestion "cypher-catalog/internal/workers/text-to-cypher/ask-question"
	runcypherquery "cypher-catalog/internal/workers/text-to-cypher/run-cypher-query"
	tablelineage "cypher-catalog/internal/workers/text-to-cypher/table-lineage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type jobWorker interface {
	Register(client *camunda.Client) error
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting catalog service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)
	if !cfg.GenAI.HasCredentials() {
		zapLog.Warn("genai.api_key is not set; question answering and summaries are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, observability.WithGlobal())
	defer func() { _ = obs.Shutdown(context.Background()) }()

	// --- Graph store ---
	neo, err := database.NewNeo4j(ctx, cfg.Neo4j)
	if err != nil {
		zapLog.Fatal("neo4j connection failed", zap.Error(err), zap.String("uri", cfg.Neo4j.URI))
	}
	defer func() { _ = neo.Close(context.Background()) }()
	zapLog.Info("neo4j connected", zap.String("uri", cfg.Neo4j.URI))

	probes := map[string]api.Probe{"neo4j": neo.Ping}
	opts := []app.Option{app.WithObservability(obs)}

	// --- Schema cache ---
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			zapLog.Fatal("redis connection failed", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		probes["redis"] = rdb.Ping
		if ttl := config.GetDuration(cfg.Catalog.CacheTTL); ttl > 0 {
			opts = append(opts, app.WithSchemaCache(catalog.NewRedisSchemaCache(rdb, ttl)))
			zapLog.Info("schema cache enabled", zap.Duration("ttl", ttl))
		}
	}

	model := genai.NewClient(cfg.GenAI, commonhttp.NewClient(0))
	services := app.New(cfg, neo, model, log, opts...)

	// --- Workflow workers ---
	if cfg.Camunda.Enabled {
		zeebe, workers := startWorkers(ctx, cfg, services, log, zapLog)
		defer func() {
			for _, w := range workers {
				w.Close()
			}
			if err := zeebe.Close(); err != nil {
				zapLog.Error("error closing zeebe client", zap.Error(err))
			}
		}()
		probes["zeebe"] = zeebe.HealthCheck
	}

	// --- HTTP servers ---
	apiServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      services.Router(probes, nil),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	servers := []*http.Server{apiServer}
	if cfg.Server.MetricsAddress != "" && cfg.Server.MetricsAddress != cfg.Server.Address {
		servers = append(servers, &http.Server{
			Addr:              cfg.Server.MetricsAddress,
			Handler:           api.NewOpsRouter(probes, nil, log),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			zapLog.Info("http server listening", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("shutdown signal received, draining http servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()

		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("catalog service stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("catalog service stopped gracefully")
}

func startWorkers(ctx context.Context, cfg *config.Config, services *app.App, log logger.Logger, zapLog *zap.Logger) (*camunda.Client, []jobWorker) {
	zeebe, err := camunda.NewClient(ctx, camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	var workers []jobWorker

	ask, err := askquestion.NewHandler(askquestion.HandlerOptions{AppConfig: cfg, Service: services.Pipeline, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create ask-question handler", zap.Error(err))
	}
	workers = append(workers, ask)

	run, err := runcypherquery.NewHandler(runcypherquery.HandlerOptions{AppConfig: cfg, Service: services.Pipeline, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create run-cypher-query handler", zap.Error(err))
	}
	workers = append(workers, run)

	lin, err := tablelineage.NewHandler(tablelineage.HandlerOptions{AppConfig: cfg, Service: services.Lineage, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create table-lineage handler", zap.Error(err))
	}
	workers = append(workers, lin)

	for _, w := range workers {
		if err := w.Register(zeebe); err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))
	return zeebe, workers
}
