// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/validation"
	"cypher-catalog/internal/models"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies; the largest accepted document is a 10000 char query.
const maxBodyBytes = 64 << 10

// QueryService answers questions and runs caller-supplied queries. *pipeline.Service satisfies it.
type QueryService interface {
	Ask(ctx context.Context, question string) (*models.AskResponse, error)
	RunQuery(ctx context.Context, query string) (*models.RunQueryResponse, error)
}

// CatalogBrowser reads catalog metadata. *catalog.Reader satisfies it.
type CatalogBrowser interface {
	ListTables(ctx context.Context) ([]models.TableInfo, error)
	TableDetail(ctx context.Context, name string) (*models.TableDetail, error)
	Search(ctx context.Context, q string) ([]models.TableMatch, error)
	Stats(ctx context.Context) (models.CatalogStats, error)
}

// LineageTraverser walks table lineage. *lineage.Engine satisfies it.
type LineageTraverser interface {
	Traverse(ctx context.Context, table string, depth int) (*models.LineageGraph, error)
}

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// Handler serves the catalog HTTP API.
type Handler struct {
	queries      QueryService
	catalog      CatalogBrowser
	lineage      LineageTraverser
	defaultDepth int
	probes       map[string]Probe
	app          Banner
	logger       logger.Logger
}

// Banner identifies the service at GET /.
type Banner struct {
	Name    string
	Version string
}

// writeJSON encodes v with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBodyFrom(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"path":  r.URL.Path,
			"code":  body.Code,
			"error": err.Error(),
		})
	}
	h.writeJSON(w, status, body)
}

// decodeBody validates the request document against schema and unmarshals it into dest.
func decodeBody(r *http.Request, schema string, dest interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewInvalidInputError("request body could not be read")
	}
	if err := validation.ValidateJSON(schema, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperrors.NewInvalidInputError("request body is not valid JSON")
	}
	return nil
}

// =====================================
// Service banner and probes
// =====================================

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": h.app.Name,
		"version": h.app.Version,
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ready runs every probe; any failure makes the service not ready.
func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.probes))
	status := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	h.writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// =====================================
// Questions and queries
// =====================================

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := decodeBody(r, validation.SchemaAsk, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.queries.Ask(r.Context(), req.Question)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// runCypher answers with the query response even on failure, so callers always see
// success, results and error; the status code carries the failure class.
func (h *Handler) runCypher(w http.ResponseWriter, r *http.Request) {
	var req models.CypherRequest
	if err := decodeBody(r, validation.SchemaCypher, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.queries.RunQuery(r.Context(), req.Cypher)
	if err != nil {
		status, _ := errorBodyFrom(err)
		if resp == nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, status, resp)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// =====================================
// Catalog browsing
// =====================================

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.catalog.ListTables(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.TablesResponse{Tables: tables, Count: len(tables)})
}

func (h *Handler) tableDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.TableDetail(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) searchTables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if err := validation.Validate(validation.SchemaSearch, map[string]interface{}{"q": q}); err != nil {
		h.writeError(w, r, err)
		return
	}

	matches, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.SearchResponse{Tables: matches, Count: len(matches)})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.StatsResponse{Stats: stats})
}

// lineageGraph reads ?depth=N, defaulting when absent. Range checks belong to the engine.
func (h *Handler) lineageGraph(w http.ResponseWriter, r *http.Request) {
	depth := h.defaultDepth
	if raw := r.URL.Query().Get("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, apperrors.NewInvalidInputError("depth must be an integer"))
			return
		}
		depth = d
	}

	graph, err := h.lineage.Traverse(r.Context(), chi.URLParam(r, "name"), depth)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, graph)
}
