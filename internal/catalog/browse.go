package catalog

import (
	"context"
	"strings"

	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/models"
)

const (
	listTablesQuery = `MATCH (t:Table)
OPTIONAL MATCH (t)-[:HAS_COLUMN]->(c:Column)
WITH t, collect({name: c.name, data_type: c.data_type}) AS columns
RETURN t.name AS name, coalesce(t.description, '') AS description, columns
ORDER BY name
LIMIT $limit`

	// IS_CDE_FOR is matched in both directions; seeded data points from CDE to Column.
	tableDetailQuery = `MATCH (t:Table {name: $table_name})
OPTIONAL MATCH (t)-[:HAS_COLUMN]->(c:Column)
OPTIONAL MATCH (c)-[:IS_CDE_FOR]-(cde:CDE)
OPTIONAL MATCH (t)-[:BELONGS_TO_REGION]->(r:Region)
RETURN t.name AS name,
       coalesce(t.description, '') AS description,
       collect(DISTINCT {name: c.name, data_type: c.data_type, is_cde: cde.name IS NOT NULL, cde_name: cde.name}) AS columns,
       collect(DISTINCT r.name) AS regions`

	searchTablesQuery = `MATCH (t:Table)
WHERE toLower(t.name) CONTAINS toLower($search)
   OR toLower(coalesce(t.description, '')) CONTAINS toLower($search)
RETURN t.name AS name, coalesce(t.description, '') AS description
LIMIT $limit`
)

func (r *Reader) listLimit() int {
	if r.cfg.TableListLimit <= 0 {
		return 500
	}
	return r.cfg.TableListLimit
}

func (r *Reader) searchLimit() int {
	if r.cfg.SearchLimit <= 0 {
		return 20
	}
	return r.cfg.SearchLimit
}

// ListTables returns every table with its columns, ordered by name.
func (r *Reader) ListTables(ctx context.Context) ([]models.TableInfo, error) {
	result, err := r.runner.Execute(ctx, listTablesQuery, map[string]any{"limit": r.listLimit()})
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}

	tables := make([]models.TableInfo, 0, result.Count)
	for _, rec := range result.Records {
		tables = append(tables, models.TableInfo{
			Name:        rec["name"].Str(),
			Description: rec["description"].Str(),
			Columns:     columnsFrom(rec["columns"], "data_type"),
		})
	}
	return tables, nil
}

// TableDetail returns a table with CDE-annotated columns and regions.
func (r *Reader) TableDetail(ctx context.Context, name string) (*models.TableDetail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidInputError("table name is required")
	}

	result, err := r.runner.Execute(ctx, tableDetailQuery, map[string]any{"table_name": name})
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	if result.Count == 0 {
		return nil, apperrors.NewNotFoundError("Table", name)
	}

	rec := result.Records[0]
	detail := &models.TableDetail{
		Name:        rec["name"].Str(),
		Description: rec["description"].Str(),
		Columns:     []models.ColumnDetail{},
		Regions:     []string{},
	}
	for _, item := range rec["columns"].Items() {
		if item.Field("name").IsNull() {
			continue
		}
		detail.Columns = append(detail.Columns, models.ColumnDetail{
			Name:     item.Field("name").Str(),
			DataType: item.Field("data_type").Str(),
			IsCDE:    item.Field("is_cde").Truthy(),
			CDEName:  item.Field("cde_name").Str(),
		})
	}
	for _, region := range rec["regions"].Items() {
		if !region.IsNull() {
			detail.Regions = append(detail.Regions, region.Str())
		}
	}
	return detail, nil
}

// Search matches tables whose name or description contains q, case-insensitively.
func (r *Reader) Search(ctx context.Context, q string) ([]models.TableMatch, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperrors.NewInvalidInputError("search term is required")
	}

	result, err := r.runner.Execute(ctx, searchTablesQuery, map[string]any{
		"search": q,
		"limit":  r.searchLimit(),
	})
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}

	matches := make([]models.TableMatch, 0, result.Count)
	for _, rec := range result.Records {
		matches = append(matches, models.TableMatch{
			Name:        rec["name"].Str(),
			Description: rec["description"].Str(),
		})
	}
	return matches, nil
}
