package executor

import (
	"time"

	"cypher-catalog/internal/models"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// relationshipTypeKey carries the relationship type next to its properties.
const relationshipTypeKey = "_type"

// Materialize converts driver records into plain records. Every value is copied so nothing
// refers back to the session once it is closed.
func Materialize(records []*neo4j.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := make(models.Record, len(rec.Keys))
		for i, key := range rec.Keys {
			var raw any
			if i < len(rec.Values) {
				raw = rec.Values[i]
			}
			row[key] = convert(raw)
		}
		out = append(out, row)
	}
	return out
}

func convert(v any) models.Value {
	switch t := v.(type) {
	case nil:
		return models.Null()
	case neo4j.Node:
		return propsValue(t.Props)
	case *neo4j.Node:
		return propsValue(t.Props)
	case neo4j.Relationship:
		return relationshipValue(t)
	case *neo4j.Relationship:
		return relationshipValue(*t)
	case neo4j.Path:
		return pathValue(t)
	case *neo4j.Path:
		return pathValue(*t)
	case time.Time:
		return models.String(t.Format(time.RFC3339Nano))
	case []any:
		items := make([]models.Value, len(t))
		for i, item := range t {
			items[i] = convert(item)
		}
		return models.List(items...)
	case map[string]any:
		return propsValue(t)
	default:
		return models.FromAny(t)
	}
}

func propsValue(props map[string]any) models.Value {
	m := make(map[string]models.Value, len(props))
	for k, v := range props {
		m[k] = convert(v)
	}
	return models.Map(m)
}

func relationshipValue(r neo4j.Relationship) models.Value {
	m := make(map[string]models.Value, len(r.Props)+1)
	for k, v := range r.Props {
		m[k] = convert(v)
	}
	m[relationshipTypeKey] = models.String(r.Type)
	return models.Map(m)
}

// pathValue alternates nodes and relationships: node, rel, node, ..., node.
func pathValue(p neo4j.Path) models.Value {
	items := make([]models.Value, 0, len(p.Nodes)+len(p.Relationships))
	for i, n := range p.Nodes {
		if i > 0 && i-1 < len(p.Relationships) {
			items = append(items, relationshipValue(p.Relationships[i-1]))
		}
		items = append(items, propsValue(n.Props))
	}
	return models.List(items...)
}
