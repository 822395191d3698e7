// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "cypher-catalog/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names for the request documents accepted by the HTTP API and the job workers.
const (
	SchemaAsk     = "ask"
	SchemaCypher  = "cypher"
	SchemaLineage = "lineage"
	SchemaSearch  = "search"
)

var definitions = map[string]string{
	SchemaAsk: `{
		"type": "object",
		"properties": {
			"question": {"type": "string", "minLength": 1, "maxLength": 2000}
		},
		"required": ["question"]
	}`,
	SchemaCypher: `{
		"type": "object",
		"properties": {
			"cypher": {"type": "string", "minLength": 1, "maxLength": 10000}
		},
		"required": ["cypher"]
	}`,
	SchemaLineage: `{
		"type": "object",
		"properties": {
			"table_name": {"type": "string", "minLength": 1, "maxLength": 255},
			"depth": {"type": "integer", "minimum": 1, "maximum": 5}
		},
		"required": ["table_name"]
	}`,
	SchemaSearch: `{
		"type": "object",
		"properties": {
			"q": {"type": "string", "minLength": 1, "maxLength": 200}
		},
		"required": ["q"]
	}`,
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*gojsonschema.Schema, len(definitions))
		for name, def := range definitions {
			s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[name] = s
		}
	})
	return compiled, compileErr
}

// Validate checks a decoded document (map, struct or slice) against the named schema.
func Validate(name string, doc interface{}) error {
	return validate(name, gojsonschema.NewGoLoader(doc))
}

// ValidateJSON checks raw JSON against the named schema.
func ValidateJSON(name string, raw []byte) error {
	return validate(name, gojsonschema.NewBytesLoader(raw))
}

func validate(name string, loader gojsonschema.JSONLoader) error {
	all, err := schemas()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	schema, ok := all[name]
	if !ok {
		return apperrors.NewInternalError(fmt.Errorf("unknown schema %q", name))
	}

	result, err := schema.Validate(loader)
	if err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("malformed document: %v", err))
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	sort.Strings(msgs)
	return apperrors.NewInvalidInputError(strings.Join(msgs, "; "))
}
