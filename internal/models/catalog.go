// internal/models/catalog.go
package models

// ColumnSchema is the column metadata used to ground the prompt.
type ColumnSchema struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// TableSchema is one table of the schema context.
type TableSchema struct {
	Table   string         `json:"table"`
	Columns []ColumnSchema `json:"columns"`
}

// SchemaContext is the bounded, ordered catalog sample fed to the synthesizer.
type SchemaContext []TableSchema

type TableInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Columns     []ColumnSchema `json:"columns"`
}

type ColumnDetail struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	IsCDE    bool   `json:"is_cde"`
	CDEName  string `json:"cde_name,omitempty"`
}

type TableDetail struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Columns     []ColumnDetail `json:"columns"`
	Regions     []string       `json:"regions"`
}

type TableMatch struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CatalogStats maps a node kind (tables, columns, clients, ...) to its count.
type CatalogStats map[string]int64
