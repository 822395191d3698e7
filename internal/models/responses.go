// internal/models/responses.go
package models

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Explanation string           `json:"explanation"`
	CypherQuery string           `json:"cypher_query"`
	SQLQuery    string           `json:"sql_query,omitempty"`
	Results     []Record         `json:"results"`
	Count       int              `json:"count"`
	Summary     string           `json:"summary"`
	Status      GenerationStatus `json:"status"`
	Timestamp   string           `json:"timestamp"`
}

type CypherRequest struct {
	Cypher string `json:"cypher"`
}

type RunQueryResponse struct {
	Success bool     `json:"success"`
	Results []Record `json:"results"`
	Count   int      `json:"count"`
	Error   string   `json:"error,omitempty"`
}

type TablesResponse struct {
	Tables []TableInfo `json:"tables"`
	Count  int         `json:"count"`
}

type SearchResponse struct {
	Tables []TableMatch `json:"tables"`
	Count  int          `json:"count"`
}

type StatsResponse struct {
	Stats CatalogStats `json:"stats"`
}
