// internal/maintenance/service.go
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/cypher"
	"cypher-catalog/internal/models"
)

// Writer runs statements in write sessions. *executor.Executor satisfies it.
type Writer interface {
	ExecuteWrite(ctx context.Context, query string, params map[string]any) (models.ExecutionResult, error)
}

// Counts is the size of the graph.
type Counts struct {
	Nodes         int64 `json:"nodes"`
	Relationships int64 `json:"relationships"`
}

// ForeignKey links SourceLabel nodes to TargetLabel nodes whose keys are equal.
type ForeignKey struct {
	SourceLabel string
	SourceKey   string
	TargetLabel string
	TargetKey   string
	RelType     string
}

func (fk ForeignKey) String() string {
	return fmt.Sprintf("(%s.%s)-[:%s]->(%s.%s)", fk.SourceLabel, fk.SourceKey, fk.RelType, fk.TargetLabel, fk.TargetKey)
}

// LinkResult reports one foreign key mapping.
type LinkResult struct {
	Mapping ForeignKey
	Linked  int64
	Err     error
}

// DefaultForeignKeys relates the bank dataset labels, parent to child.
var DefaultForeignKeys = []ForeignKey{
	{"Client", "client_id", "Bank_account", "client_id", "HAS_ACCOUNT"},
	{"Client", "client_id", "Card_detail", "client_id", "HAS_CARD"},
	{"Client", "client_id", "Loan_record", "client_id", "HAS_LOAN"},
	{"Client", "client_id", "Customer_support", "client_id", "SUBMITTED_TICKET"},
	{"Card_detail", "card_id", "Card_transaction", "card_id", "HAS_TRANSACTION"},
	{"Bank_account", "account_id", "Online_transaction", "account_id", "HAS_TRANSACTION"},
	{"Branche", "branch_id", "Employee", "branch_id", "HAS_EMPLOYEE"},
	{"Account_type", "account_category", "Bank_account", "account_category", "APPLIES_TO"},
}

// Service performs administrative graph changes. Every statement is built from checked
// identifiers and runs in a write session.
type Service struct {
	writer Writer
	logger logger.Logger
}

func NewService(writer Writer, log logger.Logger) *Service {
	return &Service{writer: writer, logger: logger.Component(log, "maintenance")}
}

func (s *Service) run(ctx context.Context, stmt cypher.Statement) (models.ExecutionResult, error) {
	if verdict := cypher.Validate(stmt.Text, cypher.Administrative); !verdict.Allowed {
		return models.ExecutionResult{}, apperrors.NewValidationRejectedError(verdict.Reason)
	}
	return s.writer.ExecuteWrite(ctx, stmt.Text, stmt.Params)
}

func (s *Service) count(ctx context.Context, query string) (int64, error) {
	result, err := s.run(ctx, cypher.Statement{Text: query})
	if err != nil {
		return 0, err
	}
	if len(result.Records) == 0 {
		return 0, nil
	}
	return result.Records[0]["count"].Int(), nil
}

// Verify counts every node and relationship.
func (s *Service) Verify(ctx context.Context) (Counts, error) {
	nodes, err := s.count(ctx, "MATCH (n) RETURN count(n) AS count")
	if err != nil {
		return Counts{}, fmt.Errorf("count nodes: %w", err)
	}
	rels, err := s.count(ctx, "MATCH ()-[r]->() RETURN count(r) AS count")
	if err != nil {
		return Counts{}, fmt.Errorf("count relationships: %w", err)
	}

	s.logger.Info("graph verified", map[string]interface{}{"nodes": nodes, "relationships": rels})
	return Counts{Nodes: nodes, Relationships: rels}, nil
}

// Clear removes every node and relationship.
func (s *Service) Clear(ctx context.Context) error {
	if _, err := s.run(ctx, cypher.Statement{Text: "MATCH (n) DETACH DELETE n"}); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	s.logger.Warn("graph cleared", nil)
	return nil
}

// EnsureIndex creates a property index on label if it does not exist yet.
func (s *Service) EnsureIndex(ctx context.Context, label, property string) error {
	stmt, err := cypher.NewBuilder().
		Text("CREATE INDEX IF NOT EXISTS FOR (n").Label(label).
		Text(") ON (n").Property(property).Text(")").
		Build()
	if err != nil {
		return err
	}
	if _, err := s.run(ctx, stmt); err != nil {
		return fmt.Errorf("create index on %s.%s: %w", label, property, err)
	}
	s.logger.Info("index ensured", map[string]interface{}{"label": label, "property": property})
	return nil
}

// LinkLineage merges a LOADS_INTO edge from source to target. Both tables must exist;
// otherwise nothing is created and a NOT_FOUND error is returned.
func (s *Service) LinkLineage(ctx context.Context, source, target, lineageType string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return apperrors.NewInvalidInputError("source and target tables are required")
	}
	if lineageType == "" {
		lineageType = "ETL"
	}

	stmt, err := cypher.NewBuilder().
		Text("MATCH (src:Table {name: $source}), (dst:Table {name: $target})\n").
		Text("MERGE (src)-[r").RelType(models.LineageEdgeType).Text(" {lineage_type: $lineage_type}]->(dst)\n").
		Text("RETURN count(r) AS count").
		Bind("source", source).
		Bind("target", target).
		Bind("lineage_type", lineageType).
		Build()
	if err != nil {
		return err
	}

	result, err := s.run(ctx, stmt)
	if err != nil {
		return fmt.Errorf("link lineage %s -> %s: %w", source, target, err)
	}
	if len(result.Records) == 0 || result.Records[0]["count"].Int() == 0 {
		return apperrors.NewNotFoundError("Table", source+" or "+target)
	}

	s.logger.Info("lineage linked", map[string]interface{}{
		"source":      source,
		"target":      target,
		"lineageType": lineageType,
	})
	return nil
}

// buildLinkStatement returns the MERGE statement for one mapping.
func buildLinkStatement(fk ForeignKey) (cypher.Statement, error) {
	return cypher.NewBuilder().
		Text("MATCH (a").Label(fk.SourceLabel).Text("), (b").Label(fk.TargetLabel).Text(")\n").
		Text("WHERE a").Property(fk.SourceKey).Text(" = b").Property(fk.TargetKey).Text("\n").
		Text("MERGE (a)-[").RelType(fk.RelType).Text("]->(b)\n").
		Text("RETURN count(*) AS count").
		Build()
}

// LinkForeignKeys merges relationships for every mapping. All mappings are checked before
// anything runs; a failing mapping does not stop the others.
func (s *Service) LinkForeignKeys(ctx context.Context, mappings []ForeignKey) ([]LinkResult, error) {
	stmts := make([]cypher.Statement, len(mappings))
	for i, fk := range mappings {
		stmt, err := buildLinkStatement(fk)
		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", fk, err)
		}
		stmts[i] = stmt
	}

	results := make([]LinkResult, 0, len(mappings))
	var errs []error
	for i, fk := range mappings {
		res := LinkResult{Mapping: fk}
		out, err := s.run(ctx, stmts[i])
		if err != nil {
			res.Err = err
			errs = append(errs, fmt.Errorf("mapping %s: %w", fk, err))
			s.logger.Warn("foreign key link failed", map[string]interface{}{"mapping": fk.String(), "error": err.Error()})
		} else if len(out.Records) > 0 {
			res.Linked = out.Records[0]["count"].Int()
			s.logger.Info("foreign keys linked", map[string]interface{}{"mapping": fk.String(), "linked": res.Linked})
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// LabelFromFileName derives a node label from a dataset file: the base name with its
// first letter upper-cased, the rest lower-cased and one trailing "s" removed.
// "clients.json" gives "Client" and "bank_accounts.json" gives "Bank_account".
func LabelFromFileName(path string) (string, error) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return "", apperrors.NewInvalidInputError(fmt.Sprintf("no label in file name %q", path))
	}

	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	label := strings.TrimSuffix(string(runes), "s")

	if _, err := cypher.Identifier(label); err != nil {
		return "", err
	}
	return label, nil
}
