package catalog

import (
	"context"
	"sync"

	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/cypher"
	"cypher-catalog/internal/models"

	"golang.org/x/sync/errgroup"
)

// StatKinds maps each reported statistic to the node label it counts.
var StatKinds = []struct {
	Key   string
	Label string
}{
	{"tables", "Table"},
	{"columns", "Column"},
	{"clients", "Client"},
	{"accounts", "Bank_account"},
	{"transactions", "Card_transaction"},
	{"loans", "Loan_record"},
}

// Stats counts the nodes of each kind in StatKinds. Counts run concurrently, one session each.
func (r *Reader) Stats(ctx context.Context) (models.CatalogStats, error) {
	stats := make(models.CatalogStats, len(StatKinds))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range StatKinds {
		kind := kind
		g.Go(func() error {
			stmt, err := cypher.NewBuilder().
				Text("MATCH (n").Label(kind.Label).Text(") RETURN count(n) AS count").
				Build()
			if err != nil {
				return err
			}

			result, err := r.runner.Execute(gctx, stmt.Text, stmt.Params)
			if err != nil {
				return err
			}

			var n int64
			if result.Count > 0 {
				n = result.Records[0]["count"].Int()
			}
			mu.Lock()
			stats[kind.Key] = n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	return stats, nil
}
