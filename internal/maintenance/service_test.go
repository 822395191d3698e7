package maintenance

import (
	"context"
	"errors"
	"testing"

	"cypher-catalog/internal/common/database"
	"cypher-catalog/internal/common/database/graphtest"
	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/executor"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store *graphtest.Store) *Service {
	log := logger.NewTestLogger(t)
	return NewService(executor.New(store, log, nil), log)
}

func countRecord(n int64) *neo4j.Record {
	return graphtest.Record([]string{"count"}, n)
}

// ==========================
// Verify / Clear / Index
// ==========================

func TestVerify(t *testing.T) {
	store := graphtest.New().
		OnRecords("count(n)", countRecord(120)).
		OnRecords("count(r)", countRecord(340))
	svc := newTestService(t, store)

	counts, err := svc.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Nodes: 120, Relationships: 340}, counts)

	for _, call := range store.Calls() {
		assert.Equal(t, database.WriteAccess, call.Mode)
	}
}

func TestVerify_Failure(t *testing.T) {
	svc := newTestService(t, graphtest.New().FailAll(errors.New("unreachable")))

	_, err := svc.Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count nodes")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExecutionError))
}

func TestClear(t *testing.T) {
	store := graphtest.New()
	svc := newTestService(t, store)

	require.NoError(t, svc.Clear(context.Background()))
	calls := store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "MATCH (n) DETACH DELETE n", calls[0].Query)
	assert.Equal(t, database.WriteAccess, calls[0].Mode)
}

func TestEnsureIndex(t *testing.T) {
	store := graphtest.New()
	svc := newTestService(t, store)

	require.NoError(t, svc.EnsureIndex(context.Background(), "Client", "client_id"))
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS FOR (n:`Client`) ON (n.`client_id`)", store.Calls()[0].Query)
}

func TestEnsureIndex_RejectsUnsafeIdentifiers(t *testing.T) {
	tests := []struct {
		label    string
		property string
	}{
		{"Client) DETACH DELETE (n", "client_id"},
		{"Client", "id`) RETURN 1 //"},
		{"", "client_id"},
		{"Client", "client id"},
	}

	for _, tt := range tests {
		store := graphtest.New()
		svc := newTestService(t, store)

		err := svc.EnsureIndex(context.Background(), tt.label, tt.property)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationRejected), "%q.%q", tt.label, tt.property)
		assert.Equal(t, 0, store.CallCount())
	}
}

// ==========================
// Lineage Links
// ==========================

func TestLinkLineage(t *testing.T) {
	store := graphtest.New().OnRecords("LOADS_INTO", countRecord(1))
	svc := newTestService(t, store)

	require.NoError(t, svc.LinkLineage(context.Background(), "CUSTOMER_MASTER", "DEPOSIT_SUMMARY", ""))

	call := store.Calls()[0]
	assert.Contains(t, call.Query, "MERGE (src)-[r:`LOADS_INTO` {lineage_type: $lineage_type}]->(dst)")
	assert.Equal(t, map[string]any{
		"source":       "CUSTOMER_MASTER",
		"target":       "DEPOSIT_SUMMARY",
		"lineage_type": "ETL",
	}, call.Params)
}

func TestLinkLineage_MissingTable(t *testing.T) {
	svc := newTestService(t, graphtest.New().OnRecords("LOADS_INTO", countRecord(0)))

	err := svc.LinkLineage(context.Background(), "NOPE", "DEPOSIT_SUMMARY", "ETL")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestLinkLineage_BlankNames(t *testing.T) {
	store := graphtest.New()
	svc := newTestService(t, store)

	err := svc.LinkLineage(context.Background(), " ", "DEPOSIT_SUMMARY", "ETL")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	assert.Equal(t, 0, store.CallCount())
}

// ==========================
// Foreign Keys
// ==========================

func TestLinkForeignKeys_Defaults(t *testing.T) {
	store := graphtest.New().
		OnRecords("HAS_ACCOUNT", countRecord(30)).
		OnError("HAS_CARD", errors.New("lock timeout")).
		OnRecords("RETURN count(*)", countRecord(5))
	svc := newTestService(t, store)

	results, err := svc.LinkForeignKeys(context.Background(), DefaultForeignKeys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HAS_CARD")

	require.Len(t, results, len(DefaultForeignKeys))
	assert.Equal(t, int64(30), results[0].Linked)
	assert.Error(t, results[1].Err)
	for _, res := range results[2:] {
		assert.NoError(t, res.Err)
		assert.Equal(t, int64(5), res.Linked)
	}
	assert.Equal(t, len(DefaultForeignKeys), store.CallCount(), "a failed mapping does not stop the rest")

	first := store.Calls()[0].Query
	assert.Contains(t, first, "MATCH (a:`Client`), (b:`Bank_account`)")
	assert.Contains(t, first, "WHERE a.`client_id` = b.`client_id`")
	assert.Contains(t, first, "MERGE (a)-[:`HAS_ACCOUNT`]->(b)")
}

func TestLinkForeignKeys_InvalidMappingRunsNothing(t *testing.T) {
	store := graphtest.New()
	svc := newTestService(t, store)

	mappings := []ForeignKey{
		DefaultForeignKeys[0],
		{"Client", "client_id", "Bank account", "client_id", "HAS_ACCOUNT"},
	}
	_, err := svc.LinkForeignKeys(context.Background(), mappings)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationRejected))
	assert.Equal(t, 0, store.CallCount())
}

// ==========================
// Labels
// ==========================

func TestLabelFromFileName(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"data/clients.json", "Client", false},
		{"bank_accounts.json", "Bank_account", false},
		{"/tmp/branches.json", "Branche", false},
		{"EMPLOYEES.JSON", "Employee", false},
		{"customer_support.json", "Customer_support", false},
		{"card-details.json", "", true},
		{".json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := LabelFromFileName(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
