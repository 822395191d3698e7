package runcypherquery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cypher-catalog/internal/common/config"
	"cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueryRunner struct {
	mock.Mock
}

func (m *MockQueryRunner) RunQuery(ctx context.Context, query string) (*models.RunQueryResponse, error) {
	args := m.Called(ctx, query)
	var resp *models.RunQueryResponse
	if v := args.Get(0); v != nil {
		resp = v.(*models.RunQueryResponse)
	}
	return resp, args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "catalog-query",
		ElementId:          "Activity_RunCypherQuery",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, service QueryRunner) *Handler {
	handler, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Service:      service,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return handler
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := createTestHandler(t, &MockQueryRunner{})

	input, err := handler.parseInput(createMockJob(7, map[string]interface{}{"cypher": "MATCH (n) RETURN count(n)"}))
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n) RETURN count(n)", input.Cypher)

	for _, vars := range []map[string]interface{}{
		{},
		{"cypher": ""},
		{"query": "MATCH (n) RETURN n"},
	} {
		_, err := handler.parseInput(createMockJob(8, vars))
		assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err), "%v", vars)
	}
}

// ==========================
// Execution Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	service := &MockQueryRunner{}
	service.On("RunQuery", mock.Anything, "MATCH (c:Client) RETURN count(c) AS clients").Return(&models.RunQueryResponse{
		Success: true,
		Results: []models.Record{{"clients": models.Integer(42)}},
		Count:   1,
	}, nil)
	handler := createTestHandler(t, service)

	output, err := handler.Execute(context.Background(), &Input{Cypher: "MATCH (c:Client) RETURN count(c) AS clients"})
	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, 1, output.Count)

	raw, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "results": [{"clients": 42}], "count": 1}`, string(raw))
	service.AssertExpectations(t)
}

func TestHandler_Execute_Rejected(t *testing.T) {
	rejection := errors.NewStageError("validated", errors.NewValidationRejectedError("query contains disallowed operation: CREATE"))
	service := &MockQueryRunner{}
	service.On("RunQuery", mock.Anything, "CREATE (n)").Return(&models.RunQueryResponse{
		Success: false,
		Results: []models.Record{},
		Error:   "query contains disallowed operation: CREATE",
	}, rejection)
	handler := createTestHandler(t, service)

	output, err := handler.Execute(context.Background(), &Input{Cypher: "CREATE (n)"})
	assert.Nil(t, output)
	assert.Equal(t, errors.ErrCodeValidationRejected, errors.CodeOf(err))
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	cfg := createConfigFromAppConfig(&config.Config{
		Workers: map[string]config.WorkerConfig{TaskType: {Enabled: true, MaxJobsActive: 2, Timeout: 5000}},
	}, nil)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Second, DefaultConfig().Timeout)
}
