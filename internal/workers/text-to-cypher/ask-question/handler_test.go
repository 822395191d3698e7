package askquestion

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

// ==========================
// Mock Service Implementation
// ==========================

type MockAsker struct {
	mock.Mock
}

func (m *MockAsker) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AskResponse), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "catalog-question",
		ElementId:          "Activity_AskQuestion",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, service Asker) *Handler {
	handler, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Service:      service,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return handler
}

func savingsAnswer() *models.AskResponse {
	return &models.AskResponse{
		Explanation: "Finds clients with savings accounts.",
		CypherQuery: "MATCH (c:Client)-[:HAS_ACCOUNT]->(a:Bank_account) WHERE a.account_category = 'Savings' RETURN c.first_name AS first_name",
		Results:     []models.Record{{"first_name": models.String("Ada")}},
		Count:       1,
		Summary:     "One client holds a savings account.",
		Status:      models.StatusGenerated,
		Timestamp:   "2024-03-01T12:30:00Z",
	}
}

// ==========================
// Handler Creation Tests
// ==========================

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{
			name: "valid configuration",
			opts: HandlerOptions{CustomConfig: DefaultConfig(), Service: &MockAsker{}},
		},
		{
			name:    "missing service",
			opts:    HandlerOptions{CustomConfig: DefaultConfig()},
			wantErr: "requires a question service",
		},
		{
			name:    "invalid timeout",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, MaxJobsActive: 1}, Service: &MockAsker{}},
			wantErr: "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, handler)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, handler.logger)
			assert.NotNil(t, handler.errorHandler)
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := createTestHandler(t, &MockAsker{})

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
		want      string
	}{
		{"valid question", map[string]interface{}{"question": "Show all clients"}, false, "Show all clients"},
		{"extra variables ignored", map[string]interface{}{"question": "q", "requestId": "r-1"}, false, "q"},
		{"missing question", map[string]interface{}{"requestId": "r-1"}, true, ""},
		{"empty question", map[string]interface{}{"question": ""}, true, ""},
		{"wrong type", map[string]interface{}{"question": 42}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := handler.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input.Question)
		})
	}
}

// ==========================
// Execution Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	service := &MockAsker{}
	service.On("Ask", mock.Anything, "Show all clients who have a savings account.").Return(savingsAnswer(), nil)
	handler := createTestHandler(t, service)

	output, err := handler.Execute(context.Background(), &Input{Question: "Show all clients who have a savings account."})
	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	assert.Equal(t, models.StatusGenerated, output.Status)
	service.AssertExpectations(t)

	raw, err := json.Marshal(output)
	require.NoError(t, err)
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))
	assert.Equal(t, "One client holds a savings account.", vars["summary"])
	assert.Contains(t, vars, "cypher_query")
	assert.Contains(t, vars, "results")
}

func TestHandler_Execute_PropagatesStageError(t *testing.T) {
	stageErr := errors.NewStageError("validated", errors.NewValidationRejectedError("query contains disallowed operation: DELETE"))
	service := &MockAsker{}
	service.On("Ask", mock.Anything, "Delete all clients").Return(nil, stageErr)
	handler := createTestHandler(t, service)

	_, err := handler.Execute(context.Background(), &Input{Question: "Delete all clients"})
	require.Error(t, err)

	bpmn := errors.ConvertToBPMNError(errors.Normalize(err))
	assert.Equal(t, string(errors.ErrCodeValidationRejected), bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
}

// ==========================
// Config Tests
// ==========================

func TestCreateConfigFromAppConfig(t *testing.T) {
	appConfig := &config.Config{
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: false, MaxJobsActive: 8, Timeout: 45000},
		},
	}

	cfg := createConfigFromAppConfig(appConfig, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 8, cfg.MaxJobsActive)
	assert.Equal(t, 45*time.Second, cfg.Timeout)

	defaults := createConfigFromAppConfig(nil, nil)
	assert.Equal(t, DefaultConfig(), defaults)

	custom := &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second}
	assert.Same(t, custom, createConfigFromAppConfig(appConfig, custom))
}

func TestHandler_Register_Disabled(t *testing.T) {
	handler, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: false, MaxJobsActive: 1, Timeout: time.Second},
		Service:      &MockAsker{},
		Logger:       logger.NewNoOpLogger(),
	})
	require.NoError(t, err)

	assert.NoError(t, handler.Register(nil))
	assert.False(t, handler.IsEnabled())
	assert.Equal(t, "ask-question", handler.GetTaskType())
	handler.Close()
}
