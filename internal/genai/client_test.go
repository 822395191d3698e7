package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cypher-catalog/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url, key string, timeoutMs int) *Client {
	return NewClient(config.GenAIConfig{BaseURL: url + "/", APIKey: key, Model: "gpt-4", Timeout: timeoutMs}, nil)
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestComplete_Success(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(chatReply("EXPLANATION: x\nCYPHER: MATCH (n) RETURN n")))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "sk-test", 5000)
	out, err := client.Complete(context.Background(), "You are a Neo4j Cypher expert.", "question", Options{Temperature: 0.3, MaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "EXPLANATION: x\nCYPHER: MATCH (n) RETURN n", out)

	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "question", got.Messages[1].Content)
}

func TestComplete_MissingCredentialsMakesNoCall(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "", 5000)
	assert.False(t, client.Configured())

	_, err := client.Complete(context.Background(), "", "q", Options{})
	assert.ErrorIs(t, err, ErrCredentialsMissing)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestComplete_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			wantErr: ErrModelUnavailable,
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			wantErr: ErrModelUnavailable,
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices": []}`))
			},
			wantErr: ErrModelUnavailable,
		},
		{
			name: "provider error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
			},
			wantErr: ErrModelUnavailable,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			wantErr: ErrModelTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				tt.handler(w, r)
			}))
			defer server.Close()

			client := newTestClient(server.URL, "sk-test", 50)
			_, err := client.Complete(context.Background(), "", "q", Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "no retries")
		})
	}
}

func TestComplete_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newTestClient(url, "sk-test", 1000)
	_, err := client.Complete(context.Background(), "", "q", Options{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}
