package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_GenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "three dinners", req.Messages[1].Content)

		_ = json.NewEncoder(w).Encode(ChatResponse{
			Model:   "test-model",
			Message: ChatMessage{Role: "assistant", Content: `[{"title":"Soup"}]`},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL, Model: "test-model", Timeout: time.Second}, zap.NewNop())

	out, err := c.GenerateContent(context.Background(), "three dinners")
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"Soup"}]`, out)
	assert.Equal(t, "ollama", c.Name())
}

func TestClient_GenerateContentErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
		},
		{
			name: "incomplete",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{Done: false})
			},
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(Config{Host: srv.URL, Timeout: time.Second}, zap.NewNop())
			_, err := c.GenerateContent(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

func TestClient_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL + "/", Timeout: time.Second}, zap.NewNop())
	assert.NoError(t, c.HealthCheck(context.Background()))
}
