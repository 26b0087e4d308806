package openai

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Paris."}}]
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat(t *testing.T) {
	var captured capturedRequest
	srv := newChatServer(t, &captured)

	svc, err := NewLLMService(LLMConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "Use the context."},
		{Role: driven.RoleUser, Content: "What is the capital of France?"},
	}, driven.ChatOptions{MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out)

	assert.Equal(t, DefaultLLMModel, captured.Model)
	assert.Equal(t, 200, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	// Zero temperature must still reach the wire.
	assert.Less(t, captured.Temperature, 1e-30)
}

func TestGenerate(t *testing.T) {
	var captured capturedRequest
	srv := newChatServer(t, &captured)

	svc, err := NewLLMService(LLMConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o"})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out)
	assert.Equal(t, "gpt-4o", captured.Model)
	assert.InDelta(t, 0.5, captured.Temperature, 1e-6)
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.Error(t, err)
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestTemperature(t *testing.T) {
	assert.Equal(t, float32(math.SmallestNonzeroFloat32), temperature(0))
	assert.Equal(t, float32(0.7), temperature(0.7))
}
