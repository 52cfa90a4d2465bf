package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/resumetailor/internal/config"
	"github.com/timmy/resumetailor/internal/domain"
)

func chatReply(content string) string {
	reply := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	data, _ := json.Marshal(reply)
	return string(data)
}

func newTestLLM(baseURL string, maxRetries int) *LLMClient {
	return NewLLMClient(&config.LLMConfig{
		Model:      "test-model",
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	})
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatReply(`{"ok":true}`)))
	}))
	defer srv.Close()

	client := newTestLLM(srv.URL, 2)
	content, err := client.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, content)

	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
	assert.Equal(t, "test-model", gotBody.Model)
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatReply("retried fine")))
	}))
	defer srv.Close()

	client := newTestLLM(srv.URL, 2)
	content, err := client.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "retried fine", content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad api key"}}`))
	}))
	defer srv.Close()

	client := newTestLLM(srv.URL, 3)
	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, domain.IsBackend(err), "got %v", err)
	assert.Contains(t, err.Error(), "bad api key")
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := newTestLLM(srv.URL, 2)
	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, domain.IsBackend(err), "got %v", err)
}

func TestExtractJSON(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "bare object",
			content: `{"a":1}`,
			want:    `{"a":1}`,
		},
		{
			name:    "markdown fenced",
			content: "```json\n{\"a\":1}\n```",
			want:    `{"a":1}`,
		},
		{
			name:    "prose around object",
			content: "Sure, here is the JSON:\n{\"a\":1}\nHope that helps!",
			want:    `{"a":1}`,
		},
		{
			name:    "think block stripped",
			content: "<think>reasoning about the resume</think>{\"a\":1}",
			want:    `{"a":1}`,
		},
		{
			name:    "nested braces kept",
			content: `{"a":{"b":2}}`,
			want:    `{"a":{"b":2}}`,
		},
		{
			name:    "no object",
			content: "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "unclosed think block",
			content: "<think>still thinking",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSON(tc.content)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
