package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultModel, c.ModelName())
}

func TestClient_Chat(t *testing.T) {
	var got chatCompletionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"object\":\"cadeiras\"}"}}]}`))
	}))
	defer ts.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: ts.URL + "/v1/", Model: "gpt-test"})
	reply, err := c.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "copy"},
		{Role: "user", Content: "Objeto: cadeiras"},
	}, driven.ChatOptions{MaxTokens: 64, JSON: true})
	require.NoError(t, err)

	assert.Equal(t, `{"object":"cadeiras"}`, reply)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, 64, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestClient_Chat_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  int
		temporary bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, 429, true},
		{"server error", http.StatusBadGateway, `bad gateway`, 502, true},
		{"bad key", http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`, 401, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := NewClient(Config{BaseURL: ts.URL}).Chat(context.Background(), nil, driven.ChatOptions{})
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantCode, se.Code)
			assert.Equal(t, tt.temporary, se.Temporary())
		})
	}
}

func TestClient_Chat_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	_, err := NewClient(Config{BaseURL: ts.URL}).Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorContains(t, err, "no choices")
}

func TestClient_Ping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer ts.Close()

	assert.NoError(t, NewClient(Config{APIKey: "good", BaseURL: ts.URL}).Ping(context.Background()))
	assert.ErrorContains(t, NewClient(Config{APIKey: "bad", BaseURL: ts.URL}).Ping(context.Background()), "invalid API key")
}
