package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
		{"fence without newlines", "```json{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestStatic(t *testing.T) {
	out, err := Static{Response: []byte(SampleSchema)}.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.JSONEq(t, SampleSchema, string(out))

	boom := errors.New("boom")
	_, err = Static{Err: boom}.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, boom)
}

func TestNewOpenRouter_RequiresKey(t *testing.T) {
	_, err := NewOpenRouter(Config{})
	assert.Error(t, err)
}

func TestOpenRouter_Generate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` +
			"```json\\n{\\\"title\\\":\\\"Signup\\\",\\\"fields\\\":[]}\\n```" + `"}}]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewOpenRouter(Config{BaseURL: srv.URL + "/api/v1/", APIKey: "sk-test", Model: "test-model"})
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "a signup form")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Signup","fields":[]}`, string(out))

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, chatMessage{Role: "user", Content: "a signup form"}, got.Messages[1])
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 1500, got.MaxTokens)
}

func TestOpenRouter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"upstream error message", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, "rate limited"},
		{"upstream error without body", http.StatusBadGateway, `oops`, "status 502"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"not json", http.StatusOK, `<html>`, "decoding response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			c, err := NewOpenRouter(Config{BaseURL: srv.URL, APIKey: "k"})
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestOpenRouter_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewOpenRouter(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, "x")
	assert.Error(t, err)
}
