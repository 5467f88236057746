package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/tendermesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ model.Model = (*Model)(nil)

func TestModel_GenerateNonStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "You write outlines.", body.Messages[0].Content)
		assert.Equal(t, "user", body.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "1. Introduction"}}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 5, "total_tokens": 8}
		}`))
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/v1/"
		o.MaxRetries = 0
	})

	out, err := model.Complete(context.Background(), m, model.Request{
		Instructions: "You write outlines.",
		Messages:     []model.Message{model.UserMessage("Requirements: cloud hosting")},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Introduction", out.Text)
	assert.Equal(t, "stop", out.FinishReason)
	require.NotNil(t, out.Usage)
	assert.Equal(t, 8, out.Usage.TotalTokens)
}

func TestModel_GenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "wrong"
		o.BaseURL = srv.URL + "/v1/"
		o.MaxRetries = 0
	})

	_, err := model.Complete(context.Background(), m, model.Request{Messages: []model.Message{model.UserMessage("x")}})
	assert.Error(t, err)
}

func TestNewQwenModel_Info(t *testing.T) {
	m := NewQwenModel(func(o *Options) { o.APIKey = "k" })
	assert.Equal(t, model.Info{Name: "qwen-plus", Provider: "qwen"}, m.Info())
	assert.Equal(t, DashScopeBaseURL, m.opts.BaseURL)
}

func TestModel_StreamingStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 200; i++ {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o-mini\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"tok%d \"}}]}\n\n", i)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/v1/"
		o.MaxRetries = 0
	})

	ctx, cancel := context.WithCancel(context.Background())
	respCh, errCh := m.Generate(ctx, model.Request{Stream: true, Messages: []model.Message{model.UserMessage("x")}})

	first := <-respCh
	assert.True(t, first.Partial)
	cancel()

	// the producer must exit even though nobody reads the remaining chunks
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-errCh:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("streaming goroutine did not stop after cancellation")
		}
	}
}
