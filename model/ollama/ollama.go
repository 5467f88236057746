// Package ollama implements model.Model against a local Ollama server using
// its /api/chat endpoint. Retries and per-call timeouts are handled here so
// agents never retry on their own.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/tendermesh/logging"
	"github.com/hupe1980/tendermesh/model"
)

// Options configures the Ollama adapter.
type Options struct {
	Endpoint    string
	Model       string
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
	MaxRetries  int
	HTTPClient  *http.Client
	Logger      logging.Logger
}

// Model talks to Ollama over HTTP.
type Model struct {
	opts Options
	http *http.Client
}

// NewModel creates a Model with sensible local defaults.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Endpoint:    "http://localhost:11434",
		Model:       "llama3.2",
		Temperature: 0.3,
		MaxTokens:   2048,
		Timeout:     60 * time.Second,
		MaxRetries:  1,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		}
	}
	return &Model{opts: opts, http: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int64   `json:"num_predict,omitempty"`
}

// chatRequest is the JSON body sent to POST /api/chat.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options,omitempty"`
}

// chatResponse is the JSON body returned by POST /api/chat (non-streaming).
type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// Generate implements model.Model. Streaming requests are served with a
// single final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		resp, err := m.chat(ctx, m.buildRequest(req))
		if err != nil {
			errCh <- err
			return
		}
		finish := resp.DoneReason
		if finish == "" {
			finish = "stop"
		}
		out <- model.Response{
			Text:         resp.Message.Content,
			FinishReason: finish,
			Usage: &model.TokenUsage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
				TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			},
		}
	}()
	return out, errCh
}

func (m *Model) buildRequest(req model.Request) chatRequest {
	body := chatRequest{
		Model: m.opts.Model,
		Options: chatOptions{
			Temperature: m.opts.Temperature,
			NumPredict:  m.opts.MaxTokens,
		},
	}
	if req.Temperature != nil {
		body.Options.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		body.Options.NumPredict = *req.MaxTokens
	}
	if req.Instructions != "" {
		body.Messages = append(body.Messages, chatMessage{Role: string(model.RoleSystem), Content: req.Instructions})
	}
	for _, msg := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(msg.Role), Content: msg.Text})
	}
	return body
}

func (m *Model) chat(ctx context.Context, body chatRequest) (*chatResponse, error) {
	start := time.Now()
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	var lastErr error
	attempts := 1 + m.opts.MaxRetries
	for i := 0; i < attempts; i++ {
		resp, err := m.doRequest(ctx, body)
		if err == nil {
			logging.LogLLMCall(m.opts.Logger, m.opts.Model, resp.PromptEvalCount+resp.EvalCount, time.Since(start), nil)
			return resp, nil
		}
		lastErr = err
		// Don't retry on context cancellation/timeout
		if ctx.Err() != nil {
			break
		}
	}
	logging.LogLLMCall(m.opts.Logger, m.opts.Model, 0, time.Since(start), lastErr)

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}
	if ctx.Err() != nil {
		return nil, ErrTimeout
	}
	if isConnectionError(lastErr) {
		return nil, ErrUnavailable
	}
	return nil, fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func (m *Model) doRequest(ctx context.Context, body chatRequest) (*chatResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.Endpoint+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := m.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// Available checks whether the Ollama server is reachable.
func (m *Model) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.opts.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "ollama"}
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
