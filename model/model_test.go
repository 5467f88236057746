package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Model = (*MockModel)(nil)
var _ Model = (*RateLimited)(nil)

func TestComplete_ReturnsCannedResponse(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("hello", "world")

	out, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("hello")}})
	require.NoError(t, err)
	assert.Equal(t, "world", out.Text)
	assert.Equal(t, "stop", out.FinishReason)
	assert.Len(t, m.Calls(), 1)
}

func TestComplete_StreamingUsesFinalChunk(t *testing.T) {
	m := NewMockModel("mock", "mock")

	out, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("ping")}, Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", out.Text)
}

func TestComplete_PropagatesModelError(t *testing.T) {
	m := NewMockModel("mock", "mock")
	boom := errors.New("boom")
	m.SetError(boom)

	_, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("x")}})
	assert.ErrorIs(t, err, boom)
}

func TestComplete_EmptyTextIsAnError(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("x", "   ")

	_, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("x")}})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Complete(ctx, NewMockModel("mock", "mock"), Request{Messages: []Message{UserMessage("x")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequest_LastUserText(t *testing.T) {
	req := Request{Messages: []Message{
		UserMessage("first"),
		{Role: RoleAssistant, Text: "reply"},
		UserMessage("second"),
		{Role: RoleAssistant, Text: "tail"},
	}}
	assert.Equal(t, "second", req.LastUserText())
}

func TestRateLimited_Throttles(t *testing.T) {
	m := NewRateLimited(NewMockModel("mock", "mock"), 1, 1)
	req := Request{Messages: []Message{UserMessage("x")}}

	_, err := Complete(context.Background(), m, req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = Complete(ctx, m, req)
	assert.Error(t, err)
	assert.Equal(t, "mock", m.Info().Name)
}
