package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"realtydesk_backend/platform/ai/openaichat"
	"realtydesk_backend/platform/apperr"
	"realtydesk_backend/platform/logger"
)

type fakeAIConfig struct {
	apiKey     string
	maxRetries int
	perCall    float64
	daily      float64
}

func (c fakeAIConfig) GetModelAPIKey() string       { return c.apiKey }
func (c fakeAIConfig) GetModelBaseURL() string      { return "http://localhost" }
func (c fakeAIConfig) GetDefaultModel() string      { return "gpt-4o-mini" }
func (c fakeAIConfig) GetMaxRetries() int           { return c.maxRetries }
func (c fakeAIConfig) GetPerCallBudgetUSD() float64 { return c.perCall }
func (c fakeAIConfig) GetDailyBudgetUSD() float64   { return c.daily }
func (c fakeAIConfig) IsAIEnabled() bool            { return c.apiKey != "" }

type fakeChatClient struct {
	calls     int
	failUntil int
	failWith  error
	response  *openaichat.ChatResponse
	deltas    []string
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openaichat.ChatRequest) (*openaichat.ChatResponse, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, f.failWith
	}
	return f.response, nil
}

func (f *fakeChatClient) StreamChatCompletion(ctx context.Context, req openaichat.ChatRequest, onDelta func(string) error) (*openaichat.ChatResponse, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, f.failWith
	}
	for _, delta := range f.deltas {
		if err := onDelta(delta); err != nil {
			return nil, err
		}
	}
	return f.response, nil
}

func newTestGateway(client ChatClient, cfg fakeAIConfig) *Gateway {
	gw := New(client, cfg, logger.New("test"))
	gw.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return gw
}

func okResponse(content string, inputTokens, outputTokens int) *openaichat.ChatResponse {
	return &openaichat.ChatResponse{
		Choices: []openaichat.Choice{{
			Message:      openaichat.Message{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: openaichat.Usage{PromptTokens: inputTokens, CompletionTokens: outputTokens},
	}
}

func TestInvoke_RetriesTransientThenSucceeds(t *testing.T) {
	client := &fakeChatClient{
		failUntil: 2,
		failWith:  &openaichat.APIError{StatusCode: 503, Message: "overloaded"},
		response:  okResponse("hello", 10, 5),
	}
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 3, perCall: 1, daily: 10})

	result, err := gw.Invoke(context.Background(), InvokeRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	if result.Content != "hello" {
		t.Fatalf("expected content hello, got %q", result.Content)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 client calls, got %d", client.calls)
	}
}

func TestInvoke_PermanentErrorDoesNotRetry(t *testing.T) {
	client := &fakeChatClient{
		failUntil: 10,
		failWith:  &openaichat.APIError{StatusCode: 400, Message: "bad request"},
	}
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 3, perCall: 1, daily: 10})

	_, err := gw.Invoke(context.Background(), InvokeRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 client call for permanent error, got %d", client.calls)
	}
	if apperr.GetKind(err) != apperr.KindUnprocessable {
		t.Fatalf("expected unprocessable kind, got %v", apperr.GetKind(err))
	}
}

func TestInvoke_ExhaustedRetriesReturnsUnavailable(t *testing.T) {
	client := &fakeChatClient{
		failUntil: 10,
		failWith:  &openaichat.APIError{StatusCode: 500, Message: "boom"},
	}
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 2, perCall: 1, daily: 10})

	_, err := gw.Invoke(context.Background(), InvokeRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 client calls, got %d", client.calls)
	}
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", apperr.GetKind(err))
	}
}

func TestInvoke_DisabledGateway(t *testing.T) {
	gw := newTestGateway(&fakeChatClient{}, fakeAIConfig{apiKey: "", maxRetries: 1})

	_, err := gw.Invoke(context.Background(), InvokeRequest{Prompt: "hi"})
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", apperr.GetKind(err))
	}
}

func TestInvoke_PerCallBudgetRejection(t *testing.T) {
	client := &fakeChatClient{response: okResponse("x", 1, 1)}
	// A tiny per-call limit rejects any call with a nonzero output allowance.
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 1, perCall: 0.0000001, daily: 10})

	_, err := gw.Invoke(context.Background(), InvokeRequest{Prompt: "hi", MaxTokens: 2000})
	if err == nil {
		t.Fatal("expected budget rejection")
	}
	if apperr.GetKind(err) != apperr.KindBudgetExceeded {
		t.Fatalf("expected budget exceeded kind, got %v", apperr.GetKind(err))
	}
	if client.calls != 0 {
		t.Fatalf("expected no client calls, got %d", client.calls)
	}
}

func TestInvoke_BypassBudgetSkipsChecks(t *testing.T) {
	client := &fakeChatClient{response: okResponse("x", 1, 1)}
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 1, perCall: 0.0000001, daily: 10})

	_, err := gw.Invoke(context.Background(), InvokeRequest{Prompt: "hi", MaxTokens: 2000, BypassBudget: true})
	if err != nil {
		t.Fatalf("expected bypass to skip budget, got %v", err)
	}
}

func TestInvoke_RecordsSpendAndLedger(t *testing.T) {
	client := &fakeChatClient{response: okResponse("answer", 1000, 500)}
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 1, perCall: 1, daily: 10})

	result, err := gw.Invoke(context.Background(), InvokeRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CostUSD <= 0 {
		t.Fatalf("expected positive cost, got %f", result.CostUSD)
	}
	if gw.SpentTodayUSD() != result.CostUSD {
		t.Fatalf("expected spend %f, got %f", result.CostUSD, gw.SpentTodayUSD())
	}

	records := gw.Ledger().Snapshot()
	if len(records) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(records))
	}
	if records[0].Model != "gpt-4o-mini" {
		t.Fatalf("expected default model in ledger, got %q", records[0].Model)
	}
	if records[0].InputTokens != 1000 || records[0].OutputTokens != 500 {
		t.Fatalf("unexpected token counts: %d/%d", records[0].InputTokens, records[0].OutputTokens)
	}
}

func TestInvokeStream_DeliversDeltas(t *testing.T) {
	client := &fakeChatClient{
		deltas:   []string{"par", "tial", " answer"},
		response: okResponse("partial answer", 10, 3),
	}
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 1, perCall: 1, daily: 10})

	var received string
	result, err := gw.InvokeStream(context.Background(), InvokeRequest{Prompt: "hi"}, func(delta string) error {
		received += delta
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received != "partial answer" {
		t.Fatalf("expected assembled deltas, got %q", received)
	}
	if result.Content != "partial answer" {
		t.Fatalf("expected final content, got %q", result.Content)
	}
}

func TestInvokeStream_NoRetryAfterFirstDelta(t *testing.T) {
	failErr := &openaichat.APIError{StatusCode: 500, Message: "mid-stream failure"}
	client := &streamThenFailClient{err: failErr}
	gw := newTestGateway(client, fakeAIConfig{apiKey: "key", maxRetries: 3, perCall: 1, daily: 10})

	_, err := gw.InvokeStream(context.Background(), InvokeRequest{Prompt: "hi"}, func(string) error { return nil })
	if err == nil {
		t.Fatal("expected error")
	}
	if client.calls != 1 {
		t.Fatalf("expected no retry after partial stream, got %d calls", client.calls)
	}
}

type streamThenFailClient struct {
	calls int
	err   error
}

func (c *streamThenFailClient) CreateChatCompletion(ctx context.Context, req openaichat.ChatRequest) (*openaichat.ChatResponse, error) {
	return nil, errors.New("not used")
}

func (c *streamThenFailClient) StreamChatCompletion(ctx context.Context, req openaichat.ChatRequest, onDelta func(string) error) (*openaichat.ChatResponse, error) {
	c.calls++
	if err := onDelta("first"); err != nil {
		return nil, err
	}
	return nil, c.err
}

func TestResolveModel(t *testing.T) {
	if got := ResolveModel("", "gpt-4o-mini"); got != "gpt-4o-mini" {
		t.Fatalf("empty model should resolve to default, got %q", got)
	}
	if got := ResolveModel("gpt-4o", "gpt-4o-mini"); got != "gpt-4o" {
		t.Fatalf("known model should be kept, got %q", got)
	}
	if got := ResolveModel("claude-instant", "gpt-4o-mini"); got != "gpt-4o-mini" {
		t.Fatalf("unknown model should remap to default, got %q", got)
	}
}
