// Package gateway is the single entry point for model invocations. It wraps
// the chat client with retry, cost estimation, budget enforcement, and an
// in-memory invocation ledger.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"realtydesk_backend/platform/ai/openaichat"
	"realtydesk_backend/platform/apperr"
	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/logger"
)

const (
	opInvoke       = "gateway.Invoke"
	opInvokeStream = "gateway.InvokeStream"

	// Per-attempt timeouts. Streaming calls hold the connection open
	// while tokens arrive, so they get a longer allowance.
	invokeTimeout = 45 * time.Second
	streamTimeout = 120 * time.Second

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second
	// retryJitter spreads retries by ±10% to avoid thundering herds.
	retryJitter = 0.10

	defaultMaxOutputTokens = 1024
)

// ChatClient is the transport the gateway drives. Satisfied by
// openaichat.Client.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openaichat.ChatRequest) (*openaichat.ChatResponse, error)
	StreamChatCompletion(ctx context.Context, req openaichat.ChatRequest, onDelta func(delta string) error) (*openaichat.ChatResponse, error)
}

// InvokeRequest describes a single model call.
type InvokeRequest struct {
	// Model is remapped to a known model; empty means the configured default.
	Model  string
	System string
	Prompt string
	// Messages, when set, carries a full multi-turn conversation and
	// takes precedence over System/Prompt.
	Messages    []openaichat.Message
	Temperature *float64
	// MaxTokens caps the completion; defaults to 1024.
	MaxTokens int
	// JSONMode asks the model for a JSON object response.
	JSONMode bool
	// BypassBudget skips budget checks. Reserved for operator-triggered
	// calls that must not be starved by runaway background spend.
	BypassBudget bool
}

// InvokeResult is the outcome of a successful model call.
type InvokeResult struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Attempts     int
	Latency      time.Duration
}

// Gateway mediates all model calls.
type Gateway struct {
	client    ChatClient
	cfg       config.AIConfig
	log       *logger.Logger
	estimator *Estimator
	budget    *BudgetTracker
	ledger    *Ledger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a gateway over the given chat client.
func New(client ChatClient, cfg config.AIConfig, log *logger.Logger) *Gateway {
	return &Gateway{
		client:    client,
		cfg:       cfg,
		log:       log,
		estimator: NewEstimator(),
		budget:    NewBudgetTracker(cfg.GetPerCallBudgetUSD(), cfg.GetDailyBudgetUSD()),
		ledger:    NewLedger(),
		sleep:     sleepCtx,
	}
}

// Ledger exposes the invocation history for the ops endpoint.
func (g *Gateway) Ledger() *Ledger { return g.ledger }

// SpentTodayUSD returns the rolling 24-hour spend.
func (g *Gateway) SpentTodayUSD() float64 { return g.budget.SpentUSD() }

// Enabled reports whether the gateway has credentials to make calls.
func (g *Gateway) Enabled() bool { return g.cfg.IsAIEnabled() }

// Invoke performs a blocking model call with retry and budget enforcement.
func (g *Gateway) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	return g.invoke(ctx, req, nil)
}

// InvokeStream performs a streaming model call. Text deltas are delivered to
// onDelta as they arrive. Retries only apply before the first delta is sent;
// once streaming has begun a failure is surfaced directly.
func (g *Gateway) InvokeStream(ctx context.Context, req InvokeRequest, onDelta func(delta string) error) (*InvokeResult, error) {
	if onDelta == nil {
		return nil, apperr.Internal("stream callback is required").WithOp(opInvokeStream)
	}
	return g.invoke(ctx, req, onDelta)
}

func (g *Gateway) invoke(ctx context.Context, req InvokeRequest, onDelta func(string) error) (*InvokeResult, error) {
	op := opInvoke
	streamed := onDelta != nil
	if streamed {
		op = opInvokeStream
	}

	if !g.cfg.IsAIEnabled() {
		return nil, apperr.Unavailable("model gateway is disabled").WithOp(op)
	}

	model := ResolveModel(req.Model, g.cfg.GetDefaultModel())
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}

	promptText := req.System + "\n" + req.Prompt
	if len(req.Messages) > 0 {
		var joined []string
		for _, msg := range req.Messages {
			joined = append(joined, msg.Content)
		}
		promptText = strings.Join(joined, "\n")
	}
	if !req.BypassBudget {
		estimated := g.estimator.EstimateCostUSD(model, promptText, maxTokens)
		if ok, limit := g.budget.Allow(estimated); !ok {
			return nil, apperr.BudgetExceeded(
				fmt.Sprintf("model call rejected by %s budget", limit),
			).WithOp(op).WithDetails(map[string]interface{}{
				"limit":              limit,
				"estimated_cost_usd": estimated,
			})
		}
	}

	chatReq := openaichat.ChatRequest{
		Model:       model,
		Messages:    buildMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openaichat.ResponseFormat{Type: "json_object"}
	}

	start := time.Now()
	maxAttempts := g.cfg.GetMaxRetries() + 1
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, deliveredDeltas, err := g.attempt(ctx, chatReq, onDelta)
		if err == nil {
			result := g.finish(resp, model, attempt, start, streamed)
			return result, nil
		}
		lastErr = err

		// A stream that already emitted text cannot be transparently
		// retried; the caller has seen partial output.
		if deliveredDeltas || !isTransient(err) || attempt == maxAttempts {
			break
		}

		delay := backoffDelay(attempt)
		g.log.Warn("model call failed, retrying",
			"model", model,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err.Error(),
		)
		if sleepErr := g.sleep(ctx, delay); sleepErr != nil {
			lastErr = sleepErr
			break
		}
	}

	g.ledger.Append(InvocationRecord{
		At:        time.Now(),
		Model:     model,
		Attempts:  maxAttempts,
		LatencyMs: time.Since(start).Milliseconds(),
		Streamed:  streamed,
		Error:     lastErr.Error(),
	})
	return nil, classify(lastErr, op)
}

// attempt runs a single call. The bool reports whether any stream deltas
// were delivered to the caller before the error occurred.
func (g *Gateway) attempt(ctx context.Context, req openaichat.ChatRequest, onDelta func(string) error) (*openaichat.ChatResponse, bool, error) {
	if onDelta == nil {
		callCtx, cancel := context.WithTimeout(ctx, invokeTimeout)
		defer cancel()
		resp, err := g.client.CreateChatCompletion(callCtx, req)
		return resp, false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, streamTimeout)
	defer cancel()

	delivered := false
	resp, err := g.client.StreamChatCompletion(callCtx, req, func(delta string) error {
		delivered = true
		return onDelta(delta)
	})
	return resp, delivered, err
}

func (g *Gateway) finish(resp *openaichat.ChatResponse, model string, attempts int, start time.Time, streamed bool) *InvokeResult {
	content := resp.Content()
	inputTokens := resp.Usage.PromptTokens
	outputTokens := resp.Usage.CompletionTokens
	if inputTokens == 0 && outputTokens == 0 {
		// Some compatible endpoints omit usage; fall back to estimates.
		outputTokens = g.estimator.CountTokens(content)
	}

	cost := CostUSD(model, inputTokens, outputTokens)
	g.budget.Record(cost)

	latency := time.Since(start)
	g.ledger.Append(InvocationRecord{
		At:           time.Now(),
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Attempts:     attempts,
		LatencyMs:    latency.Milliseconds(),
		Streamed:     streamed,
	})
	g.log.ModelCall(model, inputTokens, outputTokens, cost, float64(latency.Milliseconds()), attempts)

	return &InvokeResult{
		Content:      content,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Attempts:     attempts,
		Latency:      latency,
	}
}

func buildMessages(req InvokeRequest) []openaichat.Message {
	if len(req.Messages) > 0 {
		return req.Messages
	}
	messages := make([]openaichat.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, openaichat.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, openaichat.Message{Role: "user", Content: req.Prompt})
	return messages
}

// isTransient reports whether an error is worth retrying: rate limits,
// server-side failures, and network-level errors. Client errors (bad
// request, auth) are permanent.
func isTransient(err error) bool {
	var apiErr *openaichat.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode == http.StatusRequestTimeout:
			return true
		case apiErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Network errors and per-attempt deadline expiry are retryable.
	return true
}

func classify(err error, op string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var apiErr *openaichat.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return apperr.Wrap(apperr.KindRateLimited, "model provider rate limit", err).WithOp(op)
		case apiErr.StatusCode >= 500:
			return apperr.Wrap(apperr.KindUnavailable, "model provider unavailable", err).WithOp(op)
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return apperr.Wrap(apperr.KindInternal, "model provider rejected credentials", err).WithOp(op)
		default:
			return apperr.Wrap(apperr.KindUnprocessable, "model provider rejected request", err).WithOp(op)
		}
	}
	return apperr.Wrap(apperr.KindUnavailable, "model call failed", err).WithOp(op)
}

// backoffDelay computes exponential backoff with ±10% jitter.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	jitter := 1 + retryJitter*(2*rand.Float64()-1)
	return time.Duration(float64(delay) * jitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
