// Package llm provides the bounded LLM request surface: a client contract
// with response caching, usage and cost metering, and a deterministic mock
// for tests and offline runs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"

	// DefaultModel is used when the configuration names none.
	DefaultModel = "claude-haiku-4-5-20251001"

	// FallbackContent is returned whenever the upstream call fails. The
	// core never retries and never propagates upstream errors.
	FallbackContent = "I'll wait and observe."
)

// Request is one completion request.
type Request struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
	UseCache    bool

	// Attribution for the usage tracker.
	AgentID  string
	CallType string
}

// Response is the result of a completion.
type Response struct {
	Content   string `json:"content"`
	Model     string `json:"model"`
	TokensIn  int    `json:"tokens_in"`
	TokensOut int    `json:"tokens_out"`
	Cached    bool   `json:"cached"`
	LatencyMS int64  `json:"latency_ms"`
}

// Client is the completion contract. Implementations absorb upstream
// failures: Complete always returns a usable response, falling back to
// FallbackContent rather than surfacing an error.
type Client interface {
	Complete(ctx context.Context, req Request) Response
}

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	cache      *Cache
	tracker    *UsageTracker
}

// NewAnthropicClient creates a client for the given model. A nil cache or
// tracker disables that concern.
func NewAnthropicClient(apiKey, model string, cache *Cache, tracker *UsageTracker) *AnthropicClient {
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		tracker:    tracker,
	}
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
}

type apiResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// normalize clamps request parameters into their legal ranges.
func normalize(req *Request) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = 100
	}
	if req.Temperature < 0 {
		req.Temperature = 0
	}
	if req.Temperature > 2 {
		req.Temperature = 2
	}
}

// Complete sends the prompt upstream, consulting the cache first. Upstream
// errors yield the fallback response with non-zero latency; they are never
// raised to the caller.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) Response {
	normalize(&req)
	start := time.Now()

	if req.UseCache && c.cache != nil {
		if resp, ok := c.cache.Get(c.model, req.Prompt); ok {
			resp.Cached = true
			resp.LatencyMS = time.Since(start).Milliseconds()
			c.record(req, resp)
			return resp
		}
	}

	text, in, out, err := c.call(ctx, req)
	latency := time.Since(start).Milliseconds()
	if latency < 1 {
		latency = 1
	}
	if err != nil {
		slog.Warn("llm call failed, using fallback", "model", c.model, "error", err)
		resp := Response{
			Content:   FallbackContent,
			Model:     c.model,
			LatencyMS: latency,
		}
		c.record(req, resp)
		return resp
	}

	resp := Response{
		Content:   text,
		Model:     c.model,
		TokensIn:  in,
		TokensOut: out,
		LatencyMS: latency,
	}
	if req.UseCache && c.cache != nil {
		c.cache.Put(c.model, req.Prompt, resp)
	}
	c.record(req, resp)
	return resp
}

func (c *AnthropicClient) record(req Request, resp Response) {
	if c.tracker == nil {
		return
	}
	c.tracker.Record(UsageRecord{
		Timestamp: time.Now(),
		Model:     resp.Model,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
		CostUSD:   CostUSD(resp.Model, resp.TokensIn, resp.TokensOut),
		LatencyMS: resp.LatencyMS,
		Cached:    resp.Cached,
		AgentID:   req.AgentID,
		CallType:  req.CallType,
	})
}

func (c *AnthropicClient) call(ctx context.Context, req Request) (string, int, int, error) {
	if c.apiKey == "" {
		return "", 0, 0, fmt.Errorf("no API key configured")
	}

	body, err := json.Marshal(apiRequest{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages:    []apiMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", 0, 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", 0, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, 0, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, 0, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", 0, 0, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", 0, 0, fmt.Errorf("empty response")
	}
	return parsed.Content[0].Text, parsed.Usage.InputTokens, parsed.Usage.OutputTokens, nil
}
