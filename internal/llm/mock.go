// MockClient: deterministic in-process stand-in for the real client.
package llm

import (
	"context"
	"sync"
	"time"
)

// MockClient returns a pre-supplied sequence of responses round-robin.
// It never touches the network and satisfies the same Client contract as
// the real client, so tests and offline runs can swap it in.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	next      int
	model     string
	tracker   *UsageTracker
}

// NewMockClient creates a mock cycling through the given responses.
func NewMockClient(responses []string, tracker *UsageTracker) *MockClient {
	return &MockClient{
		responses: responses,
		model:     "mock",
		tracker:   tracker,
	}
}

// Complete returns the next scripted response. With no script it returns
// the fallback content, matching the real client's failure mode.
func (m *MockClient) Complete(_ context.Context, req Request) Response {
	normalize(&req)

	m.mu.Lock()
	content := FallbackContent
	if len(m.responses) > 0 {
		content = m.responses[m.next%len(m.responses)]
		m.next++
	}
	m.mu.Unlock()

	resp := Response{
		Content:   content,
		Model:     m.model,
		TokensIn:  len(req.Prompt) / 4,
		TokensOut: len(content) / 4,
		LatencyMS: 1,
	}
	if m.tracker != nil {
		m.tracker.Record(UsageRecord{
			Timestamp: time.Now(),
			Model:     resp.Model,
			TokensIn:  resp.TokensIn,
			TokensOut: resp.TokensOut,
			LatencyMS: resp.LatencyMS,
			AgentID:   req.AgentID,
			CallType:  req.CallType,
		})
	}
	return resp
}
