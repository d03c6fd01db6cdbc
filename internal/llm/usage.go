// Usage tracking: a bounded ring of per-call records plus a running
// aggregate with a per-model breakdown.
package llm

import (
	"sync"
	"time"
)

// DefaultUsageRing is the default record retention.
const DefaultUsageRing = 1000

// modelPricing maps a model id prefix to USD per million tokens (in, out).
var modelPricing = []struct {
	prefix  string
	in, out float64
}{
	{"claude-haiku", 0.80, 4.00},
	{"claude-sonnet", 3.00, 15.00},
	{"claude-opus", 15.00, 75.00},
}

// CostUSD estimates the dollar cost of a call from token counts.
func CostUSD(model string, tokensIn, tokensOut int) float64 {
	for _, p := range modelPricing {
		if len(model) >= len(p.prefix) && model[:len(p.prefix)] == p.prefix {
			return float64(tokensIn)*p.in/1e6 + float64(tokensOut)*p.out/1e6
		}
	}
	// Unknown models are billed at haiku rates rather than zero.
	return float64(tokensIn)*0.80/1e6 + float64(tokensOut)*4.00/1e6
}

// UsageRecord is one metered LLM call.
type UsageRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	TokensIn  int       `json:"tokens_in"`
	TokensOut int       `json:"tokens_out"`
	CostUSD   float64   `json:"cost_usd"`
	LatencyMS int64     `json:"latency_ms"`
	Cached    bool      `json:"cached"`
	AgentID   string    `json:"agent_id,omitempty"`
	CallType  string    `json:"call_type,omitempty"`
}

// ModelAggregate is the running total for one model.
type ModelAggregate struct {
	Calls        int     `json:"calls"`
	TokensIn     int     `json:"tokens_in"`
	TokensOut    int     `json:"tokens_out"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// Aggregate is the running total across all calls since the last reset.
type Aggregate struct {
	TotalCalls   int                       `json:"total_calls"`
	TokensIn     int                       `json:"tokens_in"`
	TokensOut    int                       `json:"tokens_out"`
	TotalCostUSD float64                   `json:"total_cost_usd"`
	PerModel     map[string]ModelAggregate `json:"per_model"`
}

// UsageTracker meters completed LLM calls. The record ring and the running
// aggregate are independent: Reset clears the aggregate only.
type UsageTracker struct {
	mu     sync.Mutex
	ring   []UsageRecord
	cap    int
	totals Aggregate
}

// NewUsageTracker creates a tracker retaining the last n records
// (non-positive uses the default).
func NewUsageTracker(n int) *UsageTracker {
	if n <= 0 {
		n = DefaultUsageRing
	}
	return &UsageTracker{
		cap:    n,
		totals: Aggregate{PerModel: make(map[string]ModelAggregate)},
	}
}

// Record adds one call to the ring and the aggregate.
func (t *UsageTracker) Record(rec UsageRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ring = append(t.ring, rec)
	if len(t.ring) > t.cap {
		t.ring = t.ring[len(t.ring)-t.cap:]
	}

	t.totals.TotalCalls++
	t.totals.TokensIn += rec.TokensIn
	t.totals.TokensOut += rec.TokensOut
	t.totals.TotalCostUSD += rec.CostUSD

	m := t.totals.PerModel[rec.Model]
	m.Calls++
	m.TokensIn += rec.TokensIn
	m.TokensOut += rec.TokensOut
	m.TotalCostUSD += rec.CostUSD
	t.totals.PerModel[rec.Model] = m
}

// Totals returns a copy of the running aggregate.
func (t *UsageTracker) Totals() Aggregate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.totals
	out.PerModel = make(map[string]ModelAggregate, len(t.totals.PerModel))
	for k, v := range t.totals.PerModel {
		out.PerModel[k] = v
	}
	return out
}

// Recent returns the last n records, oldest first.
func (t *UsageTracker) Recent(n int) []UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || n > len(t.ring) {
		n = len(t.ring)
	}
	return append([]UsageRecord(nil), t.ring[len(t.ring)-n:]...)
}

// Reset clears the running aggregate. The record ring is kept.
func (t *UsageTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals = Aggregate{PerModel: make(map[string]ModelAggregate)}
}
