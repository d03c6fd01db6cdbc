// Package engine provides the tick scheduler that drives the simulation,
// the action decider, and engine health metering.
package engine

import (
	"sync"
	"time"
)

// errorWindow is how long after an error the engine reports degraded.
const errorWindow = 5 * time.Minute

// HealthSnapshot is the externally visible health state.
type HealthSnapshot struct {
	Status                  string  `json:"status"` // "healthy" or "degraded"
	UptimeSeconds           float64 `json:"uptime_seconds"`
	TotalTicks              uint64  `json:"total_ticks"`
	TicksPerMinute          float64 `json:"ticks_per_minute"`
	ErrorCount              uint64  `json:"error_count"`
	OverrunCount            uint64  `json:"overrun_count"`
	LastTickDurationMS      float64 `json:"last_tick_duration_ms"`
	AvgTickDurationMS       float64 `json:"avg_tick_duration_ms"`
	AgentsProcessedLastTick int     `json:"agents_processed_last_tick"`
	QueueDepth              int     `json:"queue_depth"`
}

// Health tracks tick timings and error counts.
type Health struct {
	mu          sync.Mutex
	startedAt   time.Time
	totalTicks  uint64
	errorCount  uint64
	overruns    uint64
	lastErrorAt time.Time
	lastTickMS  float64
	avgTickMS   float64 // Exponentially weighted, alpha 0.2
	agentsLast  int

	// now is swappable for tests.
	now func() time.Time
}

// NewHealth creates a health meter starting its uptime clock now.
func NewHealth() *Health {
	return &Health{startedAt: time.Now(), now: time.Now}
}

// RecordTick notes a completed tick.
func (h *Health) RecordTick(d time.Duration, agentsProcessed int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.totalTicks++
	h.lastTickMS = float64(d.Microseconds()) / 1000.0
	if h.avgTickMS == 0 {
		h.avgTickMS = h.lastTickMS
	} else {
		h.avgTickMS = 0.8*h.avgTickMS + 0.2*h.lastTickMS
	}
	h.agentsLast = agentsProcessed
}

// RecordOverrun notes a tick that finished after its next boundary.
func (h *Health) RecordOverrun() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.overruns++
}

// RecordError notes a tick-level error.
func (h *Health) RecordError() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorCount++
	h.lastErrorAt = h.now()
}

// Snapshot returns the current metrics. queueDepth is supplied by the
// caller (subscriber queue backlog is owned by the bus).
func (h *Health) Snapshot(queueDepth int) HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	uptime := now.Sub(h.startedAt).Seconds()
	status := "healthy"
	if !h.lastErrorAt.IsZero() && now.Sub(h.lastErrorAt) < errorWindow {
		status = "degraded"
	}
	tpm := 0.0
	if uptime > 0 {
		tpm = float64(h.totalTicks) / uptime * 60
	}
	return HealthSnapshot{
		Status:                  status,
		UptimeSeconds:           uptime,
		TotalTicks:              h.totalTicks,
		TicksPerMinute:          tpm,
		ErrorCount:              h.errorCount,
		OverrunCount:            h.overruns,
		LastTickDurationMS:      h.lastTickMS,
		AvgTickDurationMS:       h.avgTickMS,
		AgentsProcessedLastTick: h.agentsLast,
		QueueDepth:              queueDepth,
	}
}
