// Package api provides the HTTP API for observing the village.
// All endpoints are read-only GETs; /api/v1/stream pushes live events
// over SSE.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/llm"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/world"
)

const maxSSEConns = 8

// Server serves the village state over HTTP.
type Server struct {
	World     *world.Store
	Bus       *events.Bus
	Goals     *goals.Engine
	Memory    *memory.Store
	Usage     *llm.UsageTracker
	Scheduler *engine.Scheduler
	Health    *engine.Health
	Port      int

	// Active SSE connection count (atomic).
	sseConns int32
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentDetail)
	mux.HandleFunc("/api/v1/relationships", s.handleRelationships)
	mux.HandleFunc("/api/v1/goals", s.handleGoals)
	mux.HandleFunc("/api/v1/positions", s.handlePositions)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/events/rate", s.handleEventRate)
	mux.HandleFunc("/api/v1/usage", s.handleUsage)
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	clock := s.World.Clock()
	writeJSON(w, map[string]any{
		"tick":           clock.CurrentTick,
		"day":            clock.CurrentDay,
		"hour":           clock.CurrentHour,
		"season":         clock.Season.String(),
		"weather":        clock.Weather,
		"agent_count":    len(s.World.AgentIDs()),
		"location_count": len(s.World.Locations()),
		"running":        s.Scheduler.State() == engine.StateRunning,
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	type agentSummary struct {
		ID       world.AgentID    `json:"id"`
		Name     string           `json:"name"`
		Location world.LocationID `json:"location"`
		State    string           `json:"state"`
		Needs    world.Needs      `json:"needs"`
		Mood     world.Mood       `json:"mood"`
	}

	agents := s.World.Agents()
	out := make([]agentSummary, 0, len(agents))
	for _, a := range agents {
		out = append(out, agentSummary{
			ID: a.ID, Name: a.Name, Location: a.LocationID,
			State: a.State.String(), Needs: a.Needs, Mood: a.Mood,
		})
	}
	writeJSON(w, out)
}

// handleAgentDetail serves GET /api/v1/agent/{id}: full agent record plus
// its goals, relationships, and a memory sample.
func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	id := world.AgentID(strings.TrimPrefix(r.URL.Path, "/api/v1/agent/"))
	agent, ok := s.World.Agent(id)
	if !ok {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}

	var rels []world.Relationship
	for _, rel := range s.World.Relationships() {
		if rel.AgentID == id {
			rels = append(rels, rel)
		}
	}

	writeJSON(w, map[string]any{
		"agent":         agent,
		"goals":         s.Goals.Active(id),
		"relationships": rels,
		"memories": map[string]any{
			"working":  s.Memory.GetWorking(id, 10),
			"recent":   s.Memory.GetRecent(id, 7),
			"longterm": s.Memory.GetLongterm(id, 10),
		},
	})
}

// handleRelationships serves the social graph as nodes and directed edges.
func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	type node struct {
		ID   world.AgentID `json:"id"`
		Name string        `json:"name"`
	}
	type edge struct {
		Source world.AgentID `json:"source"`
		Target world.AgentID `json:"target"`
		Type   string        `json:"type"`
		Score  int           `json:"score"`
	}

	agents := s.World.Agents()
	nodes := make([]node, 0, len(agents))
	for _, a := range agents {
		nodes = append(nodes, node{ID: a.ID, Name: a.Name})
	}

	rels := s.World.Relationships()
	edges := make([]edge, 0, len(rels))
	for _, rel := range rels {
		edges = append(edges, edge{Source: rel.AgentID, Target: rel.TargetID, Type: rel.Type, Score: rel.Score})
	}

	writeJSON(w, map[string]any{"nodes": nodes, "edges": edges})
}

// handleGoals serves every agent's goals, optionally filtered by ?agent=
// and ?status=.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	var status goals.Status
	if q := r.URL.Query().Get("status"); q != "" {
		st, ok := goals.ParseStatus(q)
		if !ok {
			http.Error(w, "unknown goal status", http.StatusBadRequest)
			return
		}
		status = st
	}

	ids := s.World.AgentIDs()
	if q := r.URL.Query().Get("agent"); q != "" {
		id := world.AgentID(q)
		if _, ok := s.World.Agent(id); !ok {
			http.Error(w, "unknown agent", http.StatusNotFound)
			return
		}
		ids = []world.AgentID{id}
	}

	out := make(map[world.AgentID][]goals.Goal)
	for _, id := range ids {
		out[id] = s.Goals.ByStatus(id, status)
	}
	writeJSON(w, out)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	out := make(map[world.LocationID][]string)
	for _, loc := range s.World.Locations() {
		out[loc.ID] = []string{}
	}
	for _, a := range s.World.Agents() {
		out[a.LocationID] = append(out[a.LocationID], a.Name)
	}
	writeJSON(w, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	history := s.Bus.History(0)

	// Optional type filter.
	if t := r.URL.Query().Get("type"); t != "" {
		typ, ok := events.ParseType(t)
		if !ok {
			http.Error(w, "unknown event type", http.StatusBadRequest)
			return
		}
		var filtered []events.Event
		for _, e := range history {
			if e.Type == typ {
				filtered = append(filtered, e)
			}
		}
		history = filtered
	}

	start := 0
	if len(history) > limit {
		start = len(history) - limit
	}
	writeJSON(w, history[start:])
}

// handleEventRate buckets recent events per type over the last ?minutes=
// (default 10), at a bucket size of ?bucket= minutes (default 1). Buckets
// run oldest to newest.
func (s *Server) handleEventRate(w http.ResponseWriter, r *http.Request) {
	minutes := 10
	if m := r.URL.Query().Get("minutes"); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 && n <= 120 {
			minutes = n
		}
	}
	bucket := 1
	if b := r.URL.Query().Get("bucket"); b != "" {
		if n, err := strconv.Atoi(b); err == nil && n > 0 && n <= minutes {
			bucket = n
		}
	}

	type rateBucket struct {
		Start  int64          `json:"start"`
		Total  int            `json:"total"`
		ByType map[string]int `json:"by_type"`
	}

	now := time.Now().Unix()
	windowStart := now - int64(minutes)*60
	nBuckets := (minutes + bucket - 1) / bucket
	buckets := make([]rateBucket, nBuckets)
	for i := range buckets {
		buckets[i] = rateBucket{
			Start:  windowStart + int64(i*bucket)*60,
			ByType: make(map[string]int),
		}
	}

	total := 0
	for _, e := range s.Bus.History(0) {
		if e.Timestamp < windowStart {
			continue
		}
		i := int((e.Timestamp - windowStart) / (int64(bucket) * 60))
		if i >= nBuckets {
			i = nBuckets - 1
		}
		buckets[i].Total++
		buckets[i].ByType[string(e.Type)]++
		total++
	}

	writeJSON(w, map[string]any{
		"window_minutes": minutes,
		"bucket_minutes": bucket,
		"total":          total,
		"per_minute":     float64(total) / float64(minutes),
		"buckets":        buckets,
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Usage.Totals())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.Health.Snapshot(s.Bus.Subscribers())
	if snap.Status != "healthy" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(snap)
		return
	}
	writeJSON(w, snap)
}

// handleStream provides an SSE endpoint for real-time event streaming.
// Limits concurrent connections; sends recent history as catch-up.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub := s.Bus.Subscribe()
	defer s.Bus.Unsubscribe(sub)

	// Catch-up with the last 20 events before going live.
	for _, e := range s.Bus.History(20) {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", sub.ID)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", sub.ID)
			return
		}
	}
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, e events.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
