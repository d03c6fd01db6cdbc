package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/llm"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/seed"
	"github.com/talgya/villagesim/internal/world"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	w := world.NewStore()
	require.NoError(t, seed.Apply(w))

	bus := events.NewBus(100)
	mem := memory.NewStore(memory.Caps{})
	g := goals.NewEngine(w)
	health := engine.NewHealth()
	dec := &engine.Decider{World: w, Goals: g, Memory: mem, Client: llm.NewMockClient(nil, nil)}
	sched := engine.NewScheduler(engine.Options{TickInterval: time.Hour},
		w, bus, actions.NewExecutor(w), dec, mem, g, nil, health)

	return &Server{
		World:     w,
		Bus:       bus,
		Goals:     g,
		Memory:    mem,
		Usage:     llm.NewUsageTracker(10),
		Scheduler: sched,
		Health:    health,
	}
}

func get(t *testing.T, handler http.HandlerFunc, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var body map[string]any
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHandleStatus(t *testing.T) {
	s := testServer(t)
	rec, body := get(t, s.handleStatus, "/api/v1/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(6), body["agent_count"])
	assert.Equal(t, float64(8), body["location_count"])
	assert.Equal(t, false, body["running"])
	assert.Equal(t, "spring", body["season"])
}

func TestHandleAgents(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil)
	rec := httptest.NewRecorder()
	s.handleAgents(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var agents []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agents))
	assert.Len(t, agents, 6)
}

func TestHandleAgentDetail(t *testing.T) {
	s := testServer(t)
	rec, body := get(t, s.handleAgentDetail, "/api/v1/agent/agnes")

	require.Equal(t, http.StatusOK, rec.Code)
	agent := body["agent"].(map[string]any)
	assert.Equal(t, "Agnes", agent["name"])
	assert.Contains(t, body, "relationships")
	assert.Contains(t, body, "memories")
}

func TestHandleAgentDetailNotFound(t *testing.T) {
	s := testServer(t)
	rec, _ := get(t, s.handleAgentDetail, "/api/v1/agent/nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRelationshipsGraph(t *testing.T) {
	s := testServer(t)
	rec, body := get(t, s.handleRelationships, "/api/v1/relationships")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["nodes"], 6)
	assert.NotEmpty(t, body["edges"])
}

func TestHandleGoalsFilters(t *testing.T) {
	s := testServer(t)
	s.Goals.AddReactive("agnes", goals.TypeHelpFriend, "bob", "Agnes wants to lend Bob a hand", 0)

	rec, body := get(t, s.handleGoals, "/api/v1/goals?agent=agnes")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body, 1)
	assert.Len(t, body["agnes"], 1)

	rec, body = get(t, s.handleGoals, "/api/v1/goals?agent=agnes&status=active")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["agnes"], 1)

	rec, body = get(t, s.handleGoals, "/api/v1/goals?agent=agnes&status=completed")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["agnes"])

	rec, _ = get(t, s.handleGoals, "/api/v1/goals?agent=nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, s.handleGoals, "/api/v1/goals?status=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEventRateBuckets(t *testing.T) {
	s := testServer(t)
	now := time.Now().Unix()
	s.Bus.Publish(events.Event{Type: events.TypeDialogue, Summary: "a", Timestamp: now - 30})
	s.Bus.Publish(events.Event{Type: events.TypeMovement, Summary: "b", Timestamp: now - 30})
	s.Bus.Publish(events.Event{Type: events.TypeDialogue, Summary: "c", Timestamp: now - 4*60})
	s.Bus.Publish(events.Event{Type: events.TypeDialogue, Summary: "d", Timestamp: now - 60*60})

	rec, body := get(t, s.handleEventRate, "/api/v1/events/rate?minutes=10&bucket=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), body["bucket_minutes"])
	assert.Equal(t, float64(3), body["total"])

	buckets := body["buckets"].([]any)
	require.Len(t, buckets, 2)
	oldest := buckets[0].(map[string]any)
	newest := buckets[1].(map[string]any)
	assert.Equal(t, float64(0), oldest["total"])
	assert.Equal(t, float64(3), newest["total"])

	byType := newest["by_type"].(map[string]any)
	assert.Equal(t, float64(2), byType["dialogue"])
	assert.Equal(t, float64(1), byType["movement"])
}

func TestHandlePositions(t *testing.T) {
	s := testServer(t)
	rec, body := get(t, s.handlePositions, "/api/v1/positions")

	require.Equal(t, http.StatusOK, rec.Code)
	square := body["town_square"].([]any)
	assert.Contains(t, square, "Bob")
}

func TestHandleEventsFilterAndLimit(t *testing.T) {
	s := testServer(t)
	for i := 0; i < 5; i++ {
		s.Bus.Publish(events.Event{Type: events.TypeTick, Summary: "tick"})
	}
	s.Bus.Publish(events.Event{Type: events.TypeDialogue, Summary: "hello"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?type=dialogue", nil)
	rec := httptest.NewRecorder()
	s.handleEvents(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var evs []events.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evs))
	require.Len(t, evs, 1)
	assert.Equal(t, "hello", evs[0].Summary)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=2", nil)
	rec = httptest.NewRecorder()
	s.handleEvents(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evs))
	assert.Len(t, evs, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/events?type=earthquake", nil)
	rec = httptest.NewRecorder()
	s.handleEvents(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)
	rec, body := get(t, s.handleHealth, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	s.Health.RecordError()
	rec, _ = get(t, s.handleHealth, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleUsage(t *testing.T) {
	s := testServer(t)
	s.Usage.Record(llm.UsageRecord{Model: "mock", TokensIn: 10, TokensOut: 5})
	rec, body := get(t, s.handleUsage, "/api/v1/usage")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total_calls"])
}
