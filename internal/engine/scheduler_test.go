package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/llm"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/world"
)

// panickyClient blows up for one agent and answers normally for the rest.
type panickyClient struct {
	victim string
	inner  llm.Client
}

func (p *panickyClient) Complete(ctx context.Context, req llm.Request) llm.Response {
	if req.AgentID == p.victim {
		panic("simulated decider failure")
	}
	return p.inner.Complete(ctx, req)
}

func testScheduler(t *testing.T, client llm.Client, interval time.Duration) (*Scheduler, *world.Store, *events.Bus, *Health) {
	t.Helper()
	w := deciderWorld(t)
	bus := events.NewBus(100)
	mem := memory.NewStore(memory.Caps{})
	g := goals.NewEngine(w)
	health := NewHealth()
	dec := &Decider{World: w, Goals: g, Memory: mem, Client: client, UseLLM: true}
	s := NewScheduler(Options{TickInterval: interval, TickMinutes: 30},
		w, bus, actions.NewExecutor(w), dec, mem, g, nil, health)
	return s, w, bus, health
}

func waitForTick(t *testing.T, sub *events.Subscription) events.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-sub.C:
			if e.Type == events.TypeTick {
				return e
			}
		case <-deadline:
			t.Fatal("no tick event before deadline")
		}
	}
}

func TestSchedulerAdvancesClock(t *testing.T) {
	s, w, bus, _ := testScheduler(t, llm.NewMockClient([]string{"ACTION: wait"}, nil), 5*time.Millisecond)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	require.NoError(t, s.Start())
	ev := waitForTick(t, sub)
	s.Stop()

	assert.Equal(t, StateStopped, s.State())
	assert.GreaterOrEqual(t, w.Clock().CurrentTick, uint64(1))
	assert.Equal(t, 3, ev.Data["processed"])
}

func TestSchedulerAgentFailureIsIsolated(t *testing.T) {
	client := &panickyClient{victim: "ben", inner: llm.NewMockClient([]string{"ACTION: wait"}, nil)}
	s, _, bus, health := testScheduler(t, client, 5*time.Millisecond)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	require.NoError(t, s.Start())
	ev := waitForTick(t, sub)
	s.Stop()

	// Ben's turn failed but the tick still completed for the others.
	assert.Equal(t, 2, ev.Data["processed"])
	assert.GreaterOrEqual(t, health.Snapshot(0).ErrorCount, uint64(1))
}

func TestSchedulerCountsOverruns(t *testing.T) {
	// An interval far shorter than a tick takes to run makes every tick
	// after the first miss its boundary.
	s, _, bus, health := testScheduler(t, llm.NewMockClient([]string{"ACTION: wait"}, nil), time.Nanosecond)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	require.NoError(t, s.Start())
	waitForTick(t, sub)
	waitForTick(t, sub)
	s.Stop()

	assert.GreaterOrEqual(t, health.Snapshot(0).OverrunCount, uint64(1))
}

func TestSchedulerRestart(t *testing.T) {
	s, _, bus, _ := testScheduler(t, llm.NewMockClient(nil, nil), 5*time.Millisecond)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start()) // Already running
	s.Stop()
	s.Stop() // Idempotent

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	require.NoError(t, s.Start())
	waitForTick(t, sub)
	s.Stop()
}

func TestSchedulerSnapshotHook(t *testing.T) {
	s, _, bus, _ := testScheduler(t, llm.NewMockClient(nil, nil), 5*time.Millisecond)
	s.opts.SnapshotEvery = 1

	saved := make(chan struct{}, 16)
	s.Snapshot = func() error {
		select {
		case saved <- struct{}{}:
		default:
		}
		return nil
	}

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	require.NoError(t, s.Start())
	waitForTick(t, sub)
	s.Stop()

	select {
	case <-saved:
	default:
		t.Fatal("snapshot hook never ran")
	}
}

func TestSchedulerRecordsMemories(t *testing.T) {
	s, _, bus, _ := testScheduler(t, llm.NewMockClient([]string{"ACTION: greet Ben"}, nil), 5*time.Millisecond)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	require.NoError(t, s.Start())
	waitForTick(t, sub)
	s.Stop()

	// At least one greeting landed in someone's working memory.
	total := 0
	for _, id := range []world.AgentID{"ana", "ben", "cora"} {
		total += s.memory.Count(id, memory.KindWorking)
	}
	assert.Greater(t, total, 0)
}

func TestConfrontPlantsRevengeGoal(t *testing.T) {
	s, _, _, _ := testScheduler(t, llm.NewMockClient(nil, nil), time.Hour)

	s.reactTo(actions.Action{Verb: actions.VerbConfront, ActorID: "ana", TargetID: "ben"})

	active := s.goals.Active("ben")
	require.Len(t, active, 1)
	assert.Equal(t, goals.TypeSeekRevenge, active[0].Type)
	assert.Equal(t, world.AgentID("ana"), active[0].TargetID)
}

func TestEndOfDayCompressesMemories(t *testing.T) {
	s, _, bus, _ := testScheduler(t, llm.NewMockClient(nil, nil), time.Hour)
	s.memory.Record("ana", memory.KindWorking, "a long day of baking", 4, 1)

	s.endOfDay()

	assert.Equal(t, 0, s.memory.Count("ana", memory.KindWorking))
	assert.Equal(t, 1, s.memory.Count("ana", memory.KindRecent))

	h := bus.History(0)
	require.NotEmpty(t, h)
	assert.Equal(t, events.TypeSystem, h[len(h)-1].Type)
}
