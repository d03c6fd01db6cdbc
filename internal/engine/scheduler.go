// Tick scheduler, the single writer driving the simulation. A tick advances
// time, updates needs, runs every agent's turn, and meters health.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/world"
)

// State is the scheduler lifecycle: stopped → running → stopping → stopped.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

// WeatherSource produces a weather description for a given day.
type WeatherSource interface {
	Describe(day int, season world.Season) string
}

// Options configure a Scheduler.
type Options struct {
	TickInterval  time.Duration // Real time between tick boundaries
	TickMinutes   float64       // In-world minutes advanced per tick
	SnapshotEvery uint64        // Persist every N ticks; 0 disables
}

// Scheduler runs the periodic tick loop. One tick is atomic with respect to
// readers; a failing tick is isolated and the loop continues.
type Scheduler struct {
	opts     Options
	world    *world.Store
	bus      *events.Bus
	executor *actions.Executor
	decider  *Decider
	memory   *memory.Store
	goals    *goals.Engine
	weather  WeatherSource
	health   *Health

	// Summarizer for end-of-day memory compression; nil uses heuristics.
	Summarizer memory.Summarizer

	// Snapshot persists world state when set.
	Snapshot func() error

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler wires a scheduler over the core components.
func NewScheduler(opts Options, w *world.Store, bus *events.Bus, exec *actions.Executor,
	dec *Decider, mem *memory.Store, g *goals.Engine, weather WeatherSource, health *Health) *Scheduler {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 30 * time.Second
	}
	if opts.TickMinutes <= 0 {
		opts.TickMinutes = 30
	}
	return &Scheduler{
		opts:     opts,
		world:    w,
		bus:      bus,
		executor: exec,
		decider:  dec,
		memory:   mem,
		goals:    g,
		weather:  weather,
		health:   health,
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start transitions to running and spawns the tick loop. Restart after a
// Stop is permitted.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		return errors.New("scheduler is not stopped")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateRunning
	go s.run(ctx)
	slog.Info("scheduler started",
		"tick_interval", s.opts.TickInterval, "tick_minutes", s.opts.TickMinutes)
	return nil
}

// Stop requests cancellation and waits for the loop to finish. A tick in
// progress aborts at the next suspension point; its partial work is not
// announced with a tick event.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	slog.Info("scheduler stopped", "tick", s.world.Clock().CurrentTick)
}

// run sleeps until each tick boundary (start + n·interval) and executes one
// tick. An overrun schedules the next tick immediately; ticks never overlap.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	start := time.Now()
	for n := uint64(1); ; n++ {
		boundary := start.Add(time.Duration(n) * s.opts.TickInterval)
		wait := time.Until(boundary)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else {
			if ctx.Err() != nil {
				return
			}
			if n > 1 {
				s.health.RecordOverrun()
				slog.Warn("tick overran its interval", "tick", n, "behind", -wait)
			}
		}
		s.tick(ctx)
	}
}

// tick executes one atomic tick sequence. Failures of individual agents are
// contained per agent; a tick-level failure is counted and the loop moves on.
func (s *Scheduler) tick(ctx context.Context) {
	tickStart := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.health.RecordError()
			slog.Error("tick failed", "panic", fmt.Sprint(r), "tick", s.world.Clock().CurrentTick)
		}
	}()

	dayRolled := s.world.AdvanceTime(s.opts.TickMinutes)
	s.world.WakeSleepingAgents()
	s.world.PutAgentsToSleep()

	processed := 0
	for _, id := range s.world.AgentIDs() {
		if ctx.Err() != nil {
			// Cooperative abort mid-tick: no tick event for this tick.
			return
		}
		if s.agentTurn(ctx, id) {
			processed++
		}
	}

	if dayRolled {
		s.endOfDay()
	}

	clock := s.world.Clock()
	if s.Snapshot != nil && s.opts.SnapshotEvery > 0 && clock.CurrentTick%s.opts.SnapshotEvery == 0 {
		if err := s.Snapshot(); err != nil {
			s.health.RecordError()
			slog.Error("snapshot failed", "error", err, "tick", clock.CurrentTick)
		}
	}

	duration := time.Since(tickStart)
	s.health.RecordTick(duration, processed)
	s.bus.Publish(events.Event{
		Type:         events.TypeTick,
		Summary:      fmt.Sprintf("tick %d: day %d, %.1fh, %s", clock.CurrentTick, clock.CurrentDay, clock.CurrentHour, clock.Season),
		Timestamp:    time.Now().Unix(),
		Significance: 1,
		Data: map[string]any{
			"tick":        clock.CurrentTick,
			"day":         clock.CurrentDay,
			"hour":        clock.CurrentHour,
			"season":      clock.Season.String(),
			"weather":     clock.Weather,
			"processed":   processed,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// agentTurn runs one agent's phase of the tick. A panic inside the phase is
// contained: the error is counted and the other agents still run.
func (s *Scheduler) agentTurn(ctx context.Context, id world.AgentID) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.health.RecordError()
			slog.Error("agent turn failed", "agent", id, "panic", fmt.Sprint(r))
		}
	}()

	s.world.UpdateNeeds(id, s.opts.TickMinutes/60.0)

	agent, found := s.world.Agent(id)
	if !found {
		return false
	}
	if agent.State == world.StateSleeping {
		return true
	}

	action := s.decider.Decide(ctx, agent)
	result, ev := s.executor.Execute(action)
	if !result.Success {
		// Precondition failures are silent: no event, no error.
		slog.Debug("action rejected", "agent", id, "verb", action.Verb, "reason", result.Reason)
		return true
	}

	s.recordMemories(action, result, ev)
	s.reactTo(action)
	s.goals.Refresh(id)
	s.bus.Publish(*ev)
	return true
}

// recordMemories appends the acted event to the participants' working
// memories, scored from the event's circumstances.
func (s *Scheduler) recordMemories(action actions.Action, result actions.Result, ev *events.Event) {
	sig := memory.Score(memory.ScoreInput{
		Category:     string(ev.Type),
		InvolvesSelf: true,
	})
	if action.Significance() > sig {
		sig = action.Significance()
	}
	s.memory.Record(action.ActorID, memory.KindWorking, result.Message, sig, ev.Timestamp)
	if action.TargetID != "" {
		s.memory.Record(action.TargetID, memory.KindWorking, result.Message, sig, ev.Timestamp)
	}
}

// reactTo plants reactive goals triggered by hostile acts.
func (s *Scheduler) reactTo(action actions.Action) {
	if action.Verb != actions.VerbConfront || action.TargetID == "" {
		return
	}
	target, ok := s.world.Agent(action.TargetID)
	if !ok {
		return
	}
	actor, _ := s.world.Agent(action.ActorID)
	s.goals.AddReactive(target.ID, goals.TypeSeekRevenge, action.ActorID,
		fmt.Sprintf("%s wants to get back at %s", target.Name, actor.Name), 0)
}

// endOfDay runs the day-boundary work: refresh weather, decay memory
// significance, and compress every agent's working memories.
func (s *Scheduler) endOfDay() {
	clock := s.world.Clock()
	now := time.Now().Unix()

	if s.weather != nil {
		desc := s.weather.Describe(clock.CurrentDay, clock.Season)
		s.world.SetWeather(desc)
		slog.Info("weather shifts", "day", clock.CurrentDay, "season", clock.Season.String(), "weather", desc)
	}

	s.memory.Decay(now)
	for _, a := range s.world.Agents() {
		s.memory.CompressDay(a.ID, a.Name, now, s.Summarizer)
	}

	s.bus.Publish(events.Event{
		Type:         events.TypeSystem,
		Summary:      fmt.Sprintf("day %d dawns over the village (%s)", clock.CurrentDay, clock.Season),
		Timestamp:    now,
		Significance: 2,
		Data: map[string]any{
			"day":     clock.CurrentDay,
			"season":  clock.Season.String(),
			"weather": clock.Weather,
		},
	})
}
