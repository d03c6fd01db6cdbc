// Command villagesim runs the village simulation: a handful of LLM-driven
// villagers living out tick-by-tick days, observable over an HTTP API.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/api"
	"github.com/talgya/villagesim/internal/config"
	"github.com/talgya/villagesim/internal/engine"
	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/llm"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/persistence"
	"github.com/talgya/villagesim/internal/seed"
	"github.com/talgya/villagesim/internal/weather"
	"github.com/talgya/villagesim/internal/world"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("cannot create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("cannot open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	w := world.NewStore()
	w.SetDayHours(cfg.DayStartHour, cfg.DayEndHour)
	bus := events.NewBus(cfg.EventHistoryCap)
	mem := memory.NewStore(memory.Caps(cfg.Memory))
	goalEngine := goals.NewEngine(w)

	if db.HasSnapshot() {
		if err := restore(db, w, mem, goalEngine); err != nil {
			slog.Error("cannot restore snapshot", "error", err)
			os.Exit(1)
		}
		clock := w.Clock()
		slog.Info("world restored", "tick", clock.CurrentTick, "day", clock.CurrentDay)
	} else {
		if err := seed.Apply(w); err != nil {
			slog.Error("cannot seed village", "error", err)
			os.Exit(1)
		}
		slog.Info("village seeded", "agents", len(w.AgentIDs()), "locations", len(w.Locations()))
	}

	cache := llm.NewCache(cfg.LLMCacheSize, time.Duration(cfg.LLMCacheTTLSeconds)*time.Second)
	tracker := llm.NewUsageTracker(llm.DefaultUsageRing)

	var client llm.Client
	useLLM := cfg.UseLLM && cfg.LLMAPIKey != ""
	if useLLM {
		client = llm.NewAnthropicClient(cfg.LLMAPIKey, cfg.LLMModel, cache, tracker)
		slog.Info("LLM decisions enabled", "model", cfg.LLMModel)
	} else {
		client = llm.NewMockClient(nil, tracker)
		slog.Info("LLM decisions disabled, agents will wait and observe")
	}

	executor := actions.NewExecutor(w)
	decider := &engine.Decider{
		World:  w,
		Goals:  goalEngine,
		Memory: mem,
		Client: client,
		UseLLM: useLLM,
	}
	health := engine.NewHealth()

	sched := engine.NewScheduler(engine.Options{
		TickInterval:  time.Duration(cfg.TickIntervalSeconds) * time.Second,
		TickMinutes:   float64(cfg.TickIntervalSeconds), // 1 real second = 1 world minute
		SnapshotEvery: cfg.SnapshotEveryTicks,
	}, w, bus, executor, decider, mem, goalEngine, weather.NewGenerator(cfg.Seed), health)
	if useLLM {
		sched.Summarizer = &llm.DaySummarizer{Client: client}
	}
	sched.Snapshot = func() error {
		return db.SaveSnapshot(snapshot(w, mem, goalEngine, bus))
	}

	server := &api.Server{
		World:     w,
		Bus:       bus,
		Goals:     goalEngine,
		Memory:    mem,
		Usage:     tracker,
		Scheduler: sched,
		Health:    health,
		Port:      cfg.HTTPPort,
	}
	server.Start()

	if err := sched.Start(); err != nil {
		slog.Error("cannot start scheduler", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	sched.Stop()
	if err := db.SaveSnapshot(snapshot(w, mem, goalEngine, bus)); err != nil {
		slog.Error("final snapshot failed", "error", err)
	}

	totals := tracker.Totals()
	slog.Info("village at rest",
		"tick", w.Clock().CurrentTick,
		"llm_calls", totals.TotalCalls,
		"tokens", humanize.Comma(int64(totals.TokensIn+totals.TokensOut)),
		"cost_usd", totals.TotalCostUSD,
	)
}

// snapshot collects everything worth persisting.
func snapshot(w *world.Store, mem *memory.Store, g *goals.Engine, bus *events.Bus) persistence.Snapshot {
	return persistence.Snapshot{
		Clock:         w.Clock(),
		Agents:        w.Agents(),
		Locations:     w.Locations(),
		Relationships: w.Relationships(),
		Memories:      mem.All(),
		Goals:         g.All(),
		Events:        bus.History(100),
	}
}

// restore rebuilds the in-memory stores from the last saved snapshot.
func restore(db *persistence.DB, w *world.Store, mem *memory.Store, g *goals.Engine) error {
	snap, err := db.LoadSnapshot()
	if err != nil {
		return err
	}
	for _, l := range snap.Locations {
		if err := w.AddLocation(l); err != nil {
			return err
		}
	}
	for _, a := range snap.Agents {
		if err := w.AddAgent(a); err != nil {
			return err
		}
	}
	if err := w.Update(func(tx *world.Tx) error {
		for _, r := range snap.Relationships {
			tx.PutRelationship(r)
		}
		return nil
	}); err != nil {
		return err
	}
	w.SetClock(snap.Clock)
	mem.Restore(snap.Memories)
	g.Restore(snap.Goals)
	return nil
}
