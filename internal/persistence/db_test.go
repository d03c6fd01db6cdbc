package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		Clock: world.Clock{
			CurrentTick: 123, CurrentDay: 31, CurrentHour: 14.5,
			Season: world.SeasonSummer, Weather: "warm with a light breeze",
		},
		Agents: []world.Agent{
			{
				ID: "ana", Name: "Ana",
				Traits:     world.Traits{Curiosity: 5, Kindness: 8},
				Prompt:     "Ana runs the bakery.",
				LocationID: "bakery",
				Inventory:  []world.ItemID{"rolling_pin"},
				Mood:       world.Mood{Happiness: 6, Energy: 7},
				Needs:      world.Needs{Hunger: 3.5, Energy: 6.2, Social: 4.8},
				State:      world.StateSleeping,
			},
		},
		Locations: []world.Location{
			{
				ID: "bakery", Name: "The Bakery", Description: "warm and floury",
				Connections: []world.LocationID{"square"},
				Objects:     []world.ItemID{"oven"},
				Capacity:    4,
			},
		},
		Relationships: []world.Relationship{
			{AgentID: "ana", TargetID: "ben", Type: "friend", Score: 4, History: []string{"a kind winter"}},
		},
		Memories: []memory.Memory{
			{AgentID: "ana", Kind: memory.KindLongterm, Content: "Ben is a friend",
				Significance: 7, BaseSignificance: 7, Timestamp: 900, Compressed: true},
		},
		Goals: []goals.Goal{
			{AgentID: "ana", Type: goals.TypeEat, Priority: 7,
				Description: "Ana is hungry", Status: goals.StatusActive,
				CreatedAt: time.Unix(1000, 0)},
		},
		Events: []events.Event{
			{Type: events.TypeDialogue, Summary: "Ana greets Ben", Timestamp: 950,
				Actors: []world.AgentID{"ana", "ben"}, LocationID: "bakery",
				Significance: 2, Data: map[string]any{"verb": "greet"}},
		},
	}
}

func TestHasSnapshotBeforeAndAfterSave(t *testing.T) {
	db := openTestDB(t)
	assert.False(t, db.HasSnapshot())

	require.NoError(t, db.SaveSnapshot(sampleSnapshot()))
	assert.True(t, db.HasSnapshot())
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	want := sampleSnapshot()
	require.NoError(t, db.SaveSnapshot(want))

	got, err := db.LoadSnapshot()
	require.NoError(t, err)

	assert.Equal(t, want.Clock, got.Clock)
	require.Len(t, got.Agents, 1)
	assert.Equal(t, want.Agents[0], got.Agents[0])
	require.Len(t, got.Locations, 1)
	assert.Equal(t, want.Locations[0], got.Locations[0])
	require.Len(t, got.Relationships, 1)
	assert.Equal(t, want.Relationships[0], got.Relationships[0])
	require.Len(t, got.Memories, 1)
	assert.Equal(t, want.Memories[0], got.Memories[0])
	require.Len(t, got.Goals, 1)
	assert.Equal(t, want.Goals[0].Type, got.Goals[0].Type)
	assert.True(t, want.Goals[0].CreatedAt.Equal(got.Goals[0].CreatedAt))
}

func TestSaveSnapshotReplacesPrevious(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveSnapshot(sampleSnapshot()))

	next := sampleSnapshot()
	next.Clock.CurrentTick = 456
	next.Agents[0].Needs.Hunger = 9
	require.NoError(t, db.SaveSnapshot(next))

	got, err := db.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(456), got.Clock.CurrentTick)
	require.Len(t, got.Agents, 1)
	assert.Equal(t, 9.0, got.Agents[0].Needs.Hunger)
}

func TestRecentEvents(t *testing.T) {
	db := openTestDB(t)
	snap := sampleSnapshot()
	snap.Events = append(snap.Events, events.Event{
		Type: events.TypeMovement, Summary: "Ana heads to the square",
		Timestamp: 960, Actors: []world.AgentID{"ana"}, LocationID: "square",
		Significance: 2, Data: map[string]any{"verb": "move"},
	})
	require.NoError(t, db.SaveSnapshot(snap))

	evs, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	// Oldest first.
	assert.Equal(t, "Ana greets Ben", evs[0].Summary)
	assert.Equal(t, "Ana heads to the square", evs[1].Summary)

	one, err := db.RecentEvents(1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Ana heads to the square", one[0].Summary)
}

func TestLoadEmptyDatabase(t *testing.T) {
	db := openTestDB(t)
	got, err := db.LoadSnapshot()
	require.NoError(t, err)
	assert.Empty(t, got.Agents)
	assert.Equal(t, 1, got.Clock.CurrentDay)
}
