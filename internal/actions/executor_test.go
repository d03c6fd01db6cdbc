package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/world"
)

func testWorld(t *testing.T) *world.Store {
	t.Helper()
	s := world.NewStore()
	require.NoError(t, s.AddLocation(world.Location{
		ID: "square", Name: "Square",
		Connections: []world.LocationID{"inn", "garden"},
		Objects:     []world.ItemID{"fountain"},
	}))
	require.NoError(t, s.AddLocation(world.Location{
		ID: "inn", Name: "Inn",
		Connections: []world.LocationID{"square"},
	}))
	require.NoError(t, s.AddLocation(world.Location{
		ID: "garden", Name: "Garden",
		Connections: []world.LocationID{"square"},
	}))
	require.NoError(t, s.AddAgent(world.Agent{
		ID: "ana", Name: "Ana", LocationID: "square",
		Inventory: []world.ItemID{"bread"},
		Needs:     world.Needs{Hunger: 5, Energy: 5, Social: 5},
	}))
	require.NoError(t, s.AddAgent(world.Agent{
		ID: "ben", Name: "Ben", LocationID: "square",
		Needs: world.Needs{Hunger: 5, Energy: 5, Social: 5},
	}))
	require.NoError(t, s.AddAgent(world.Agent{
		ID: "cora", Name: "Cora", LocationID: "inn",
		Needs: world.Needs{Hunger: 5, Energy: 5, Social: 5},
	}))
	return s
}

func TestMoveThenGreet(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, ev := e.Execute(Action{Verb: VerbMove, ActorID: "cora", TargetObject: "square"})
	require.True(t, res.Success)
	require.NotNil(t, ev)
	assert.Equal(t, events.TypeMovement, ev.Type)
	assert.Equal(t, world.LocationID("square"), ev.LocationID)

	res, ev = e.Execute(Action{Verb: VerbGreet, ActorID: "cora", TargetID: "ana"})
	require.True(t, res.Success)
	assert.Equal(t, events.TypeDialogue, ev.Type)
	assert.ElementsMatch(t, []world.AgentID{"cora", "ana"}, ev.Actors)

	r, ok := w.Relationship("cora", "ana")
	require.True(t, ok)
	assert.Equal(t, "stranger", r.Type)
	assert.Equal(t, 1, r.Score)
}

func TestMoveToUnconnectedLocationFails(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	// Inn connects only to the square, not the garden.
	res, ev := e.Execute(Action{Verb: VerbMove, ActorID: "cora", TargetObject: "garden"})
	assert.False(t, res.Success)
	assert.Nil(t, ev)
	assert.NotEmpty(t, res.Reason)

	c, _ := w.Agent("cora")
	assert.Equal(t, world.LocationID("inn"), c.LocationID)
}

func TestHelpAsymmetricDeltas(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{
		Verb: VerbHelp, ActorID: "ana", TargetID: "ben",
		Params: map[string]string{"task": "mending the fence"},
	})
	require.True(t, res.Success)

	// Target appreciates more than the helper warms.
	fromBen, _ := w.Relationship("ben", "ana")
	fromAna, _ := w.Relationship("ana", "ben")
	assert.Equal(t, 2, fromBen.Score)
	assert.Equal(t, 1, fromAna.Score)
}

func TestTalkRaisesSocialBothWays(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{
		Verb: VerbTalk, ActorID: "ana", TargetID: "ben",
		Params: map[string]string{"topic": "the harvest"},
	})
	require.True(t, res.Success)

	a, _ := w.Agent("ana")
	b, _ := w.Agent("ben")
	assert.InDelta(t, 6.0, a.Needs.Social, 1e-9)
	assert.InDelta(t, 6.0, b.Needs.Social, 1e-9)

	ab, _ := w.Relationship("ana", "ben")
	ba, _ := w.Relationship("ben", "ana")
	assert.Equal(t, 1, ab.Score)
	assert.Equal(t, 1, ba.Score)
}

func TestSocialActionNeedsCoLocation(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, ev := e.Execute(Action{Verb: VerbTalk, ActorID: "ana", TargetID: "cora"})
	assert.False(t, res.Success)
	assert.Nil(t, ev)
}

func TestSocialActionRejectsSelf(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{Verb: VerbConfront, ActorID: "ana", TargetID: "ana"})
	assert.False(t, res.Success)
}

func TestGiveTransfersItem(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{Verb: VerbGive, ActorID: "ana", TargetID: "ben", TargetObject: "bread"})
	require.True(t, res.Success)

	a, _ := w.Agent("ana")
	b, _ := w.Agent("ben")
	assert.False(t, a.HasItem("bread"))
	assert.True(t, b.HasItem("bread"))

	ab, _ := w.Relationship("ana", "ben")
	ba, _ := w.Relationship("ben", "ana")
	assert.Equal(t, 2, ab.Score)
	assert.Equal(t, 2, ba.Score)
}

func TestGiveWithoutItemFails(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{Verb: VerbGive, ActorID: "ben", TargetID: "ana", TargetObject: "bread"})
	assert.False(t, res.Success)

	a, _ := w.Agent("ana")
	assert.True(t, a.HasItem("bread"))
}

func TestConfrontDamagesBothEdges(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, ev := e.Execute(Action{
		Verb: VerbConfront, ActorID: "ana", TargetID: "ben",
		Params: map[string]string{"accusation": "the missing flour"},
	})
	require.True(t, res.Success)
	assert.Equal(t, 7, ev.Significance)

	fromBen, _ := w.Relationship("ben", "ana")
	fromAna, _ := w.Relationship("ana", "ben")
	assert.Equal(t, -2, fromBen.Score)
	assert.Equal(t, -1, fromAna.Score)
}

func TestAvoidWorksAtDistance(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{Verb: VerbAvoid, ActorID: "ana", TargetID: "cora"})
	require.True(t, res.Success)

	r, _ := w.Relationship("ana", "cora")
	assert.Equal(t, -1, r.Score)
}

func TestGossipNeedsThirdParty(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{
		Verb: VerbGossip, ActorID: "ana", TargetID: "ben",
		Params: map[string]string{"subject": "ben"},
	})
	assert.False(t, res.Success)

	res, _ = e.Execute(Action{
		Verb: VerbGossip, ActorID: "ana", TargetID: "ben",
		Params: map[string]string{"subject": "cora", "rumor": "keeps odd hours"},
	})
	require.True(t, res.Success)

	toListener, _ := w.Relationship("ana", "ben")
	toSubject, _ := w.Relationship("ana", "cora")
	assert.Equal(t, 1, toListener.Score)
	assert.Equal(t, -1, toSubject.Score)
}

func TestTakeAndDrop(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{Verb: VerbTake, ActorID: "ana", TargetObject: "fountain"})
	require.True(t, res.Success)
	a, _ := w.Agent("ana")
	assert.True(t, a.HasItem("fountain"))

	res, _ = e.Execute(Action{Verb: VerbDrop, ActorID: "ana", TargetObject: "fountain"})
	require.True(t, res.Success)

	res, _ = e.Execute(Action{Verb: VerbDrop, ActorID: "ana", TargetObject: "fountain"})
	assert.False(t, res.Success)
}

func TestWorkAdjustsNeeds(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, _ := e.Execute(Action{Verb: VerbWork, ActorID: "ana", Params: map[string]string{"kind": "baking"}})
	require.True(t, res.Success)

	a, _ := w.Agent("ana")
	assert.InDelta(t, 5.5, a.Needs.Hunger, 1e-9)
	assert.InDelta(t, 4.0, a.Needs.Energy, 1e-9)
}

func TestSleepingAgentCanOnlySleep(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)
	w.Update(func(tx *world.Tx) error { return tx.SetState("ana", world.StateSleeping) })

	res, ev := e.Execute(Action{Verb: VerbTalk, ActorID: "ana", TargetID: "ben"})
	assert.False(t, res.Success)
	assert.Nil(t, ev)

	res, _ = e.Execute(Action{Verb: VerbSleep, ActorID: "ana"})
	assert.True(t, res.Success)
}

func TestUnknownActorFails(t *testing.T) {
	w := testWorld(t)
	e := NewExecutor(w)

	res, ev := e.Execute(Action{Verb: VerbWait, ActorID: "ghost"})
	assert.False(t, res.Success)
	assert.Nil(t, ev)
}

func TestParseVerb(t *testing.T) {
	v, ok := ParseVerb("gossip")
	require.True(t, ok)
	assert.Equal(t, VerbGossip, v)
	assert.Equal(t, CategorySocial, Action{Verb: v}.Category())

	_, ok = ParseVerb("teleport")
	assert.False(t, ok)
}

func TestEventTypeMapping(t *testing.T) {
	assert.Equal(t, events.TypeDialogue, Action{Verb: VerbGossip}.EventType())
	assert.Equal(t, events.TypeMovement, Action{Verb: VerbMove}.EventType())
	assert.Equal(t, events.TypeAction, Action{Verb: VerbExamine}.EventType())
	assert.Equal(t, events.TypeAction, Action{Verb: VerbInvestigate}.EventType())
	assert.Equal(t, events.TypeAction, Action{Verb: VerbWork}.EventType())
}
