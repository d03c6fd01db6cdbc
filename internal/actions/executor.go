// Action execution: preconditions, effects, and the event each act emits.
// The executor is a closed dispatch on the verb; effects for one action are
// applied atomically under the world write lock.
package actions

import (
	"fmt"
	"time"

	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/world"
)

// Executor validates actions against world state and applies their effects.
type Executor struct {
	World *world.Store
}

// NewExecutor creates an executor bound to a world store.
func NewExecutor(w *world.Store) *Executor {
	return &Executor{World: w}
}

// Execute checks the action's preconditions and, if they hold, applies its
// effects. On success the returned event is non-nil and ready to publish;
// precondition failures return a reason, change nothing, and emit no event.
func (e *Executor) Execute(a Action) (Result, *events.Event) {
	var res Result
	e.World.Update(func(tx *world.Tx) error {
		res = e.apply(tx, a)
		return nil
	})
	if !res.Success {
		return res, nil
	}

	clock := e.World.Clock()
	actors := []world.AgentID{a.ActorID}
	if a.TargetID != "" {
		actors = append(actors, a.TargetID)
	}
	actor, _ := e.World.Agent(a.ActorID)
	ev := &events.Event{
		Type:         a.EventType(),
		Summary:      res.Message,
		Timestamp:    time.Now().Unix(),
		Actors:       actors,
		LocationID:   actor.LocationID,
		Significance: a.Significance(),
		Data: map[string]any{
			"verb":     string(a.Verb),
			"category": string(a.Category()),
			"tick":     clock.CurrentTick,
			"day":      clock.CurrentDay,
			"hour":     clock.CurrentHour,
		},
	}
	return res, ev
}

// apply runs under the world write lock.
func (e *Executor) apply(tx *world.Tx, a Action) Result {
	actor, ok := tx.Agent(a.ActorID)
	if !ok {
		return failure(fmt.Sprintf("no such agent %q", a.ActorID))
	}

	// A sleeping agent can do nothing except keep sleeping.
	if actor.State == world.StateSleeping && a.Verb != VerbSleep {
		return failure(fmt.Sprintf("%s is asleep", actor.Name))
	}

	switch a.Verb {
	case VerbMove:
		return e.applyMove(tx, actor, a)
	case VerbExamine:
		return e.applyExamine(tx, actor, a)
	case VerbTake:
		return e.applyTake(tx, actor, a)
	case VerbDrop:
		return e.applyDrop(tx, actor, a)
	case VerbUse:
		if a.TargetObject != "" && !actor.HasItem(world.ItemID(a.TargetObject)) {
			return failure(fmt.Sprintf("%s does not have %s", actor.Name, a.TargetObject))
		}
		return Result{Success: true, Message: fmt.Sprintf("%s uses %s", actor.Name, a.TargetObject)}
	case VerbWait:
		return Result{Success: true, Message: fmt.Sprintf("%s waits", actor.Name)}
	case VerbObserve:
		return Result{Success: true, Message: fmt.Sprintf("%s observes the surroundings", actor.Name)}
	case VerbSleep:
		tx.SetState(actor.ID, world.StateSleeping)
		return Result{Success: true, Message: fmt.Sprintf("%s goes to sleep", actor.Name)}
	case VerbWork:
		tx.AdjustNeed(actor.ID, "hunger", 0.5)
		tx.AdjustNeed(actor.ID, "energy", -1.0)
		kind := a.Params["kind"]
		if kind == "" {
			kind = "their trade"
		}
		return Result{Success: true, Message: fmt.Sprintf("%s works at %s", actor.Name, kind)}
	case VerbGreet:
		return e.applyGreet(tx, actor, a)
	case VerbTalk:
		return e.applyTalk(tx, actor, a)
	case VerbAsk, VerbTell:
		return e.applyAskTell(tx, actor, a)
	case VerbGive:
		return e.applyGive(tx, actor, a)
	case VerbHelp:
		return e.applyHelp(tx, actor, a)
	case VerbConfront:
		return e.applyConfront(tx, actor, a)
	case VerbAvoid:
		return e.applyAvoid(tx, actor, a)
	case VerbGossip:
		return e.applyGossip(tx, actor, a)
	case VerbInvestigate:
		subject := a.Params["subject"]
		if subject == "" {
			subject = a.TargetObject
		}
		return Result{Success: true, Message: fmt.Sprintf("%s investigates %s", actor.Name, subject)}
	case VerbScheme:
		return Result{Success: true, Message: fmt.Sprintf("%s schemes quietly", actor.Name)}
	case VerbConfess:
		return Result{Success: true, Message: fmt.Sprintf("%s confesses something", actor.Name)}
	}
	return failure(fmt.Sprintf("unknown action verb %q", a.Verb))
}

func (e *Executor) applyMove(tx *world.Tx, actor *world.Agent, a Action) Result {
	dest := world.LocationID(a.TargetObject)
	loc, ok := tx.Location(actor.LocationID)
	if !ok {
		return failure(fmt.Sprintf("%s is nowhere", actor.Name))
	}
	target, ok := tx.Location(dest)
	if !ok {
		return failure(fmt.Sprintf("no such place as %s", a.TargetObject))
	}
	if !loc.Connected(dest) {
		return failure(fmt.Sprintf("%s is not reachable from %s", target.Name, loc.Name))
	}
	tx.MoveAgent(actor.ID, dest)
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s moves from %s to %s", actor.Name, loc.Name, target.Name),
		Data:    map[string]any{"from": string(loc.ID), "to": string(dest)},
	}
}

func (e *Executor) applyExamine(tx *world.Tx, actor *world.Agent, a Action) Result {
	loc, _ := tx.Location(actor.LocationID)
	obj := world.ItemID(a.TargetObject)
	if loc == nil || !loc.HasObject(obj) {
		return failure(fmt.Sprintf("there is no %s here to examine", a.TargetObject))
	}
	return Result{Success: true, Message: fmt.Sprintf("%s examines the %s", actor.Name, obj)}
}

func (e *Executor) applyTake(tx *world.Tx, actor *world.Agent, a Action) Result {
	loc, _ := tx.Location(actor.LocationID)
	item := world.ItemID(a.TargetObject)
	if loc == nil || !loc.HasObject(item) {
		return failure(fmt.Sprintf("there is no %s here to take", a.TargetObject))
	}
	tx.AddItem(actor.ID, item)
	return Result{Success: true, Message: fmt.Sprintf("%s picks up the %s", actor.Name, item)}
}

func (e *Executor) applyDrop(tx *world.Tx, actor *world.Agent, a Action) Result {
	item := world.ItemID(a.TargetObject)
	if !actor.HasItem(item) {
		return failure(fmt.Sprintf("%s is not carrying %s", actor.Name, a.TargetObject))
	}
	tx.RemoveItem(actor.ID, item)
	return Result{Success: true, Message: fmt.Sprintf("%s puts down the %s", actor.Name, item)}
}

// coLocatedTarget checks the common social precondition: the target exists,
// is a different agent, and shares the actor's location.
func coLocatedTarget(tx *world.Tx, actor *world.Agent, targetID world.AgentID) (*world.Agent, string) {
	if targetID == actor.ID {
		return nil, fmt.Sprintf("%s cannot do that to themselves", actor.Name)
	}
	target, ok := tx.Agent(targetID)
	if !ok {
		return nil, fmt.Sprintf("no one called %q is known", targetID)
	}
	if target.LocationID != actor.LocationID {
		return nil, fmt.Sprintf("%s is not here", target.Name)
	}
	return target, ""
}

func (e *Executor) applyGreet(tx *world.Tx, actor *world.Agent, a Action) Result {
	target, reason := coLocatedTarget(tx, actor, a.TargetID)
	if target == nil {
		return failure(reason)
	}
	tx.UpsertRelationship(actor.ID, target.ID, "", 1, fmt.Sprintf("%s greeted %s", actor.Name, target.Name))
	return Result{Success: true, Message: fmt.Sprintf("%s greets %s warmly", actor.Name, target.Name)}
}

func (e *Executor) applyTalk(tx *world.Tx, actor *world.Agent, a Action) Result {
	target, reason := coLocatedTarget(tx, actor, a.TargetID)
	if target == nil {
		return failure(reason)
	}
	topic := a.Params["topic"]
	if topic == "" {
		topic = "the day's events"
	}
	tx.AdjustNeed(actor.ID, "social", 1)
	tx.AdjustNeed(target.ID, "social", 1)
	note := fmt.Sprintf("talked about %s", topic)
	tx.UpsertRelationship(actor.ID, target.ID, "", 1, note)
	tx.UpsertRelationship(target.ID, actor.ID, "", 1, note)
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s talks with %s about %s", actor.Name, target.Name, topic),
		Data:    map[string]any{"topic": topic},
	}
}

func (e *Executor) applyAskTell(tx *world.Tx, actor *world.Agent, a Action) Result {
	target, reason := coLocatedTarget(tx, actor, a.TargetID)
	if target == nil {
		return failure(reason)
	}
	if a.Verb == VerbAsk {
		question := a.Params["question"]
		if question == "" {
			question = "something"
		}
		// Asking costs the target nothing and earns the asker nothing.
		tx.UpsertRelationship(actor.ID, target.ID, "", 0, "")
		return Result{Success: true, Message: fmt.Sprintf("%s asks %s about %s", actor.Name, target.Name, question)}
	}
	info := a.Params["info"]
	if info == "" {
		info = "some news"
	}
	tx.UpsertRelationship(actor.ID, target.ID, "", 1, fmt.Sprintf("shared %s", info))
	return Result{Success: true, Message: fmt.Sprintf("%s tells %s about %s", actor.Name, target.Name, info)}
}

func (e *Executor) applyGive(tx *world.Tx, actor *world.Agent, a Action) Result {
	target, reason := coLocatedTarget(tx, actor, a.TargetID)
	if target == nil {
		return failure(reason)
	}
	item := world.ItemID(a.TargetObject)
	if !actor.HasItem(item) {
		return failure(fmt.Sprintf("%s is not carrying %s", actor.Name, a.TargetObject))
	}
	tx.RemoveItem(actor.ID, item)
	tx.AddItem(target.ID, item)
	note := fmt.Sprintf("%s gave %s a %s", actor.Name, target.Name, item)
	tx.UpsertRelationship(actor.ID, target.ID, "", 2, note)
	tx.UpsertRelationship(target.ID, actor.ID, "", 2, note)
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s gives the %s to %s", actor.Name, item, target.Name),
		Data:    map[string]any{"item": string(item)},
	}
}

func (e *Executor) applyHelp(tx *world.Tx, actor *world.Agent, a Action) Result {
	target, reason := coLocatedTarget(tx, actor, a.TargetID)
	if target == nil {
		return failure(reason)
	}
	task := a.Params["task"]
	if task == "" {
		task = "a chore"
	}
	note := fmt.Sprintf("%s helped with %s", actor.Name, task)
	tx.UpsertRelationship(target.ID, actor.ID, "", 2, note)
	tx.UpsertRelationship(actor.ID, target.ID, "", 1, note)
	return Result{Success: true, Message: fmt.Sprintf("%s helps %s with %s", actor.Name, target.Name, task)}
}

func (e *Executor) applyConfront(tx *world.Tx, actor *world.Agent, a Action) Result {
	target, reason := coLocatedTarget(tx, actor, a.TargetID)
	if target == nil {
		return failure(reason)
	}
	accusation := a.Params["accusation"]
	if accusation == "" {
		accusation = "a grievance"
	}
	note := fmt.Sprintf("%s confronted %s over %s", actor.Name, target.Name, accusation)
	tx.UpsertRelationship(target.ID, actor.ID, "", -2, note)
	tx.UpsertRelationship(actor.ID, target.ID, "", -1, note)
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s confronts %s about %s", actor.Name, target.Name, accusation),
		Data:    map[string]any{"accusation": accusation},
	}
}

func (e *Executor) applyAvoid(tx *world.Tx, actor *world.Agent, a Action) Result {
	// Avoiding works at a distance; the target need not be present.
	if a.TargetID == actor.ID {
		return failure(fmt.Sprintf("%s cannot avoid themselves", actor.Name))
	}
	target, ok := tx.Agent(a.TargetID)
	if !ok {
		return failure(fmt.Sprintf("no one called %q is known", a.TargetID))
	}
	tx.UpsertRelationship(actor.ID, target.ID, "", -1, fmt.Sprintf("avoided %s", target.Name))
	return Result{Success: true, Message: fmt.Sprintf("%s keeps their distance from %s", actor.Name, target.Name)}
}

func (e *Executor) applyGossip(tx *world.Tx, actor *world.Agent, a Action) Result {
	target, reason := coLocatedTarget(tx, actor, a.TargetID)
	if target == nil {
		return failure(reason)
	}
	subjectID := world.AgentID(a.Params["subject"])
	if subjectID == actor.ID || subjectID == target.ID {
		return failure("gossip needs a third party as its subject")
	}
	subject, ok := tx.Agent(subjectID)
	if !ok {
		return failure(fmt.Sprintf("no one called %q to gossip about", subjectID))
	}
	rumor := a.Params["rumor"]
	if rumor == "" {
		rumor = "something scandalous"
	}
	tx.UpsertRelationship(actor.ID, target.ID, "", 1, fmt.Sprintf("shared a rumor about %s", subject.Name))
	tx.UpsertRelationship(actor.ID, subject.ID, "", -1, "spoke ill of them")
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s whispers to %s about %s: %s", actor.Name, target.Name, subject.Name, rumor),
		Data:    map[string]any{"subject": string(subject.ID), "rumor": rumor},
	}
}
