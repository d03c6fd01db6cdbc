// Package actions provides the typed action catalog and the executor that
// applies action effects to world state.
package actions

import (
	"github.com/talgya/villagesim/internal/events"
	"github.com/talgya/villagesim/internal/world"
)

// Verb is the closed set of things an agent can do.
type Verb string

const (
	VerbMove        Verb = "move"
	VerbExamine     Verb = "examine"
	VerbTake        Verb = "take"
	VerbDrop        Verb = "drop"
	VerbUse         Verb = "use"
	VerbWait        Verb = "wait"
	VerbSleep       Verb = "sleep"
	VerbWork        Verb = "work"
	VerbGreet       Verb = "greet"
	VerbTalk        Verb = "talk"
	VerbAsk         Verb = "ask"
	VerbTell        Verb = "tell"
	VerbGive        Verb = "give"
	VerbHelp        Verb = "help"
	VerbConfront    Verb = "confront"
	VerbAvoid       Verb = "avoid"
	VerbInvestigate Verb = "investigate"
	VerbGossip      Verb = "gossip"
	VerbScheme      Verb = "scheme"
	VerbConfess     Verb = "confess"
	VerbObserve     Verb = "observe"
)

// Category groups verbs by social shape.
type Category string

const (
	CategorySolo    Category = "solo"
	CategorySocial  Category = "social"
	CategorySpecial Category = "special"
)

// verbCategories is the static verb → category table.
var verbCategories = map[Verb]Category{
	VerbMove:        CategorySolo,
	VerbExamine:     CategorySolo,
	VerbTake:        CategorySolo,
	VerbDrop:        CategorySolo,
	VerbUse:         CategorySolo,
	VerbWait:        CategorySolo,
	VerbSleep:       CategorySolo,
	VerbWork:        CategorySolo,
	VerbObserve:     CategorySolo,
	VerbGreet:       CategorySocial,
	VerbTalk:        CategorySocial,
	VerbAsk:         CategorySocial,
	VerbTell:        CategorySocial,
	VerbGive:        CategorySocial,
	VerbHelp:        CategorySocial,
	VerbConfront:    CategorySocial,
	VerbAvoid:       CategorySocial,
	VerbGossip:      CategorySocial,
	VerbInvestigate: CategorySpecial,
	VerbScheme:      CategorySpecial,
	VerbConfess:     CategorySpecial,
}

// verbEvents maps each verb to the event type its success produces.
// Dialogue verbs emit dialogue; movement emits movement; everything else
// is a plain action.
var verbEvents = map[Verb]events.Type{
	VerbMove:   events.TypeMovement,
	VerbGreet:  events.TypeDialogue,
	VerbTalk:   events.TypeDialogue,
	VerbAsk:    events.TypeDialogue,
	VerbTell:   events.TypeDialogue,
	VerbGossip: events.TypeDialogue,
}

// verbSignificance is the base significance attached to each verb's event.
var verbSignificance = map[Verb]int{
	VerbMove:        2,
	VerbGreet:       2,
	VerbTalk:        3,
	VerbAsk:         3,
	VerbTell:        3,
	VerbGossip:      4,
	VerbGive:        4,
	VerbHelp:        4,
	VerbConfront:    7,
	VerbAvoid:       3,
	VerbExamine:     3,
	VerbInvestigate: 6,
	VerbScheme:      5,
	VerbConfess:     6,
	VerbWork:        2,
	VerbSleep:       1,
	VerbTake:        2,
	VerbDrop:        1,
	VerbUse:         2,
	VerbWait:        1,
	VerbObserve:     1,
}

// ParseVerb validates a serialized verb. Unknown strings are rejected.
func ParseVerb(s string) (Verb, bool) {
	v := Verb(s)
	if _, ok := verbCategories[v]; ok {
		return v, true
	}
	return "", false
}

// Action is one agent's chosen act for a tick.
type Action struct {
	Verb         Verb              `json:"verb"`
	ActorID      world.AgentID     `json:"actor_id"`
	TargetID     world.AgentID     `json:"target_id,omitempty"`     // Another agent
	TargetObject string            `json:"target_object,omitempty"` // Item or location token
	Params       map[string]string `json:"params,omitempty"`
}

// Category returns the action's social shape.
func (a Action) Category() Category {
	return verbCategories[a.Verb]
}

// EventType returns the event type a successful execution produces.
func (a Action) EventType() events.Type {
	if t, ok := verbEvents[a.Verb]; ok {
		return t
	}
	return events.TypeAction
}

// Significance returns the base significance of the action's event.
func (a Action) Significance() int {
	if s, ok := verbSignificance[a.Verb]; ok {
		return s
	}
	return 1
}

// Wait builds the default do-nothing action.
func Wait(actor world.AgentID) Action {
	return Action{Verb: VerbWait, ActorID: actor}
}

// Result reports what executing an action did.
// A false Success carries a human-readable Reason and implies no state
// change and no event.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Reason  string         `json:"reason,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func failure(reason string) Result {
	return Result{Success: false, Reason: reason}
}
