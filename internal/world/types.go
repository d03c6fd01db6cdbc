// Package world provides the authoritative world state: agents, locations,
// relationships, and the simulation clock. All durable mutation goes through
// the Store; other components hold read-only copies.
package world

// AgentID is a stable string identifier for an agent.
type AgentID string

// LocationID is a stable string identifier for a location.
type LocationID string

// ItemID identifies an item, either in a location or an inventory.
type ItemID string

// AgentState enumerates what an agent is currently doing at the coarsest level.
type AgentState uint8

const (
	StateIdle AgentState = iota
	StateBusy
	StateSleeping
)

// String returns the canonical serialized form of the state.
func (s AgentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateSleeping:
		return "sleeping"
	}
	return "unknown"
}

// ParseAgentState converts a canonical string back to an AgentState.
// Unknown strings are rejected, not coerced.
func ParseAgentState(s string) (AgentState, bool) {
	switch s {
	case "idle":
		return StateIdle, true
	case "busy":
		return StateBusy, true
	case "sleeping":
		return StateSleeping, true
	}
	return StateIdle, false
}

// Traits holds the eight immutable personality dimensions, each in [1,10].
type Traits struct {
	Curiosity   int `json:"curiosity"`
	Kindness    int `json:"kindness"`
	Ambition    int `json:"ambition"`
	Honesty     int `json:"honesty"`
	Courage     int `json:"courage"`
	Sociability int `json:"sociability"`
	Temper      int `json:"temper"`
	Discipline  int `json:"discipline"`
}

// Mood is the agent's short-horizon emotional register, both in [0,10].
type Mood struct {
	Happiness int `json:"happiness"`
	Energy    int `json:"energy"`
}

// Needs are the three continuous drives, each clamped to [0,10].
// Hunger rises over time; energy falls while awake and recovers in sleep;
// social drifts by location occupancy.
type Needs struct {
	Hunger float64 `json:"hunger"`
	Energy float64 `json:"energy"`
	Social float64 `json:"social"`
}

// Agent is a person in the village. Created at seeding, mutated only through
// action effects, the need tick, or sleep/wake transitions. Never destroyed.
type Agent struct {
	ID     AgentID `json:"id"`
	Name   string  `json:"name"`
	Traits Traits  `json:"traits"`

	// Prompt is the narrative persona text fed to the LLM decider.
	Prompt string `json:"prompt,omitempty"`

	LocationID LocationID `json:"location_id"`
	Inventory  []ItemID   `json:"inventory"` // Ordered set, no duplicates
	Mood       Mood       `json:"mood"`
	Needs      Needs      `json:"needs"`
	State      AgentState `json:"state"`
}

// HasItem reports whether item is in the agent's inventory.
func (a *Agent) HasItem(item ItemID) bool {
	for _, it := range a.Inventory {
		if it == item {
			return true
		}
	}
	return false
}

// Location is a place agents occupy. Immutable after seeding.
// Connections list the locations reachable in one move; symmetry is not
// required; the connection list IS the graph.
type Location struct {
	ID          LocationID   `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Connections []LocationID `json:"connections"`
	Objects     []ItemID     `json:"objects"`
	Capacity    int          `json:"capacity"`
}

// Connected reports whether dest is reachable in one move.
func (l *Location) Connected(dest LocationID) bool {
	for _, c := range l.Connections {
		if c == dest {
			return true
		}
	}
	return false
}

// HasObject reports whether item is present in the location.
func (l *Location) HasObject(item ItemID) bool {
	for _, o := range l.Objects {
		if o == item {
			return true
		}
	}
	return false
}

// MaxRelHistory bounds the per-edge history list.
const MaxRelHistory = 20

// Relationship is a directed edge between two distinct agents.
// Score is clamped to [-10, +10] on every write; zero is neutral.
type Relationship struct {
	AgentID  AgentID  `json:"agent_id"`
	TargetID AgentID  `json:"target_id"`
	Type     string   `json:"type"`
	Score    int      `json:"score"`
	History  []string `json:"history,omitempty"`
}

// Season enumerates the four-season cycle.
type Season uint8

const (
	SeasonSpring Season = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

// NumSeasons is the length of the season cycle.
const NumSeasons = 4

// String returns the canonical season name.
func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "spring"
	case SeasonSummer:
		return "summer"
	case SeasonAutumn:
		return "autumn"
	case SeasonWinter:
		return "winter"
	}
	return "unknown"
}

// DaysPerSeason is how many in-world days each season lasts.
const DaysPerSeason = 30

// Clock is the world time state, modified exclusively by the tick scheduler.
type Clock struct {
	CurrentTick uint64  `json:"tick"`
	CurrentDay  int     `json:"day"`  // ≥ 1
	CurrentHour float64 `json:"hour"` // [0.0, 24.0)
	Season      Season  `json:"season"`
	Weather     string  `json:"weather"`
}

// SeasonForDay computes the season from a day index.
func SeasonForDay(day int) Season {
	return Season((day / DaysPerSeason) % NumSeasons)
}

// ClampScore clamps a relationship score to [-10, +10].
func ClampScore(score int) int {
	if score > 10 {
		return 10
	}
	if score < -10 {
		return -10
	}
	return score
}

// ClampNeed clamps a need value to [0, 10].
func ClampNeed(v float64) float64 {
	if v > 10 {
		return 10
	}
	if v < 0 {
		return 0
	}
	return v
}
