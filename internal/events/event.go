// Package events provides the in-process event bus: typed events, a bounded
// history ring, and non-blocking fan-out to subscribers.
package events

import "github.com/talgya/villagesim/internal/world"

// Type is the closed set of event kinds crossing the serialization boundary.
type Type string

const (
	TypeMovement     Type = "movement"
	TypeDialogue     Type = "dialogue"
	TypeAction       Type = "action"
	TypeRelationship Type = "relationship"
	TypeDiscovery    Type = "discovery"
	TypeSystem       Type = "system"
	TypeTick         Type = "tick"
	TypePositions    Type = "positions"
	TypeHealth       Type = "health"
	TypeLLMUsage     Type = "llm_usage"
)

// ParseType validates a serialized event type. Unknown strings are rejected.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeMovement, TypeDialogue, TypeAction, TypeRelationship,
		TypeDiscovery, TypeSystem, TypeTick, TypePositions,
		TypeHealth, TypeLLMUsage:
		return Type(s), true
	}
	return "", false
}

// Event is a notable occurrence in the world. Immutable once published.
type Event struct {
	Type         Type             `json:"type"`
	Summary      string           `json:"summary"`
	Timestamp    int64            `json:"timestamp"`
	Actors       []world.AgentID  `json:"actors,omitempty"`
	LocationID   world.LocationID `json:"location_id,omitempty"`
	Detail       string           `json:"detail,omitempty"`
	Significance int              `json:"significance"`
	Data         map[string]any   `json:"data,omitempty"`
}
