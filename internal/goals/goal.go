// Package goals provides hierarchical goal generation, prioritization,
// conflict resolution, and lifecycle for agents.
package goals

import (
	"time"

	"github.com/talgya/villagesim/internal/world"
)

// Type is the closed set of goal kinds.
type Type string

const (
	// Need goals: regenerated from current needs every refresh.
	TypeEat       Type = "eat"
	TypeSleep     Type = "sleep"
	TypeSocialize Type = "socialize"

	// Desire goals: derived from personality traits above neutral.
	TypeExplore      Type = "explore"
	TypeMakeFriend   Type = "make_friend"
	TypeImproveCraft Type = "improve_craft"
	TypeSeekStatus   Type = "seek_status"

	// Reactive goals: added externally in response to events.
	TypeHelpFriend  Type = "help_friend"
	TypeConfront    Type = "confront"
	TypeSeekRevenge Type = "seek_revenge"
	TypeApologize   Type = "apologize"
)

// Category groups goal types by origin; it governs base priority and decay.
type Category string

const (
	CategoryNeed     Category = "need"
	CategoryDesire   Category = "desire"
	CategoryReactive Category = "reactive"
)

// typeCategories is the static type → category table.
var typeCategories = map[Type]Category{
	TypeEat:          CategoryNeed,
	TypeSleep:        CategoryNeed,
	TypeSocialize:    CategoryNeed,
	TypeExplore:      CategoryDesire,
	TypeMakeFriend:   CategoryDesire,
	TypeImproveCraft: CategoryDesire,
	TypeSeekStatus:   CategoryDesire,
	TypeHelpFriend:   CategoryReactive,
	TypeConfront:     CategoryReactive,
	TypeSeekRevenge:  CategoryReactive,
	TypeApologize:    CategoryReactive,
}

// ParseType validates a serialized goal type. Unknown strings are rejected.
func ParseType(s string) (Type, bool) {
	t := Type(s)
	if _, ok := typeCategories[t]; ok {
		return t, true
	}
	return "", false
}

// CategoryOf returns the category a goal type belongs to.
func CategoryOf(t Type) Category {
	return typeCategories[t]
}

// Status is the goal lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
)

// ParseStatus validates a serialized goal status. Unknown strings are
// rejected.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusActive, StatusCompleted, StatusFailed, StatusAbandoned:
		return st, true
	}
	return "", false
}

// Goal is one agent intention.
type Goal struct {
	AgentID     world.AgentID `json:"agent_id"`
	Type        Type          `json:"type"`
	TargetID    world.AgentID `json:"target_id,omitempty"`
	Priority    int           `json:"priority"` // [1,10]
	Description string        `json:"description"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Category returns the goal's category.
func (g *Goal) Category() Category {
	return CategoryOf(g.Type)
}
