// Goal engine. Each refresh reaps finished goals, regenerates need and
// desire goals, dedupes, prioritizes, and resolves conflicts.
package goals

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/talgya/villagesim/internal/world"
)

const (
	desireBasePriority   = 4
	reactiveBasePriority = 6
	maxActiveDesires     = 2

	reactiveExpiry = 2 * time.Hour
	desireExpiry   = 24 * time.Hour
)

// categoryBonus weights the prioritization score by goal origin.
var categoryBonus = map[Category]float64{
	CategoryNeed:     30,
	CategoryReactive: 15,
	CategoryDesire:   0,
}

// conflictPairs lists mutually exclusive goal types against the same target.
var conflictPairs = map[Type]Type{
	TypeHelpFriend:  TypeConfront,
	TypeConfront:    TypeHelpFriend,
	TypeSeekRevenge: TypeApologize,
	TypeApologize:   TypeSeekRevenge,
}

// Engine owns every agent's goal set.
type Engine struct {
	mu    sync.Mutex
	world *world.Store
	goals map[world.AgentID][]*Goal

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates a goal engine over a world store.
func NewEngine(w *world.Store) *Engine {
	return &Engine{
		world: w,
		goals: make(map[world.AgentID][]*Goal),
		now:   time.Now,
	}
}

// Score is the prioritization ordering: higher first. Older goals get a
// small boost, capped at 5.
func Score(g *Goal, now time.Time) float64 {
	age := now.Sub(g.CreatedAt).Seconds()
	boost := age / 720
	if boost > 5 {
		boost = 5
	}
	return 10*float64(g.Priority) + categoryBonus[g.Category()] + boost
}

// Active returns copies of an agent's active goals, highest score first.
func (e *Engine) Active(id world.AgentID) []Goal {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	var out []Goal
	for _, g := range e.goals[id] {
		if g.Status == StatusActive {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Score(&out[i], now) > Score(&out[j], now)
	})
	return out
}

// ByStatus returns copies of an agent's goals filtered by status
// (empty status matches all).
func (e *Engine) ByStatus(id world.AgentID, status Status) []Goal {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Goal
	for _, g := range e.goals[id] {
		if status == "" || g.Status == status {
			out = append(out, *g)
		}
	}
	return out
}

// All returns copies of every goal for every agent, for persistence.
func (e *Engine) All() []Goal {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Goal
	for _, gs := range e.goals {
		for _, g := range gs {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AgentID != out[j].AgentID {
			return out[i].AgentID < out[j].AgentID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Restore replaces all goal state from a snapshot.
func (e *Engine) Restore(gs []Goal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goals = make(map[world.AgentID][]*Goal)
	for i := range gs {
		g := gs[i]
		e.goals[g.AgentID] = append(e.goals[g.AgentID], &g)
	}
}

// AddReactive registers an externally triggered goal. A non-positive
// priority uses the reactive default (base + 2); priority is capped at 10.
func (e *Engine) AddReactive(id world.AgentID, t Type, target world.AgentID, description string, priority int) {
	if CategoryOf(t) != CategoryReactive {
		return
	}
	if priority <= 0 {
		priority = reactiveBasePriority + 2
	}
	if priority > 10 {
		priority = 10
	}
	g := &Goal{
		AgentID:     id,
		Type:        t,
		TargetID:    target,
		Priority:    priority,
		Description: description,
		Status:      StatusActive,
		CreatedAt:   e.now(),
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.goals[id] {
		if existing.Status == StatusActive && existing.Type == t && existing.TargetID == target {
			return
		}
	}
	e.goals[id] = append(e.goals[id], g)
}

// Refresh runs the full goal cycle for one agent: reap by completion check,
// regenerate need goals, top up desires, dedupe by (type, target), sort by
// score, and resolve conflicts (keep first, drop later).
func (e *Engine) Refresh(id world.AgentID) {
	agent, ok := e.world.Agent(id)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()

	// Reap: completion checks and expiry.
	var kept []*Goal
	for _, g := range e.goals[id] {
		if g.Status != StatusActive {
			kept = append(kept, g)
			continue
		}
		e.reap(g, &agent, now)
		kept = append(kept, g)
	}

	// Collect survivors and regenerate.
	var active []*Goal
	for _, g := range kept {
		if g.Status == StatusActive {
			active = append(active, g)
		}
	}

	fresh := needGoals(&agent, now)
	if countDesires(active) < maxActiveDesires {
		fresh = append(fresh, desireGoals(&agent, now)...)
	}

	// Union with existing, deduped by (type, target).
	seen := make(map[string]bool, len(active))
	for _, g := range active {
		seen[dedupKey(g)] = true
	}
	for _, g := range fresh {
		if !seen[dedupKey(g)] {
			seen[dedupKey(g)] = true
			active = append(active, g)
		}
	}

	// Prioritize, then resolve conflicts keeping the higher-scored goal.
	sort.SliceStable(active, func(i, j int) bool {
		return Score(active[i], now) > Score(active[j], now)
	})
	active = resolveConflicts(active)

	// Persist: resolved-away goals are abandoned, the rest kept.
	final := make(map[*Goal]bool, len(active))
	for _, g := range active {
		final[g] = true
	}
	var out []*Goal
	for _, g := range kept {
		if g.Status == StatusActive && !final[g] {
			g.Status = StatusAbandoned
		}
		out = append(out, g)
	}
	for _, g := range active {
		if !containsGoal(kept, g) {
			out = append(out, g)
		}
	}
	e.goals[id] = out
}

// reap applies completion checks and category expiry to an active goal.
func (e *Engine) reap(g *Goal, a *world.Agent, now time.Time) {
	switch g.Type {
	case TypeEat:
		if a.Needs.Hunger <= 2 {
			g.Status = StatusCompleted
		} else if a.Needs.Hunger >= 10 {
			g.Status = StatusFailed
		}
	case TypeSleep:
		if a.Needs.Energy >= 8 {
			g.Status = StatusCompleted
		}
	case TypeSocialize:
		if a.Needs.Social >= 7 {
			g.Status = StatusCompleted
		}
	}
	if g.Status != StatusActive {
		return
	}
	switch g.Category() {
	case CategoryReactive:
		if now.Sub(g.CreatedAt) > reactiveExpiry {
			g.Status = StatusFailed
		}
	case CategoryDesire:
		if now.Sub(g.CreatedAt) > desireExpiry {
			g.Status = StatusFailed
		}
	}
}

// needGoals regenerates need goals from current need levels.
func needGoals(a *world.Agent, now time.Time) []*Goal {
	var out []*Goal
	add := func(t Type, priority int, desc string) {
		out = append(out, &Goal{
			AgentID:     a.ID,
			Type:        t,
			Priority:    priority,
			Description: desc,
			Status:      StatusActive,
			CreatedAt:   now,
		})
	}

	switch {
	case a.Needs.Hunger >= 8:
		add(TypeEat, 9, fmt.Sprintf("%s is famished and must eat", a.Name))
	case a.Needs.Hunger >= 6:
		add(TypeEat, 7, fmt.Sprintf("%s is hungry and should eat", a.Name))
	case a.Needs.Hunger >= 4:
		add(TypeEat, 5, fmt.Sprintf("%s could do with a meal", a.Name))
	}

	switch {
	case a.Needs.Energy <= 1:
		add(TypeSleep, 9, fmt.Sprintf("%s is exhausted and must rest", a.Name))
	case a.Needs.Energy <= 3:
		add(TypeSleep, 7, fmt.Sprintf("%s is tired and needs sleep", a.Name))
	case a.Needs.Energy <= 5:
		add(TypeSleep, 4, fmt.Sprintf("%s could use some rest", a.Name))
	}

	switch {
	case a.Needs.Social <= 1:
		add(TypeSocialize, 7, fmt.Sprintf("%s is desperately lonely", a.Name))
	case a.Needs.Social <= 3:
		add(TypeSocialize, 5, fmt.Sprintf("%s is lonely and wants company", a.Name))
	case a.Needs.Social < 5:
		add(TypeSocialize, 3, fmt.Sprintf("%s would enjoy some company", a.Name))
	}

	return out
}

// traitDesire maps a trait accessor to the desire it feeds.
type traitDesire struct {
	value int
	typ   Type
	desc  string
}

// desireGoals derives up to two desire goals from traits above the neutral
// value 5, weighted by w = (trait − 4) / 6.
func desireGoals(a *world.Agent, now time.Time) []*Goal {
	candidates := []traitDesire{
		{a.Traits.Curiosity, TypeExplore, "wander somewhere new"},
		{a.Traits.Sociability, TypeMakeFriend, "strike up a new friendship"},
		{a.Traits.Ambition, TypeSeekStatus, "raise their standing in the village"},
		{a.Traits.Discipline, TypeImproveCraft, "hone their craft"},
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].value > candidates[j].value
	})

	var out []*Goal
	for _, c := range candidates {
		if c.value <= 5 || len(out) >= maxActiveDesires {
			continue
		}
		w := float64(c.value-4) / 6.0
		priority := desireBasePriority + int(3*w)
		if priority > 8 {
			priority = 8
		}
		out = append(out, &Goal{
			AgentID:     a.ID,
			Type:        c.typ,
			Priority:    priority,
			Description: fmt.Sprintf("%s wants to %s", a.Name, c.desc),
			Status:      StatusActive,
			CreatedAt:   now,
		})
	}
	return out
}

// resolveConflicts walks the sorted goal list keeping the first of each
// need type and dropping any goal whose conflicting counterpart against the
// same target was already kept.
func resolveConflicts(sorted []*Goal) []*Goal {
	var out []*Goal
	needSeen := make(map[Type]bool)
	keptPair := make(map[string]bool) // type|target of kept goals

	for _, g := range sorted {
		if g.Category() == CategoryNeed {
			if needSeen[g.Type] {
				continue
			}
			needSeen[g.Type] = true
		}
		if other, ok := conflictPairs[g.Type]; ok {
			if keptPair[string(other)+"|"+string(g.TargetID)] {
				continue
			}
		}
		keptPair[string(g.Type)+"|"+string(g.TargetID)] = true
		out = append(out, g)
	}
	return out
}

func countDesires(gs []*Goal) int {
	n := 0
	for _, g := range gs {
		if g.Category() == CategoryDesire {
			n++
		}
	}
	return n
}

func dedupKey(g *Goal) string {
	return string(g.Type) + "|" + string(g.TargetID)
}

func containsGoal(gs []*Goal, g *Goal) bool {
	for _, x := range gs {
		if x == g {
			return true
		}
	}
	return false
}
