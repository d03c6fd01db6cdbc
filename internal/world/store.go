package world

import (
	"fmt"
	"sort"
	"sync"
)

type relKey struct {
	src AgentID
	dst AgentID
}

// Store is the authoritative container of world state. All durable mutation
// goes through its mutators under a single write lock; reads may run
// concurrently and each sees a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	agents     map[AgentID]*Agent
	agentOrder []AgentID // Stable id order for per-tick iteration
	locations  map[LocationID]*Location
	rels       map[relKey]*Relationship
	clock      Clock

	dayStartHour float64
	dayEndHour   float64
}

// NewStore creates an empty world store with the clock at day 1, hour 8.
func NewStore() *Store {
	return &Store{
		agents:    make(map[AgentID]*Agent),
		locations: make(map[LocationID]*Location),
		rels:      make(map[relKey]*Relationship),
		clock: Clock{
			CurrentDay:  1,
			CurrentHour: 8.0,
			Season:      SeasonSpring,
		},
		dayStartHour: DefaultDayStartHour,
		dayEndHour:   DefaultDayEndHour,
	}
}

// SetClock restores the clock from a snapshot.
func (s *Store) SetClock(c Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
}

// SetDayHours overrides the wake/sleep window boundaries.
func (s *Store) SetDayHours(start, end float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dayStartHour = start
	s.dayEndHour = end
}

// AddAgent registers an agent at seed time.
func (s *Store) AddAgent(a Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[a.ID]; ok {
		return fmt.Errorf("agent %q already exists", a.ID)
	}
	cp := a
	cp.Inventory = append([]ItemID(nil), a.Inventory...)
	s.agents[a.ID] = &cp
	s.agentOrder = append(s.agentOrder, a.ID)
	sort.Slice(s.agentOrder, func(i, j int) bool { return s.agentOrder[i] < s.agentOrder[j] })
	return nil
}

// AddLocation registers a location at seed time.
func (s *Store) AddLocation(l Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[l.ID]; ok {
		return fmt.Errorf("location %q already exists", l.ID)
	}
	cp := l
	cp.Connections = append([]LocationID(nil), l.Connections...)
	cp.Objects = append([]ItemID(nil), l.Objects...)
	s.locations[l.ID] = &cp
	return nil
}

// Agent returns a copy of the agent with the given id.
func (s *Store) Agent(id AgentID) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return Agent{}, false
	}
	return copyAgent(a), true
}

// Agents returns copies of all agents in stable id order.
func (s *Store) Agents() []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Agent, 0, len(s.agentOrder))
	for _, id := range s.agentOrder {
		out = append(out, copyAgent(s.agents[id]))
	}
	return out
}

// AgentIDs returns all agent ids in stable order.
func (s *Store) AgentIDs() []AgentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AgentID(nil), s.agentOrder...)
}

// AgentByName resolves a display name (case-sensitive) to an agent copy.
func (s *Store) AgentByName(name string) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.agentOrder {
		if s.agents[id].Name == name {
			return copyAgent(s.agents[id]), true
		}
	}
	return Agent{}, false
}

// Location returns a copy of the location with the given id.
func (s *Store) Location(id LocationID) (Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return Location{}, false
	}
	return copyLocation(l), true
}

// Locations returns copies of all locations sorted by id.
func (s *Store) Locations() []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]LocationID, 0, len(s.locations))
	for id := range s.locations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Location, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyLocation(s.locations[id]))
	}
	return out
}

// Relationship returns a copy of the directed edge src→dst.
func (s *Store) Relationship(src, dst AgentID) (Relationship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rels[relKey{src, dst}]
	if !ok {
		return Relationship{}, false
	}
	return copyRelationship(r), true
}

// Relationships returns copies of every directed edge, ordered by
// (agent_id, target_id).
func (s *Store) Relationships() []Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Relationship, 0, len(s.rels))
	for _, r := range s.rels {
		out = append(out, copyRelationship(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AgentID != out[j].AgentID {
			return out[i].AgentID < out[j].AgentID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}

// Clock returns the current world clock.
func (s *Store) Clock() Clock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

// CoLocated returns copies of agents sharing other's location, excluding other.
func (s *Store) CoLocated(id AgentID) []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	self, ok := s.agents[id]
	if !ok {
		return nil
	}
	var out []Agent
	for _, oid := range s.agentOrder {
		if oid == id {
			continue
		}
		if s.agents[oid].LocationID == self.LocationID {
			out = append(out, copyAgent(s.agents[oid]))
		}
	}
	return out
}

// Occupancy returns the number of agents at a location.
func (s *Store) Occupancy(loc LocationID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.occupancyLocked(loc)
}

func (s *Store) occupancyLocked(loc LocationID) int {
	n := 0
	for _, a := range s.agents {
		if a.LocationID == loc {
			n++
		}
	}
	return n
}

// Tx exposes the primitive mutators to a function running under the write
// lock. Effects applied through one Tx are observed atomically by readers.
type Tx struct {
	s *Store
}

// Update runs fn under the write lock. An error from fn aborts nothing by
// itself; callers check preconditions before mutating.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

// Agent returns the live agent record. Valid only inside the Tx.
func (tx *Tx) Agent(id AgentID) (*Agent, bool) {
	a, ok := tx.s.agents[id]
	return a, ok
}

// Location returns the live location record. Valid only inside the Tx.
func (tx *Tx) Location(id LocationID) (*Location, bool) {
	l, ok := tx.s.locations[id]
	return l, ok
}

// MoveAgent sets the agent's location. The destination must exist.
func (tx *Tx) MoveAgent(id AgentID, dest LocationID) error {
	a, ok := tx.s.agents[id]
	if !ok {
		return fmt.Errorf("unknown agent %q", id)
	}
	if _, ok := tx.s.locations[dest]; !ok {
		return fmt.Errorf("unknown location %q", dest)
	}
	a.LocationID = dest
	return nil
}

// SetState sets the agent's coarse state.
func (tx *Tx) SetState(id AgentID, st AgentState) error {
	a, ok := tx.s.agents[id]
	if !ok {
		return fmt.Errorf("unknown agent %q", id)
	}
	a.State = st
	return nil
}

// AdjustNeed adds delta to the named need, clamped to [0,10].
func (tx *Tx) AdjustNeed(id AgentID, name string, delta float64) error {
	a, ok := tx.s.agents[id]
	if !ok {
		return fmt.Errorf("unknown agent %q", id)
	}
	switch name {
	case "hunger":
		a.Needs.Hunger = ClampNeed(a.Needs.Hunger + delta)
	case "energy":
		a.Needs.Energy = ClampNeed(a.Needs.Energy + delta)
	case "social":
		a.Needs.Social = ClampNeed(a.Needs.Social + delta)
	default:
		return fmt.Errorf("unknown need %q", name)
	}
	return nil
}

// UpsertRelationship applies a score delta to the directed edge src→dst,
// creating it as type "stranger" if absent. The score is clamped on every
// write and the optional note is appended to the bounded history.
func (tx *Tx) UpsertRelationship(src, dst AgentID, relType string, delta int, note string) error {
	if src == dst {
		return fmt.Errorf("relationship source and target are the same agent %q", src)
	}
	key := relKey{src, dst}
	r, ok := tx.s.rels[key]
	if !ok {
		t := relType
		if t == "" {
			t = "stranger"
		}
		r = &Relationship{AgentID: src, TargetID: dst, Type: t}
		tx.s.rels[key] = r
	} else if relType != "" {
		r.Type = relType
	}
	r.Score = ClampScore(r.Score + delta)
	if note != "" {
		r.History = append(r.History, note)
		if len(r.History) > MaxRelHistory {
			r.History = r.History[len(r.History)-MaxRelHistory:]
		}
	}
	return nil
}

// PutRelationship replaces the directed edge src→dst wholesale. Used when
// restoring from a snapshot; normal play goes through UpsertRelationship.
func (tx *Tx) PutRelationship(r Relationship) {
	cp := r
	cp.Score = ClampScore(r.Score)
	cp.History = append([]string(nil), r.History...)
	tx.s.rels[relKey{r.AgentID, r.TargetID}] = &cp
}

// AddItem appends an item to the agent's inventory if not already present.
func (tx *Tx) AddItem(id AgentID, item ItemID) error {
	a, ok := tx.s.agents[id]
	if !ok {
		return fmt.Errorf("unknown agent %q", id)
	}
	if !a.HasItem(item) {
		a.Inventory = append(a.Inventory, item)
	}
	return nil
}

// RemoveItem removes an item from the agent's inventory. Returns false if
// the item was not held.
func (tx *Tx) RemoveItem(id AgentID, item ItemID) bool {
	a, ok := tx.s.agents[id]
	if !ok {
		return false
	}
	for i, it := range a.Inventory {
		if it == item {
			a.Inventory = append(a.Inventory[:i], a.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

func copyAgent(a *Agent) Agent {
	cp := *a
	cp.Inventory = append([]ItemID(nil), a.Inventory...)
	return cp
}

func copyLocation(l *Location) Location {
	cp := *l
	cp.Connections = append([]LocationID(nil), l.Connections...)
	cp.Objects = append([]ItemID(nil), l.Objects...)
	return cp
}

func copyRelationship(r *Relationship) Relationship {
	cp := *r
	cp.History = append([]string(nil), r.History...)
	return cp
}
