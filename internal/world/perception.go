// Perception: the read-only projection of world state an agent can "see".
package world

// Perception is what an agent observes from its current location: the place
// itself, who else is there, and what objects are around. This is the view
// handed to the action decider.
type Perception struct {
	LocationID   LocationID   `json:"location_id"`
	LocationName string       `json:"location_name"`
	AgentNames   []string     `json:"agent_names"` // Co-located, excluding self
	Objects      []ItemID     `json:"objects"`
	Connections  []LocationID `json:"connections"`
}

// Perceive projects the world into one agent's view. Pure and side-effect
// free; safe to call any number of times per tick.
func (s *Store) Perceive(id AgentID) (Perception, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return Perception{}, false
	}
	loc, ok := s.locations[a.LocationID]
	if !ok {
		return Perception{}, false
	}

	p := Perception{
		LocationID:   loc.ID,
		LocationName: loc.Name,
		Objects:      append([]ItemID(nil), loc.Objects...),
		Connections:  append([]LocationID(nil), loc.Connections...),
	}
	for _, oid := range s.agentOrder {
		if oid == id {
			continue
		}
		if s.agents[oid].LocationID == a.LocationID {
			p.AgentNames = append(p.AgentNames, s.agents[oid].Name)
		}
	}
	return p, true
}
