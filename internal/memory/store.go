// Package memory provides the three-tier agent memory store: working
// memories appended on every action, recent memories produced by end-of-day
// compression, and longterm distilled facts.
package memory

import (
	"sort"
	"sync"

	"github.com/talgya/villagesim/internal/world"
)

// Kind enumerates the memory tiers.
type Kind string

const (
	KindWorking  Kind = "working"
	KindRecent   Kind = "recent"
	KindLongterm Kind = "longterm"
)

// ParseKind validates a serialized kind. Unknown strings are rejected.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindWorking, KindRecent, KindLongterm:
		return Kind(s), true
	}
	return "", false
}

// Memory is one remembered experience. BaseSignificance is the score at
// write time; Significance is the current (possibly decayed) score used for
// ordering and eviction.
type Memory struct {
	AgentID          world.AgentID `json:"agent_id"`
	Kind             Kind          `json:"kind"`
	Content          string        `json:"content"`
	Significance     int           `json:"significance"`
	BaseSignificance int           `json:"base_significance"`
	Timestamp        int64         `json:"timestamp"`
	Compressed       bool          `json:"compressed"`
}

// Caps are the per-tier retention limits.
type Caps struct {
	Working  int
	Recent   int
	Longterm int
}

// DefaultCaps matches the standard retention policy.
var DefaultCaps = Caps{Working: 10, Recent: 7, Longterm: 50}

type tiers struct {
	working  []Memory
	recent   []Memory
	longterm []Memory
}

// Store holds every agent's memories in-process.
type Store struct {
	mu      sync.Mutex
	caps    Caps
	byAgent map[world.AgentID]*tiers
}

// NewStore creates a memory store with the given caps (zero fields use the
// defaults).
func NewStore(caps Caps) *Store {
	if caps.Working <= 0 {
		caps.Working = DefaultCaps.Working
	}
	if caps.Recent <= 0 {
		caps.Recent = DefaultCaps.Recent
	}
	if caps.Longterm <= 0 {
		caps.Longterm = DefaultCaps.Longterm
	}
	return &Store{caps: caps, byAgent: make(map[world.AgentID]*tiers)}
}

func (s *Store) agent(id world.AgentID) *tiers {
	t, ok := s.byAgent[id]
	if !ok {
		t = &tiers{}
		s.byAgent[id] = t
	}
	return t
}

// Record writes a memory, routing by kind. Working memories are stored
// uncompressed; recent and longterm are marked compressed. When a tier
// exceeds its cap, the lowest-significance-then-oldest entry is evicted.
func (s *Store) Record(id world.AgentID, kind Kind, content string, significance int, timestamp int64) {
	if significance < 1 {
		significance = 1
	}
	if significance > 10 {
		significance = 10
	}
	m := Memory{
		AgentID:          id,
		Kind:             kind,
		Content:          content,
		Significance:     significance,
		BaseSignificance: significance,
		Timestamp:        timestamp,
		Compressed:       kind != KindWorking,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.agent(id)
	switch kind {
	case KindWorking:
		t.working = evictOver(append(t.working, m), s.caps.Working)
	case KindRecent:
		t.recent = evictOver(append(t.recent, m), s.caps.Recent)
	case KindLongterm:
		t.longterm = evictOver(append(t.longterm, m), s.caps.Longterm)
	}
}

// evictOver drops lowest-significance-then-oldest entries until the tier
// fits its cap.
func evictOver(ms []Memory, cap int) []Memory {
	for len(ms) > cap {
		victim := 0
		for i := 1; i < len(ms); i++ {
			if ms[i].Significance < ms[victim].Significance ||
				(ms[i].Significance == ms[victim].Significance && ms[i].Timestamp < ms[victim].Timestamp) {
				victim = i
			}
		}
		ms = append(ms[:victim], ms[victim+1:]...)
	}
	return ms
}

// GetWorking returns up to n working memories, newest first.
func (s *Store) GetWorking(id world.AgentID, n int) []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return byTimestampDesc(s.agent(id).working, n)
}

// GetRecent returns up to n recent memories, newest first.
func (s *Store) GetRecent(id world.AgentID, n int) []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return byTimestampDesc(s.agent(id).recent, n)
}

// GetLongterm returns up to n longterm memories, most significant first.
func (s *Store) GetLongterm(id world.AgentID, n int) []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Memory(nil), s.agent(id).longterm...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Significance > out[j].Significance
	})
	return limit(out, n)
}

// Count returns the number of memories an agent holds in a tier.
func (s *Store) Count(id world.AgentID, kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.agent(id)
	switch kind {
	case KindWorking:
		return len(t.working)
	case KindRecent:
		return len(t.recent)
	case KindLongterm:
		return len(t.longterm)
	}
	return 0
}

// All returns every memory of every agent, used by the persistence layer.
func (s *Store) All() []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Memory
	for _, t := range s.byAgent {
		out = append(out, t.working...)
		out = append(out, t.recent...)
		out = append(out, t.longterm...)
	}
	return out
}

// Restore replaces all memory state from a snapshot. Caps still apply.
func (s *Store) Restore(ms []Memory) {
	s.mu.Lock()
	s.byAgent = make(map[world.AgentID]*tiers)
	s.mu.Unlock()
	for _, m := range ms {
		s.Record(m.AgentID, m.Kind, m.Content, m.BaseSignificance, m.Timestamp)
	}
}

// Decay recomputes current significance from base significance and age for
// every memory of every agent. Memories at significance ≥ 8 never decay and
// no memory drops below 1. Idempotent for a fixed now.
func (s *Store) Decay(now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byAgent {
		decayTier(t.working, now)
		decayTier(t.recent, now)
		decayTier(t.longterm, now)
	}
}

func decayTier(ms []Memory, now int64) {
	for i := range ms {
		ms[i].Significance = decayedSignificance(ms[i].BaseSignificance, ms[i].Timestamp, now)
	}
}

func decayedSignificance(base int, ts, now int64) int {
	if base >= 8 {
		return base
	}
	days := int((now - ts) / 86400)
	if days < 0 {
		days = 0
	}
	dec := days / 2
	if base >= 5 {
		dec /= 2
	}
	out := base - dec
	if out < 1 {
		out = 1
	}
	return out
}

func byTimestampDesc(ms []Memory, n int) []Memory {
	out := append([]Memory(nil), ms...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return limit(out, n)
}

func limit(ms []Memory, n int) []Memory {
	if n > 0 && n < len(ms) {
		return ms[:n]
	}
	return ms
}
