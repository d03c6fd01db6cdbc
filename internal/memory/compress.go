// End-of-day compression: working memories are distilled into one recent
// summary plus up to five longterm facts, then discarded.
package memory

import (
	"sort"
	"strings"

	"github.com/talgya/villagesim/internal/world"
)

const (
	// LongtermThreshold is the significance at which a working memory
	// qualifies as a fact when no summarizer is available.
	LongtermThreshold = 6

	maxFacts            = 5
	summarySignificance = 5
	factSignificance    = 7
)

// Summarizer condenses a day of working memories, typically via the LLM.
// A nil Summarizer (or an error) falls back to significance heuristics.
type Summarizer interface {
	SummarizeDay(agentName string, memories []Memory) (summary string, facts []string, err error)
}

// CompressDay replaces an agent's working memories with one recent summary
// and up to five longterm facts, stamped with the day-boundary timestamp.
// The swap is atomic: readers observe either the pre-state or the
// post-state, never a partial mix.
func (s *Store) CompressDay(id world.AgentID, agentName string, dayBoundary int64, sum Summarizer) {
	s.mu.Lock()
	t := s.agent(id)
	working := append([]Memory(nil), t.working...)
	s.mu.Unlock()

	if len(working) == 0 {
		return
	}

	var summary string
	var facts []string
	if sum != nil {
		var err error
		summary, facts, err = sum.SummarizeDay(agentName, working)
		if err != nil {
			summary, facts = "", nil
		}
	}
	if summary == "" {
		summary = heuristicSummary(working)
	}
	if len(facts) == 0 {
		facts = heuristicFacts(working)
	}
	if len(facts) > maxFacts {
		facts = facts[:maxFacts]
	}

	// Build the post-state outside the critical section, then swap.
	s.mu.Lock()
	defer s.mu.Unlock()
	t = s.agent(id)
	t.working = nil
	t.recent = evictOver(append(t.recent, Memory{
		AgentID:          id,
		Kind:             KindRecent,
		Content:          summary,
		Significance:     summarySignificance,
		BaseSignificance: summarySignificance,
		Timestamp:        dayBoundary,
		Compressed:       true,
	}), s.caps.Recent)
	for _, f := range facts {
		t.longterm = evictOver(append(t.longterm, Memory{
			AgentID:          id,
			Kind:             KindLongterm,
			Content:          f,
			Significance:     factSignificance,
			BaseSignificance: factSignificance,
			Timestamp:        dayBoundary,
			Compressed:       true,
		}), s.caps.Longterm)
	}
}

// heuristicSummary joins the three highest-significance items.
func heuristicSummary(working []Memory) string {
	sorted := append([]Memory(nil), working...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Significance > sorted[j].Significance
	})
	n := 3
	if len(sorted) < n {
		n = len(sorted)
	}
	parts := make([]string, 0, n)
	for _, m := range sorted[:n] {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "; ")
}

// heuristicFacts keeps items at or above the longterm threshold.
func heuristicFacts(working []Memory) []string {
	var facts []string
	for _, m := range working {
		if m.Significance >= LongtermThreshold {
			facts = append(facts, m.Content)
		}
	}
	return facts
}
