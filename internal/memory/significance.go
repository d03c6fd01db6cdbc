// Significance scoring: a pure function from event metadata to [1,10].
package memory

// categoryBase is the static event-category → base score table.
var categoryBase = map[string]int{
	"dialogue":     3,
	"movement":     2,
	"action":       2,
	"relationship": 3,
	"discovery":    6,
	"conflict":     7,
	"betrayal":     9,
	"death":        10,
	"system":       1,
}

// ScoreInput describes the circumstances of an experience.
type ScoreInput struct {
	Category        string
	InvolvesSelf    bool
	InvolvesClose   bool // A friend or rival is part of it
	FirstTime       bool
	EmotionalImpact int // [-3, +3]
}

// Score computes an integer significance in [1,10] from event metadata.
func Score(in ScoreInput) int {
	base, ok := categoryBase[in.Category]
	if !ok {
		base = 2
	}
	s := base
	if in.InvolvesSelf {
		s++
	}
	if in.InvolvesClose {
		s += 2
	}
	if in.FirstTime {
		s += 2
	}

	impact := in.EmotionalImpact
	if impact > 3 {
		impact = 3
	}
	if impact < -3 {
		impact = -3
	}
	s += impact

	if s < 1 {
		s = 1
	}
	if s > 10 {
		s = 10
	}
	return s
}
