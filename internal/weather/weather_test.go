package weather

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/villagesim/internal/world"
)

func TestDescribeDeterministic(t *testing.T) {
	a := NewGenerator(42)
	b := NewGenerator(42)

	for day := 1; day <= 60; day++ {
		season := world.SeasonForDay(day)
		assert.Equal(t, a.Describe(day, season), b.Describe(day, season))
	}
}

func TestDescribeVariesWithSeed(t *testing.T) {
	a := NewGenerator(1)
	b := NewGenerator(2)

	differs := false
	for day := 1; day <= 30; day++ {
		if a.Describe(day, world.SeasonSpring) != b.Describe(day, world.SeasonSpring) {
			differs = true
			break
		}
	}
	assert.True(t, differs)
}

func TestDescribeMatchesSeason(t *testing.T) {
	g := NewGenerator(7)
	for day := 1; day <= 20; day++ {
		desc := g.Describe(day, world.SeasonWinter)
		base := strings.TrimSuffix(desc, ", wind rattling the shutters")
		assert.Contains(t, seasonSkies[world.SeasonWinter], base)
	}
}
