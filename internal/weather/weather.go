// Package weather generates a deterministic daily weather description from
// smooth noise, so runs with the same seed see the same skies.
package weather

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/villagesim/internal/world"
)

// Generator produces one weather description per in-world day.
type Generator struct {
	skyNoise  opensimplex.Noise
	windNoise opensimplex.Noise
}

// NewGenerator seeds the noise fields.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		skyNoise:  opensimplex.NewNormalized(seed),
		windNoise: opensimplex.NewNormalized(seed + 1),
	}
}

// seasonSkies orders conditions from fair to foul per season.
var seasonSkies = map[world.Season][]string{
	world.SeasonSpring: {"clear and mild", "soft morning mist", "scattered showers", "a steady spring rain"},
	world.SeasonSummer: {"hot and cloudless", "warm with a light breeze", "humid and overcast", "a rolling thunderstorm"},
	world.SeasonAutumn: {"crisp and bright", "grey and blustery", "cold drizzle", "fog thick over the lanes"},
	world.SeasonWinter: {"cold and clear", "heavy frost", "flurries of snow", "a biting snowstorm"},
}

// Describe returns the weather for a day. Deterministic for a fixed seed.
func (g *Generator) Describe(day int, season world.Season) string {
	x := float64(day) * 0.35
	y := float64(season) * 10.0

	sky := g.skyNoise.Eval2(x, y)
	skies := seasonSkies[season]
	idx := int(sky * float64(len(skies)))
	if idx >= len(skies) {
		idx = len(skies) - 1
	}
	desc := skies[idx]

	if g.windNoise.Eval2(x, y) > 0.8 {
		desc += ", wind rattling the shutters"
	}
	return desc
}
