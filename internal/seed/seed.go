// Package seed provides the built-in starting village: its places, its
// residents, and the relationships they begin with.
package seed

import (
	"fmt"

	"github.com/talgya/villagesim/internal/world"
)

// Locations returns the village map. Connections are directed; the seed
// keeps them symmetric so agents can walk back the way they came.
func Locations() []world.Location {
	return []world.Location{
		{
			ID: "bakery", Name: "The Bakery",
			Description: "A warm shop smelling of fresh bread, flour dusting every surface.",
			Connections: []world.LocationID{"town_square"},
			Objects:     []world.ItemID{"oven", "bread"},
			Capacity:    4,
		},
		{
			ID: "town_square", Name: "Town Square",
			Description: "The cobbled heart of the village, ringed by shops and benches.",
			Connections: []world.LocationID{"bakery", "tavern", "market", "well", "chapel"},
			Objects:     []world.ItemID{"fountain", "notice_board"},
			Capacity:    20,
		},
		{
			ID: "tavern", Name: "The Crooked Tankard",
			Description: "Low beams, a roaring hearth, and ale that loosens tongues.",
			Connections: []world.LocationID{"town_square"},
			Objects:     []world.ItemID{"hearth", "ale_keg"},
			Capacity:    12,
		},
		{
			ID: "market", Name: "Market Row",
			Description: "Stalls of vegetables, cloth, and trinkets from the next valley.",
			Connections: []world.LocationID{"town_square", "garden"},
			Objects:     []world.ItemID{"stall", "crate"},
			Capacity:    15,
		},
		{
			ID: "garden", Name: "Herb Garden",
			Description: "Neat beds of rosemary and feverfew behind a low stone wall.",
			Connections: []world.LocationID{"market", "forest_edge"},
			Objects:     []world.ItemID{"rosebush", "spade"},
			Capacity:    5,
		},
		{
			ID: "well", Name: "The Old Well",
			Description: "Moss-covered stones and a bucket on a fraying rope.",
			Connections: []world.LocationID{"town_square", "forest_edge"},
			Objects:     []world.ItemID{"bucket"},
			Capacity:    6,
		},
		{
			ID: "chapel", Name: "The Chapel",
			Description: "Whitewashed walls, candle smoke, and a quiet that settles the mind.",
			Connections: []world.LocationID{"town_square"},
			Objects:     []world.ItemID{"candle", "pew"},
			Capacity:    10,
		},
		{
			ID: "forest_edge", Name: "Forest Edge",
			Description: "Where the lanes end and the dark trees begin.",
			Connections: []world.LocationID{"garden", "well"},
			Objects:     []world.ItemID{"mushroom", "fallen_log"},
			Capacity:    8,
		},
	}
}

// Agents returns the six villagers.
func Agents() []world.Agent {
	return []world.Agent{
		{
			ID: "agnes", Name: "Agnes",
			Traits: world.Traits{Curiosity: 4, Kindness: 8, Ambition: 6, Honesty: 7, Courage: 5, Sociability: 7, Temper: 3, Discipline: 9},
			Prompt: "Agnes runs the bakery her mother left her. She rises before dawn, " +
				"feeds half the village, and notices more than she lets on.",
			LocationID: "bakery",
			Inventory:  []world.ItemID{"rolling_pin"},
			Mood:       world.Mood{Happiness: 6, Energy: 7},
			Needs:      world.Needs{Hunger: 3, Energy: 7, Social: 5},
		},
		{
			ID: "bob", Name: "Bob",
			Traits: world.Traits{Curiosity: 5, Kindness: 6, Ambition: 4, Honesty: 8, Courage: 6, Sociability: 5, Temper: 5, Discipline: 6},
			Prompt: "Bob the carpenter fixes what breaks and says little. " +
				"He owes Agnes for a winter she never mentions.",
			LocationID: "town_square",
			Inventory:  []world.ItemID{"hammer"},
			Mood:       world.Mood{Happiness: 5, Energy: 6},
			Needs:      world.Needs{Hunger: 4, Energy: 6, Social: 4},
		},
		{
			ID: "clara", Name: "Clara",
			Traits: world.Traits{Curiosity: 9, Kindness: 7, Ambition: 5, Honesty: 6, Courage: 7, Sociability: 4, Temper: 4, Discipline: 7},
			Prompt: "Clara the herbalist keeps the garden and knows which mushrooms " +
				"heal and which do not. The forest does not frighten her.",
			LocationID: "garden",
			Inventory:  []world.ItemID{"herb_pouch"},
			Mood:       world.Mood{Happiness: 6, Energy: 6},
			Needs:      world.Needs{Hunger: 3, Energy: 6, Social: 3},
		},
		{
			ID: "dieter", Name: "Dieter",
			Traits: world.Traits{Curiosity: 5, Kindness: 5, Ambition: 8, Honesty: 4, Courage: 5, Sociability: 8, Temper: 6, Discipline: 5},
			Prompt: "Dieter pours the ale at the Crooked Tankard and hears every rumor " +
				"twice. He has plans for a second taproom he tells no one about.",
			LocationID: "tavern",
			Inventory:  nil,
			Mood:       world.Mood{Happiness: 7, Energy: 6},
			Needs:      world.Needs{Hunger: 4, Energy: 6, Social: 7},
		},
		{
			ID: "elsa", Name: "Elsa",
			Traits: world.Traits{Curiosity: 7, Kindness: 4, Ambition: 6, Honesty: 3, Courage: 4, Sociability: 9, Temper: 7, Discipline: 4},
			Prompt: "Elsa the weaver trades cloth and gossip in equal measure. " +
				"Nothing happens in the village without her retelling it, improved.",
			LocationID: "market",
			Inventory:  []world.ItemID{"shawl"},
			Mood:       world.Mood{Happiness: 6, Energy: 5},
			Needs:      world.Needs{Hunger: 3, Energy: 5, Social: 6},
		},
		{
			ID: "finn", Name: "Finn",
			Traits: world.Traits{Curiosity: 8, Kindness: 6, Ambition: 3, Honesty: 7, Courage: 8, Sociability: 3, Temper: 4, Discipline: 3},
			Prompt: "Finn arrived with the spring thaw and stayed. He sleeps where " +
				"he can, wanders the forest edge, and answers questions sideways.",
			LocationID: "forest_edge",
			Inventory:  []world.ItemID{"walking_stick"},
			Mood:       world.Mood{Happiness: 5, Energy: 7},
			Needs:      world.Needs{Hunger: 5, Energy: 7, Social: 2},
		},
	}
}

// starterRel seeds one directed relationship edge.
type starterRel struct {
	src, dst world.AgentID
	relType  string
	score    int
	note     string
}

var starterRels = []starterRel{
	{"agnes", "bob", "friend", 4, "Bob rebuilt the bakery door after the storm"},
	{"bob", "agnes", "friend", 5, "Agnes fed him through the hard winter"},
	{"dieter", "elsa", "friend", 3, "she brings customers and stories"},
	{"elsa", "dieter", "friend", 3, "the tavern is where stories start"},
	{"clara", "finn", "acquaintance", 2, "met gathering mushrooms at the forest edge"},
	{"elsa", "finn", "stranger", -1, "does not trust a man with no past"},
}

// Apply populates an empty store with the starting village.
func Apply(s *world.Store) error {
	for _, l := range Locations() {
		if err := s.AddLocation(l); err != nil {
			return fmt.Errorf("seed location: %w", err)
		}
	}
	for _, a := range Agents() {
		if err := s.AddAgent(a); err != nil {
			return fmt.Errorf("seed agent: %w", err)
		}
	}
	return s.Update(func(tx *world.Tx) error {
		for _, r := range starterRels {
			if err := tx.UpsertRelationship(r.src, r.dst, r.relType, r.score, r.note); err != nil {
				return fmt.Errorf("seed relationship %s→%s: %w", r.src, r.dst, err)
			}
		}
		return nil
	})
}
