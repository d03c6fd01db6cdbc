// Action decider: builds the prompt context for one agent, asks the LLM,
// and parses the reply into an Action. Never fails: anything unusable
// becomes a wait.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/talgya/villagesim/internal/actions"
	"github.com/talgya/villagesim/internal/goals"
	"github.com/talgya/villagesim/internal/llm"
	"github.com/talgya/villagesim/internal/memory"
	"github.com/talgya/villagesim/internal/world"
)

const deciderSystemPrompt = `You play a villager in a small simulated
village. Choose exactly one action from the available list. Reply with a
single line of the form:
ACTION: <verb> [target]
Anything before that line is ignored.`

// actionLine matches the first "ACTION: verb args" line in a reply,
// ignoring prefix commentary.
var actionLine = regexp.MustCompile(`(?mi)^\s*ACTION:\s*([a-z_]+)\s*(.*)$`)

// Decider chooses an action for one agent per tick.
type Decider struct {
	World  *world.Store
	Goals  *goals.Engine
	Memory *memory.Store
	Client llm.Client
	UseLLM bool
}

// available is one candidate action plus the line offered to the model.
type available struct {
	line   string
	action actions.Action
}

// Decide picks the agent's action for this tick. With the LLM disabled or
// an unusable reply, the default is wait.
func (d *Decider) Decide(ctx context.Context, agent world.Agent) actions.Action {
	p, ok := d.World.Perceive(agent.ID)
	if !ok {
		return actions.Wait(agent.ID)
	}

	avail := d.availableActions(agent, p)
	if len(avail) == 0 || !d.UseLLM || d.Client == nil {
		return actions.Wait(agent.ID)
	}

	prompt := d.buildPrompt(agent, p, avail)
	resp := d.Client.Complete(ctx, llm.Request{
		Prompt:      prompt,
		System:      deciderSystemPrompt,
		MaxTokens:   100,
		Temperature: 0.7,
		AgentID:     string(agent.ID),
		CallType:    "action_decision",
	})

	return d.parse(agent, p, resp.Content)
}

// availableActions enumerates what the agent could plausibly do right now.
func (d *Decider) availableActions(agent world.Agent, p world.Perception) []available {
	var out []available
	add := func(line string, a actions.Action) {
		out = append(out, available{line: line, action: a})
	}

	add("wait", actions.Wait(agent.ID))
	add("observe", actions.Action{Verb: actions.VerbObserve, ActorID: agent.ID})
	add("work", actions.Action{Verb: actions.VerbWork, ActorID: agent.ID})
	add("sleep", actions.Action{Verb: actions.VerbSleep, ActorID: agent.ID})

	for _, dest := range p.Connections {
		add("move "+string(dest), actions.Action{
			Verb: actions.VerbMove, ActorID: agent.ID, TargetObject: string(dest),
		})
	}
	for _, name := range p.AgentNames {
		if other, ok := d.World.AgentByName(name); ok {
			add("greet "+name, actions.Action{Verb: actions.VerbGreet, ActorID: agent.ID, TargetID: other.ID})
			add("talk "+name, actions.Action{Verb: actions.VerbTalk, ActorID: agent.ID, TargetID: other.ID})
		}
	}
	for _, obj := range p.Objects {
		add("examine "+string(obj), actions.Action{Verb: actions.VerbExamine, ActorID: agent.ID, TargetObject: string(obj)})
		add("take "+string(obj), actions.Action{Verb: actions.VerbTake, ActorID: agent.ID, TargetObject: string(obj)})
	}
	for _, item := range agent.Inventory {
		add("drop "+string(item), actions.Action{Verb: actions.VerbDrop, ActorID: agent.ID, TargetObject: string(item)})
	}
	return out
}

// buildPrompt assembles the decision context in a canonical line-oriented
// format: persona, traits, mood, needs, location, memories, goals, and the
// enumerated available actions.
func (d *Decider) buildPrompt(agent world.Agent, p world.Perception, avail []available) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.\n", agent.Name)
	if agent.Prompt != "" {
		b.WriteString(agent.Prompt)
		b.WriteString("\n")
	}
	t := agent.Traits
	fmt.Fprintf(&b, "Traits: curiosity %d, kindness %d, ambition %d, honesty %d, courage %d, sociability %d, temper %d, discipline %d\n",
		t.Curiosity, t.Kindness, t.Ambition, t.Honesty, t.Courage, t.Sociability, t.Temper, t.Discipline)
	fmt.Fprintf(&b, "Mood: happiness %d, energy %d\n", agent.Mood.Happiness, agent.Mood.Energy)
	fmt.Fprintf(&b, "Needs: hunger %.1f, energy %.1f, social %.1f\n",
		agent.Needs.Hunger, agent.Needs.Energy, agent.Needs.Social)
	fmt.Fprintf(&b, "Location: %s\n", p.LocationName)
	if len(p.AgentNames) > 0 {
		fmt.Fprintf(&b, "Nearby: %s\n", strings.Join(p.AgentNames, ", "))
	}

	if d.Memory != nil {
		recent := d.Memory.GetWorking(agent.ID, 5)
		recent = append(recent, d.Memory.GetRecent(agent.ID, 2)...)
		if len(recent) > 0 {
			b.WriteString("You remember:\n")
			for _, m := range recent {
				fmt.Fprintf(&b, "- %s\n", m.Content)
			}
		}
	}

	if d.Goals != nil {
		active := d.Goals.Active(agent.ID)
		if len(active) > 3 {
			active = active[:3]
		}
		if len(active) > 0 {
			b.WriteString("Your goals:\n")
			for _, g := range active {
				fmt.Fprintf(&b, "- %s (priority %d): %s\n", g.Type, g.Priority, g.Description)
			}
		}
	}

	b.WriteString("Available actions:\n")
	for _, a := range avail {
		fmt.Fprintf(&b, "- %s\n", a.line)
	}
	b.WriteString("\nReply with one line: ACTION: <verb> [target]\n")
	return b.String()
}

// parse extracts the chosen action from the model's reply. Prefix
// commentary is ignored; an unknown verb or unresolvable target yields wait.
func (d *Decider) parse(agent world.Agent, p world.Perception, content string) actions.Action {
	m := actionLine.FindStringSubmatch(content)
	if m == nil {
		return actions.Wait(agent.ID)
	}
	verb, ok := actions.ParseVerb(strings.ToLower(m[1]))
	if !ok {
		return actions.Wait(agent.ID)
	}
	args := strings.Fields(strings.TrimSpace(m[2]))

	a := actions.Action{Verb: verb, ActorID: agent.ID}
	switch verb {
	case actions.VerbWait, actions.VerbObserve, actions.VerbSleep,
		actions.VerbScheme, actions.VerbConfess:
		return a

	case actions.VerbWork:
		if len(args) > 0 {
			a.Params = map[string]string{"kind": strings.Join(args, " ")}
		}
		return a

	case actions.VerbMove:
		if len(args) == 0 {
			return actions.Wait(agent.ID)
		}
		a.TargetObject = strings.Join(args, "_")
		return a

	case actions.VerbExamine, actions.VerbTake, actions.VerbDrop, actions.VerbUse:
		if len(args) == 0 {
			return actions.Wait(agent.ID)
		}
		a.TargetObject = args[0]
		return a

	case actions.VerbInvestigate:
		if len(args) > 0 {
			a.Params = map[string]string{"subject": strings.Join(args, " ")}
		}
		return a

	case actions.VerbGreet, actions.VerbTalk, actions.VerbAsk, actions.VerbTell,
		actions.VerbHelp, actions.VerbConfront, actions.VerbAvoid:
		if len(args) == 0 {
			return actions.Wait(agent.ID)
		}
		target, ok := d.resolveAgent(args[0])
		if !ok {
			return actions.Wait(agent.ID)
		}
		a.TargetID = target
		if len(args) > 1 {
			rest := strings.Join(args[1:], " ")
			key := map[actions.Verb]string{
				actions.VerbTalk:     "topic",
				actions.VerbAsk:      "question",
				actions.VerbTell:     "info",
				actions.VerbHelp:     "task",
				actions.VerbConfront: "accusation",
			}[verb]
			if key != "" {
				a.Params = map[string]string{key: rest}
			}
		}
		return a

	case actions.VerbGive:
		if len(args) < 2 {
			return actions.Wait(agent.ID)
		}
		target, ok := d.resolveAgent(args[0])
		if !ok {
			return actions.Wait(agent.ID)
		}
		a.TargetID = target
		a.TargetObject = args[1]
		return a

	case actions.VerbGossip:
		if len(args) < 2 {
			return actions.Wait(agent.ID)
		}
		target, ok := d.resolveAgent(args[0])
		if !ok {
			return actions.Wait(agent.ID)
		}
		subject, ok := d.resolveAgent(args[1])
		if !ok {
			return actions.Wait(agent.ID)
		}
		a.TargetID = target
		a.Params = map[string]string{"subject": string(subject)}
		if len(args) > 2 {
			a.Params["rumor"] = strings.Join(args[2:], " ")
		}
		return a
	}
	return actions.Wait(agent.ID)
}

// resolveAgent matches a token against agent display names
// (case-insensitive), then against raw agent ids.
func (d *Decider) resolveAgent(token string) (world.AgentID, bool) {
	for _, a := range d.World.Agents() {
		if strings.EqualFold(a.Name, token) {
			return a.ID, true
		}
	}
	for _, id := range d.World.AgentIDs() {
		if strings.EqualFold(string(id), token) {
			return id, true
		}
	}
	return "", false
}
