// Package effects implements centralized state mutation via the Apply function.
// Every effect type is one atomic operation. No logic in effects.
package effects

import (
	"fmt"

	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Context carries the defaults and scaling an effect list runs under.
type Context struct {
	TargetActor string  // actor for "trust" effects that name none
	NPC         string  // NPC for "morale"/"relationship" effects that name none
	Multiplier  float64 // scales objective and trust amounts; 0 reads as 1
}

// Outcome summarizes what one Apply call changed.
type Outcome struct {
	Resources  types.ResourceDelta
	Objectives map[string]float64
	Trust      map[string]float64
	Windows    []types.OpportunityWindow
	Output     []string
	Stopped    bool
}

// Apply applies a list of effects to the game state, mutating it.
// Unknown effect types and unknown targets are ignored.
func Apply(s *types.GameState, effects []types.Effect, ctx Context) Outcome {
	out := Outcome{
		Objectives: map[string]float64{},
		Trust:      map[string]float64{},
	}
	mult := ctx.Multiplier
	if mult == 0 {
		mult = 1
	}

	for _, eff := range effects {
		switch eff.Type {
		case "say":
			text, _ := eff.Params["text"].(string)
			out.Output = append(out.Output, text)

		case "resource":
			name, _ := eff.Params["resource"].(string)
			applyResource(s, &out.Resources, name, toFloat(eff.Params["amount"]))

		case "objective":
			id, _ := eff.Params["objective"].(string)
			if o := state.Objective(s, id); o != nil {
				out.Objectives[id] += state.AdjustObjective(o, toFloat(eff.Params["amount"])*mult)
			}

		case "trust":
			id, _ := eff.Params["actor"].(string)
			if id == "" {
				id = ctx.TargetActor
			}
			amount := toFloat(eff.Params["amount"]) * mult
			for _, a := range actorTargets(s, id) {
				before := a.Trust
				a.Trust = max(0, min(100, a.Trust+amount))
				out.Trust[a.ID] += a.Trust - before
			}

		case "morale":
			id, _ := eff.Params["npc"].(string)
			if id == "" {
				id = ctx.NPC
			}
			for _, npc := range npcTargets(s, id) {
				state.AdjustMorale(npc, toInt(eff.Params["amount"]))
			}

		case "relationship":
			id, _ := eff.Params["npc"].(string)
			if id == "" {
				id = ctx.NPC
			}
			for _, npc := range npcTargets(s, id) {
				state.AdjustRelationship(npc, toInt(eff.Params["amount"]))
			}

		case "set_available":
			id, _ := eff.Params["npc"].(string)
			value, _ := eff.Params["value"].(bool)
			if npc := state.NPC(s, id); npc != nil {
				npc.Available = value
			}

		case "set_flag":
			flag, _ := eff.Params["flag"].(string)
			value, _ := eff.Params["value"].(bool)
			s.Flags[flag] = value

		case "open_window":
			tag, _ := eff.Params["tag"].(string)
			duration := max(1, toInt(eff.Params["duration"]))
			w := types.OpportunityWindow{
				ID:            fmt.Sprintf("%s@%d", tag, s.Phase.Number),
				Tag:           tag,
				Bonus:         toFloat(eff.Params["bonus"]),
				OpenedPhase:   s.Phase.Number,
				DeadlinePhase: s.Phase.Number + duration,
			}
			s.Windows = append(s.Windows, w)
			out.Windows = append(out.Windows, w)

		case "stop":
			out.Stopped = true
			return out

		default:
			// Unknown effect type: ignore silently.
		}
	}

	return out
}

func applyResource(s *types.GameState, d *types.ResourceDelta, name string, amount float64) {
	r := &s.Resources
	before := *r
	switch name {
	case "budget":
		r.Budget += int(amount)
	case "capacity":
		r.Capacity += int(amount)
	case "risk":
		r.Risk += amount
	case "attention":
		r.Attention += amount
	case "moral_weight":
		r.MoralWeight += int(amount)
	case "action_points":
		r.ActionPointsRemaining += int(amount)
	default:
		return
	}
	state.ClampResources(r)
	d.Budget += r.Budget - before.Budget
	d.Capacity += r.Capacity - before.Capacity
	d.Risk += r.Risk - before.Risk
	d.Attention += r.Attention - before.Attention
	d.MoralWeight += r.MoralWeight - before.MoralWeight
	d.ActionPoints += r.ActionPointsRemaining - before.ActionPointsRemaining
}

// actorTargets resolves "all" to every non-defensive actor.
func actorTargets(s *types.GameState, id string) []*types.ActorState {
	if id == "all" {
		var out []*types.ActorState
		for i := range s.Actors {
			if !s.Actors[i].Defensive {
				out = append(out, &s.Actors[i])
			}
		}
		return out
	}
	if a := state.Actor(s, id); a != nil {
		return []*types.ActorState{a}
	}
	return nil
}

// npcTargets resolves "all" to every available NPC.
func npcTargets(s *types.GameState, id string) []*types.NPCState {
	if id == "all" {
		var out []*types.NPCState
		for i := range s.NPCs {
			if s.NPCs[i].Available {
				out = append(out, &s.NPCs[i])
			}
		}
		return out
	}
	if npc := state.NPC(s, id); npc != nil {
		return []*types.NPCState{npc}
	}
	return nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
