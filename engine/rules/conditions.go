// Package rules evaluates data-defined conditions and selects among
// conditional candidates (crises, event handlers).
package rules

import (
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Env is everything a condition may read.
type Env struct {
	State *types.GameState

	// Warning returns an NPC's betrayal warning level. Nil reads as 0.
	Warning func(npcID string) int
}

// EvalCondition evaluates a single condition against the environment.
// Unknown condition types are false.
func EvalCondition(c types.Condition, env Env) bool {
	s := env.State
	switch c.Type {
	case "flag_set":
		flag, _ := c.Params["flag"].(string)
		return state.GetFlag(s, flag)

	case "flag_not":
		flag, _ := c.Params["flag"].(string)
		return !state.GetFlag(s, flag)

	case "min_phase":
		return s.Phase.Number >= toInt(c.Params["phase"])

	case "max_phase":
		return s.Phase.Number <= toInt(c.Params["phase"])

	case "resource_gte":
		name, _ := c.Params["resource"].(string)
		v, ok := ResourceValue(s.Resources, name)
		return ok && v >= toFloat(c.Params["value"])

	case "resource_lt":
		name, _ := c.Params["resource"].(string)
		v, ok := ResourceValue(s.Resources, name)
		return ok && v < toFloat(c.Params["value"])

	case "objective_gte":
		id, _ := c.Params["objective"].(string)
		o := state.Objective(s, id)
		return o != nil && o.CurrentValue >= toFloat(c.Params["value"])

	case "min_relationship":
		id, _ := c.Params["npc"].(string)
		npc := state.NPC(s, id)
		return npc != nil && npc.RelationshipLevel >= toInt(c.Params["level"])

	case "morale_lt":
		id, _ := c.Params["npc"].(string)
		npc := state.NPC(s, id)
		return npc != nil && npc.Morale < toInt(c.Params["value"])

	case "betrayal_warning":
		id, _ := c.Params["npc"].(string)
		if env.Warning == nil {
			return false
		}
		return env.Warning(id) >= toInt(c.Params["level"])

	case "action_used":
		id, _ := c.Params["action"].(string)
		return s.UsedActions[id]

	case "trust_lt":
		id, _ := c.Params["actor"].(string)
		a := state.Actor(s, id)
		return a != nil && a.Trust < toFloat(c.Params["value"])

	case "not":
		if c.Inner == nil {
			return true
		}
		return !EvalCondition(*c.Inner, env)

	default:
		return false
	}
}

// EvalAllConditions returns true if all conditions pass (AND logic).
// An empty condition list is vacuously true.
func EvalAllConditions(conditions []types.Condition, env Env) bool {
	for _, c := range conditions {
		if !EvalCondition(c, env) {
			return false
		}
	}
	return true
}

// ResourceValue reads a resource by its content name.
func ResourceValue(r types.StoryResources, name string) (float64, bool) {
	switch name {
	case "budget":
		return float64(r.Budget), true
	case "capacity":
		return float64(r.Capacity), true
	case "risk":
		return r.Risk, true
	case "attention":
		return r.Attention, true
	case "moral_weight":
		return float64(r.MoralWeight), true
	case "action_points":
		return float64(r.ActionPointsRemaining), true
	default:
		return 0, false
	}
}

// ResourceNames lists the names ResourceValue understands.
var ResourceNames = []string{"budget", "capacity", "risk", "attention", "moral_weight", "action_points"}

// toInt converts an any value to int, handling float64 from JSON/Lua.
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
