// Package actions resolves static action definitions into LoadedActions
// for the current game state: availability, NPC discounts and
// affordability.
package actions

import (
	"math"
	"slices"

	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/engine/rules"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// MaxDiscount caps the discount any NPC can grant.
const MaxDiscount = 0.5

// Load resolves every defined action in natural id order.
func Load(defs *state.Defs, env rules.Env, cfg balance.Config) []types.LoadedAction {
	out := make([]types.LoadedAction, 0, len(defs.ActionOrder))
	for _, id := range defs.ActionOrder {
		out = append(out, Resolve(defs, defs.Actions[id], env, cfg))
	}
	return out
}

// Resolve computes availability, discount and affordability for one action.
func Resolve(defs *state.Defs, def types.ActionDef, env rules.Env, cfg balance.Config) types.LoadedAction {
	s := env.State
	la := types.LoadedAction{Def: def, Available: true}

	switch {
	case def.MinPhase > s.Phase.Number:
		la.Available = false
		la.UnavailableReason = "not yet"
	case def.Once && s.UsedActions[def.ID]:
		la.Available = false
		la.UnavailableReason = "already done"
	case !rules.EvalAllConditions(def.Requires, env):
		la.Available = false
		la.UnavailableReason = "requirements not met"
	}

	la.DiscountNPC, la.Discount = BestDiscount(defs, def, s.NPCs)
	la.EffectiveCost = EffectiveCost(def.Cost, cfg.CostMultiplier, la.Discount)
	la.Affordable = Affordable(s.Resources, la.EffectiveCost)
	return la
}

// BestDiscount picks the single best discount among available NPCs that
// either sponsor the action or share its category. Discounts never stack.
func BestDiscount(defs *state.Defs, def types.ActionDef, npcs []types.NPCState) (string, float64) {
	bestID, best := "", 0.0
	for _, npc := range npcs {
		if !npc.Available {
			continue
		}
		nd, ok := defs.NPC(npc.ID)
		if !ok {
			continue
		}
		if def.NPC != npc.ID && !slices.Contains(nd.Affinity, def.Category) {
			continue
		}
		d := min(MaxDiscount, nd.DiscountPerLevel*float64(npc.RelationshipLevel))
		if d > best {
			bestID, best = npc.ID, d
		}
	}
	return bestID, best
}

// EffectiveCost scales base costs by the difficulty multiplier, then
// applies the discount. Action points are never discounted.
func EffectiveCost(base types.Costs, multiplier, discount float64) types.Costs {
	if multiplier == 0 {
		multiplier = 1
	}
	scale := func(v int) int {
		c := int(math.Round(float64(v) * multiplier))
		return c - int(math.Floor(float64(c)*discount))
	}
	return types.Costs{
		Budget:       scale(base.Budget),
		Capacity:     scale(base.Capacity),
		ActionPoints: base.ActionPoints,
	}
}

// Affordable reports whether r covers c.
func Affordable(r types.StoryResources, c types.Costs) bool {
	return r.Budget >= c.Budget &&
		r.Capacity >= c.Capacity &&
		r.ActionPointsRemaining >= c.ActionPoints
}

// Shortfall names the first resource that does not cover c, or "".
func Shortfall(r types.StoryResources, c types.Costs) string {
	switch {
	case r.Budget < c.Budget:
		return "budget"
	case r.Capacity < c.Capacity:
		return "capacity"
	case r.ActionPointsRemaining < c.ActionPoints:
		return "action points"
	default:
		return ""
	}
}
