package engine

import (
	"fmt"

	"github.com/nathoo/storycore/engine/actions"
	"github.com/nathoo/storycore/engine/actors"
	"github.com/nathoo/storycore/engine/effects"
	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/events"
	"github.com/nathoo/storycore/engine/news"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// NPC reaction tuning.
const (
	approveMorale      = 3
	approveProgress    = 10
	disapproveMorale   = -5
	disapproveProgress = -5
	grievancePerScore  = 0.15
)

// ExecuteAction runs one action through the pipeline: afford, charge,
// apply, schedule consequence, NPC reactions, combos, arms race, history.
// Only the affordability check fails softly, as an unsuccessful result.
func (e *Engine) ExecuteAction(id string) (types.ActionResult, error) {
	if e.state.GameEnd != nil {
		return types.ActionResult{}, errs.ErrGameOver
	}
	def, ok := e.defs.Actions[id]
	if !ok {
		return types.ActionResult{}, errs.NewReference(errs.KindAction, id)
	}
	la := actions.Resolve(e.defs, def, e.env(), e.cfg)
	if !la.Available {
		return types.ActionResult{}, fmt.Errorf("%s: %s: %w", id, la.UnavailableReason, errs.ErrActionUnavailable)
	}

	s := e.state
	phase := s.Phase.Number
	res := types.ActionResult{
		ActionID:    id,
		Phase:       phase,
		Discount:    la.Discount,
		DiscountNPC: la.DiscountNPC,
	}
	if short := actions.Shortfall(s.Resources, la.EffectiveCost); short != "" {
		res.Error = "insufficient " + short
		return res, nil
	}

	before := s.Resources
	s.Resources.Budget -= la.EffectiveCost.Budget
	s.Resources.Capacity -= la.EffectiveCost.Capacity
	s.Resources.ActionPointsRemaining -= la.EffectiveCost.ActionPoints
	s.UsedActions[id] = true
	res.CostPaid = la.EffectiveCost
	res.Success = true

	mod := actors.Effectiveness(e.defs, s, def)
	res.Effectiveness = mod.Value()

	out := effects.Apply(s, def.Effects, effects.Context{
		TargetActor: def.Target,
		NPC:         def.NPC,
		Multiplier:  res.Effectiveness,
	})
	effects.Apply(s, []types.Effect{
		resourceEffect("risk", def.Risk),
		resourceEffect("attention", def.Attention),
		resourceEffect("moral_weight", float64(def.MoralWeight)),
	}, effects.Context{})
	for _, flag := range def.Unlocks {
		s.Flags[flag] = true
	}
	res.ObjectiveChanges = nonEmpty(out.Objectives)
	res.TrustChanges = nonEmpty(out.Trust)
	res.Narrative = append(res.Narrative, out.Output...)

	if def.Consequence != nil {
		e.safely("consequence", func() {
			draw := e.rng.Float64()
			if draw >= def.Consequence.Chance*e.cfg.ConsequenceChanceMultiplier {
				return
			}
			p, err := e.consequences.Schedule(def.Consequence.ID, id, phase, def.Consequence.Delay)
			if err != nil {
				e.warn("consequence", err)
				return
			}
			res.ScheduledConsequence = &p
		})
	}

	e.safely("reactions", func() {
		res.Reactions = e.npcReactions(def)
	})

	if def.Narrative != "" {
		res.Narrative = append(res.Narrative, e.ResolveText(def.Narrative, def.NPC))
	}

	e.safely("combos", func() {
		cr := e.combos.ProcessAction(id, def.Tags, phase)
		for _, a := range cr.Completed {
			bonus := effects.Apply(s, a.Bonus, effects.Context{TargetActor: def.Target, NPC: def.NPC})
			res.ObjectiveChanges = merge(res.ObjectiveChanges, bonus.Objectives)
			res.Narrative = append(res.Narrative, bonus.Output...)
			res.Combos = append(res.Combos, a)
			news.Record(s, e.news.FromCombo(a))
			e.emit(events.ComboCompleted, events.ComboData{Activation: a})
		}
	})

	e.safely("arms race", func() { e.ai.TrackAction(def) })

	state.ClampResources(&s.Resources)
	after := s.Resources
	res.Resources = types.ResourceDelta{
		Budget:       after.Budget - before.Budget,
		Capacity:     after.Capacity - before.Capacity,
		Risk:         after.Risk - before.Risk,
		Attention:    after.Attention - before.Attention,
		MoralWeight:  after.MoralWeight - before.MoralWeight,
		ActionPoints: after.ActionPointsRemaining - before.ActionPointsRemaining,
	}

	objDelta := 0.0
	for _, d := range res.ObjectiveChanges {
		objDelta += d
	}
	s.ActionHistory = append(s.ActionHistory, types.ActionRecord{
		ActionID:       id,
		Category:       def.Category,
		Tags:           append([]string(nil), def.Tags...),
		Phase:          phase,
		Cost:           res.CostPaid,
		Effectiveness:  res.Effectiveness,
		ObjectiveDelta: objDelta,
		Success:        true,
	})
	e.safely("news", func() {
		ev := news.Record(s, e.news.FromAction(def, res))
		res.News = &ev
	})

	e.emit(events.ActionExecuted, events.ActionData{Result: res})
	res.Narrative = append(res.Narrative, e.flush()...)
	if end := e.evaluateEnd(); end != nil {
		e.finish(end)
		e.flush()
	}
	return res, nil
}

// ExecuteActions runs ids in order and stops at the first error. The
// results of the actions that ran are returned alongside it.
func (e *Engine) ExecuteActions(ids []string) ([]types.ActionResult, error) {
	results := make([]types.ActionResult, 0, len(ids))
	for _, id := range ids {
		res, err := e.ExecuteAction(id)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if e.state.GameEnd != nil {
			break
		}
	}
	return results, nil
}

// npcReactions scores def against every available NPC in roster order.
// Approval builds morale and relationship; disapproval costs both and
// files a grievance.
func (e *Engine) npcReactions(def types.ActionDef) []types.ActorReaction {
	var out []types.ActorReaction
	phase := e.state.Phase.Number
	for i := range e.state.NPCs {
		npc := &e.state.NPCs[i]
		if !npc.Available {
			continue
		}
		nd, ok := e.defs.NPC(npc.ID)
		if !ok {
			continue
		}
		score := reactionScore(nd, def)
		switch {
		case score > 0:
			state.AdjustMorale(npc, approveMorale)
			state.AdjustRelationship(npc, approveProgress)
			out = append(out, types.ActorReaction{
				NPCID: npc.ID, Kind: "approve",
				MoraleDelta: approveMorale, RelationshipDelta: approveProgress,
			})
		case score < 0:
			state.AdjustMorale(npc, disapproveMorale)
			state.AdjustRelationship(npc, disapproveProgress)
			reason := fmt.Sprintf("%s (%s)", def.Name, def.ID)
			if _, err := e.betrayal.AddGrievance(npc.ID, reason, grievancePerScore*float64(-score), phase); err != nil {
				e.warn("reactions", err)
			}
			out = append(out, types.ActorReaction{
				NPCID: npc.ID, Kind: "disapprove",
				MoraleDelta: disapproveMorale, RelationshipDelta: disapproveProgress,
			})
		}
	}
	return out
}

func reactionScore(nd types.NPCDef, def types.ActionDef) int {
	score := 0
	for _, c := range nd.Affinity {
		if c == def.Category {
			score++
			break
		}
	}
	for _, obj := range nd.Objections {
		for _, tag := range def.Tags {
			if tag == obj {
				score--
			}
		}
	}
	if nd.MoralThreshold > 0 && def.MoralWeight >= nd.MoralThreshold {
		score--
	}
	return score
}

func resourceEffect(name string, amount float64) types.Effect {
	return types.Effect{Type: "resource", Params: map[string]any{"resource": name, "amount": amount}}
}

func nonEmpty(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	return m
}

// merge adds src into dst and returns dst, allocating it when needed.
func merge(dst, src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = map[string]float64{}
	}
	for k, v := range src {
		dst[k] += v
	}
	return dst
}
