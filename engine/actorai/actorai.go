// Package actorai models the defenders' arms race against the campaign.
//
// Aggressive actions build pressure. Once pressure crosses a threshold
// that grows with every defender already fielded, a new defensive actor
// spawns (interval-gated, capped). Each phase every defender picks the
// counter-move with the highest utility against the player's visible
// weak spots and applies it.
package actorai

import (
	"fmt"
	"math"

	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/engine/effects"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// AI action kinds, in tie-break order.
const (
	KindExpose  = "expose"
	KindDebunk  = "debunk"
	KindShoreUp = "shore_up"
	KindAudit   = "audit"
)

// Kinds lists the action kinds in tie-break order.
var Kinds = []string{KindExpose, KindDebunk, KindShoreUp, KindAudit}

const (
	// IdleUtility is the score below which a defender does nothing.
	IdleUtility = 0.2
	// MaxEscalation caps the escalation level.
	MaxEscalation = 5
	// spawnScaling raises the spawn pressure per fielded defender.
	spawnScaling = 0.25
)

// Roller is the slice of the shared RNG spawning needs.
type Roller interface {
	WeightedSelect(weights []int) int
}

// Outcome is what the arms race did in one phase.
type Outcome struct {
	Spawned *types.ActorState
	Actions []types.AIAction
}

// System owns the arms-race bookkeeping.
type System struct {
	defs []types.DefensiveActorDef
	cfg  balance.Config
	st   types.ActorAIState
}

// New creates a calm arms race.
func New(defs []types.DefensiveActorDef, cfg balance.Config) *System {
	return &System{defs: defs, cfg: cfg}
}

// TrackAction adds an executed action's aggression to the pressure.
// Actions without explicit aggression contribute a fifth of their risk.
func (s *System) TrackAction(def types.ActionDef) {
	a := def.Aggression
	if a == 0 {
		a = def.Risk / 5
	}
	s.st.Pressure += max(0, a)
	s.st.EscalationLevel = s.escalation()
}

// DynamicDefensiveSpawnTrust is the starting trust of a defender spawned
// while totalActors actors are on the board.
func (s *System) DynamicDefensiveSpawnTrust(totalActors int) float64 {
	return min(95, s.cfg.DefensiveTrustBase+s.cfg.DefensiveTrustPerActor*float64(totalActors))
}

// SpawnThreshold is the pressure needed for the next spawn.
func (s *System) SpawnThreshold(defensiveCount int) float64 {
	return s.cfg.DefensiveSpawnPressure * (1 + spawnScaling*float64(defensiveCount))
}

// Phase runs the arms race for the new phase: decay, spawn, act.
func (s *System) Phase(gs *types.GameState, rng Roller) Outcome {
	var out Outcome
	phase := gs.Phase.Number

	s.st.Pressure *= 1 - s.cfg.PressureDecay
	s.st.EscalationLevel = s.escalation()

	count := state.DefensiveCount(gs.Actors)
	if len(s.defs) > 0 &&
		count < s.cfg.MaxDefensiveActors &&
		phase-s.st.LastSpawnPhase >= s.cfg.DefensiveSpawnInterval &&
		s.st.Pressure >= s.SpawnThreshold(count) {

		weights := make([]int, len(s.defs))
		for i, d := range s.defs {
			weights[i] = max(1, d.Weight)
		}
		def := s.defs[rng.WeightedSelect(weights)]
		actor := types.ActorState{
			ID:           fmt.Sprintf("%s-%d", def.ID, phase),
			Name:         def.Name,
			Category:     "defensive",
			Trust:        s.DynamicDefensiveSpawnTrust(len(gs.Actors)),
			Defensive:    true,
			Template:     def.ID,
			SpawnedPhase: phase,
		}
		gs.Actors = append(gs.Actors, actor)
		s.st.LastSpawnPhase = phase
		out.Spawned = &actor
	}

	for _, a := range gs.Actors {
		if !a.Defensive {
			continue
		}
		def, ok := s.template(a.Template)
		if !ok {
			continue
		}
		act, ok := s.decide(gs, a, def)
		if !ok {
			continue
		}
		effects.Apply(gs, act.Effects, effects.Context{})
		out.Actions = append(out.Actions, act)
	}
	return out
}

// Utility scores each kind for a defender with the given focus. A nil
// focus weighs every kind equally.
func Utility(gs *types.GameState, focus map[string]float64) map[string]float64 {
	minTrust := 100.0
	for _, a := range gs.Actors {
		if !a.Defensive {
			minTrust = min(minTrust, a.Trust)
		}
	}
	raw := map[string]float64{
		KindExpose:  gs.Resources.Risk / 100,
		KindDebunk:  gs.Resources.Attention / 100,
		KindShoreUp: (100 - minTrust) / 100,
		KindAudit:   min(1, float64(gs.Resources.MoralWeight)/50),
	}
	if focus == nil {
		return raw
	}
	for k := range raw {
		raw[k] *= focus[k]
	}
	return raw
}

// decide picks the best counter-move for one defender.
func (s *System) decide(gs *types.GameState, a types.ActorState, def types.DefensiveActorDef) (types.AIAction, bool) {
	util := Utility(gs, def.Focus)
	best, bestU := "", 0.0
	for _, k := range Kinds {
		if util[k] > bestU {
			best, bestU = k, util[k]
		}
	}
	if bestU < IdleUtility {
		return types.AIAction{}, false
	}
	strength := def.Strength *
		(1 + 0.2*float64(s.st.EscalationLevel)) *
		s.cfg.AIStrengthMultiplier *
		a.Trust / 100
	strength = math.Round(strength*100) / 100

	return types.AIAction{
		ActorID:  a.ID,
		Kind:     best,
		Utility:  bestU,
		Strength: strength,
		Effects:  counterEffects(gs, best, strength),
	}, true
}

func counterEffects(gs *types.GameState, kind string, strength float64) []types.Effect {
	switch kind {
	case KindExpose:
		return []types.Effect{resource("risk", strength)}
	case KindDebunk:
		effs := []types.Effect{resource("attention", strength/2)}
		for _, o := range gs.Objectives {
			if o.Type == "primary" && !o.Completed {
				effs = append(effs, types.Effect{Type: "objective", Params: map[string]any{
					"objective": o.ID, "amount": -strength / 2,
				}})
			}
		}
		return effs
	case KindShoreUp:
		target, low := "", 101.0
		for _, a := range gs.Actors {
			if !a.Defensive && a.Trust < low {
				target, low = a.ID, a.Trust
			}
		}
		if target == "" {
			return nil
		}
		return []types.Effect{{Type: "trust", Params: map[string]any{"actor": target, "amount": strength}}}
	case KindAudit:
		return []types.Effect{
			resource("budget", -math.Round(strength*2)),
			resource("risk", strength/2),
		}
	}
	return nil
}

func resource(name string, amount float64) types.Effect {
	return types.Effect{Type: "resource", Params: map[string]any{"resource": name, "amount": amount}}
}

func (s *System) escalation() int {
	if s.cfg.EscalationStep <= 0 {
		return 0
	}
	return min(MaxEscalation, int(s.st.Pressure/s.cfg.EscalationStep))
}

func (s *System) template(id string) (types.DefensiveActorDef, bool) {
	for _, d := range s.defs {
		if d.ID == id {
			return d, true
		}
	}
	return types.DefensiveActorDef{}, false
}

// Pressure returns the current aggression pressure.
func (s *System) Pressure() float64 { return s.st.Pressure }

// Escalation returns the current escalation level.
func (s *System) Escalation() int { return s.st.EscalationLevel }

// State returns the persisted bookkeeping.
func (s *System) State() types.ActorAIState { return s.st }

// Restore replaces the bookkeeping.
func (s *System) Restore(st types.ActorAIState) { s.st = st }

// Reset returns to a calm arms race.
func (s *System) Reset() { s.st = types.ActorAIState{} }
