package engine

import (
	"go.uber.org/zap"

	"github.com/nathoo/storycore/engine/actors"
	"github.com/nathoo/storycore/engine/betrayal"
	"github.com/nathoo/storycore/engine/dialogue"
	"github.com/nathoo/storycore/engine/effects"
	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/events"
	"github.com/nathoo/storycore/engine/news"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// BetrayalRisk is the risk a betrayal adds to the campaign.
const BetrayalRisk = 15

// AdvancePhase moves the campaign one month forward. A terminal new phase
// ends the game without running any phase step. Steps that fail are
// logged and skipped; the phase advances regardless.
func (e *Engine) AdvancePhase() (types.PhaseResult, error) {
	if e.state.GameEnd != nil {
		return types.PhaseResult{}, errs.ErrGameOver
	}
	s := e.state
	s.Phase = state.PhaseFor(s.Phase.Number + 1)
	phase := s.Phase.Number
	res := types.PhaseResult{NewPhase: s.Phase}

	if end := e.evaluateEnd(); end != nil {
		e.finish(end)
		res.GameEnd = e.CheckGameEnd()
		e.flush()
		return res, nil
	}

	e.safely("expire", func() {
		e.combos.CleanupExpired(phase)
		actors.ExpireWindows(s, phase)
	})

	e.regenerate()

	e.safely("exposure", func() { e.tickExposure() })

	e.safely("consequences", func() {
		a := e.consequences.Promote(phase)
		if a == nil {
			return
		}
		def, _ := e.consequences.Def(a.ConsequenceID)
		effects.Apply(s, def.OnActivate, effects.Context{})
		news.Record(s, e.news.FromConsequence(*a, def.Severity))
		res.TriggeredConsequences = append(res.TriggeredConsequences, *a)
		e.emit(events.ConsequenceActivated, events.ConsequenceData{Consequence: *a})
	})

	e.safely("news", func() {
		for _, g := range e.news.PhaseEvents(s, e.rng) {
			ev := news.Record(s, g.Event)
			res.WorldEvents = append(res.WorldEvents, ev)
			if g.Template == nil {
				continue
			}
			effects.Apply(s, g.Template.Effects, effects.Context{NPC: g.Template.NPC})
			if w := g.Template.Window; w != nil {
				effects.Apply(s, []types.Effect{{Type: "open_window", Params: map[string]any{
					"tag": w.Tag, "bonus": w.Bonus, "duration": w.Duration,
				}}}, effects.Context{})
			}
		}
	})

	e.safely("npc reactions", func() {
		for _, r := range e.dialogues.PhaseReactions(s, e.betrayal) {
			r.Line = e.inserts.Reaction(dialogue.ContextFor(s, state.NPC(s, r.NPCID)), e.lang)
			res.NPCReactions = append(res.NPCReactions, r)
		}
	})

	e.safely("betrayal", func() {
		for _, o := range e.betrayal.Tick(s.NPCs, e.rng) {
			e.applyBetrayal(o)
		}
	})

	e.safely("crisis", func() {
		c := e.crises.Check(e.env(), phase)
		if c == nil {
			return
		}
		if npc := state.NPC(s, c.NPCID); npc != nil {
			npc.InCrisis = true
		}
		news.Record(s, e.news.FromCrisis(*c))
		res.Crisis = c
		e.emit(events.CrisisStarted, events.CrisisData{Crisis: *c})
	})

	e.safely("actor ai", func() {
		out := e.ai.Phase(s, e.rng)
		if out.Spawned != nil {
			news.Record(s, e.news.FromSpawn(*out.Spawned))
			e.emit(events.DefensiveActorSpawned, events.SpawnData{Actor: *out.Spawned})
		}
		for _, a := range out.Actions {
			name := a.ActorID
			if actor := state.Actor(s, a.ActorID); actor != nil {
				name = actor.Name
			}
			news.Record(s, e.news.FromAIAction(a, name))
		}
		res.AIActions = out.Actions
	})

	state.ClampResources(&s.Resources)
	s.Metrics = append(s.Metrics, state.Snapshot(s))

	if end := e.evaluateEnd(); end != nil {
		e.finish(end)
		res.GameEnd = e.CheckGameEnd()
	}
	e.emit(events.PhaseAdvanced, events.PhaseData{Result: res})
	e.flush()

	e.log.Debug("phase advanced",
		zap.Int("phase", phase),
		zap.Int("year", s.Phase.Year),
		zap.Int("month", s.Phase.Month),
		zap.Int("budget", s.Resources.Budget),
		zap.Float64("risk", s.Resources.Risk),
		zap.Int("news", len(res.WorldEvents)))
	return res, nil
}

// regenerate refills the monthly resources and decays risk and attention.
func (e *Engine) regenerate() {
	r := &e.state.Resources
	r.Capacity = min(r.CapacityMax, r.Capacity+e.cfg.CapacityRegen)
	r.ActionPointsRemaining = r.ActionPointsMax
	r.Budget += e.cfg.MoneyPerRound - e.cfg.UpkeepPerRound
	r.Attention -= e.cfg.AttentionDecayRate
	r.Risk -= e.cfg.RiskDecayRate
	state.ClampResources(r)
}

// tickExposure runs the grace timer that ends the game when risk stays at
// the detection threshold too long.
func (e *Engine) tickExposure() {
	s := e.state
	if s.Resources.Risk < e.cfg.DetectionThreshold {
		s.ExposureCountdown = -1
		return
	}
	if s.ExposureCountdown < 0 {
		s.ExposureCountdown = e.cfg.ExposureGracePhases
	} else if s.ExposureCountdown > 0 {
		s.ExposureCountdown--
	}
	news.Record(s, e.news.FromExposure(s.ExposureCountdown))
}

func (e *Engine) applyBetrayal(o betrayal.Outcome) {
	s := e.state
	npc := state.NPC(s, o.NPCID)
	if npc == nil {
		return
	}
	if !o.Betrayed {
		news.Record(s, e.news.FromBetrayal(*npc, o.WarningLevel, false))
		return
	}
	npc.Available = false
	s.Resources.Risk += BetrayalRisk
	state.ClampResources(&s.Resources)
	news.Record(s, e.news.FromBetrayal(*npc, o.WarningLevel, true))
	e.emit(events.NPCBetrayed, events.BetrayalData{NPCID: npc.ID})
}

// HandleConsequenceChoice answers the active consequence. The choice cost
// is charged unconditionally and may put the budget into debt.
func (e *Engine) HandleConsequenceChoice(choiceID string) ([]string, error) {
	if e.state.GameEnd != nil {
		return nil, errs.ErrGameOver
	}
	choice, active, err := e.consequences.Resolve(choiceID, e.state.Phase.Number)
	if err != nil {
		return nil, err
	}
	out := e.applyChoice(choice)
	e.emit(events.ConsequenceResolved, events.ConsequenceData{Consequence: active, ChoiceID: choiceID})
	out = append(out, e.flush()...)
	e.CheckGameEnd()
	return out, nil
}

// ResolveCrisis answers the active crisis and releases its NPC.
func (e *Engine) ResolveCrisis(choiceID string) ([]string, error) {
	if e.state.GameEnd != nil {
		return nil, errs.ErrGameOver
	}
	choice, active, err := e.crises.Resolve(choiceID)
	if err != nil {
		return nil, err
	}
	if npc := state.NPC(e.state, active.NPCID); npc != nil {
		npc.InCrisis = false
	}
	out := e.applyChoice(choice)
	e.emit(events.CrisisResolved, events.CrisisData{Crisis: active, ChoiceID: choiceID})
	out = append(out, e.flush()...)
	e.CheckGameEnd()
	return out, nil
}

func (e *Engine) applyChoice(c types.Choice) []string {
	r := &e.state.Resources
	r.Budget -= c.Cost.Budget
	r.Capacity -= c.Cost.Capacity
	r.ActionPointsRemaining -= c.Cost.ActionPoints
	out := effects.Apply(e.state, c.Effects, effects.Context{}).Output
	state.ClampResources(r)
	return out
}
