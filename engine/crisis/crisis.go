// Package crisis implements crisis moments: discrete, condition-triggered
// events that wait for a player decision.
package crisis

import (
	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/rules"
	"github.com/nathoo/storycore/types"
)

// System owns the crisis slot and cooldown bookkeeping.
type System struct {
	defs []types.CrisisDef
	st   types.CrisisState
}

// New creates an idle system over the given definitions.
func New(defs []types.CrisisDef) *System {
	return &System{defs: defs, st: types.CrisisState{LastStarted: map[string]int{}}}
}

// Check starts the best-ranked crisis whose conditions hold, unless one is
// already active. Once-only crises never repeat; others wait out their
// cooldown after starting.
func (s *System) Check(env rules.Env, phase int) *types.ActiveCrisis {
	if s.st.Active != nil {
		return nil
	}
	cands := make([]rules.Candidate, 0, len(s.defs))
	for i, d := range s.defs {
		cands = append(cands, rules.Candidate{
			ID: d.ID, Conditions: d.Conditions, Priority: d.Priority, Order: i,
		})
	}
	eligible := func(c rules.Candidate) bool {
		def := s.defs[c.Order]
		last, started := s.st.LastStarted[def.ID]
		if !started {
			return true
		}
		return !def.Once && phase-last >= max(1, def.Cooldown)
	}
	winners := rules.Select(cands, env, eligible)
	if len(winners) == 0 {
		return nil
	}
	def := s.defs[winners[0].Order]
	s.st.LastStarted[def.ID] = phase
	s.st.Active = &types.ActiveCrisis{
		CrisisID:     def.ID,
		Name:         def.Name,
		Description:  def.Description,
		NPCID:        def.NPC,
		StartedPhase: phase,
		Choices:      append([]types.Choice(nil), def.Choices...),
	}
	return s.Active()
}

// Active returns a copy of the live crisis, or nil.
func (s *System) Active() *types.ActiveCrisis {
	if s.st.Active == nil {
		return nil
	}
	a := *s.st.Active
	a.Choices = append([]types.Choice(nil), a.Choices...)
	return &a
}

// Resolve answers the active crisis and frees the slot.
func (s *System) Resolve(choiceID string) (types.Choice, types.ActiveCrisis, error) {
	if s.st.Active == nil {
		return types.Choice{}, types.ActiveCrisis{}, errs.ErrNoActiveCrisis
	}
	active := *s.st.Active
	for _, c := range active.Choices {
		if c.ID == choiceID {
			s.st.Active = nil
			return c, active, nil
		}
	}
	return types.Choice{}, active, errs.NewReference(errs.KindChoice, choiceID)
}

// State returns a copy of the persisted bookkeeping.
func (s *System) State() types.CrisisState {
	st := types.CrisisState{Active: s.Active(), LastStarted: make(map[string]int, len(s.st.LastStarted))}
	for k, v := range s.st.LastStarted {
		st.LastStarted[k] = v
	}
	return st
}

// Restore replaces the bookkeeping. An unknown active crisis is rejected.
func (s *System) Restore(st types.CrisisState) error {
	if st.Active != nil && !s.known(st.Active.CrisisID) {
		return errs.NewReference(errs.KindCrisis, st.Active.CrisisID)
	}
	if st.LastStarted == nil {
		st.LastStarted = map[string]int{}
	}
	s.st = st
	return nil
}

// Reset clears the slot and all cooldowns.
func (s *System) Reset() {
	s.st = types.CrisisState{LastStarted: map[string]int{}}
}

func (s *System) known(id string) bool {
	for _, d := range s.defs {
		if d.ID == id {
			return true
		}
	}
	return false
}
