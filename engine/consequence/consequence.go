// Package consequence implements delayed consequences.
//
// Each instance moves scheduled → pending → active → resolved. A
// scheduled consequence becomes pending once its phase is reached; the
// oldest pending one (by activation phase, then registration order) is
// promoted to active only while nothing else is active. Only a player
// choice resolves the active consequence.
package consequence

import (
	"sort"

	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/types"
)

// System owns the consequence queue and the single active slot.
type System struct {
	defs map[string]types.ConsequenceDef
	st   types.ConsequenceState
}

// New creates an empty system over the given definitions.
func New(defs map[string]types.ConsequenceDef) *System {
	return &System{defs: defs}
}

// Schedule registers a consequence triggered at phase to activate after
// delay phases. A delay below 1 falls back to the definition's default,
// and never activates in the triggering phase.
func (s *System) Schedule(id, sourceAction string, phase, delay int) (types.PendingConsequence, error) {
	def, ok := s.defs[id]
	if !ok {
		return types.PendingConsequence{}, errs.NewReference(errs.KindConsequence, id)
	}
	if delay < 1 {
		delay = def.DefaultDelay
	}
	s.st.Seq++
	p := types.PendingConsequence{
		Seq:              s.st.Seq,
		ConsequenceID:    id,
		SourceActionID:   sourceAction,
		TriggeredPhase:   phase,
		ActivatesAtPhase: phase + max(1, delay),
	}
	s.st.Pending = append(s.st.Pending, p)
	s.sort()
	return p, nil
}

// Pending returns the queued consequences in activation order.
func (s *System) Pending() []types.PendingConsequence {
	return append([]types.PendingConsequence(nil), s.st.Pending...)
}

// Due returns the queued consequences whose phase has been reached.
func (s *System) Due(phase int) []types.PendingConsequence {
	var out []types.PendingConsequence
	for _, p := range s.st.Pending {
		if p.ActivatesAtPhase <= phase {
			out = append(out, p)
		}
	}
	return out
}

// Active returns a copy of the live consequence, or nil.
func (s *System) Active() *types.ActiveConsequence {
	if s.st.Active == nil {
		return nil
	}
	a := *s.st.Active
	a.Choices = append([]types.Choice(nil), a.Choices...)
	return &a
}

// Promote activates the oldest due consequence if the active slot is free.
// Returns the activated consequence, or nil when nothing was promoted.
func (s *System) Promote(phase int) *types.ActiveConsequence {
	if s.st.Active != nil || len(s.st.Pending) == 0 {
		return nil
	}
	next := s.st.Pending[0]
	if next.ActivatesAtPhase > phase {
		return nil
	}
	s.st.Pending = s.st.Pending[1:]
	def := s.defs[next.ConsequenceID]
	s.st.Active = &types.ActiveConsequence{
		PendingConsequence: next,
		ActivatedPhase:     phase,
		Title:              def.Title,
		Description:        def.Description,
		Choices:            append([]types.Choice(nil), def.Choices...),
	}
	return s.Active()
}

// Def returns the definition behind a consequence id.
func (s *System) Def(id string) (types.ConsequenceDef, bool) {
	def, ok := s.defs[id]
	return def, ok
}

// Resolve answers the active consequence with choiceID, clears the active
// slot and returns the chosen option for the caller to apply.
func (s *System) Resolve(choiceID string, phase int) (types.Choice, types.ActiveConsequence, error) {
	if s.st.Active == nil {
		return types.Choice{}, types.ActiveConsequence{}, errs.ErrNoActiveConsequence
	}
	active := *s.st.Active
	for _, c := range active.Choices {
		if c.ID != choiceID {
			continue
		}
		s.st.Active = nil
		s.st.Resolved = append(s.st.Resolved, types.ResolvedConsequence{
			Seq:           active.Seq,
			ConsequenceID: active.ConsequenceID,
			ChoiceID:      choiceID,
			Phase:         phase,
		})
		return c, active, nil
	}
	return types.Choice{}, active, errs.NewReference(errs.KindChoice, choiceID)
}

// Resolved returns the resolution history.
func (s *System) Resolved() []types.ResolvedConsequence {
	return append([]types.ResolvedConsequence(nil), s.st.Resolved...)
}

// State returns a deep copy of the persisted bookkeeping.
func (s *System) State() types.ConsequenceState {
	st := types.ConsequenceState{
		Seq:      s.st.Seq,
		Pending:  s.Pending(),
		Active:   s.Active(),
		Resolved: s.Resolved(),
	}
	if st.Pending == nil {
		st.Pending = []types.PendingConsequence{}
	}
	if st.Resolved == nil {
		st.Resolved = []types.ResolvedConsequence{}
	}
	return st
}

// Restore replaces the bookkeeping. Unknown consequence ids are rejected.
func (s *System) Restore(st types.ConsequenceState) error {
	for _, p := range st.Pending {
		if _, ok := s.defs[p.ConsequenceID]; !ok {
			return errs.NewReference(errs.KindConsequence, p.ConsequenceID)
		}
	}
	if st.Active != nil {
		if _, ok := s.defs[st.Active.ConsequenceID]; !ok {
			return errs.NewReference(errs.KindConsequence, st.Active.ConsequenceID)
		}
	}
	s.st = st
	s.sort()
	return nil
}

// Reset clears all bookkeeping.
func (s *System) Reset() {
	s.st = types.ConsequenceState{}
}

func (s *System) sort() {
	sort.SliceStable(s.st.Pending, func(i, j int) bool {
		a, b := s.st.Pending[i], s.st.Pending[j]
		if a.ActivatesAtPhase != b.ActivatesAtPhase {
			return a.ActivatesAtPhase < b.ActivatesAtPhase
		}
		return a.Seq < b.Seq
	})
}
