// Package combo tracks partial progress toward multi-step ability combos.
//
// Requirements are matched in any order. A progress entry starts on the
// first matching action and expires window phases later; completing every
// requirement before expiry awards the combo's bonus.
package combo

import (
	"slices"
	"sort"

	"github.com/nathoo/storycore/types"
)

// HintThreshold is the progress ratio at which a combo becomes visible.
const HintThreshold = 0.5

// Update is one progress change produced by ProcessAction.
type Update struct {
	ComboID  string
	Matched  []string
	Progress float64
	Started  bool
}

// Result is the outcome of feeding one action into the system.
type Result struct {
	Completed []types.StoryComboActivation
	Updates   []Update
}

// Hint is a partially completed combo shown to the player.
type Hint struct {
	ComboID      string
	Name         string
	Progress     float64
	Missing      []string
	ExpiresPhase int
}

// System owns combo progress.
type System struct {
	defs []types.ComboDef
	st   types.ComboState
}

// New creates an empty system over the given definitions.
func New(defs []types.ComboDef) *System {
	return &System{defs: defs}
}

// ProcessAction matches an action's id and tags against every combo.
func (s *System) ProcessAction(actionID string, tags []string, phase int) Result {
	var res Result
	for _, def := range s.defs {
		if len(def.Requires) == 0 {
			continue
		}
		if !def.Repeatable && s.completed(def.ID) {
			continue
		}
		hits := matches(def.Requires, actionID, tags)
		if len(hits) == 0 {
			continue
		}

		idx := s.progressIndex(def.ID)
		started := false
		if idx >= 0 && s.st.Active[idx].ExpiresPhase < phase {
			// Expired but not yet cleaned up: start over.
			s.st.Active = slices.Delete(s.st.Active, idx, idx+1)
			idx = -1
		}
		if idx < 0 {
			s.st.Active = append(s.st.Active, types.StoryComboProgress{
				ComboID:      def.ID,
				Required:     append([]string(nil), def.Requires...),
				Matched:      []string{},
				StartedPhase: phase,
				ExpiresPhase: phase + max(1, def.Window),
			})
			idx = len(s.st.Active) - 1
			started = true
		}

		p := &s.st.Active[idx]
		grew := false
		for _, h := range hits {
			if !slices.Contains(p.Matched, h) {
				p.Matched = append(p.Matched, h)
				grew = true
			}
		}
		sort.Strings(p.Matched)
		if !grew && !started {
			continue
		}

		res.Updates = append(res.Updates, Update{
			ComboID:  def.ID,
			Matched:  append([]string(nil), p.Matched...),
			Progress: progress(*p),
			Started:  started,
		})

		if len(p.Matched) == len(p.Required) {
			act := types.StoryComboActivation{
				ComboID: def.ID,
				Name:    def.Name,
				Phase:   phase,
				Bonus:   def.Bonus,
			}
			s.st.Active = slices.Delete(s.st.Active, idx, idx+1)
			s.st.Completed = append(s.st.Completed, act)
			res.Completed = append(res.Completed, act)
		}
	}
	return res
}

// CleanupExpired removes progress whose expiresPhase is before phase.
// No bonus is awarded. Returns the removed combo ids.
func (s *System) CleanupExpired(phase int) []string {
	var removed []string
	kept := s.st.Active[:0]
	for _, p := range s.st.Active {
		if p.ExpiresPhase < phase {
			removed = append(removed, p.ComboID)
			continue
		}
		kept = append(kept, p)
	}
	s.st.Active = kept
	return removed
}

// ActiveHints returns live combos at or above HintThreshold.
func (s *System) ActiveHints(phase int) []Hint {
	var hints []Hint
	for _, p := range s.st.Active {
		if p.ExpiresPhase < phase {
			continue
		}
		pr := progress(p)
		if pr < HintThreshold {
			continue
		}
		h := Hint{ComboID: p.ComboID, Progress: pr, ExpiresPhase: p.ExpiresPhase}
		if def, ok := s.def(p.ComboID); ok {
			h.Name = def.Name
		}
		for _, r := range p.Required {
			if !slices.Contains(p.Matched, r) {
				h.Missing = append(h.Missing, r)
			}
		}
		hints = append(hints, h)
	}
	return hints
}

// Progress returns the progress entry for a combo, if any.
func (s *System) Progress(comboID string) (types.StoryComboProgress, bool) {
	if i := s.progressIndex(comboID); i >= 0 {
		return s.st.Active[i], true
	}
	return types.StoryComboProgress{}, false
}

// Completed returns every activation so far.
func (s *System) Completed() []types.StoryComboActivation {
	return append([]types.StoryComboActivation(nil), s.st.Completed...)
}

// State returns a deep copy of the persisted bookkeeping.
func (s *System) State() types.ComboState {
	st := types.ComboState{
		Active:    make([]types.StoryComboProgress, 0, len(s.st.Active)),
		Completed: s.Completed(),
	}
	for _, p := range s.st.Active {
		p.Required = append([]string(nil), p.Required...)
		p.Matched = append([]string{}, p.Matched...)
		st.Active = append(st.Active, p)
	}
	if st.Completed == nil {
		st.Completed = []types.StoryComboActivation{}
	}
	return st
}

// Restore replaces the bookkeeping.
func (s *System) Restore(st types.ComboState) {
	s.st = st
}

// Reset clears all progress and completions.
func (s *System) Reset() {
	s.st = types.ComboState{}
}

func (s *System) completed(id string) bool {
	for _, c := range s.st.Completed {
		if c.ComboID == id {
			return true
		}
	}
	return false
}

func (s *System) progressIndex(id string) int {
	for i, p := range s.st.Active {
		if p.ComboID == id {
			return i
		}
	}
	return -1
}

func (s *System) def(id string) (types.ComboDef, bool) {
	for _, d := range s.defs {
		if d.ID == id {
			return d, true
		}
	}
	return types.ComboDef{}, false
}

// matches returns the requirements satisfied by an action id or its tags.
func matches(required []string, actionID string, tags []string) []string {
	var hits []string
	for _, r := range required {
		if r == actionID || slices.Contains(tags, r) {
			hits = append(hits, r)
		}
	}
	return hits
}

func progress(p types.StoryComboProgress) float64 {
	if len(p.Required) == 0 {
		return 0
	}
	return min(1, float64(len(p.Matched))/float64(len(p.Required)))
}
