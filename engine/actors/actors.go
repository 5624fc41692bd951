// Package actors computes how well an action lands on its target:
// per-actor category vulnerabilities, resilience, and open opportunity
// windows.
package actors

import (
	"slices"

	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Modifier is the breakdown of an action's effectiveness.
type Modifier struct {
	Vulnerability float64
	Resilience    float64
	WindowBonus   float64 // 0 when no window applies
	WindowID      string
}

// Value is the combined effectiveness multiplier.
func (m Modifier) Value() float64 {
	return m.Vulnerability * (1 - m.Resilience/2) * (1 + m.WindowBonus)
}

// Effectiveness returns the modifier for def against its target in s.
// Untargeted actions have vulnerability 1 and no resilience.
func Effectiveness(defs *state.Defs, s *types.GameState, def types.ActionDef) Modifier {
	m := Modifier{Vulnerability: 1}
	if def.Target != "" {
		if a, ok := defs.Actor(def.Target); ok {
			if v, ok := a.Vulnerabilities[def.Category]; ok {
				m.Vulnerability = v
			}
			m.Resilience = max(0, min(1, a.Resilience))
		}
	}
	if w := bestWindow(s, def); w != nil {
		m.WindowBonus = w.Bonus
		m.WindowID = w.ID
	}
	return m
}

// bestWindow returns the open window with the highest bonus whose tag
// matches the action's category or one of its tags.
func bestWindow(s *types.GameState, def types.ActionDef) *types.OpportunityWindow {
	var best *types.OpportunityWindow
	for i := range s.Windows {
		w := &s.Windows[i]
		if w.DeadlinePhase < s.Phase.Number {
			continue
		}
		if w.Tag != def.Category && !slices.Contains(def.Tags, w.Tag) {
			continue
		}
		if best == nil || w.Bonus > best.Bonus {
			best = w
		}
	}
	return best
}

// ExpireWindows drops windows whose deadline is before phase and returns
// the expired ones.
func ExpireWindows(s *types.GameState, phase int) []types.OpportunityWindow {
	var expired []types.OpportunityWindow
	kept := s.Windows[:0]
	for _, w := range s.Windows {
		if w.DeadlinePhase < phase {
			expired = append(expired, w)
			continue
		}
		kept = append(kept, w)
	}
	s.Windows = kept
	return expired
}

// MostVulnerable returns the non-defensive actor with the highest
// vulnerability to category, skipping actors whose trust is already 0.
func MostVulnerable(defs *state.Defs, s *types.GameState, category string) (string, float64) {
	bestID, best := "", 0.0
	for _, a := range s.Actors {
		if a.Defensive || a.Trust <= 0 {
			continue
		}
		def, ok := defs.Actor(a.ID)
		if !ok {
			continue
		}
		v := def.Vulnerabilities[category] * (1 - def.Resilience/2)
		if v > best {
			bestID, best = a.ID, v
		}
	}
	return bestID, best
}
