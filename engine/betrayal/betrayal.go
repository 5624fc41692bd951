// Package betrayal tracks NPC grievances and the escalation from quiet
// resentment to open betrayal.
package betrayal

import (
	"fmt"

	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/types"
)

// Warning thresholds for levels 1 and 2. Level 3 uses the configured
// betrayal threshold.
const (
	WarnLow    = 0.3
	WarnMedium = 0.5

	// BetrayalChance scales betrayal risk into the per-phase roll at level 3.
	BetrayalChance = 0.5
)

// Roller is the slice of the shared RNG the tick needs.
type Roller interface {
	Float64() float64
}

// Outcome is one NPC's change during a phase tick.
type Outcome struct {
	NPCID        string
	WarningLevel int
	Escalated    bool
	Betrayed     bool
}

// System owns the per-NPC grievance bookkeeping.
type System struct {
	threshold float64
	seq       int
	states    []types.BetrayalState // roster order
}

// New creates bookkeeping for the given roster.
func New(npcIDs []string, threshold float64) *System {
	s := &System{threshold: threshold}
	for _, id := range npcIDs {
		s.states = append(s.states, types.BetrayalState{NPCID: id, Grievances: []types.BetrayalGrievance{}})
	}
	return s
}

// AddGrievance records an objection and recomputes the NPC's risk.
func (s *System) AddGrievance(npcID, reason string, severity float64, phase int) (types.BetrayalGrievance, error) {
	st := s.find(npcID)
	if st == nil {
		return types.BetrayalGrievance{}, errs.NewReference(errs.KindNPC, npcID)
	}
	s.seq++
	g := types.BetrayalGrievance{
		ID:       fmt.Sprintf("%s-%d", npcID, s.seq),
		Reason:   reason,
		Severity: max(0, min(1, severity)),
		Phase:    phase,
	}
	st.Grievances = append(st.Grievances, g)
	return g, nil
}

// Address marks the oldest unaddressed grievance (or the named one) as
// addressed. Only dialogue resolution calls this.
func (s *System) Address(npcID, grievanceID string) (types.BetrayalGrievance, error) {
	st := s.find(npcID)
	if st == nil {
		return types.BetrayalGrievance{}, errs.NewReference(errs.KindNPC, npcID)
	}
	for i := range st.Grievances {
		g := &st.Grievances[i]
		if g.Addressed || (grievanceID != "" && g.ID != grievanceID) {
			continue
		}
		g.Addressed = true
		return *g, nil
	}
	return types.BetrayalGrievance{}, fmt.Errorf("%s has no open grievance: %w", npcID, errs.ErrInvalidReference)
}

// Unaddressed returns the open grievances of an NPC.
func (s *System) Unaddressed(npcID string) []types.BetrayalGrievance {
	st := s.find(npcID)
	if st == nil {
		return nil
	}
	var out []types.BetrayalGrievance
	for _, g := range st.Grievances {
		if !g.Addressed {
			out = append(out, g)
		}
	}
	return out
}

// Risk computes betrayal risk from open grievances and morale.
func Risk(st types.BetrayalState, morale int) float64 {
	r := 0.0
	for _, g := range st.Grievances {
		if !g.Addressed {
			r += g.Severity
		}
	}
	if morale < 50 {
		r += float64(50-morale) / 200
	}
	return max(0, min(1, r))
}

// Level maps a risk score to a warning level.
func (s *System) Level(risk float64) int {
	switch {
	case risk >= s.threshold:
		return 3
	case risk >= WarnMedium:
		return 2
	case risk >= WarnLow:
		return 1
	default:
		return 0
	}
}

// Tick recomputes every NPC's risk and warning level, then rolls for
// betrayal at level 3. The roll consumes exactly one draw per eligible NPC
// in roster order. Betrayed and unavailable NPCs are skipped.
func (s *System) Tick(npcs []types.NPCState, rng Roller) []Outcome {
	var out []Outcome
	for i := range s.states {
		st := &s.states[i]
		if st.Betrayed {
			continue
		}
		npc := findNPC(npcs, st.NPCID)
		if npc == nil || !npc.Available {
			continue
		}
		st.BetrayalRisk = Risk(*st, npc.Morale)
		level := s.Level(st.BetrayalRisk)
		o := Outcome{NPCID: st.NPCID, WarningLevel: level, Escalated: level > st.WarningLevel}
		st.WarningLevel = level
		if level >= 3 && rng.Float64() < st.BetrayalRisk*BetrayalChance {
			st.Betrayed = true
			o.Betrayed = true
		}
		if o.Escalated || o.Betrayed {
			out = append(out, o)
		}
	}
	return out
}

// Warning returns an NPC's current warning level.
func (s *System) Warning(npcID string) int {
	if st := s.find(npcID); st != nil {
		return st.WarningLevel
	}
	return 0
}

// States returns a deep copy of all bookkeeping in roster order.
func (s *System) States() []types.BetrayalState {
	out := make([]types.BetrayalState, 0, len(s.states))
	for _, st := range s.states {
		st.Grievances = append([]types.BetrayalGrievance{}, st.Grievances...)
		out = append(out, st)
	}
	return out
}

// Seq returns the grievance id counter.
func (s *System) Seq() int { return s.seq }

// Restore replaces the bookkeeping. Every NPC must be known.
func (s *System) Restore(states []types.BetrayalState, seq int) error {
	for _, st := range states {
		if s.find(st.NPCID) == nil {
			return errs.NewReference(errs.KindNPC, st.NPCID)
		}
	}
	for _, st := range states {
		cur := s.find(st.NPCID)
		*cur = st
		if cur.Grievances == nil {
			cur.Grievances = []types.BetrayalGrievance{}
		}
	}
	s.seq = seq
	return nil
}

func (s *System) find(id string) *types.BetrayalState {
	for i := range s.states {
		if s.states[i].NPCID == id {
			return &s.states[i]
		}
	}
	return nil
}

func findNPC(npcs []types.NPCState, id string) *types.NPCState {
	for i := range npcs {
		if npcs[i].ID == id {
			return &npcs[i]
		}
	}
	return nil
}
