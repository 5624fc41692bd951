// Package state holds the immutable content definitions and the helpers
// that create and mutate the engine-owned GameState while keeping its
// invariants (clamped resources, derived calendar, mood bands,
// relationship roll-over).
package state

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/types"
)

// Defs holds the immutable content tables loaded from Lua.
type Defs struct {
	Game         types.GameDef
	Actions      map[string]types.ActionDef
	ActionOrder  []string // natural order of action ids
	Consequences map[string]types.ConsequenceDef
	Combos       []types.ComboDef
	NPCs         []types.NPCDef
	Actors       []types.ActorDef
	Defensive    []types.DefensiveActorDef
	Objectives   []types.ObjectiveDef
	WorldEvents  []types.WorldEventDef
	Crises       []types.CrisisDef
	Handlers     []types.EventHandler
	Dialogues    map[string][]types.DialogueNode // npc id -> nodes in file order
	Balance      map[string]map[string]float64   // difficulty -> overrides
}

// NPC returns the static definition of an NPC.
func (d *Defs) NPC(id string) (types.NPCDef, bool) {
	for _, n := range d.NPCs {
		if n.ID == id {
			return n, true
		}
	}
	return types.NPCDef{}, false
}

// Actor returns the static definition of a campaign target.
func (d *Defs) Actor(id string) (types.ActorDef, bool) {
	for _, a := range d.Actors {
		if a.ID == id {
			return a, true
		}
	}
	return types.ActorDef{}, false
}

// DefensiveActor returns the static definition of a defensive template.
func (d *Defs) DefensiveActor(id string) (types.DefensiveActorDef, bool) {
	for _, a := range d.Defensive {
		if a.ID == id {
			return a, true
		}
	}
	return types.DefensiveActorDef{}, false
}

// BalanceFor resolves a difficulty preset with content overrides applied.
func (d *Defs) BalanceFor(difficulty string) (balance.Config, error) {
	cfg, err := balance.Get(difficulty)
	if err != nil {
		return cfg, err
	}
	if over, ok := d.Balance[cfg.Name]; ok {
		cfg = balance.Override(cfg, over)
	}
	return cfg, nil
}

// NewGameState creates a fresh game state from definitions and a preset.
func NewGameState(defs *Defs, cfg balance.Config, seed string) *types.GameState {
	s := &types.GameState{
		Seed:       seed,
		Difficulty: cfg.Name,
		Phase:      PhaseFor(1),
		Resources: types.StoryResources{
			Budget:                cfg.StartBudget,
			Capacity:              cfg.StartCapacity,
			CapacityMax:           cfg.CapacityMax,
			ActionPointsRemaining: cfg.ActionPoints,
			ActionPointsMax:       cfg.ActionPoints,
		},
		NPCs:              make([]types.NPCState, 0, len(defs.NPCs)),
		Objectives:        make([]types.Objective, 0, len(defs.Objectives)),
		Actors:            make([]types.ActorState, 0, len(defs.Actors)),
		News:              []types.NewsEvent{},
		Flags:             map[string]bool{},
		UsedActions:       map[string]bool{},
		ActionHistory:     []types.ActionRecord{},
		Metrics:           []types.MetricsSnapshot{},
		Windows:           []types.OpportunityWindow{},
		NewsCooldowns:     map[string]int{},
		ExposureCountdown: -1,
	}
	for _, n := range defs.NPCs {
		npc := types.NPCState{
			ID:                n.ID,
			Name:              n.Name,
			Role:              n.Role,
			RelationshipLevel: n.Relationship,
			Morale:            n.Morale,
			Available:         true,
		}
		npc.CurrentMood = MoodFor(npc.Morale)
		s.NPCs = append(s.NPCs, npc)
	}
	for _, o := range defs.Objectives {
		s.Objectives = append(s.Objectives, types.Objective{
			ID:          o.ID,
			Title:       o.Title,
			Type:        o.Type,
			TargetValue: o.Target,
		})
	}
	for _, a := range defs.Actors {
		s.Actors = append(s.Actors, types.ActorState{
			ID:       a.ID,
			Name:     a.Name,
			Category: a.Category,
			Trust:    a.Trust,
		})
	}
	for _, f := range defs.Game.StartFlags {
		s.Flags[f] = true
	}
	s.Metrics = append(s.Metrics, Snapshot(s))
	return s
}

// PhaseFor derives the calendar for a phase number.
func PhaseFor(number int) types.StoryPhase {
	month := ((number - 1) % 12) + 1
	return types.StoryPhase{
		Number:    number,
		Year:      (number-1)/12 + 1,
		Month:     month,
		IsNewYear: number > 1 && month == 1,
	}
}

// MoodFor maps morale to its mood band.
func MoodFor(morale int) types.Mood {
	switch {
	case morale >= 80:
		return types.MoodEnthusiastic
	case morale >= 60:
		return types.MoodContent
	case morale >= 40:
		return types.MoodNeutral
	case morale >= 20:
		return types.MoodWorried
	default:
		return types.MoodDisillusioned
	}
}

// MaxRelationshipLevel is the top relationship ordinal.
const MaxRelationshipLevel = 3

// AdjustMorale changes morale within [0,100] and refreshes the mood.
func AdjustMorale(npc *types.NPCState, delta int) {
	npc.Morale = clampInt(npc.Morale+delta, 0, 100)
	npc.CurrentMood = MoodFor(npc.Morale)
}

// AdjustRelationship moves relationship progress, rolling over into the
// next level at 100 and back into the previous level below 0.
func AdjustRelationship(npc *types.NPCState, delta int) {
	npc.RelationshipProgress += delta
	for npc.RelationshipProgress >= 100 && npc.RelationshipLevel < MaxRelationshipLevel {
		npc.RelationshipProgress -= 100
		npc.RelationshipLevel++
	}
	for npc.RelationshipProgress < 0 && npc.RelationshipLevel > 0 {
		npc.RelationshipProgress += 100
		npc.RelationshipLevel--
	}
	npc.RelationshipProgress = clampInt(npc.RelationshipProgress, 0, 100)
}

// ClampResources enforces resource bounds. Budget is left alone: upkeep
// and forced choices may legitimately run it into debt.
func ClampResources(r *types.StoryResources) {
	r.Risk = clampFloat(r.Risk, 0, 100)
	r.Attention = clampFloat(r.Attention, 0, 100)
	r.Capacity = clampInt(r.Capacity, 0, r.CapacityMax)
	r.ActionPointsRemaining = clampInt(r.ActionPointsRemaining, 0, r.ActionPointsMax)
	if r.MoralWeight < 0 {
		r.MoralWeight = 0
	}
}

// NPC returns a pointer to the runtime NPC, or nil.
func NPC(s *types.GameState, id string) *types.NPCState {
	for i := range s.NPCs {
		if s.NPCs[i].ID == id {
			return &s.NPCs[i]
		}
	}
	return nil
}

// Actor returns a pointer to the runtime actor, or nil.
func Actor(s *types.GameState, id string) *types.ActorState {
	for i := range s.Actors {
		if s.Actors[i].ID == id {
			return &s.Actors[i]
		}
	}
	return nil
}

// Objective returns a pointer to the runtime objective, or nil.
func Objective(s *types.GameState, id string) *types.Objective {
	for i := range s.Objectives {
		if s.Objectives[i].ID == id {
			return &s.Objectives[i]
		}
	}
	return nil
}

// AdjustObjective moves an objective within [0, target] and refreshes
// its completion flag. Returns the applied delta.
func AdjustObjective(o *types.Objective, delta float64) float64 {
	before := o.CurrentValue
	o.CurrentValue = clampFloat(o.CurrentValue+delta, 0, o.TargetValue)
	o.Completed = o.CurrentValue >= o.TargetValue
	return o.CurrentValue - before
}

// GetFlag returns the value of a flag. Unset flags return false.
func GetFlag(s *types.GameState, name string) bool {
	return s.Flags[name]
}

// PrimaryObjectivesComplete reports whether every primary objective is done.
// A state without primary objectives is never complete.
func PrimaryObjectivesComplete(s *types.GameState) bool {
	found := false
	for _, o := range s.Objectives {
		if o.Type != "primary" {
			continue
		}
		found = true
		if !o.Completed {
			return false
		}
	}
	return found
}

// PrimaryProgress returns the mean completion ratio of primary objectives.
func PrimaryProgress(s *types.GameState) float64 {
	total, n := 0.0, 0
	for _, o := range s.Objectives {
		if o.Type != "primary" || o.TargetValue <= 0 {
			continue
		}
		total += o.CurrentValue / o.TargetValue
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// AverageTrust returns mean trust across non-defensive actors.
func AverageTrust(actors []types.ActorState) float64 {
	total, n := 0.0, 0
	for _, a := range actors {
		if a.Defensive {
			continue
		}
		total += a.Trust
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// DefensiveCount returns the number of spawned defensive actors.
func DefensiveCount(actors []types.ActorState) int {
	n := 0
	for _, a := range actors {
		if a.Defensive {
			n++
		}
	}
	return n
}

// Snapshot captures the metrics of the current phase.
func Snapshot(s *types.GameState) types.MetricsSnapshot {
	return types.MetricsSnapshot{
		Phase:        s.Phase.Number,
		Budget:       s.Resources.Budget,
		Capacity:     s.Resources.Capacity,
		Risk:         s.Resources.Risk,
		Attention:    s.Resources.Attention,
		MoralWeight:  s.Resources.MoralWeight,
		AverageTrust: AverageTrust(s.Actors),
	}
}

// SortActionIDs sorts dotted action ids naturally ("1.2" < "1.10" < "2.1").
func SortActionIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return ActionIDLess(ids[i], ids[j])
	})
}

// ActionIDLess compares dotted action ids part by part, numerically where
// both parts are numbers.
func ActionIDLess(a, b string) bool {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		if errA == nil && errB == nil {
			if na != nb {
				return na < nb
			}
			continue
		}
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	return len(pa) < len(pb)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
