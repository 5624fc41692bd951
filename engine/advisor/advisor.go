// Package advisor turns the game state into prioritized, per-NPC
// recommendations. Advising is a pure read: strategies never mutate the
// state they inspect, and identical contexts yield identical output.
package advisor

import (
	"slices"
	"sort"

	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/engine/combo"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Priority ranks a recommendation.
type Priority string

const (
	Critical Priority = "critical"
	High     Priority = "high"
	Medium   Priority = "medium"
	Low      Priority = "low"
)

// Weight is the sort weight of a priority.
func (p Priority) Weight() int {
	switch p {
	case Critical:
		return 3
	case High:
		return 2
	case Medium:
		return 1
	default:
		return 0
	}
}

// Recommendation categories.
const (
	CategoryThreat      = "threat"
	CategoryOpportunity = "opportunity"
	CategoryStrategy    = "strategy"
	CategoryResource    = "resource"
	CategoryTeam        = "team"
)

// Stances.
const (
	StanceAggressive = "aggressive"
	StanceCautious   = "cautious"
	StanceNeutral    = "neutral"
)

// MinMorale is the morale below which an NPC refuses to advise.
const MinMorale = 20

// Recommendation is one piece of advice.
type Recommendation struct {
	NPCID            string   `json:"npcId"`
	Priority         Priority `json:"priority"`
	Category         string   `json:"category"`
	Topic            string   `json:"topic"` // budget, risk, attention, capacity, combo, window, team, defenders, roi, content, tech
	Stance           string   `json:"stance"`
	Message          string   `json:"message"`
	Reasoning        string   `json:"reasoning"`
	SuggestedActions []string `json:"suggestedActions,omitempty"`
	Confidence       float64  `json:"confidence"`
	Tone             string   `json:"tone"`
	ExpiresPhase     int      `json:"expiresPhase,omitempty"`
}

// Conflict kinds.
const (
	ConflictResource = "resource"
	ConflictStrategy = "strategy"
)

// Conflict is a pair of recommendations from different NPCs that pull in
// opposite directions. The player arbitrates.
type Conflict struct {
	Kind        string         `json:"kind"`
	First       Recommendation `json:"first"`
	Second      Recommendation `json:"second"`
	Description string         `json:"description"`
}

// Context is everything a strategy may read. History lives in State
// (ActionHistory, Metrics); strategies keep no memory of their own.
type Context struct {
	Defs       *state.Defs // optional; enables target hints
	State      *types.GameState
	Config     balance.Config
	Actions    []types.LoadedAction
	ComboHints []combo.Hint
	Betrayal   []types.BetrayalState
	Escalation int
}

// Strategy is one NPC's heuristic.
type Strategy interface {
	NPCID() string
	Recommend(ctx Context, npc types.NPCState) []Recommendation
}

// Engine runs the registered strategies.
type Engine struct {
	strategies []Strategy
}

// New creates an engine over the given strategies, consulted in order.
func New(strategies ...Strategy) *Engine {
	return &Engine{strategies: strategies}
}

// Default returns the engine with the standard five advisors.
func Default() *Engine {
	return New(Direktor{}, Marina{}, Alexei{}, Katja{}, Igor{})
}

// Strategies returns the registered NPC ids in consultation order.
func (e *Engine) Strategies() []string {
	ids := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		ids = append(ids, s.NPCID())
	}
	return ids
}

// Generate collects recommendations from every engaged NPC, sorts them by
// priority weight (stable, so ties keep strategy order) and reports
// cross-NPC conflicts.
func (e *Engine) Generate(ctx Context) ([]Recommendation, []Conflict) {
	var recs []Recommendation
	for _, strat := range e.strategies {
		npc := findNPC(ctx.State.NPCs, strat.NPCID())
		if npc == nil || !npc.Available || npc.Morale < MinMorale {
			continue
		}
		for _, r := range strat.Recommend(ctx, *npc) {
			r.NPCID = npc.ID
			if r.Stance == "" {
				r.Stance = StanceNeutral
			}
			r.Confidence = confidence(*npc)
			r.Tone = string(npc.CurrentMood)
			recs = append(recs, r)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Weight() > recs[j].Priority.Weight()
	})
	return recs, DetectConflicts(recs)
}

// DetectConflicts finds opposing recommendations from different NPCs:
// an opportunity against a budget threat (resource), and an aggressive
// push against a risk threat (strategy). Each pair is reported once.
func DetectConflicts(recs []Recommendation) []Conflict {
	var out []Conflict
	for i, a := range recs {
		for j, b := range recs {
			if i == j || a.NPCID == b.NPCID {
				continue
			}
			if a.Category == CategoryOpportunity && b.Category == CategoryThreat && b.Topic == "budget" {
				out = append(out, Conflict{
					Kind: ConflictResource, First: a, Second: b,
					Description: a.NPCID + " will investieren, " + b.NPCID + " warnt vor dem Budget.",
				})
			}
			if a.Stance == StanceAggressive && b.Category == CategoryThreat && b.Topic == "risk" {
				out = append(out, Conflict{
					Kind: ConflictStrategy, First: a, Second: b,
					Description: a.NPCID + " drängt nach vorn, " + b.NPCID + " warnt vor dem Risiko.",
				})
			}
		}
	}
	return out
}

// IsRecommendationValid reports whether a recommendation still applies:
// it has not expired, and not every suggested action is already done.
func IsRecommendationValid(r Recommendation, phase int, completed map[string]bool) bool {
	if r.ExpiresPhase > 0 && phase > r.ExpiresPhase {
		return false
	}
	if len(r.SuggestedActions) == 0 {
		return true
	}
	for _, id := range r.SuggestedActions {
		if !completed[id] {
			return true
		}
	}
	return false
}

func confidence(npc types.NPCState) float64 {
	return min(1, 0.5+0.1*float64(npc.RelationshipLevel)+float64(npc.Morale)/500)
}

func findNPC(npcs []types.NPCState, id string) *types.NPCState {
	for i := range npcs {
		if npcs[i].ID == id {
			return &npcs[i]
		}
	}
	return nil
}

// suggest returns up to n usable action ids accepted by keep, in the
// order the loader produced them.
func suggest(actions []types.LoadedAction, n int, keep func(types.ActionDef) bool) []string {
	var ids []string
	for _, a := range actions {
		if !a.Available || !a.Affordable || !keep(a.Def) {
			continue
		}
		ids = append(ids, a.Def.ID)
		if len(ids) == n {
			break
		}
	}
	return ids
}

func inCategory(cats ...string) func(types.ActionDef) bool {
	return func(d types.ActionDef) bool { return slices.Contains(cats, d.Category) }
}

// trend returns last minus first over the trailing n metrics snapshots.
func trend(metrics []types.MetricsSnapshot, n int, value func(types.MetricsSnapshot) float64) float64 {
	if len(metrics) < 2 {
		return 0
	}
	start := max(0, len(metrics)-n)
	return value(metrics[len(metrics)-1]) - value(metrics[start])
}
