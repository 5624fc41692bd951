// Package news produces the player's news feed: formatters for engine
// transitions and the seeded selection of world, NPC and resource-trend
// events at phase end.
package news

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Event types.
const (
	TypeAction      = "action"
	TypeWorld       = "world"
	TypeNPC         = "npc"
	TypeResource    = "resource"
	TypeConsequence = "consequence"
	TypeCombo       = "combo"
	TypeCrisis      = "crisis"
	TypeBetrayal    = "betrayal"
	TypeAI          = "ai"
	TypeExposure    = "exposure"
)

// Severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// PhaseKinds are the generated kinds, in the fixed order they are rolled.
var PhaseKinds = []string{TypeWorld, TypeNPC, TypeResource}

// Namespace seeds deterministic news ids.
var Namespace = uuid.MustParse("6f1c2a8e-4b7d-5e3f-9a10-2c4d6e8f0a1b")

// Roller is the slice of the shared RNG news selection needs.
type Roller interface {
	Float64() float64
	WeightedSelect(weights []int) int
}

// Generated is one phase event plus the template it came from (nil for
// resource trends), so the caller can apply the template's effects.
type Generated struct {
	Event    types.NewsEvent
	Template *types.WorldEventDef
}

// Generator formats and selects news.
type Generator struct {
	defs []types.WorldEventDef
	cfg  balance.Config

	// Format resolves inserts in template text. Nil leaves text as is.
	Format func(text, npcID string) string
}

// New creates a generator over the world event templates.
func New(defs []types.WorldEventDef, cfg balance.Config) *Generator {
	return &Generator{defs: defs, cfg: cfg}
}

// ID returns the deterministic id of the seq-th news event of a game.
func ID(seed string, seq int) string {
	return uuid.NewSHA1(Namespace, []byte(fmt.Sprintf("%s/news/%d", seed, seq))).String()
}

// Record assigns the next id to ev, appends it to the feed and returns it.
func Record(s *types.GameState, ev types.NewsEvent) types.NewsEvent {
	s.NewsSeq++
	ev.ID = ID(s.Seed, s.NewsSeq)
	ev.Phase = s.Phase.Number
	s.News = append(s.News, ev)
	return ev
}

// PhaseEvents rolls the phase-end kinds in fixed order. Each kind is
// gated by its cooldown first; an eligible kind consumes one draw against
// NewsChance and, when a template is picked, one weighted draw.
func (g *Generator) PhaseEvents(s *types.GameState, rng Roller) []Generated {
	var out []Generated
	phase := s.Phase.Number
	for _, kind := range PhaseKinds {
		if last, ok := s.NewsCooldowns[kind]; ok && phase-last < g.cooldown(kind) {
			continue
		}
		if rng.Float64() >= g.cfg.NewsChance {
			continue
		}
		var gen *Generated
		if kind == TypeResource {
			gen = ResourceTrend(s)
		} else {
			gen = g.pick(s, kind, rng)
		}
		if gen == nil {
			continue
		}
		s.NewsCooldowns[kind] = phase
		out = append(out, *gen)
	}
	return out
}

func (g *Generator) cooldown(kind string) int {
	switch kind {
	case TypeWorld:
		return g.cfg.WorldEventCooldown
	case TypeNPC:
		return g.cfg.NPCEventCooldown
	default:
		return g.cfg.ResourceEventCooldown
	}
}

// Eligible returns the templates of kind usable in the current state.
func (g *Generator) Eligible(s *types.GameState, kind string) []int {
	var idx []int
	for i, d := range g.defs {
		if d.Kind != kind || d.MinPhase > s.Phase.Number {
			continue
		}
		if d.NPC != "" && !npcAvailable(s, d.NPC) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func (g *Generator) pick(s *types.GameState, kind string, rng Roller) *Generated {
	idx := g.Eligible(s, kind)
	if len(idx) == 0 {
		return nil
	}
	weights := make([]int, len(idx))
	for i, j := range idx {
		weights[i] = max(1, g.defs[j].Weight)
	}
	def := g.defs[idx[rng.WeightedSelect(weights)]]
	return &Generated{
		Event: types.NewsEvent{
			Type:        kind,
			Severity:    severityOr(def.Severity, SeverityLow),
			Title:       g.format(def.Title, def.NPC),
			Description: g.format(def.Description, def.NPC),
			NPCID:       def.NPC,
		},
		Template: &def,
	}
}

// ResourceTrend compares the live state with the last metrics snapshot
// and reports the most pressing trend, or nil when nothing is notable.
// It runs before the phase's own snapshot is taken.
func ResourceTrend(s *types.GameState) *Generated {
	r := s.Resources
	if r.Budget < 0 {
		return &Generated{Event: types.NewsEvent{
			Type: TypeResource, Severity: SeverityCritical,
			Title:       "Kasse leer",
			Description: fmt.Sprintf("Die Kampagne steht mit %d im Minus.", -r.Budget),
		}}
	}
	if len(s.Metrics) == 0 {
		return nil
	}
	prev, cur := s.Metrics[len(s.Metrics)-1], state.Snapshot(s)
	switch {
	case cur.Risk-prev.Risk >= 10:
		return &Generated{Event: types.NewsEvent{
			Type: TypeResource, Severity: SeverityHigh,
			Title:       "Ermittler werden aufmerksam",
			Description: fmt.Sprintf("Das Risiko ist um %.0f Punkte gestiegen.", cur.Risk-prev.Risk),
		}}
	case cur.Attention-prev.Attention >= 10:
		return &Generated{Event: types.NewsEvent{
			Type: TypeResource, Severity: SeverityMedium,
			Title:       "Öffentlichkeit horcht auf",
			Description: fmt.Sprintf("Die Aufmerksamkeit ist um %.0f Punkte gestiegen.", cur.Attention-prev.Attention),
		}}
	case prev.Budget > 0 && float64(cur.Budget) < float64(prev.Budget)*0.7:
		return &Generated{Event: types.NewsEvent{
			Type: TypeResource, Severity: SeverityMedium,
			Title:       "Budget schmilzt",
			Description: fmt.Sprintf("Das Budget fiel von %d auf %d.", prev.Budget, cur.Budget),
		}}
	case prev.AverageTrust-cur.AverageTrust >= 5:
		return &Generated{Event: types.NewsEvent{
			Type: TypeResource, Severity: SeverityLow,
			Title:       "Vertrauen bröckelt",
			Description: fmt.Sprintf("Das durchschnittliche Vertrauen sank auf %.0f.", cur.AverageTrust),
		}}
	}
	return nil
}

// FromAction reports an executed action.
func (g *Generator) FromAction(def types.ActionDef, res types.ActionResult) types.NewsEvent {
	sev := SeverityLow
	switch {
	case def.Risk >= 15 || def.MoralWeight >= 10:
		sev = SeverityHigh
	case def.Risk >= 5:
		sev = SeverityMedium
	}
	desc := def.Narrative
	if desc == "" {
		desc = fmt.Sprintf("Wirkung %.0f%%.", res.Effectiveness*100)
	}
	return types.NewsEvent{
		Type:        TypeAction,
		Severity:    sev,
		Title:       def.Name,
		Description: g.format(desc, def.NPC),
		ActionID:    def.ID,
	}
}

// FromConsequence reports an activated consequence.
func (g *Generator) FromConsequence(c types.ActiveConsequence, severity string) types.NewsEvent {
	return types.NewsEvent{
		Type:        TypeConsequence,
		Severity:    severityOr(severity, SeverityHigh),
		Title:       c.Title,
		Description: g.format(c.Description, ""),
		ActionID:    c.SourceActionID,
	}
}

// FromCombo reports a completed combo.
func (g *Generator) FromCombo(a types.StoryComboActivation) types.NewsEvent {
	return types.NewsEvent{
		Type:        TypeCombo,
		Severity:    SeverityMedium,
		Title:       a.Name,
		Description: fmt.Sprintf("Kombo %q ausgelöst.", a.Name),
	}
}

// FromCrisis reports a started crisis.
func (g *Generator) FromCrisis(c types.ActiveCrisis) types.NewsEvent {
	return types.NewsEvent{
		Type:        TypeCrisis,
		Severity:    SeverityCritical,
		Title:       c.Name,
		Description: g.format(c.Description, c.NPCID),
		NPCID:       c.NPCID,
	}
}

// FromBetrayal reports a betrayal or a warning escalation.
func (g *Generator) FromBetrayal(npc types.NPCState, level int, betrayed bool) types.NewsEvent {
	if betrayed {
		return types.NewsEvent{
			Type: TypeBetrayal, Severity: SeverityCritical,
			Title:       fmt.Sprintf("%s hat uns verraten", npc.Name),
			Description: fmt.Sprintf("%s ist abgesprungen und packt aus.", npc.Name),
			NPCID:       npc.ID,
		}
	}
	sev := SeverityMedium
	if level >= 2 {
		sev = SeverityHigh
	}
	return types.NewsEvent{
		Type: TypeBetrayal, Severity: sev,
		Title:       fmt.Sprintf("%s wirkt unzufrieden", npc.Name),
		Description: fmt.Sprintf("Warnstufe %d.", level),
		NPCID:       npc.ID,
	}
}

// FromAIAction reports a defender's counter-move.
func (g *Generator) FromAIAction(a types.AIAction, actorName string) types.NewsEvent {
	title := map[string]string{
		"expose":   "%s deckt Verbindungen auf",
		"debunk":   "%s widerlegt unsere Geschichten",
		"shore_up": "%s stärkt das Vertrauen",
		"audit":    "%s prüft unsere Finanzen",
	}[a.Kind]
	if title == "" {
		title = "%s reagiert"
	}
	sev := SeverityMedium
	if a.Strength >= 10 {
		sev = SeverityHigh
	}
	return types.NewsEvent{
		Type:        TypeAI,
		Severity:    sev,
		Title:       fmt.Sprintf(title, actorName),
		Description: fmt.Sprintf("Stärke %.1f.", a.Strength),
	}
}

// FromSpawn reports a new defensive actor.
func (g *Generator) FromSpawn(a types.ActorState) types.NewsEvent {
	return types.NewsEvent{
		Type:        TypeAI,
		Severity:    SeverityHigh,
		Title:       fmt.Sprintf("%s betritt die Bühne", a.Name),
		Description: fmt.Sprintf("Ein neuer Gegenspieler mit Vertrauen %.0f.", a.Trust),
	}
}

// FromExposure reports the exposure countdown.
func (g *Generator) FromExposure(countdown int) types.NewsEvent {
	return types.NewsEvent{
		Type:        TypeExposure,
		Severity:    SeverityCritical,
		Title:       "Enttarnung droht",
		Description: fmt.Sprintf("Noch %d Phase(n) bis zur Enttarnung.", countdown),
	}
}

// Filter applies f to the feed, newest last. Limit keeps the newest n.
func Filter(events []types.NewsEvent, f types.NewsFilter) []types.NewsEvent {
	out := make([]types.NewsEvent, 0, len(events))
	for _, ev := range events {
		if f.Type != "" && ev.Type != f.Type {
			continue
		}
		if ev.Phase < f.SincePhase {
			continue
		}
		if f.UnreadOnly && ev.Read {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Phase < out[j].Phase })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// MarkRead flags events as read. An empty id list marks everything.
// Returns the number of events changed.
func MarkRead(s *types.GameState, ids ...string) int {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	n := 0
	for i := range s.News {
		if s.News[i].Read || (len(ids) > 0 && !want[s.News[i].ID]) {
			continue
		}
		s.News[i].Read = true
		n++
	}
	return n
}

// SeverityRank orders severities for display.
func SeverityRank(sev string) int {
	switch sev {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

func (g *Generator) format(text, npcID string) string {
	if g.Format == nil {
		return text
	}
	return g.Format(text, npcID)
}

func severityOr(sev, fallback string) string {
	if sev == "" {
		return fallback
	}
	return sev
}

func npcAvailable(s *types.GameState, id string) bool {
	for _, n := range s.NPCs {
		if n.ID == id {
			return n.Available
		}
	}
	return false
}
