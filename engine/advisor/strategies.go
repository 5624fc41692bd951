package advisor

import (
	"fmt"
	"slices"
	"sort"

	"github.com/nathoo/storycore/engine/actors"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Direktor watches overall strategy and detection risk.
type Direktor struct{}

func (Direktor) NPCID() string { return "direktor" }

func (Direktor) Recommend(ctx Context, _ types.NPCState) []Recommendation {
	s := ctx.State
	r := s.Resources
	var out []Recommendation

	lowRisk := suggest(ctx.Actions, 2, func(d types.ActionDef) bool { return d.Risk <= 2 })
	switch {
	case r.Risk >= 70:
		out = append(out, Recommendation{
			Priority: Critical, Category: CategoryThreat, Topic: "risk", Stance: StanceCautious,
			Message:          "Wir stehen kurz vor der Enttarnung. Sofort zurückfahren.",
			Reasoning:        fmt.Sprintf("Risiko bei %.0f, Entdeckungsschwelle %.0f.", r.Risk, ctx.Config.DetectionThreshold),
			SuggestedActions: lowRisk,
		})
	case r.Risk >= 50:
		out = append(out, Recommendation{
			Priority: High, Category: CategoryThreat, Topic: "risk", Stance: StanceCautious,
			Message:          "Das Risiko wird unangenehm. Leisere Operationen bevorzugen.",
			Reasoning:        fmt.Sprintf("Risiko bei %.0f.", r.Risk),
			SuggestedActions: lowRisk,
		})
	case trend(s.Metrics, 3, func(m types.MetricsSnapshot) float64 { return m.Risk }) > 10:
		out = append(out, Recommendation{
			Priority: Medium, Category: CategoryThreat, Topic: "risk", Stance: StanceCautious,
			Message:   "Das Risiko steigt schneller als mir lieb ist.",
			Reasoning: "Risiko ist in den letzten Phasen um mehr als 10 Punkte gestiegen.",
		})
	}

	if ctx.Config.MaxRounds > 0 {
		expected := float64(s.Phase.Number) / float64(ctx.Config.MaxRounds)
		progress := state.PrimaryProgress(s)
		if progress < expected-0.15 && r.Risk < 40 {
			out = append(out, Recommendation{
				Priority: High, Category: CategoryStrategy, Topic: "progress", Stance: StanceAggressive,
				Message: "Wir hinken dem Plan hinterher. Jetzt ist Mut gefragt.",
				Reasoning: fmt.Sprintf("Fortschritt %.0f%%, erwartet %.0f%%.",
					progress*100, expected*100),
				SuggestedActions: suggest(ctx.Actions, 2, func(d types.ActionDef) bool { return d.Aggression > 0 }),
				ExpiresPhase:     s.Phase.Number + 2,
			})
		}
	}
	return out
}

// Marina runs content: combos and public attention.
type Marina struct{}

func (Marina) NPCID() string { return "marina" }

func (Marina) Recommend(ctx Context, _ types.NPCState) []Recommendation {
	r := ctx.State.Resources
	var out []Recommendation

	for _, h := range ctx.ComboHints {
		missing := h.Missing
		out = append(out, Recommendation{
			Priority: High, Category: CategoryOpportunity, Topic: "combo", Stance: StanceAggressive,
			Message:   fmt.Sprintf("%s ist fast komplett. Noch %d Schritt(e).", h.Name, len(missing)),
			Reasoning: fmt.Sprintf("Kombo zu %.0f%% erfüllt, läuft bis Phase %d.", h.Progress*100, h.ExpiresPhase),
			SuggestedActions: suggest(ctx.Actions, 3, func(d types.ActionDef) bool {
				if slices.Contains(missing, d.ID) {
					return true
				}
				for _, t := range d.Tags {
					if slices.Contains(missing, t) {
						return true
					}
				}
				return false
			}),
			ExpiresPhase: h.ExpiresPhase,
		})
	}

	switch {
	case r.Attention >= 70:
		out = append(out, Recommendation{
			Priority: High, Category: CategoryThreat, Topic: "attention", Stance: StanceCautious,
			Message:   "Alle Augen sind auf uns gerichtet. Inhalte drosseln.",
			Reasoning: fmt.Sprintf("Aufmerksamkeit bei %.0f.", r.Attention),
		})
	case r.Attention < 30:
		if ids := suggest(ctx.Actions, 2, inCategory("content")); len(ids) > 0 {
			reason := fmt.Sprintf("Aufmerksamkeit nur bei %.0f.", r.Attention)
			if ctx.Defs != nil {
				if target, _ := actors.MostVulnerable(ctx.Defs, ctx.State, "content"); target != "" {
					reason += fmt.Sprintf(" Weichstes Ziel: %s.", target)
				}
			}
			out = append(out, Recommendation{
				Priority: Medium, Category: CategoryOpportunity, Topic: "content", Stance: StanceAggressive,
				Message:          "Niemand schaut hin. Perfekter Moment für neue Inhalte.",
				Reasoning:        reason,
				SuggestedActions: ids,
			})
		}
	}
	return out
}

// Alexei runs infrastructure: capacity and the defenders.
type Alexei struct{}

func (Alexei) NPCID() string { return "alexei" }

func (Alexei) Recommend(ctx Context, _ types.NPCState) []Recommendation {
	s := ctx.State
	var out []Recommendation

	switch {
	case s.Resources.Capacity == 0:
		out = append(out, Recommendation{
			Priority: High, Category: CategoryResource, Topic: "capacity", Stance: StanceCautious,
			Message:   "Die Server laufen am Limit. Keine neuen Operationen diese Phase.",
			Reasoning: "Kapazität erschöpft.",
		})
	case s.Resources.Capacity <= 1:
		out = append(out, Recommendation{
			Priority: Medium, Category: CategoryResource, Topic: "capacity", Stance: StanceCautious,
			Message:   "Kapazität wird knapp.",
			Reasoning: fmt.Sprintf("Nur noch %d Kapazität frei.", s.Resources.Capacity),
		})
	}

	if n := state.DefensiveCount(s.Actors); n > 0 {
		p := High
		if ctx.Escalation >= 3 {
			p = Critical
		}
		out = append(out, Recommendation{
			Priority: p, Category: CategoryThreat, Topic: "defenders", Stance: StanceCautious,
			Message:   fmt.Sprintf("%d Gegenspieler beobachten unsere Netzwerke.", n),
			Reasoning: fmt.Sprintf("Eskalationsstufe %d.", ctx.Escalation),
		})
	}

	if s.Resources.Capacity >= 3 {
		if ids := suggest(ctx.Actions, 2, inCategory("tech")); len(ids) > 0 {
			out = append(out, Recommendation{
				Priority: Low, Category: CategoryOpportunity, Topic: "tech", Stance: StanceNeutral,
				Message:          "Wir haben Luft in der Infrastruktur. Ausbauen?",
				Reasoning:        fmt.Sprintf("%d Kapazität frei.", s.Resources.Capacity),
				SuggestedActions: ids,
			})
		}
	}
	return out
}

// Katja runs networks: opportunity windows and team morale.
type Katja struct{}

func (Katja) NPCID() string { return "katja" }

func (Katja) Recommend(ctx Context, self types.NPCState) []Recommendation {
	s := ctx.State
	var out []Recommendation

	for _, w := range s.Windows {
		if w.DeadlinePhase < s.Phase.Number {
			continue
		}
		tag := w.Tag
		out = append(out, Recommendation{
			Priority: High, Category: CategoryOpportunity, Topic: "window", Stance: StanceAggressive,
			Message:   fmt.Sprintf("Ein Fenster für %q ist offen. Jetzt zuschlagen.", tag),
			Reasoning: fmt.Sprintf("+%.0f%% Wirkung bis Phase %d.", w.Bonus*100, w.DeadlinePhase),
			SuggestedActions: suggest(ctx.Actions, 2, func(d types.ActionDef) bool {
				return d.Category == tag || slices.Contains(d.Tags, tag)
			}),
			ExpiresPhase: w.DeadlinePhase,
		})
	}

	for _, b := range ctx.Betrayal {
		if b.Betrayed || b.NPCID == self.ID || b.WarningLevel < 2 {
			continue
		}
		out = append(out, Recommendation{
			Priority: Critical, Category: CategoryTeam, Topic: "team", Stance: StanceCautious,
			Message:   fmt.Sprintf("Mit %[1]s stimmt etwas nicht. Sprich mit %[1]s, bevor es zu spät ist.", b.NPCID),
			Reasoning: fmt.Sprintf("Warnstufe %d, Verratsrisiko %.0f%%.", b.WarningLevel, b.BetrayalRisk*100),
		})
	}

	var low []string
	for _, n := range s.NPCs {
		if n.ID != self.ID && n.Available && n.Morale < 40 {
			low = append(low, n.ID)
		}
	}
	if len(low) > 0 {
		sort.Strings(low)
		out = append(out, Recommendation{
			Priority: Medium, Category: CategoryTeam, Topic: "team", Stance: StanceNeutral,
			Message:   "Die Stimmung im Team ist schlecht.",
			Reasoning: fmt.Sprintf("Niedrige Moral: %v.", low),
		})
	}
	return out
}

// Igor runs finance: budget level, budget trend and return on investment.
type Igor struct{}

func (Igor) NPCID() string { return "igor" }

func (Igor) Recommend(ctx Context, _ types.NPCState) []Recommendation {
	s := ctx.State
	cfg := ctx.Config
	b := s.Resources.Budget
	var out []Recommendation

	switch {
	case b < 0:
		out = append(out, Recommendation{
			Priority: Critical, Category: CategoryThreat, Topic: "budget", Stance: StanceCautious,
			Message:   "Wir sind im Minus. Keine Ausgaben mehr.",
			Reasoning: fmt.Sprintf("Budget %d.", b),
		})
	case b < cfg.UpkeepPerRound*3:
		out = append(out, Recommendation{
			Priority: High, Category: CategoryThreat, Topic: "budget", Stance: StanceCautious,
			Message:   "Das Geld reicht kaum für den laufenden Betrieb.",
			Reasoning: fmt.Sprintf("Budget %d bei Fixkosten %d pro Phase.", b, cfg.UpkeepPerRound),
		})
	case trend(s.Metrics, 4, func(m types.MetricsSnapshot) float64 { return float64(m.Budget) }) < -float64(cfg.StartBudget)/2:
		out = append(out, Recommendation{
			Priority: Medium, Category: CategoryThreat, Topic: "budget", Stance: StanceCautious,
			Message:   "Wir verbrennen Geld schneller als es reinkommt.",
			Reasoning: "Budget ist in den letzten Phasen deutlich gefallen.",
		})
	case cfg.StartBudget > 0 && b > cfg.StartBudget*2:
		out = append(out, Recommendation{
			Priority: Medium, Category: CategoryOpportunity, Topic: "budget", Stance: StanceAggressive,
			Message:   "Geld im Tresor arbeitet nicht. Investieren.",
			Reasoning: fmt.Sprintf("Budget %d, doppelt so viel wie zu Beginn.", b),
		})
	}

	if cat, roi, ok := BestROI(s.ActionHistory); ok {
		out = append(out, Recommendation{
			Priority: Low, Category: CategoryStrategy, Topic: "roi", Stance: StanceNeutral,
			Message:          fmt.Sprintf("%q bringt uns am meisten pro Euro.", cat),
			Reasoning:        fmt.Sprintf("%.2f Zielfortschritt je Budgeteinheit.", roi),
			SuggestedActions: suggest(ctx.Actions, 2, inCategory(cat)),
		})
	}
	return out
}

// BestROI returns the action category with the highest objective progress
// per budget spent, among categories with at least two successful paid
// actions. Ties go to the alphabetically first category.
func BestROI(history []types.ActionRecord) (string, float64, bool) {
	type agg struct {
		gain, spent float64
		n           int
	}
	by := map[string]*agg{}
	for _, h := range history {
		if !h.Success || h.Cost.Budget <= 0 {
			continue
		}
		a := by[h.Category]
		if a == nil {
			a = &agg{}
			by[h.Category] = a
		}
		a.gain += h.ObjectiveDelta
		a.spent += float64(h.Cost.Budget)
		a.n++
	}
	cats := make([]string, 0, len(by))
	for c := range by {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	best, bestROI, found := "", 0.0, false
	for _, c := range cats {
		a := by[c]
		if a.n < 2 {
			continue
		}
		roi := a.gain / a.spent
		if !found || roi > bestROI {
			best, bestROI, found = c, roi, true
		}
	}
	return best, bestROI, found
}
