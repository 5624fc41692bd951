package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/storycore/engine/news"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

const (
	newsPageSize   = 10
	adviceShown    = 5
	progressBarLen = 20
)

var monthNames = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

var reasonNames = map[string]string{
	"victory":   "Sieg",
	"timeout":   "Zeit abgelaufen",
	"exposed":   "Aufgeflogen",
	"collapsed": "Gescheitert",
}

var aiKindNames = map[string]string{
	"expose":   "recherchiert gegen die Kampagne",
	"debunk":   "widerlegt Falschmeldungen",
	"shore_up": "stärkt das Vertrauen",
	"audit":    "prüft Geldflüsse",
}

// PhaseLabel renders a phase as "März, Jahr 2".
func PhaseLabel(p types.StoryPhase) string {
	m := p.Month
	if m < 1 || m > len(monthNames) {
		return fmt.Sprintf("Phase %d", p.Number)
	}
	return fmt.Sprintf("%s, Jahr %d", monthNames[m-1], p.Year)
}

func (e *Engine) reportStatus() []string {
	s := e.state
	r := s.Resources
	out := []string{
		fmt.Sprintf("Phase %d (%s)", s.Phase.Number, PhaseLabel(s.Phase)),
		fmt.Sprintf("Budget %d | Kapazität %d/%d | Aktionspunkte %d/%d",
			r.Budget, r.Capacity, r.CapacityMax, r.ActionPointsRemaining, r.ActionPointsMax),
		fmt.Sprintf("Risiko %.0f | Aufmerksamkeit %.0f | Moralische Last %d",
			r.Risk, r.Attention, r.MoralWeight),
		"",
		"Ziele:",
	}
	for _, o := range s.Objectives {
		mark := " "
		if o.Completed {
			mark = "x"
		}
		out = append(out, fmt.Sprintf("  [%s] %-28s %s %.0f/%.0f",
			mark, o.Title, bar(o.CurrentValue, o.TargetValue), o.CurrentValue, o.TargetValue))
	}
	if lvl := e.ai.Escalation(); lvl > 0 {
		out = append(out, "", fmt.Sprintf("Gegenwehr: Eskalationsstufe %d", lvl))
	}
	if s.ExposureCountdown >= 0 {
		out = append(out, fmt.Sprintf("Enttarnung droht in %d Phase(n)!", s.ExposureCountdown))
	}
	out = append(out, e.pendingNotices()...)
	if s.GameEnd != nil {
		out = append(out, "", describeEnd(s.GameEnd))
	}
	return out
}

// pendingNotices reminds the player of open decisions.
func (e *Engine) pendingNotices() []string {
	var out []string
	if c := e.ActiveConsequence(); c != nil {
		out = append(out, "", fmt.Sprintf("Entscheidung offen: %s (choose)", c.Title))
	}
	if c := e.ActiveCrisis(); c != nil {
		out = append(out, "", fmt.Sprintf("Krise: %s (crisis)", c.Name))
	}
	return out
}

// reportActions lists the available actions. "alle" also shows gated
// ones; any other filter matches a category.
func (e *Engine) reportActions(filter string) []string {
	showAll := filter == "alle" || filter == "all"
	list := e.AvailableActions()
	if showAll {
		list = e.Actions()
	}

	var out []string
	category := ""
	for _, la := range list {
		d := la.Def
		if filter != "" && !showAll && !strings.EqualFold(d.Category, filter) {
			continue
		}
		if d.Category != category {
			category = d.Category
			out = append(out, strings.ToUpper(category)+":")
		}
		line := fmt.Sprintf("  %-5s %-32s %s", d.ID, d.Name, costLabel(la.EffectiveCost))
		switch {
		case !la.Available:
			line += "  (" + la.UnavailableReason + ")"
		case !la.Affordable:
			line += "  (zu teuer)"
		case la.Discount > 0:
			line += fmt.Sprintf("  (-%.0f%% dank %s)", la.Discount*100, e.npcName(la.DiscountNPC))
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return []string{"Keine passenden Aktionen."}
	}
	return out
}

func (e *Engine) reportNews(all bool) []string {
	f := types.NewsFilter{UnreadOnly: !all, Limit: newsPageSize}
	list := e.NewsEvents(f)
	if len(list) == 0 {
		return []string{"Keine neuen Meldungen."}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return news.SeverityRank(list[i].Severity) > news.SeverityRank(list[j].Severity)
	})
	out := make([]string, 0, len(list))
	ids := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, fmt.Sprintf("[%s] Phase %d: %s", strings.ToUpper(n.Severity), n.Phase, n.Title))
		if n.Description != "" {
			out = append(out, "    "+n.Description)
		}
		ids = append(ids, n.ID)
	}
	e.MarkNewsRead(ids...)
	return out
}

func (e *Engine) reportTeam() []string {
	warnings := map[string]types.BetrayalState{}
	for _, b := range e.BetrayalStates() {
		warnings[b.NPCID] = b
	}

	var out []string
	for _, n := range e.AllNPCs() {
		line := fmt.Sprintf("%-10s %-22s Moral %3d (%s), Beziehung %d",
			n.Name, n.Role, n.Morale, e.MoodName(n.CurrentMood), n.RelationshipLevel)
		switch b := warnings[n.ID]; {
		case b.Betrayed:
			line += " - hat die Seiten gewechselt"
		case !n.Available:
			line += " - nicht verfügbar"
		case n.InCrisis:
			line += " - in der Krise"
		case b.WarningLevel > 0:
			line += fmt.Sprintf(" - Warnstufe %d", b.WarningLevel)
		}
		out = append(out, line)
	}
	return out
}

func (e *Engine) reportAdvice() []string {
	recs, conflicts := e.Recommendations()
	if len(recs) == 0 {
		return []string{"Das Team hat gerade keine Ratschläge."}
	}
	var out []string
	for i, r := range recs {
		if i == adviceShown {
			break
		}
		line := fmt.Sprintf("%s (%s): %s", e.npcName(r.NPCID), r.Priority, e.ResolveText(r.Message, r.NPCID))
		if len(r.SuggestedActions) > 0 {
			line += " [" + strings.Join(r.SuggestedActions, ", ") + "]"
		}
		out = append(out, line)
	}
	for _, c := range conflicts {
		out = append(out, "Uneinig: "+c.Description)
	}
	return out
}

func (e *Engine) reportCombos() []string {
	var out []string
	for _, h := range e.ComboHints() {
		line := fmt.Sprintf("%-24s %s", h.Name, bar(h.Progress, 1))
		if len(h.Missing) > 0 {
			line += " fehlt: " + strings.Join(h.Missing, ", ")
		}
		if h.ExpiresPhase > 0 {
			line += fmt.Sprintf(" (bis Phase %d)", h.ExpiresPhase)
		}
		out = append(out, line)
	}
	for _, c := range e.CompletedCombos() {
		out = append(out, fmt.Sprintf("Erfüllt in Phase %d: %s", c.Phase, c.Name))
	}
	if len(out) == 0 {
		return []string{"Noch keine Kombination in Sicht."}
	}
	return out
}

func (e *Engine) describeAction(res types.ActionResult) []string {
	name := e.defs.Actions[res.ActionID].Name
	if !res.Success {
		return []string{fmt.Sprintf("%s scheitert: %s.", name, res.Error)}
	}
	out := []string{fmt.Sprintf("%s ausgeführt (%s).", name, costLabel(res.CostPaid))}
	out = append(out, res.Narrative...)

	ids := make([]string, 0, len(res.ObjectiveChanges))
	for id := range res.ObjectiveChanges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		title := id
		if o := state.Objective(e.state, id); o != nil {
			title = o.Title
		}
		out = append(out, fmt.Sprintf("  %s %+.1f", title, res.ObjectiveChanges[id]))
	}
	for _, r := range res.Reactions {
		verb := "begrüßt das"
		if r.Kind == "disapprove" {
			verb = "ist dagegen"
		}
		out = append(out, fmt.Sprintf("  %s %s.", e.npcName(r.NPCID), verb))
	}
	for _, c := range res.Combos {
		out = append(out, fmt.Sprintf("  Kombination erfüllt: %s!", c.Name))
	}
	if res.News != nil {
		out = append(out, "  Schlagzeile: "+res.News.Title)
	}
	return out
}

func (e *Engine) describePhase(res types.PhaseResult) []string {
	out := []string{fmt.Sprintf("--- Phase %d: %s ---", res.NewPhase.Number, PhaseLabel(res.NewPhase))}
	if res.NewPhase.IsNewYear {
		out = append(out, "Ein neues Jahr beginnt.")
	}
	for _, n := range res.WorldEvents {
		out = append(out, "Meldung: "+n.Title)
	}
	for _, a := range res.AIActions {
		name := a.ActorID
		if st := state.Actor(e.state, a.ActorID); st != nil {
			name = st.Name
		}
		out = append(out, fmt.Sprintf("%s %s.", name, aiKindNames[a.Kind]))
	}
	for _, r := range res.NPCReactions {
		if r.Line != "" {
			out = append(out, fmt.Sprintf("%s: %s", e.npcName(r.NPCID), r.Line))
		}
	}
	for _, c := range res.TriggeredConsequences {
		out = append(out, "")
		out = append(out, describeDecision(c.Title, c.Description, c.Choices)...)
	}
	if c := res.Crisis; c != nil {
		out = append(out, "")
		out = append(out, describeDecision("Krise: "+c.Name, c.Description, c.Choices)...)
	}
	if res.GameEnd != nil {
		out = append(out, "", describeEnd(res.GameEnd))
	}
	return out
}

func describeDecision(title, desc string, choices []types.Choice) []string {
	out := []string{title}
	if desc != "" {
		out = append(out, desc)
	}
	for i, c := range choices {
		line := fmt.Sprintf("  %d) %s", i+1, c.Label)
		if cost := costLabel(c.Cost); cost != "kostenlos" {
			line += " - " + cost
		}
		out = append(out, line)
	}
	return out
}

func describeEnd(end *types.GameEndState) string {
	return fmt.Sprintf("SPIELENDE (%s): %s", reasonNames[end.Reason], end.Message)
}

func (e *Engine) npcName(id string) string {
	if n := state.NPC(e.state, id); n != nil {
		return n.Name
	}
	return id
}

func costLabel(c types.Costs) string {
	var parts []string
	if c.Budget > 0 {
		parts = append(parts, fmt.Sprintf("%d Budget", c.Budget))
	}
	if c.Capacity > 0 {
		parts = append(parts, fmt.Sprintf("%d Kap.", c.Capacity))
	}
	if c.ActionPoints > 0 {
		parts = append(parts, fmt.Sprintf("%d AP", c.ActionPoints))
	}
	if len(parts) == 0 {
		return "kostenlos"
	}
	return strings.Join(parts, ", ")
}

// bar renders value/max as a fixed-width progress bar.
func bar(value, target float64) string {
	filled := 0
	if target > 0 {
		filled = int(value / target * progressBarLen)
	}
	filled = min(max(filled, 0), progressBarLen)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", progressBarLen-filled) + "]"
}
