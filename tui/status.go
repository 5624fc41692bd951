package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathoo/storycore/engine"
	"github.com/nathoo/storycore/types"
)

// renderStatusBar produces a full-width inverted line with the phase,
// the economy and the overall progress. Open decisions and unread news
// are flagged on the right.
func (m Model) renderStatusBar() string {
	eng := m.engine
	p := eng.CurrentPhase()
	r := eng.Resources()

	left := fmt.Sprintf(" %d · %s | Budget %d | Kap %d/%d | AP %d/%d | Risiko %.0f",
		p.Number, engine.PhaseLabel(p), r.Budget, r.Capacity, r.CapacityMax,
		r.ActionPointsRemaining, r.ActionPointsMax, r.Risk)

	right := fmt.Sprintf("Ziele %.0f%% | %s ", objectiveProgress(eng.Objectives())*100,
		cases.Title(language.German).String(eng.Difficulty().Name))
	if unread := len(eng.NewsEvents(types.NewsFilter{UnreadOnly: true})); unread > 0 {
		right = fmt.Sprintf("%d neu | %s", unread, right)
	}

	alert := ""
	switch {
	case m.ended:
		alert = " SPIELENDE "
	case eng.ActiveCrisis() != nil:
		alert = " KRISE "
	case eng.ActiveConsequence() != nil:
		alert = " ENTSCHEIDUNG "
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - lipgloss.Width(alert)
	if gap < 0 {
		gap = 0
	}

	bar := styleStatusBar.Render(left + strings.Repeat(" ", gap))
	if alert != "" {
		bar += styleAlert.Render(alert)
	}
	return bar + styleStatusBar.Render(right)
}

// renderTeamBar lists the team with names tinted by mood.
func (m Model) renderTeamBar() string {
	var parts []string
	for _, n := range m.engine.AllNPCs() {
		name := n.Name
		switch {
		case !n.Available:
			name += " ✗"
		case n.InCrisis:
			name += " !"
		}
		style := styleTeamBar
		if c, ok := moodColors[n.CurrentMood]; ok {
			style = style.Foreground(c)
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %d", name, n.Morale)))
	}
	line := styleTeamBar.Render(" Team: ") + strings.Join(parts, styleTeamBar.Render("  "))
	if pad := m.width - lipgloss.Width(line); pad > 0 {
		line += styleTeamBar.Render(strings.Repeat(" ", pad))
	}
	return line
}

// objectiveProgress is the mean completion of the primary objectives.
func objectiveProgress(objs []types.Objective) float64 {
	sum, n := 0.0, 0
	for _, o := range objs {
		if o.Type != "primary" || o.TargetValue <= 0 {
			continue
		}
		sum += min(o.CurrentValue/o.TargetValue, 1)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
