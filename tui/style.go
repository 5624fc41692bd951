package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/storycore/types"
)

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleTeamBar = lipgloss.NewStyle().
			Background(lipgloss.Color("234")).
			Foreground(lipgloss.Color("248"))

	styleAlert = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	stylePhase = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	styleHeadline = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleSpeech = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleOption = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleGameEnd = lipgloss.NewStyle().
			Foreground(lipgloss.Color("201")).
			Bold(true)

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// moodColors tints NPC names in the team bar.
var moodColors = map[types.Mood]lipgloss.Color{
	types.MoodEnthusiastic:  lipgloss.Color("46"),
	types.MoodContent:       lipgloss.Color("114"),
	types.MoodNeutral:       lipgloss.Color("250"),
	types.MoodWorried:       lipgloss.Color("214"),
	types.MoodDisillusioned: lipgloss.Color("196"),
}

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindPhase
	kindHeadline
	kindSpeech
	kindOption
	kindSystem
	kindError
	kindGameEnd
	kindTrace
)

var errorMarkers = []string{
	"scheitert:",
	"Unbekannt",
	"ist unbekannt",
	"nicht verfügbar",
	"Das Spiel ist vorbei",
	"Es steht keine Entscheidung an",
	"Es gibt gerade keine Krise",
	"Wie bitte?",
}

// classifyLine decides how an output line is styled.
func classifyLine(line string) lineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "--- Phase"):
		return kindPhase
	case strings.HasPrefix(line, "SPIELENDE"):
		return kindGameEnd
	case strings.HasPrefix(trimmed, "Meldung:"),
		strings.HasPrefix(trimmed, "Schlagzeile:"),
		strings.HasPrefix(trimmed, "Kombination erfüllt"),
		strings.HasPrefix(line, "[HIGH]"),
		strings.HasPrefix(line, "[CRITICAL]"):
		return kindHeadline
	case isOption(trimmed):
		return kindOption
	case isError(line):
		return kindError
	case isSpeech(line):
		return kindSpeech
	default:
		return kindNarrative
	}
}

// isOption matches numbered choices such as "2) Abstreiten".
func isOption(line string) bool {
	i := strings.IndexByte(line, ')')
	if i < 1 || i > 2 {
		return false
	}
	return strings.Trim(line[:i], "0123456789") == ""
}

func isError(line string) bool {
	for _, m := range errorMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// isSpeech matches "Name: text" where Name is a single capitalized word.
func isSpeech(line string) bool {
	name, rest, ok := strings.Cut(line, ": ")
	if !ok || rest == "" || name == "" || strings.ContainsAny(name, " \t") {
		return false
	}
	first := []rune(name)[0]
	return first >= 'A' && first <= 'Z'
}

// renderLine applies the style for a given lineKind.
func renderLine(line string, kind lineKind) string {
	switch kind {
	case kindPhase:
		return stylePhase.Render(line)
	case kindHeadline:
		return styleHeadline.Render(line)
	case kindSpeech:
		return styleSpeech.Render(line)
	case kindOption:
		return styleOption.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindGameEnd:
		return styleGameEnd.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
