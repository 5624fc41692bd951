package tui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

type origin int

const (
	fromGame origin = iota
	fromPlayer
	fromSystem
)

type entry struct {
	text   string
	origin origin
	kind   lineKind // only set for game lines
}

// transcript is the unstyled session log. It is rendered again on every
// resize so wrapping always follows the terminal width.
type transcript []entry

func (t transcript) echo(input string) transcript {
	return append(t, entry{text: "> " + input, origin: fromPlayer})
}

// game appends engine output followed by a blank separator.
func (t transcript) game(lines []string) transcript {
	for _, l := range lines {
		t = append(t, entry{text: l, kind: classifyLine(l)})
	}
	return append(t, entry{})
}

// system appends slash-command output followed by a blank separator.
func (t transcript) system(lines []string) transcript {
	for _, l := range lines {
		t = append(t, entry{text: l, origin: fromSystem})
	}
	return append(t, entry{})
}

func (t transcript) render(width int) string {
	var b strings.Builder
	for i, e := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.text == "" {
			continue
		}
		wrapped := wordwrap.String(e.text, width)
		switch e.origin {
		case fromPlayer:
			b.WriteString(stylePlayerInput.Render(wrapped))
		case fromSystem:
			b.WriteString(styledSystemMsg(wrapped))
		default:
			b.WriteString(renderLine(wrapped, e.kind))
		}
	}
	return b.String()
}
