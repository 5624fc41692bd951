// Package tui provides a Bubble Tea dashboard for the storycore engine.
package tui

// History remembers submitted commands for Up/Down recall. The line being
// typed when recall starts is kept as a draft and comes back after the
// newest entry.
type History struct {
	entries []string
	limit   int
	pos     int // len(entries) while not recalling
	draft   string
}

// NewHistory creates a history that keeps at most limit commands.
func NewHistory(limit int) *History {
	return &History{entries: make([]string, 0, limit), limit: limit}
}

// Push records cmd and ends any recall. Repeating the newest entry is a
// no-op.
func (h *History) Push(cmd string) {
	if n := len(h.entries); n == 0 || h.entries[n-1] != cmd {
		h.entries = append(h.entries, cmd)
		if len(h.entries) > h.limit {
			h.entries = h.entries[len(h.entries)-h.limit:]
		}
	}
	h.Reset()
}

// Prev steps to an older entry. current is saved as the draft when recall
// starts. At the oldest entry it stays put.
func (h *History) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos == len(h.entries) {
		h.draft = current
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos], true
}

// Next steps to a newer entry. Past the newest it returns the draft and
// reports false.
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.entries) {
		return h.draft, false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return h.draft, false
	}
	return h.entries[h.pos], true
}

// Reset ends recall and drops the draft.
func (h *History) Reset() {
	h.pos = len(h.entries)
	h.draft = ""
}

// Len returns the number of remembered commands.
func (h *History) Len() int { return len(h.entries) }
