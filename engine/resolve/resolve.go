// Package resolve maps names typed by the player to content ids.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// AmbiguityError indicates multiple ids matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("welche(n) %s? (%s)", e.Name, names)
}

// NotFoundError indicates no id matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q ist unbekannt", e.Name)
}

// NPC resolves a team member by id, full name or any word of the name.
func NPC(s *types.GameState, name string) (string, error) {
	if state.NPC(s, name) != nil {
		return name, nil
	}
	var matches []string
	nameLower := strings.ToLower(name)
	for _, n := range s.NPCs {
		if matchesName(n.ID, n.Name, nameLower) {
			matches = append(matches, n.ID)
		}
	}
	return pick(name, matches)
}

// Action resolves an action by id or name. Names match whole words, so
// "bot" finds "Bot-Netz aufbauen".
func Action(defs *state.Defs, name string) (string, error) {
	if _, ok := defs.Actions[name]; ok {
		return name, nil
	}
	var matches []string
	nameLower := strings.ToLower(name)
	for _, id := range defs.ActionOrder {
		if matchesName(id, defs.Actions[id].Name, nameLower) {
			matches = append(matches, id)
		}
	}
	return pick(name, matches)
}

// Choice resolves an option of a consequence or crisis by id, label, or
// 1-based position.
func Choice(choices []types.Choice, name string) (string, error) {
	if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1].ID, nil
	}
	var matches []string
	nameLower := strings.ToLower(name)
	for _, c := range choices {
		if c.ID == name {
			return c.ID, nil
		}
		if matchesName(c.ID, c.Label, nameLower) {
			matches = append(matches, c.ID)
		}
	}
	return pick(name, matches)
}

func pick(name string, matches []string) (string, error) {
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// matchesName checks if a display name matches the query (case-insensitive).
// Supports exact match, word-based partial match and id match.
func matchesName(id, display, nameLower string) bool {
	displayLower := strings.ToLower(display)
	if displayLower != "" {
		if displayLower == nameLower {
			return true
		}
		// "bot" matches "Bot Netz", "story" matches "Erfundene Story".
		for _, word := range strings.FieldsFunc(displayLower, isSeparator) {
			if word == nameLower {
				return true
			}
		}
	}
	idLower := strings.ToLower(id)
	if idLower == nameLower {
		return true
	}
	// Underscore normalization: "fake news" matches id "fake_news".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '-' || r == '_'
}
