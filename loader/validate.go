package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/storycore/engine/actorai"
	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/engine/events"
	"github.com/nathoo/storycore/engine/news"
	"github.com/nathoo/storycore/engine/rules"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// ValidationError collects all validation errors.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Known effect types.
var validEffectTypes = map[string]bool{
	"say":           true,
	"resource":      true,
	"objective":     true,
	"trust":         true,
	"morale":        true,
	"relationship":  true,
	"set_available": true,
	"set_flag":      true,
	"open_window":   true,
	"stop":          true,
}

// Known condition types.
var validConditionTypes = map[string]bool{
	"flag_set":         true,
	"flag_not":         true,
	"min_phase":        true,
	"max_phase":        true,
	"resource_gte":     true,
	"resource_lt":      true,
	"objective_gte":    true,
	"min_relationship": true,
	"morale_lt":        true,
	"betrayal_warning": true,
	"action_used":      true,
	"trust_lt":         true,
	"not":              true,
}

var validSeverities = map[string]bool{
	"":                    true,
	news.SeverityLow:      true,
	news.SeverityMedium:   true,
	news.SeverityHigh:     true,
	news.SeverityCritical: true,
}

// validator accumulates findings for one Defs.
type validator struct {
	defs     *state.Defs
	errors   []string
	warnings []string
}

func (v *validator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// validate checks the compiled defs for referential integrity and
// consistency. Warnings never fail a load.
func validate(defs *state.Defs) ([]string, error) {
	v := &validator{defs: defs}

	if defs.Game.Title == "" {
		v.errorf("Game.title is required")
	}
	if len(defs.Actions) == 0 {
		v.errorf("at least one Action is required")
	}
	if len(defs.Objectives) == 0 {
		v.errorf("at least one Objective is required")
	}

	for _, id := range defs.ActionOrder {
		v.action(defs.Actions[id])
	}
	for id, c := range defs.Consequences {
		where := "consequence " + quote(id)
		if !validSeverities[c.Severity] {
			v.errorf("%s has unknown severity %q", where, c.Severity)
		}
		v.effects(where, c.OnActivate)
		v.choices(where, c.Choices)
	}

	v.unique("combo", len(defs.Combos), func(i int) string { return defs.Combos[i].ID })
	for _, c := range defs.Combos {
		where := "combo " + quote(c.ID)
		if len(c.Requires) < 2 {
			v.errorf("%s needs at least two required steps", where)
		}
		v.unique(where+" step", len(c.Requires), func(i int) string { return c.Requires[i] })
		if c.Window < 1 {
			v.errorf("%s needs a window of at least one phase", where)
		}
		v.effects(where, c.Bonus)
	}

	v.unique("NPC", len(defs.NPCs), func(i int) string { return defs.NPCs[i].ID })
	for _, n := range defs.NPCs {
		if n.Name == "" {
			v.errorf("NPC %q has no name", n.ID)
		}
		if n.Morale < 0 || n.Morale > 100 {
			v.errorf("NPC %q morale %d outside 0..100", n.ID, n.Morale)
		}
	}

	v.unique("actor", len(defs.Actors), func(i int) string { return defs.Actors[i].ID })
	for _, a := range defs.Actors {
		if a.Resilience < 0 || a.Resilience > 1 {
			v.errorf("actor %q resilience %.2f outside 0..1", a.ID, a.Resilience)
		}
	}

	v.unique("defensive actor", len(defs.Defensive), func(i int) string { return defs.Defensive[i].ID })
	for _, d := range defs.Defensive {
		for kind := range d.Focus {
			if !slices.Contains(actorai.Kinds, kind) {
				v.errorf("defensive actor %q focuses on unknown kind %q", d.ID, kind)
			}
		}
	}

	v.unique("objective", len(defs.Objectives), func(i int) string { return defs.Objectives[i].ID })
	primaries := 0
	for _, o := range defs.Objectives {
		switch o.Type {
		case "primary":
			primaries++
		case "secondary":
		default:
			v.errorf("objective %q has unknown type %q", o.ID, o.Type)
		}
		if o.Target <= 0 {
			v.errorf("objective %q needs a positive target", o.ID)
		}
	}
	if len(defs.Objectives) > 0 && primaries == 0 {
		v.warnf("no primary objective: the campaign can only end by timeout or exposure")
	}

	v.unique("world event", len(defs.WorldEvents), func(i int) string { return defs.WorldEvents[i].ID })
	for _, ev := range defs.WorldEvents {
		where := "world event " + quote(ev.ID)
		if ev.Kind != news.TypeWorld && ev.Kind != news.TypeNPC {
			v.errorf("%s has unknown kind %q", where, ev.Kind)
		}
		if !validSeverities[ev.Severity] {
			v.errorf("%s has unknown severity %q", where, ev.Severity)
		}
		if ev.NPC != "" {
			v.npc(where, ev.NPC)
		} else if ev.Kind == news.TypeNPC {
			v.warnf("%s is an npc event without an npc", where)
		}
		v.effects(where, ev.Effects)
	}

	v.unique("crisis", len(defs.Crises), func(i int) string { return defs.Crises[i].ID })
	for _, c := range defs.Crises {
		where := "crisis " + quote(c.ID)
		if c.NPC != "" {
			v.npc(where, c.NPC)
		}
		if len(c.Conditions) == 0 {
			v.warnf("%s has no conditions and fires whenever possible", where)
		}
		v.conditions(where, c.Conditions)
		v.choices(where, c.Choices)
	}

	for name, over := range defs.Balance {
		if _, err := balance.Get(name); err != nil {
			v.errorf("Balance %q is not a difficulty", name)
			continue
		}
		known := balance.Keys()
		for key := range over {
			if !slices.Contains(known, key) {
				v.errorf("Balance %q sets unknown key %q", name, key)
			}
		}
	}

	for _, h := range defs.Handlers {
		where := "handler On(" + quote(h.EventType) + ")"
		if !slices.Contains(events.Types, events.Type(h.EventType)) {
			v.errorf("%s names an unknown event", where)
		}
		v.conditions(where, h.Conditions)
		v.effects(where, h.Effects)
	}

	for npcID, nodes := range defs.Dialogues {
		if _, ok := defs.NPC(npcID); !ok {
			v.errorf("dialogue tree for undefined NPC %q", npcID)
		}
		if len(nodes) == 0 {
			v.warnf("dialogue tree for %q is empty", npcID)
		}
	}

	if len(v.errors) > 0 {
		return v.warnings, &ValidationError{Errors: v.errors}
	}
	return v.warnings, nil
}

func (v *validator) action(a types.ActionDef) {
	where := "action " + quote(a.ID)
	if a.Name == "" {
		v.errorf("%s has no name", where)
	}
	if a.Category == "" {
		v.errorf("%s has no category", where)
	}
	if a.Cost.Budget < 0 || a.Cost.Capacity < 0 || a.Cost.ActionPoints < 0 {
		v.errorf("%s has a negative cost", where)
	}
	if a.Target != "" {
		v.actor(where, a.Target)
	}
	if a.NPC != "" {
		v.npc(where, a.NPC)
	}
	if c := a.Consequence; c != nil {
		if _, ok := v.defs.Consequences[c.ID]; !ok {
			v.errorf("%s references undefined consequence %q", where, c.ID)
		}
		if c.Chance < 0 || c.Chance > 1 {
			v.errorf("%s consequence chance %.2f outside 0..1", where, c.Chance)
		}
	}
	if a.Once && len(a.Unlocks) == 0 && len(a.Effects) == 0 {
		v.warnf("%s is once-only but has no effects or unlocks", where)
	}
	v.conditions(where, a.Requires)
	v.effects(where, a.Effects)
}

func (v *validator) choices(where string, choices []types.Choice) {
	if len(choices) == 0 {
		v.errorf("%s has no choices", where)
		return
	}
	seen := map[string]bool{}
	for _, c := range choices {
		if c.ID == "" {
			v.errorf("%s has a choice without id", where)
			continue
		}
		if seen[c.ID] {
			v.errorf("%s has duplicate choice %q", where, c.ID)
		}
		seen[c.ID] = true
		v.effects(where+" choice "+quote(c.ID), c.Effects)
	}
}

func (v *validator) conditions(where string, conditions []types.Condition) {
	for _, c := range conditions {
		if !validConditionTypes[c.Type] {
			v.errorf("%s: unknown condition type %q", where, c.Type)
			continue
		}
		if c.Type == "not" {
			if c.Inner == nil {
				v.errorf("%s: Not() without a condition", where)
				continue
			}
			v.conditions(where, []types.Condition{*c.Inner})
			continue
		}
		v.refs(where, "condition "+c.Type, c.Params)
	}
}

func (v *validator) effects(where string, effects []types.Effect) {
	for _, e := range effects {
		if !validEffectTypes[e.Type] {
			v.errorf("%s: unknown effect type %q", where, e.Type)
			continue
		}
		v.refs(where, "effect "+e.Type, e.Params)
	}
}

// refs checks the content ids a condition or effect names.
func (v *validator) refs(where, what string, p map[string]any) {
	ctx := where + ": " + what
	if id, ok := p["npc"].(string); ok && id != "all" {
		v.npc(ctx, id)
	}
	if id, ok := p["actor"].(string); ok && id != "all" {
		v.actor(ctx, id)
	}
	if id, ok := p["objective"].(string); ok && !v.hasObjective(id) {
		v.errorf("%s references undefined objective %q", ctx, id)
	}
	if id, ok := p["action"].(string); ok {
		if _, found := v.defs.Actions[id]; !found {
			v.errorf("%s references undefined action %q", ctx, id)
		}
	}
	if name, ok := p["resource"].(string); ok {
		if _, known := rules.ResourceValue(types.StoryResources{}, name); !known {
			v.errorf("%s references unknown resource %q", ctx, name)
		}
	}
}

func (v *validator) npc(where, id string) {
	if _, ok := v.defs.NPC(id); !ok {
		v.errorf("%s references undefined NPC %q", where, id)
	}
}

func (v *validator) actor(where, id string) {
	if _, ok := v.defs.Actor(id); !ok {
		v.errorf("%s references undefined actor %q", where, id)
	}
}

func (v *validator) hasObjective(id string) bool {
	for _, o := range v.defs.Objectives {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (v *validator) unique(kind string, n int, id func(int) string) {
	seen := map[string]bool{}
	for i := range n {
		if seen[id(i)] {
			v.errorf("duplicate %s %q", kind, id(i))
		}
		seen[id(i)] = true
	}
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
