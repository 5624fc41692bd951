package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// validDefs returns a minimal valid Defs for testing.
func validDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{Title: "Test"},
		Actions: map[string]types.ActionDef{
			"1.1": {ID: "1.1", Name: "Eins", Category: "content", Target: "press"},
		},
		ActionOrder:  []string{"1.1"},
		Consequences: map[string]types.ConsequenceDef{},
		NPCs:         []types.NPCDef{{ID: "igor", Name: "Igor", Morale: 50}},
		Actors:       []types.ActorDef{{ID: "press", Name: "Presse", Trust: 60}},
		Objectives:   []types.ObjectiveDef{{ID: "reach", Title: "Reichweite", Type: "primary", Target: 50}},
		Dialogues:    map[string][]types.DialogueNode{},
		Balance:      map[string]map[string]float64{},
	}
}

func validationErrors(t *testing.T, defs *state.Defs) []string {
	t.Helper()
	_, err := validate(defs)
	if err == nil {
		t.Fatal("expected validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	return ve.Errors
}

func TestValidate_ValidDefs(t *testing.T) {
	warnings, err := validate(validDefs())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestValidate_EmptyTitle(t *testing.T) {
	defs := validDefs()
	defs.Game.Title = ""
	assertContains(t, validationErrors(t, defs), "Game.title")
}

func TestValidate_ActionRefs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *types.ActionDef)
		want   string
	}{
		{"unknown target", func(a *types.ActionDef) { a.Target = "tv" }, `undefined actor "tv"`},
		{"unknown npc", func(a *types.ActionDef) { a.NPC = "boris" }, `undefined NPC "boris"`},
		{"unknown consequence", func(a *types.ActionDef) {
			a.Consequence = &types.ConsequenceRef{ID: "leak", Chance: 1}
		}, `undefined consequence "leak"`},
		{"missing name", func(a *types.ActionDef) { a.Name = "" }, "has no name"},
		{"negative cost", func(a *types.ActionDef) { a.Cost.Budget = -1 }, "negative cost"},
		{"unknown condition", func(a *types.ActionDef) {
			a.Requires = []types.Condition{{Type: "has_item"}}
		}, `unknown condition type "has_item"`},
		{"unknown effect", func(a *types.ActionDef) {
			a.Effects = []types.Effect{{Type: "move_player"}}
		}, `unknown effect type "move_player"`},
		{"unknown resource", func(a *types.ActionDef) {
			a.Effects = []types.Effect{{Type: "resource", Params: map[string]any{"resource": "gold", "amount": 1}}}
		}, `unknown resource "gold"`},
		{"negated dangling ref", func(a *types.ActionDef) {
			inner := types.Condition{Type: "action_used", Params: map[string]any{"action": "9.9"}}
			a.Requires = []types.Condition{{Type: "not", Negate: true, Inner: &inner}}
		}, `undefined action "9.9"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := validDefs()
			a := defs.Actions["1.1"]
			tt.mutate(&a)
			defs.Actions["1.1"] = a
			assertContains(t, validationErrors(t, defs), tt.want)
		})
	}
}

func TestValidate_AllTargetsAreAccepted(t *testing.T) {
	defs := validDefs()
	a := defs.Actions["1.1"]
	a.Effects = []types.Effect{
		{Type: "trust", Params: map[string]any{"actor": "all", "amount": -1}},
		{Type: "morale", Params: map[string]any{"npc": "all", "amount": 2}},
	}
	defs.Actions["1.1"] = a
	if _, err := validate(defs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ConsequenceChoices(t *testing.T) {
	defs := validDefs()
	defs.Consequences["leak"] = types.ConsequenceDef{ID: "leak"}
	assertContains(t, validationErrors(t, defs), `consequence "leak" has no choices`)

	defs.Consequences["leak"] = types.ConsequenceDef{ID: "leak", Choices: []types.Choice{
		{ID: "deny"}, {ID: "deny"},
	}}
	assertContains(t, validationErrors(t, defs), `duplicate choice "deny"`)
}

func TestValidate_Duplicates(t *testing.T) {
	defs := validDefs()
	defs.NPCs = append(defs.NPCs, types.NPCDef{ID: "igor", Name: "Igor 2", Morale: 50})
	assertContains(t, validationErrors(t, defs), `duplicate NPC "igor"`)
}

func TestValidate_Combo(t *testing.T) {
	defs := validDefs()
	defs.Combos = []types.ComboDef{{ID: "solo", Requires: []string{"a"}, Window: 0}}
	errs := validationErrors(t, defs)
	assertContains(t, errs, "at least two required steps")
	assertContains(t, errs, "window of at least one phase")
}

func TestValidate_ComboRepeatedStep(t *testing.T) {
	defs := validDefs()
	defs.Combos = []types.ComboDef{{ID: "echo", Requires: []string{"fake_news", "fake_news"}, Window: 3}}
	assertContains(t, validationErrors(t, defs), `duplicate combo "echo" step "fake_news"`)
}

func TestValidate_DefensiveFocus(t *testing.T) {
	defs := validDefs()
	defs.Defensive = []types.DefensiveActorDef{{ID: "fc", Focus: map[string]float64{"sue": 1}}}
	assertContains(t, validationErrors(t, defs), `unknown kind "sue"`)
}

func TestValidate_Balance(t *testing.T) {
	defs := validDefs()
	defs.Balance["nightmare"] = map[string]float64{"start_budget": 1}
	assertContains(t, validationErrors(t, defs), `Balance "nightmare" is not a difficulty`)

	defs = validDefs()
	defs.Balance["hard"] = map[string]float64{"gold": 1}
	assertContains(t, validationErrors(t, defs), `unknown key "gold"`)
}

func TestValidate_Handlers(t *testing.T) {
	defs := validDefs()
	defs.Handlers = []types.EventHandler{{EventType: "door_unlocked"}}
	assertContains(t, validationErrors(t, defs), "unknown event")
}

func TestValidate_DialogueForUnknownNPC(t *testing.T) {
	defs := validDefs()
	defs.Dialogues["boris"] = []types.DialogueNode{{ID: "hi", NPC: "boris"}}
	assertContains(t, validationErrors(t, defs), `undefined NPC "boris"`)
}

func TestValidate_WorldEvent(t *testing.T) {
	defs := validDefs()
	defs.WorldEvents = []types.WorldEventDef{{ID: "x", Kind: "weather", Severity: "apocalyptic"}}
	errs := validationErrors(t, defs)
	assertContains(t, errs, `unknown kind "weather"`)
	assertContains(t, errs, `unknown severity "apocalyptic"`)
}

func TestValidate_Warnings(t *testing.T) {
	defs := validDefs()
	defs.Objectives[0].Type = "secondary"
	defs.Crises = []types.CrisisDef{{ID: "c", Choices: []types.Choice{{ID: "ok"}}}}

	warnings, err := validate(defs)
	if err != nil {
		t.Fatalf("warnings must not fail validation: %v", err)
	}
	assertContains(t, warnings, "no primary objective")
	assertContains(t, warnings, "has no conditions")
}

func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected one of %v to contain %q", strs, substr)
}
