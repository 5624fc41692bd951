package rules

import (
	"testing"

	"github.com/nathoo/storycore/types"
)

func condTestEnv() Env {
	s := &types.GameState{
		Phase: types.StoryPhase{Number: 5},
		Resources: types.StoryResources{
			Budget: 120, Capacity: 4, Risk: 42, Attention: 60, MoralWeight: 12, ActionPointsRemaining: 3,
		},
		NPCs: []types.NPCState{
			{ID: "marina", RelationshipLevel: 2, Morale: 70},
			{ID: "igor", RelationshipLevel: 0, Morale: 15},
		},
		Objectives: []types.Objective{
			{ID: "polarize", CurrentValue: 40, TargetValue: 100},
		},
		Actors: []types.ActorState{
			{ID: "press", Trust: 55},
		},
		Flags:       map[string]bool{"bots_online": true},
		UsedActions: map[string]bool{"1.1": true},
	}
	return Env{
		State: s,
		Warning: func(id string) int {
			if id == "igor" {
				return 2
			}
			return 0
		},
	}
}

func cond(typ string, kv ...any) types.Condition {
	p := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		p[kv[i].(string)] = kv[i+1]
	}
	return types.Condition{Type: typ, Params: p}
}

func TestEvalCondition(t *testing.T) {
	env := condTestEnv()

	tests := []struct {
		name string
		cond types.Condition
		want bool
	}{
		{"flag_set: set", cond("flag_set", "flag", "bots_online"), true},
		{"flag_set: unset", cond("flag_set", "flag", "leak"), false},
		{"flag_not: unset", cond("flag_not", "flag", "leak"), true},
		{"min_phase: reached", cond("min_phase", "phase", 5), true},
		{"min_phase: not reached", cond("min_phase", "phase", 6.0), false},
		{"max_phase", cond("max_phase", "phase", 4), false},
		{"resource_gte: budget", cond("resource_gte", "resource", "budget", 120), true},
		{"resource_gte: risk below", cond("resource_gte", "resource", "risk", 50), false},
		{"resource_lt: attention", cond("resource_lt", "resource", "attention", 61.5), true},
		{"resource_gte: unknown resource", cond("resource_gte", "resource", "mana", 0), false},
		{"objective_gte", cond("objective_gte", "objective", "polarize", 40), true},
		{"objective_gte: unknown", cond("objective_gte", "objective", "nope", 0), false},
		{"min_relationship: enough", cond("min_relationship", "npc", "marina", 2), true},
		{"min_relationship: too low", cond("min_relationship", "npc", "igor", 1), false},
		{"morale_lt", cond("morale_lt", "npc", "igor", 20), true},
		{"betrayal_warning: reached", cond("betrayal_warning", "npc", "igor", 2), true},
		{"betrayal_warning: other npc", cond("betrayal_warning", "npc", "marina", 1), false},
		{"action_used", cond("action_used", "action", "1.1"), true},
		{"trust_lt", cond("trust_lt", "actor", "press", 60), true},
		{"unknown type", cond("moon_phase"), false},
		{
			name: "not: inverts",
			cond: types.Condition{Type: "not", Inner: &types.Condition{Type: "flag_set", Params: map[string]any{"flag": "leak"}}},
			want: true,
		},
		{"not: nil inner", types.Condition{Type: "not"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvalCondition(tt.cond, env); got != tt.want {
				t.Errorf("EvalCondition(%s) = %v, want %v", tt.cond.Type, got, tt.want)
			}
		})
	}
}

func TestEvalCondition_NilWarningLookup(t *testing.T) {
	env := condTestEnv()
	env.Warning = nil
	if EvalCondition(cond("betrayal_warning", "npc", "igor", 1), env) {
		t.Error("betrayal_warning without lookup should be false")
	}
}

func TestEvalAllConditions(t *testing.T) {
	env := condTestEnv()
	if !EvalAllConditions(nil, env) {
		t.Error("empty list should be vacuously true")
	}
	all := []types.Condition{
		cond("flag_set", "flag", "bots_online"),
		cond("min_phase", "phase", 3),
	}
	if !EvalAllConditions(all, env) {
		t.Error("expected all to pass")
	}
	all = append(all, cond("flag_set", "flag", "leak"))
	if EvalAllConditions(all, env) {
		t.Error("expected AND to fail")
	}
}

func TestResourceValue(t *testing.T) {
	r := types.StoryResources{Budget: -5, MoralWeight: 3}
	for _, name := range ResourceNames {
		if _, ok := ResourceValue(r, name); !ok {
			t.Errorf("ResourceValue(%q) not recognized", name)
		}
	}
	if v, _ := ResourceValue(r, "budget"); v != -5 {
		t.Errorf("budget = %v", v)
	}
}
