package effects

import (
	"testing"

	"github.com/nathoo/storycore/types"
)

func testState() *types.GameState {
	return &types.GameState{
		Phase: types.StoryPhase{Number: 4},
		Resources: types.StoryResources{
			Budget: 100, Capacity: 5, CapacityMax: 10, Risk: 20, Attention: 30,
			ActionPointsRemaining: 3, ActionPointsMax: 5,
		},
		NPCs: []types.NPCState{
			{ID: "marina", Morale: 50, Available: true},
			{ID: "igor", Morale: 50, Available: false},
		},
		Objectives: []types.Objective{
			{ID: "polarize", TargetValue: 100},
		},
		Actors: []types.ActorState{
			{ID: "press", Trust: 70},
			{ID: "gov", Trust: 60},
			{ID: "factcheck", Trust: 80, Defensive: true},
		},
		Flags: map[string]bool{},
	}
}

func eff(typ string, kv ...any) types.Effect {
	p := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		p[kv[i].(string)] = kv[i+1]
	}
	return types.Effect{Type: typ, Params: p}
}

func TestApply_Say(t *testing.T) {
	s := testState()
	out := Apply(s, []types.Effect{eff("say", "text", "Die Bots laufen.")}, Context{})
	if len(out.Output) != 1 || out.Output[0] != "Die Bots laufen." {
		t.Errorf("output = %v", out.Output)
	}
}

func TestApply_Resource(t *testing.T) {
	s := testState()
	out := Apply(s, []types.Effect{
		eff("resource", "resource", "risk", 90.0),
		eff("resource", "resource", "budget", -130),
		eff("resource", "resource", "capacity", 2),
		eff("resource", "resource", "mana", 5),
	}, Context{})

	if s.Resources.Risk != 100 {
		t.Errorf("risk = %v, want clamped 100", s.Resources.Risk)
	}
	if out.Resources.Risk != 80 {
		t.Errorf("risk delta = %v, want 80", out.Resources.Risk)
	}
	if s.Resources.Budget != -30 || out.Resources.Budget != -130 {
		t.Errorf("budget = %d delta %d, debt expected", s.Resources.Budget, out.Resources.Budget)
	}
	if s.Resources.Capacity != 7 {
		t.Errorf("capacity = %d", s.Resources.Capacity)
	}
}

func TestApply_ObjectiveScaled(t *testing.T) {
	s := testState()
	out := Apply(s, []types.Effect{eff("objective", "objective", "polarize", 10)}, Context{Multiplier: 1.5})
	if got := s.Objectives[0].CurrentValue; got != 15 {
		t.Errorf("objective = %v, want 15", got)
	}
	if out.Objectives["polarize"] != 15 {
		t.Errorf("delta = %v", out.Objectives)
	}
}

func TestApply_TrustDefaultsToTarget(t *testing.T) {
	s := testState()
	out := Apply(s, []types.Effect{eff("trust", "amount", -10)}, Context{TargetActor: "press", Multiplier: 2})
	if s.Actors[0].Trust != 50 {
		t.Errorf("press trust = %v, want 50", s.Actors[0].Trust)
	}
	if out.Trust["press"] != -20 {
		t.Errorf("trust delta = %v", out.Trust)
	}
}

func TestApply_TrustAllSkipsDefensive(t *testing.T) {
	s := testState()
	Apply(s, []types.Effect{eff("trust", "actor", "all", -5)}, Context{})
	if s.Actors[0].Trust != 65 || s.Actors[1].Trust != 55 {
		t.Errorf("actors = %+v", s.Actors)
	}
	if s.Actors[2].Trust != 80 {
		t.Error("defensive actor must not be eroded by campaign effects")
	}
}

func TestApply_MoraleAndRelationship(t *testing.T) {
	s := testState()
	Apply(s, []types.Effect{
		eff("morale", "npc", "all", 35),
		eff("relationship", "amount", 120),
	}, Context{NPC: "marina"})

	if s.NPCs[0].Morale != 85 || s.NPCs[0].CurrentMood != types.MoodEnthusiastic {
		t.Errorf("marina = %+v", s.NPCs[0])
	}
	if s.NPCs[1].Morale != 50 {
		t.Error("unavailable npc must not be affected by all")
	}
	if s.NPCs[0].RelationshipLevel != 1 || s.NPCs[0].RelationshipProgress != 20 {
		t.Errorf("relationship = %d/%d", s.NPCs[0].RelationshipLevel, s.NPCs[0].RelationshipProgress)
	}
}

func TestApply_FlagAndAvailability(t *testing.T) {
	s := testState()
	Apply(s, []types.Effect{
		eff("set_flag", "flag", "leak", true),
		eff("set_available", "npc", "igor", true),
	}, Context{})
	if !s.Flags["leak"] || !s.NPCs[1].Available {
		t.Errorf("flags %v, igor %+v", s.Flags, s.NPCs[1])
	}
}

func TestApply_OpenWindow(t *testing.T) {
	s := testState()
	out := Apply(s, []types.Effect{eff("open_window", "tag", "scandal", "bonus", 0.5, "duration", 2)}, Context{})
	if len(s.Windows) != 1 || len(out.Windows) != 1 {
		t.Fatalf("windows = %+v", s.Windows)
	}
	w := s.Windows[0]
	if w.ID != "scandal@4" || w.DeadlinePhase != 6 || w.Bonus != 0.5 {
		t.Errorf("window = %+v", w)
	}
}

func TestApply_Stop(t *testing.T) {
	s := testState()
	out := Apply(s, []types.Effect{
		eff("say", "text", "before"),
		eff("stop"),
		eff("say", "text", "after"),
	}, Context{})
	if !out.Stopped || len(out.Output) != 1 {
		t.Errorf("out = %+v", out)
	}
}

func TestApply_UnknownIgnored(t *testing.T) {
	s := testState()
	before := s.Resources
	Apply(s, []types.Effect{eff("teleport"), eff("trust", "actor", "nobody", 5)}, Context{})
	if s.Resources != before {
		t.Error("unknown effects must not change state")
	}
}
