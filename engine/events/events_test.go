package events

import (
	"testing"

	"github.com/nathoo/storycore/engine/rules"
	"github.com/nathoo/storycore/types"
)

func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(ComboCompleted, func(Event) { got = append(got, "first") })
	b.Subscribe(ComboCompleted, func(Event) { got = append(got, "second") })
	b.Subscribe(PhaseAdvanced, func(Event) { got = append(got, "wrong type") })

	b.Publish(Event{Type: ComboCompleted})
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("got %v", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	unsub := b.Subscribe(GameEnded, func(Event) { calls++ })
	b.Publish(Event{Type: GameEnded})
	unsub()
	unsub()
	b.Publish(Event{Type: GameEnded})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if b.Len(GameEnded) != 0 {
		t.Errorf("Len = %d after unsubscribe", b.Len(GameEnded))
	}
}

func TestBus_InstancesAreIsolated(t *testing.T) {
	a, b := NewBus(), NewBus()
	calls := 0
	a.Subscribe(ActionExecuted, func(Event) { calls++ })
	b.Publish(Event{Type: ActionExecuted})
	if calls != 0 {
		t.Error("publishing on one bus reached another bus's subscriber")
	}
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	b := NewBus()
	var calls []string
	var unsubSecond func()
	b.Subscribe(CrisisStarted, func(Event) {
		calls = append(calls, "first")
		unsubSecond()
	})
	unsubSecond = b.Subscribe(CrisisStarted, func(Event) { calls = append(calls, "second") })

	b.Publish(Event{Type: CrisisStarted})
	b.Publish(Event{Type: CrisisStarted})
	if len(calls) != 3 {
		t.Errorf("calls = %v, want first, second, first", calls)
	}
}

func TestBus_TypedPayload(t *testing.T) {
	b := NewBus()
	var npc string
	b.Subscribe(NPCBetrayed, func(ev Event) {
		if d, ok := ev.Data.(BetrayalData); ok {
			npc = d.NPCID
		}
	})
	b.Publish(Event{Type: NPCBetrayed, Phase: 7, Data: BetrayalData{NPCID: "igor"}})
	if npc != "igor" {
		t.Errorf("npc = %q", npc)
	}
}

func testHandlers() []types.EventHandler {
	return []types.EventHandler{
		{
			EventType: "combo_completed",
			Effects: []types.Effect{
				{Type: "say", Params: map[string]any{"text": "Die Kampagne greift."}},
			},
		},
		{
			EventType: "phase_advanced",
			Conditions: []types.Condition{
				{Type: "flag_set", Params: map[string]any{"flag": "leak"}},
			},
			Effects: []types.Effect{
				{Type: "resource", Params: map[string]any{"resource": "risk", "amount": 5}},
			},
		},
		{
			EventType: "combo_completed",
			Effects: []types.Effect{
				{Type: "morale", Params: map[string]any{"npc": "all", "amount": 2}},
			},
		},
	}
}

func TestDispatch_MatchesEventType(t *testing.T) {
	env := rules.Env{State: &types.GameState{Flags: map[string]bool{}}}
	effects := Dispatch([]Event{{Type: ComboCompleted}}, testHandlers(), env)
	if len(effects) != 2 {
		t.Fatalf("expected 2 effects, got %d", len(effects))
	}
	if effects[0].Type != "say" || effects[1].Type != "morale" {
		t.Errorf("effects out of handler order: %+v", effects)
	}
}

func TestDispatch_Conditions(t *testing.T) {
	s := &types.GameState{Flags: map[string]bool{}}
	env := rules.Env{State: s}
	if got := Dispatch([]Event{{Type: PhaseAdvanced}}, testHandlers(), env); len(got) != 0 {
		t.Errorf("condition should block handler, got %+v", got)
	}
	s.Flags["leak"] = true
	if got := Dispatch([]Event{{Type: PhaseAdvanced}}, testHandlers(), env); len(got) != 1 {
		t.Errorf("expected 1 effect once flag set, got %d", len(got))
	}
}

func TestDispatch_NoEvents(t *testing.T) {
	env := rules.Env{State: &types.GameState{}}
	if got := Dispatch(nil, testHandlers(), env); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
