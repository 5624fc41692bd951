// Package events implements the engine-scoped event bus and single-pass
// dispatch of content-defined event handlers.
// Event handlers produce additional effects but do not recurse.
package events

import (
	"github.com/nathoo/storycore/engine/rules"
	"github.com/nathoo/storycore/types"
)

// Type names a lifecycle event.
type Type string

const (
	ActionExecuted        Type = "action_executed"
	PhaseAdvanced         Type = "phase_advanced"
	ConsequenceActivated  Type = "consequence_activated"
	ConsequenceResolved   Type = "consequence_resolved"
	ComboCompleted        Type = "combo_completed"
	CrisisStarted         Type = "crisis_started"
	CrisisResolved        Type = "crisis_resolved"
	NPCBetrayed           Type = "npc_betrayed"
	DefensiveActorSpawned Type = "defensive_actor_spawned"
	GameEnded             Type = "game_ended"
)

// Types lists every event type, in the order content may name them.
var Types = []Type{
	ActionExecuted, PhaseAdvanced, ConsequenceActivated, ConsequenceResolved,
	ComboCompleted, CrisisStarted, CrisisResolved, NPCBetrayed,
	DefensiveActorSpawned, GameEnded,
}

// Event is one published lifecycle event. Data holds the typed payload
// matching Type.
type Event struct {
	Type  Type
	Phase int
	Data  any
}

// Payloads.
type (
	ActionData struct {
		Result types.ActionResult
	}
	PhaseData struct {
		Result types.PhaseResult
	}
	ConsequenceData struct {
		Consequence types.ActiveConsequence
		ChoiceID    string // set on resolution
	}
	ComboData struct {
		Activation types.StoryComboActivation
	}
	CrisisData struct {
		Crisis   types.ActiveCrisis
		ChoiceID string // set on resolution
	}
	BetrayalData struct {
		NPCID string
	}
	SpawnData struct {
		Actor types.ActorState
	}
	GameEndData struct {
		End types.GameEndState
	}
)

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is a synchronous publish/subscribe channel owned by one engine.
// Handlers run in subscription order on the publishing goroutine.
type Bus struct {
	next int
	subs map[Type][]subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: map[Type][]subscription{}}
}

// Subscribe registers fn for events of type t and returns a function that
// removes the subscription. Calling the returned function twice is a no-op.
func (b *Bus) Subscribe(t Type, fn Handler) func() {
	b.next++
	id := b.next
	b.subs[t] = append(b.subs[t], subscription{id: id, fn: fn})
	return func() {
		list := b.subs[t]
		for i, s := range list {
			if s.id == id {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every current subscriber of its type.
// Subscriptions added or removed by a handler take effect on the next
// Publish.
func (b *Bus) Publish(ev Event) {
	list := append([]subscription(nil), b.subs[ev.Type]...)
	for _, s := range list {
		s.fn(ev)
	}
}

// Len returns the number of subscribers for t.
func (b *Bus) Len(t Type) int {
	return len(b.subs[t])
}

// Dispatch runs content handlers against the emitted events. Single pass,
// no recursion. Returns additional effects produced by matching handlers.
func Dispatch(evs []Event, handlers []types.EventHandler, env rules.Env) []types.Effect {
	var result []types.Effect

	for _, ev := range evs {
		for _, handler := range handlers {
			if handler.EventType != string(ev.Type) {
				continue
			}
			if !rules.EvalAllConditions(handler.Conditions, env) {
				continue
			}
			result = append(result, handler.Effects...)
		}
	}

	return result
}
