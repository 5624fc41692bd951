// Package engine composes the campaign subsystems into the single object
// front ends talk to. Every public method runs to completion before it
// returns; the engine holds no goroutines and needs no locking.
package engine

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/nathoo/storycore/engine/actions"
	"github.com/nathoo/storycore/engine/actorai"
	"github.com/nathoo/storycore/engine/advisor"
	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/engine/betrayal"
	"github.com/nathoo/storycore/engine/combo"
	"github.com/nathoo/storycore/engine/consequence"
	"github.com/nathoo/storycore/engine/crisis"
	"github.com/nathoo/storycore/engine/dialogue"
	"github.com/nathoo/storycore/engine/effects"
	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/events"
	"github.com/nathoo/storycore/engine/news"
	"github.com/nathoo/storycore/engine/rng"
	"github.com/nathoo/storycore/engine/rules"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Options configure a new engine. Zero values pick defaults.
type Options struct {
	Seed       string // "" draws a fresh seed
	Difficulty string // "" is balance.Default
	Language   string // "" is dialogue.DefaultLanguage
	Logger     *zap.Logger
	Inserts    *dialogue.Loader // nil loads the embedded catalogs
}

// world is everything a save replaces. LoadState builds a new world and
// swaps it in only once it is complete.
type world struct {
	cfg          balance.Config
	rng          *rng.RNG
	state        *types.GameState
	consequences *consequence.System
	combos       *combo.System
	betrayal     *betrayal.System
	crises       *crisis.System
	ai           *actorai.System
	news         *news.Generator
}

// Engine is the game façade.
type Engine struct {
	*world

	defs      *state.Defs
	lang      string
	log       *zap.Logger
	bus       *events.Bus
	advisors  *advisor.Engine
	inserts   *dialogue.Loader
	dialogues *dialogue.Manager

	fired []events.Event // events of the running operation, for content handlers
	talk  *conversation  // open dialogue of the command front end
}

// New creates an engine at phase 1.
func New(defs *state.Defs, opts Options) (*Engine, error) {
	cfg, err := defs.BalanceFor(opts.Difficulty)
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == "" {
		if seed, err = rng.NewSeed(); err != nil {
			return nil, err
		}
	}
	inserts := opts.Inserts
	if inserts == nil {
		if inserts, err = dialogue.LoadEmbedded(); err != nil {
			return nil, fmt.Errorf("load dialogue catalogs: %w", err)
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lang := opts.Language
	if lang == "" {
		lang = dialogue.DefaultLanguage
	}
	if known := inserts.Languages(); !slices.Contains(known, lang) {
		log.Warn("no dialogue catalog for language, using default",
			zap.String("lang", lang),
			zap.Strings("available", known))
		lang = dialogue.DefaultLanguage
	}

	e := &Engine{
		defs:      defs,
		lang:      lang,
		log:       log,
		bus:       events.NewBus(),
		advisors:  advisor.Default(),
		inserts:   inserts,
		dialogues: dialogue.NewManager(defs.Dialogues),
	}
	e.world = e.newWorld(cfg, rng.New(seed), state.NewGameState(defs, cfg, seed))
	e.log.Debug("engine created",
		zap.String("seed", seed),
		zap.String("difficulty", cfg.Name),
		zap.String("lang", lang))
	return e, nil
}

// NewWithSeed creates a normal-difficulty engine with the given seed.
func NewWithSeed(defs *state.Defs, seed string) (*Engine, error) {
	return New(defs, Options{Seed: seed})
}

func (e *Engine) newWorld(cfg balance.Config, r *rng.RNG, gs *types.GameState) *world {
	ids := make([]string, 0, len(e.defs.NPCs))
	for _, n := range e.defs.NPCs {
		ids = append(ids, n.ID)
	}
	w := &world{
		cfg:          cfg,
		rng:          r,
		state:        gs,
		consequences: consequence.New(e.defs.Consequences),
		combos:       combo.New(e.defs.Combos),
		betrayal:     betrayal.New(ids, cfg.BetrayalThreshold),
		crises:       crisis.New(e.defs.Crises),
		ai:           actorai.New(e.defs.Defensive, cfg),
		news:         news.New(e.defs.WorldEvents, cfg),
	}
	w.news.Format = func(text, npcID string) string {
		return e.inserts.ResolveInserts(text, dialogue.ContextFor(w.state, state.NPC(w.state, npcID)), e.lang)
	}
	return w
}

// Bus returns the engine's event bus. Subscriptions live as long as the
// engine.
func (e *Engine) Bus() *events.Bus { return e.bus }

// Defs returns the content definitions.
func (e *Engine) Defs() *state.Defs { return e.defs }

// Seed returns the seed of the running game.
func (e *Engine) Seed() string { return e.state.Seed }

// Difficulty returns the active preset.
func (e *Engine) Difficulty() balance.Config { return e.cfg }

// Language returns the text language.
func (e *Engine) Language() string { return e.lang }

// CurrentPhase returns the calendar position.
func (e *Engine) CurrentPhase() types.StoryPhase { return e.state.Phase }

// Resources returns a copy of the campaign resources.
func (e *Engine) Resources() types.StoryResources { return e.state.Resources }

// Flags returns the names of the set content flags, sorted.
func (e *Engine) Flags() []string {
	var out []string
	for name, on := range e.state.Flags {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// AllNPCs returns a copy of the roster.
func (e *Engine) AllNPCs() []types.NPCState {
	return append([]types.NPCState(nil), e.state.NPCs...)
}

// NPCState returns one roster member.
func (e *Engine) NPCState(id string) (types.NPCState, error) {
	if npc := state.NPC(e.state, id); npc != nil {
		return *npc, nil
	}
	return types.NPCState{}, errs.NewReference(errs.KindNPC, id)
}

// Objectives returns a copy of the campaign goals.
func (e *Engine) Objectives() []types.Objective {
	return append([]types.Objective(nil), e.state.Objectives...)
}

// Actors returns campaign targets and spawned defenders.
func (e *Engine) Actors() []types.ActorState {
	return append([]types.ActorState(nil), e.state.Actors...)
}

// NewsEvents returns the feed narrowed by f.
func (e *Engine) NewsEvents(f types.NewsFilter) []types.NewsEvent {
	return news.Filter(e.state.News, f)
}

// MarkNewsRead flags news as read; no ids marks everything.
func (e *Engine) MarkNewsRead(ids ...string) int {
	return news.MarkRead(e.state, ids...)
}

// PendingConsequences returns scheduled consequences in activation order.
func (e *Engine) PendingConsequences() []types.PendingConsequence {
	return e.consequences.Pending()
}

// ActiveConsequence returns the consequence awaiting a choice, or nil.
func (e *Engine) ActiveConsequence() *types.ActiveConsequence {
	return e.consequences.Active()
}

// ActiveCrisis returns the crisis awaiting a choice, or nil.
func (e *Engine) ActiveCrisis() *types.ActiveCrisis {
	return e.crises.Active()
}

// Actions resolves every defined action against the current state.
func (e *Engine) Actions() []types.LoadedAction {
	return actions.Load(e.defs, e.env(), e.cfg)
}

// AvailableActions returns the actions that can be executed now,
// affordable or not.
func (e *Engine) AvailableActions() []types.LoadedAction {
	var out []types.LoadedAction
	for _, la := range e.Actions() {
		if la.Available {
			out = append(out, la)
		}
	}
	return out
}

// ComboHints returns combos at or above the hint threshold.
func (e *Engine) ComboHints() []combo.Hint {
	return e.combos.ActiveHints(e.state.Phase.Number)
}

// CompletedCombos returns every combo activation so far.
func (e *Engine) CompletedCombos() []types.StoryComboActivation {
	return e.combos.Completed()
}

// BetrayalStates returns the grievance bookkeeping in roster order.
func (e *Engine) BetrayalStates() []types.BetrayalState {
	return e.betrayal.States()
}

// Escalation returns the defenders' escalation level.
func (e *Engine) Escalation() int { return e.ai.Escalation() }

// Recommendations runs the advisors over the current state. Advice whose
// suggested actions are all done or that has expired is dropped.
func (e *Engine) Recommendations() ([]advisor.Recommendation, []advisor.Conflict) {
	ctx := advisor.Context{
		Defs:       e.defs,
		State:      e.state,
		Config:     e.cfg,
		Actions:    e.Actions(),
		ComboHints: e.ComboHints(),
		Betrayal:   e.betrayal.States(),
		Escalation: e.ai.Escalation(),
	}
	recs, conflicts := e.advisors.Generate(ctx)
	valid := recs[:0]
	for _, r := range recs {
		if advisor.IsRecommendationValid(r, e.state.Phase.Number, e.state.UsedActions) {
			valid = append(valid, r)
		}
	}
	return valid, conflicts
}

// ResolveText fills placeholders in text for the given NPC ("" for none).
func (e *Engine) ResolveText(text, npcID string) string {
	return e.inserts.ResolveInserts(text, dialogue.ContextFor(e.state, state.NPC(e.state, npcID)), e.lang)
}

// MoodName returns the localized mood name.
func (e *Engine) MoodName(m types.Mood) string {
	return e.inserts.MoodName(m, e.lang)
}

// DialogueNodes returns what an NPC is willing to talk about.
func (e *Engine) DialogueNodes(npcID string) ([]types.DialogueNode, error) {
	npc := state.NPC(e.state, npcID)
	if npc == nil {
		return nil, errs.NewReference(errs.KindNPC, npcID)
	}
	nodes := e.dialogues.Available(*npc, e.betrayal)
	for i := range nodes {
		nodes[i].Text = e.ResolveText(nodes[i].Text, npcID)
	}
	return nodes, nil
}

// ChooseDialogue answers a dialogue node. This is the only way to settle
// a grievance.
func (e *Engine) ChooseDialogue(npcID, nodeID, choiceID string) (dialogue.Outcome, error) {
	if e.state.GameEnd != nil {
		return dialogue.Outcome{}, errs.ErrGameOver
	}
	out, err := e.dialogues.Choose(e.state, e.betrayal, npcID, nodeID, choiceID)
	if err != nil {
		return out, err
	}
	out.Response = e.ResolveText(out.Response, npcID)
	return out, nil
}

// CheckGameEnd returns how the game ended, evaluating the terminal
// conditions if no end was recorded yet. Nil while the game runs.
func (e *Engine) CheckGameEnd() *types.GameEndState {
	if e.state.GameEnd == nil {
		if end := e.evaluateEnd(); end != nil {
			e.finish(end)
			e.flush()
		}
	}
	if e.state.GameEnd == nil {
		return nil
	}
	end := *e.state.GameEnd
	return &end
}

func (e *Engine) env() rules.Env {
	return rules.Env{State: e.state, Warning: e.betrayal.Warning}
}

// evaluateEnd checks the terminal conditions without mutating anything.
func (e *Engine) evaluateEnd() *types.GameEndState {
	s := e.state
	n := s.Phase.Number
	switch {
	case n > e.cfg.MaxRounds:
		if state.PrimaryObjectivesComplete(s) {
			return &types.GameEndState{Reason: "victory", Victory: true, Phase: n,
				Message: "Die Zeit ist um, doch die Kampagne hat ihr Ziel erreicht."}
		}
		return &types.GameEndState{Reason: "timeout", Phase: n,
			Message: "Die Zeit ist abgelaufen. Die Kampagne verläuft im Sand."}
	case s.Resources.Risk >= 100 || s.ExposureCountdown == 0:
		return &types.GameEndState{Reason: "exposed", Phase: n,
			Message: "Die Operation ist aufgeflogen."}
	case e.hasTargets() && state.AverageTrust(s.Actors) >= 95:
		return &types.GameEndState{Reason: "collapsed", Phase: n,
			Message: "Das Vertrauen in die Institutionen ist unerschütterlich. Die Kampagne ist bedeutungslos."}
	case state.PrimaryObjectivesComplete(s):
		return &types.GameEndState{Reason: "victory", Victory: true, Phase: n,
			Message: "Alle Hauptziele sind erreicht."}
	}
	return nil
}

func (e *Engine) hasTargets() bool {
	for _, a := range e.state.Actors {
		if !a.Defensive {
			return true
		}
	}
	return false
}

func (e *Engine) finish(end *types.GameEndState) {
	e.state.GameEnd = end
	e.log.Info("game ended",
		zap.String("reason", end.Reason),
		zap.Bool("victory", end.Victory),
		zap.Int("phase", end.Phase))
	e.emit(events.GameEnded, events.GameEndData{End: *end})
}

// emit publishes ev on the bus and remembers it for content handlers.
func (e *Engine) emit(t events.Type, data any) {
	ev := events.Event{Type: t, Phase: e.state.Phase.Number, Data: data}
	e.fired = append(e.fired, ev)
	e.safely("bus:"+string(t), func() { e.bus.Publish(ev) })
}

// flush runs content handlers for the events of the finished operation.
// Handler effects do not emit events, so dispatch is a single pass.
func (e *Engine) flush() []string {
	fired := e.fired
	e.fired = nil
	if len(fired) == 0 || len(e.defs.Handlers) == 0 {
		return nil
	}
	var out []string
	e.safely("handlers", func() {
		effs := events.Dispatch(fired, e.defs.Handlers, e.env())
		if len(effs) > 0 {
			out = effects.Apply(e.state, effs, effects.Context{}).Output
		}
	})
	return out
}

// warn logs a soft failure of step.
func (e *Engine) warn(step string, err error) {
	e.log.Warn("step failed",
		zap.String("step", step),
		zap.Int("phase", e.state.Phase.Number),
		zap.Error(err))
}

// safely runs one soft-failing step. A panic is logged and swallowed so
// the surrounding action or phase still completes.
func (e *Engine) safely(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.warn(step, fmt.Errorf("panic: %v", r))
		}
	}()
	fn()
}
