package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/rng"
	"github.com/nathoo/storycore/engine/save"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// SaveState serializes the running game into an opaque blob.
func (e *Engine) SaveState() (string, error) {
	s := e.state
	used := make([]string, 0, len(s.UsedActions))
	for id, ok := range s.UsedActions {
		if ok {
			used = append(used, id)
		}
	}
	state.SortActionIDs(used)

	sd := &save.SaveData{
		Game:             e.defs.Game.Title,
		Seed:             s.Seed,
		RNGPosition:      e.rng.Position(),
		Difficulty:       e.cfg.Name,
		StoryPhase:       s.Phase,
		StoryResources:   s.Resources,
		NPCs:             s.NPCs,
		Objectives:       s.Objectives,
		Actors:           s.Actors,
		NewsEvents:       s.News,
		NewsSeq:          s.NewsSeq,
		NewsCooldowns:    s.NewsCooldowns,
		Flags:            s.Flags,
		UsedActions:      used,
		ActionHistory:    s.ActionHistory,
		MetricsHistory:   s.Metrics,
		Windows:          s.Windows,
		Exposure:         s.ExposureCountdown,
		GameEnd:          s.GameEnd,
		ConsequenceState: e.consequences.State(),
		ComboState:       e.combos.State(),
		BetrayalState:    e.betrayal.States(),
		BetrayalSeq:      e.betrayal.Seq(),
		CrisisState:      e.crises.State(),
		ActorAIState:     e.ai.State(),
	}
	return save.Encode(sd)
}

// LoadState replaces the running game with a saved one. Older blobs are
// migrated first. On any error the running game is left untouched.
func (e *Engine) LoadState(blob string) error {
	sd, err := save.Decode(blob)
	if err != nil {
		return err
	}
	w, err := e.rebuild(sd)
	if err != nil {
		return errs.Corrupt("does not match content", err)
	}
	e.world = w
	e.fired = nil
	e.talk = nil
	e.log.Debug("game loaded",
		zap.String("saveId", sd.SaveID),
		zap.Int("phase", sd.StoryPhase.Number),
		zap.String("difficulty", sd.Difficulty))
	return nil
}

func (e *Engine) rebuild(sd *save.SaveData) (*world, error) {
	cfg, err := e.defs.BalanceFor(sd.Difficulty)
	if err != nil {
		return nil, err
	}

	gs := state.NewGameState(e.defs, cfg, sd.Seed)
	gs.Phase = sd.StoryPhase
	gs.Resources = sd.StoryResources
	npcs, err := e.reconcileNPCs(sd.NPCs)
	if err != nil {
		return nil, err
	}
	gs.NPCs = npcs
	if gs.Objectives, err = e.reconcileObjectives(sd.Objectives); err != nil {
		return nil, err
	}
	if gs.Actors, err = e.reconcileActors(sd.Actors); err != nil {
		return nil, err
	}
	gs.News = sd.NewsEvents
	gs.NewsSeq = sd.NewsSeq
	gs.NewsCooldowns = sd.NewsCooldowns
	gs.Flags = sd.Flags
	gs.UsedActions = make(map[string]bool, len(sd.UsedActions))
	for _, id := range sd.UsedActions {
		if _, ok := e.defs.Actions[id]; !ok {
			return nil, errs.NewReference(errs.KindAction, id)
		}
		gs.UsedActions[id] = true
	}
	gs.ActionHistory = sd.ActionHistory
	gs.Metrics = sd.MetricsHistory
	gs.Windows = sd.Windows
	gs.ExposureCountdown = sd.Exposure
	gs.GameEnd = sd.GameEnd

	w := e.newWorld(cfg, rng.Restore(sd.Seed, sd.RNGPosition), gs)
	if err := w.consequences.Restore(sd.ConsequenceState); err != nil {
		return nil, fmt.Errorf("consequences: %w", err)
	}
	w.combos.Restore(sd.ComboState)
	if err := w.betrayal.Restore(sd.BetrayalState, sd.BetrayalSeq); err != nil {
		return nil, fmt.Errorf("betrayal: %w", err)
	}
	if err := w.crises.Restore(sd.CrisisState); err != nil {
		return nil, fmt.Errorf("crisis: %w", err)
	}
	w.ai.Restore(sd.ActorAIState)
	return w, nil
}

// reconcileNPCs orders saved NPCs like the roster. Names and roles come
// from content; NPCs missing from the save start fresh.
func (e *Engine) reconcileNPCs(saved []types.NPCState) ([]types.NPCState, error) {
	byID := make(map[string]types.NPCState, len(saved))
	for _, n := range saved {
		if _, ok := e.defs.NPC(n.ID); !ok {
			return nil, errs.NewReference(errs.KindNPC, n.ID)
		}
		byID[n.ID] = n
	}
	out := make([]types.NPCState, 0, len(e.defs.NPCs))
	for _, d := range e.defs.NPCs {
		n, ok := byID[d.ID]
		if !ok {
			n = types.NPCState{ID: d.ID, RelationshipLevel: d.Relationship, Morale: d.Morale, Available: true}
		}
		n.Name, n.Role = d.Name, d.Role
		n.CurrentMood = state.MoodFor(n.Morale)
		out = append(out, n)
	}
	return out, nil
}

// reconcileObjectives keeps saved progress but takes title, type and
// target from content. Objectives missing from the save start at zero.
func (e *Engine) reconcileObjectives(saved []types.Objective) ([]types.Objective, error) {
	byID := make(map[string]types.Objective, len(saved))
	known := make(map[string]bool, len(e.defs.Objectives))
	for _, d := range e.defs.Objectives {
		known[d.ID] = true
	}
	for _, o := range saved {
		if !known[o.ID] {
			return nil, errs.NewReference(errs.KindObjective, o.ID)
		}
		byID[o.ID] = o
	}
	out := make([]types.Objective, 0, len(e.defs.Objectives))
	for _, d := range e.defs.Objectives {
		o := byID[d.ID]
		o.ID, o.Title, o.Type, o.TargetValue = d.ID, d.Title, d.Type, d.Target
		out = append(out, o)
	}
	return out, nil
}

// reconcileActors orders content actors like the definitions and keeps
// spawned defenders after them. A defender must name a known template.
func (e *Engine) reconcileActors(saved []types.ActorState) ([]types.ActorState, error) {
	byID := make(map[string]types.ActorState, len(saved))
	var defenders []types.ActorState
	for _, a := range saved {
		if a.Defensive {
			if _, ok := e.defs.DefensiveActor(a.Template); !ok {
				return nil, errs.NewReference(errs.KindActor, a.ID)
			}
			defenders = append(defenders, a)
			continue
		}
		if _, ok := e.defs.Actor(a.ID); !ok {
			return nil, errs.NewReference(errs.KindActor, a.ID)
		}
		byID[a.ID] = a
	}
	out := make([]types.ActorState, 0, len(e.defs.Actors)+len(defenders))
	for _, d := range e.defs.Actors {
		a, ok := byID[d.ID]
		if !ok {
			a.Trust = d.Trust
		}
		a.ID, a.Name, a.Category = d.ID, d.Name, d.Category
		out = append(out, a)
	}
	return append(out, defenders...), nil
}
