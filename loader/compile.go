// Package loader loads Lua content into Go structs at startup.
// The Lua VM is discarded after loading: zero Lua at runtime.
package loader

import (
	"fmt"
	"sort"

	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds an id and its body table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// rawHandler holds an event handler before compilation.
type rawHandler struct {
	eventType string
	table     *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if n := val.MaxN(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// tableToStrings reads the array part of a table as strings.
func tableToStrings(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToFloatMap converts the string-keyed numeric fields of a table.
func tableToFloatMap(tbl *lua.LTable) map[string]float64 {
	if tbl == nil {
		return nil
	}
	m := map[string]float64{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			m[string(ks)] = float64(n)
		}
	})
	return m
}

// elements returns the tables of the array part of tbl, in order.
func elements(tbl *lua.LTable) []*lua.LTable {
	if tbl == nil {
		return nil
	}
	var out []*lua.LTable
	for i := 1; i <= tbl.MaxN(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, t)
		}
	}
	return out
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs := &state.Defs{
		Game:         compileGame(coll.game),
		Actions:      map[string]types.ActionDef{},
		Consequences: map[string]types.ConsequenceDef{},
		Dialogues:    map[string][]types.DialogueNode{},
		Balance:      map[string]map[string]float64{},
	}

	for _, raw := range coll.actions {
		if _, dup := defs.Actions[raw.id]; dup {
			return nil, fmt.Errorf("duplicate action %q", raw.id)
		}
		defs.Actions[raw.id] = compileAction(raw)
		defs.ActionOrder = append(defs.ActionOrder, raw.id)
	}
	state.SortActionIDs(defs.ActionOrder)

	for _, raw := range coll.consequences {
		if _, dup := defs.Consequences[raw.id]; dup {
			return nil, fmt.Errorf("duplicate consequence %q", raw.id)
		}
		defs.Consequences[raw.id] = compileConsequence(raw)
	}

	for _, raw := range coll.combos {
		defs.Combos = append(defs.Combos, compileCombo(raw))
	}
	for _, raw := range coll.npcs {
		defs.NPCs = append(defs.NPCs, compileNPC(raw))
	}
	for _, raw := range coll.actors {
		defs.Actors = append(defs.Actors, compileActor(raw))
	}
	for _, raw := range coll.defensive {
		defs.Defensive = append(defs.Defensive, types.DefensiveActorDef{
			ID:       raw.id,
			Name:     getString(raw.table, "name"),
			Weight:   getInt(raw.table, "weight"),
			Strength: getNumber(raw.table, "strength"),
			Focus:    tableToFloatMap(getTable(raw.table, "focus")),
		})
	}
	for _, raw := range coll.objectives {
		typ := getString(raw.table, "type")
		if typ == "" {
			typ = "primary"
		}
		defs.Objectives = append(defs.Objectives, types.ObjectiveDef{
			ID:     raw.id,
			Title:  getString(raw.table, "title"),
			Type:   typ,
			Target: getNumber(raw.table, "target"),
		})
	}
	for _, raw := range coll.worldEvents {
		defs.WorldEvents = append(defs.WorldEvents, compileWorldEvent(raw))
	}
	for _, raw := range coll.crises {
		defs.Crises = append(defs.Crises, compileCrisis(raw))
	}
	for _, raw := range coll.balance {
		if _, dup := defs.Balance[raw.id]; dup {
			return nil, fmt.Errorf("duplicate balance block %q", raw.id)
		}
		defs.Balance[raw.id] = tableToFloatMap(raw.table)
	}

	for _, raw := range coll.handlers {
		defs.Handlers = append(defs.Handlers, types.EventHandler{
			EventType:  raw.eventType,
			Conditions: compileConditions(getTable(raw.table, "conditions")),
			Effects:    compileEffects(getTable(raw.table, "effects")),
		})
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:      getString(tbl, "title"),
		Author:     getString(tbl, "author"),
		Version:    getString(tbl, "version"),
		Intro:      getString(tbl, "intro"),
		StartFlags: tableToStrings(getTable(tbl, "flags")),
	}
}

// compileCosts reads { budget = 20, capacity = 1, ap = 1 }.
func compileCosts(tbl *lua.LTable) types.Costs {
	if tbl == nil {
		return types.Costs{}
	}
	return types.Costs{
		Budget:       getInt(tbl, "budget"),
		Capacity:     getInt(tbl, "capacity"),
		ActionPoints: getInt(tbl, "ap"),
	}
}

func compileAction(raw rawDef) types.ActionDef {
	tbl := raw.table
	a := types.ActionDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Category:    getString(tbl, "category"),
		Tags:        tableToStrings(getTable(tbl, "tags")),
		Cost:        compileCosts(getTable(tbl, "cost")),
		Risk:        getNumber(tbl, "risk"),
		Attention:   getNumber(tbl, "attention"),
		MoralWeight: getInt(tbl, "moral_weight"),
		Target:      getString(tbl, "target"),
		NPC:         getString(tbl, "npc"),
		Aggression:  getNumber(tbl, "aggression"),
		MinPhase:    getInt(tbl, "min_phase"),
		Requires:    compileConditions(getTable(tbl, "requires")),
		Unlocks:     tableToStrings(getTable(tbl, "unlocks")),
		Once:        getBool(tbl, "once", false),
		Effects:     compileEffects(getTable(tbl, "effects")),
		Narrative:   getString(tbl, "narrative"),
	}
	if c := getTable(tbl, "consequence"); c != nil {
		chance := 1.0
		if _, ok := c.RawGetString("chance").(lua.LNumber); ok {
			chance = getNumber(c, "chance")
		}
		a.Consequence = &types.ConsequenceRef{
			ID:     getString(c, "id"),
			Chance: chance,
			Delay:  getInt(c, "delay"),
		}
	}
	return a
}

func compileChoices(tbl *lua.LTable) []types.Choice {
	var choices []types.Choice
	for _, c := range elements(tbl) {
		choices = append(choices, types.Choice{
			ID:      getString(c, "id"),
			Label:   getString(c, "label"),
			Cost:    compileCosts(getTable(c, "cost")),
			Effects: compileEffects(getTable(c, "effects")),
		})
	}
	return choices
}

func compileConsequence(raw rawDef) types.ConsequenceDef {
	tbl := raw.table
	return types.ConsequenceDef{
		ID:           raw.id,
		Title:        getString(tbl, "title"),
		Description:  getString(tbl, "description"),
		Severity:     getString(tbl, "severity"),
		DefaultDelay: getInt(tbl, "delay"),
		OnActivate:   compileEffects(getTable(tbl, "on_activate")),
		Choices:      compileChoices(getTable(tbl, "choices")),
	}
}

func compileCombo(raw rawDef) types.ComboDef {
	tbl := raw.table
	return types.ComboDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Requires:    tableToStrings(getTable(tbl, "requires")),
		Window:      getInt(tbl, "window"),
		Repeatable:  getBool(tbl, "repeatable", false),
		Bonus:       compileEffects(getTable(tbl, "bonus")),
	}
}

func compileNPC(raw rawDef) types.NPCDef {
	tbl := raw.table
	morale := 50
	if _, ok := tbl.RawGetString("morale").(lua.LNumber); ok {
		morale = getInt(tbl, "morale")
	}
	return types.NPCDef{
		ID:               raw.id,
		Name:             getString(tbl, "name"),
		Role:             getString(tbl, "role"),
		Affinity:         tableToStrings(getTable(tbl, "affinity")),
		Objections:       tableToStrings(getTable(tbl, "objections")),
		MoralThreshold:   getInt(tbl, "moral_threshold"),
		DiscountPerLevel: getNumber(tbl, "discount"),
		Morale:           morale,
		Relationship:     getInt(tbl, "relationship"),
	}
}

func compileActor(raw rawDef) types.ActorDef {
	tbl := raw.table
	return types.ActorDef{
		ID:              raw.id,
		Name:            getString(tbl, "name"),
		Category:        getString(tbl, "category"),
		Trust:           getNumber(tbl, "trust"),
		Resilience:      getNumber(tbl, "resilience"),
		Vulnerabilities: tableToFloatMap(getTable(tbl, "vulnerabilities")),
	}
}

func compileWorldEvent(raw rawDef) types.WorldEventDef {
	tbl := raw.table
	kind := getString(tbl, "kind")
	if kind == "" {
		kind = "world"
	}
	ev := types.WorldEventDef{
		ID:          raw.id,
		Kind:        kind,
		Title:       getString(tbl, "title"),
		Description: getString(tbl, "description"),
		Severity:    getString(tbl, "severity"),
		Weight:      max(1, getInt(tbl, "weight")),
		MinPhase:    getInt(tbl, "min_phase"),
		NPC:         getString(tbl, "npc"),
		Effects:     compileEffects(getTable(tbl, "effects")),
	}
	if w := getTable(tbl, "window"); w != nil {
		ev.Window = &types.WindowDef{
			Tag:      getString(w, "tag"),
			Bonus:    getNumber(w, "bonus"),
			Duration: max(1, getInt(w, "duration")),
		}
	}
	return ev
}

func compileCrisis(raw rawDef) types.CrisisDef {
	tbl := raw.table
	return types.CrisisDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		NPC:         getString(tbl, "npc"),
		Priority:    getInt(tbl, "priority"),
		Conditions:  compileConditions(getTable(tbl, "conditions")),
		Cooldown:    getInt(tbl, "cooldown"),
		Once:        getBool(tbl, "once", false),
		Choices:     compileChoices(getTable(tbl, "choices")),
	}
}

func compileConditions(tbl *lua.LTable) []types.Condition {
	var conditions []types.Condition
	for _, c := range elements(tbl) {
		conditions = append(conditions, compileCondition(c))
	}
	return conditions
}

func compileCondition(tbl *lua.LTable) types.Condition {
	condType := getString(tbl, "type")

	if condType == "not" {
		if innerTbl := getTable(tbl, "inner"); innerTbl != nil {
			inner := compileCondition(innerTbl)
			return types.Condition{Type: "not", Negate: true, Inner: &inner}
		}
	}

	return types.Condition{Type: condType, Params: params(tbl)}
}

func compileEffects(tbl *lua.LTable) []types.Effect {
	var effects []types.Effect
	for _, e := range elements(tbl) {
		effects = append(effects, types.Effect{
			Type:   getString(e, "type"),
			Params: params(e),
		})
	}
	return effects
}

// params collects every string-keyed field except "type".
func params(tbl *lua.LTable) map[string]any {
	p := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok && ks != "type" {
			p[string(ks)] = toGoValue(v)
		}
	})
	return p
}

// sortedLuaFiles returns .lua files with game.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
