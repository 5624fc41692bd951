package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerEffectHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Action "1.1" { ... } and friends are curried: the id call returns a
	// function that takes the body table.
	curried(L, "Action", &coll.actions)
	curried(L, "Consequence", &coll.consequences)
	curried(L, "Combo", &coll.combos)
	curried(L, "NPC", &coll.npcs)
	curried(L, "Actor", &coll.actors)
	curried(L, "DefensiveActor", &coll.defensive)
	curried(L, "Objective", &coll.objectives)
	curried(L, "WorldEvent", &coll.worldEvents)
	curried(L, "Crisis", &coll.crises)
	curried(L, "Balance", &coll.balance)

	// On("event_type", { conditions = {...}, effects = {...} })
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		eventType := L.CheckString(1)
		tbl := L.CheckTable(2)
		coll.handlers = append(coll.handlers, rawHandler{eventType: eventType, table: tbl})
		return 0
	}))
}

func curried(L *lua.LState, name string, into *[]rawDef) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			*into = append(*into, rawDef{id: id, table: tbl})
			return 0
		}))
		return 1
	}))
}

// helper registers a global that builds a typed table from its arguments.
func helper(L *lua.LState, name, typ string, build func(L *lua.LState, tbl *lua.LTable)) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString(typ))
		build(L, tbl)
		L.Push(tbl)
		return 1
	}))
}

func registerConditionHelpers(L *lua.LState) {
	flag := func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("flag", lua.LString(L.CheckString(1)))
	}
	helper(L, "FlagSet", "flag_set", flag)
	helper(L, "FlagNot", "flag_not", flag)

	phase := func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("phase", L.CheckNumber(1))
	}
	helper(L, "MinPhase", "min_phase", phase)
	helper(L, "MaxPhase", "max_phase", phase)

	// ResourceGte("risk", 50)
	resource := func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("resource", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", L.CheckNumber(2))
	}
	helper(L, "ResourceGte", "resource_gte", resource)
	helper(L, "ResourceLt", "resource_lt", resource)

	helper(L, "ObjectiveGte", "objective_gte", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("objective", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", L.CheckNumber(2))
	})
	helper(L, "MinRelationship", "min_relationship", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("npc", lua.LString(L.CheckString(1)))
		tbl.RawSetString("level", L.CheckNumber(2))
	})
	helper(L, "MoraleLt", "morale_lt", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("npc", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", L.CheckNumber(2))
	})
	helper(L, "BetrayalWarning", "betrayal_warning", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("npc", lua.LString(L.CheckString(1)))
		tbl.RawSetString("level", L.OptNumber(2, 1))
	})
	helper(L, "ActionUsed", "action_used", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("action", lua.LString(L.CheckString(1)))
	})
	helper(L, "TrustLt", "trust_lt", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("actor", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", L.CheckNumber(2))
	})

	// Not(condition)
	helper(L, "Not", "not", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("inner", L.CheckTable(1))
	})
}

func registerEffectHelpers(L *lua.LState) {
	helper(L, "Say", "say", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("text", lua.LString(L.CheckString(1)))
	})

	// Resource("budget", -10)
	helper(L, "Resource", "resource", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("resource", lua.LString(L.CheckString(1)))
		tbl.RawSetString("amount", L.CheckNumber(2))
	})

	// Progress("polarize", 10) moves an objective; Objective is the
	// constructor.
	helper(L, "Progress", "objective", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("objective", lua.LString(L.CheckString(1)))
		tbl.RawSetString("amount", L.CheckNumber(2))
	})

	// Trust(-5) hits the action's target; Trust("press", -5) or
	// Trust("all", -2) names it.
	helper(L, "Trust", "trust", func(L *lua.LState, tbl *lua.LTable) {
		if n, ok := L.Get(1).(lua.LNumber); ok {
			tbl.RawSetString("amount", n)
			return
		}
		tbl.RawSetString("actor", lua.LString(L.CheckString(1)))
		tbl.RawSetString("amount", L.CheckNumber(2))
	})

	// Morale(5) and Relationship(10) default to the acting NPC, like Trust.
	npcAmount := func(L *lua.LState, tbl *lua.LTable) {
		if n, ok := L.Get(1).(lua.LNumber); ok {
			tbl.RawSetString("amount", n)
			return
		}
		tbl.RawSetString("npc", lua.LString(L.CheckString(1)))
		tbl.RawSetString("amount", L.CheckNumber(2))
	}
	helper(L, "Morale", "morale", npcAmount)
	helper(L, "Relationship", "relationship", npcAmount)

	helper(L, "SetAvailable", "set_available", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("npc", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", lua.LBool(L.OptBool(2, true)))
	})

	// SetFlag("name") or SetFlag("name", false)
	helper(L, "SetFlag", "set_flag", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("flag", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", lua.LBool(L.OptBool(2, true)))
	})

	helper(L, "OpenWindow", "open_window", func(L *lua.LState, tbl *lua.LTable) {
		tbl.RawSetString("tag", lua.LString(L.CheckString(1)))
		tbl.RawSetString("bonus", L.CheckNumber(2))
		tbl.RawSetString("duration", L.OptNumber(3, 1))
	})

	helper(L, "Stop", "stop", func(*lua.LState, *lua.LTable) {})
}
