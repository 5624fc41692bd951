package save

import (
	"fmt"
	"sort"

	"github.com/nathoo/storycore/engine/state"
)

// Migration upgrades a raw save object from one version to the next.
type Migration struct {
	From  string
	To    string
	Apply func(raw map[string]any) error
}

// Migrations is the ordered upgrade chain. Each version bump adds one step.
var Migrations = []Migration{
	{From: "1.0.0", To: "1.1.0", Apply: migrateV1ToV11},
	{From: "1.1.0", To: CurrentVersion, Apply: migrateV11ToV2},
}

// Migrate runs the chain on raw until it reaches CurrentVersion.
func Migrate(raw map[string]any) error {
	for {
		v, ok := raw["version"].(string)
		if !ok {
			return fmt.Errorf("missing version")
		}
		if v == CurrentVersion {
			return nil
		}
		m, ok := migrationFrom(v)
		if !ok {
			return fmt.Errorf("unsupported version %q", v)
		}
		if err := m.Apply(raw); err != nil {
			return fmt.Errorf("migrate %s -> %s: %w", m.From, m.To, err)
		}
		raw["version"] = m.To
	}
}

func migrationFrom(v string) (Migration, bool) {
	for _, m := range Migrations {
		if m.From == v {
			return m, true
		}
	}
	return Migration{}, false
}

// 1.0.0 kept a bare phase number and a "resources" object whose action
// points were called actionPoints.
func migrateV1ToV11(raw map[string]any) error {
	n, ok := raw["phase"].(float64)
	if !ok {
		return fmt.Errorf("phase is not a number")
	}
	p := state.PhaseFor(int(n))
	raw["storyPhase"] = map[string]any{
		"number": p.Number, "year": p.Year, "month": p.Month, "isNewYear": p.IsNewYear,
	}
	delete(raw, "phase")

	res, ok := raw["resources"].(map[string]any)
	if !ok {
		return fmt.Errorf("resources is not an object")
	}
	if ap, ok := res["actionPoints"]; ok {
		res["actionPointsRemaining"] = ap
		delete(res, "actionPoints")
	}
	raw["storyResources"] = res
	delete(raw, "resources")
	return nil
}

// 1.1.0 stored NPCs as an id-keyed map and had no combo, betrayal, crisis,
// arms-race or exposure state.
func migrateV11ToV2(raw map[string]any) error {
	if m, ok := raw["npcs"].(map[string]any); ok {
		ids := make([]string, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		list := make([]any, 0, len(ids))
		for _, id := range ids {
			npc, ok := m[id].(map[string]any)
			if !ok {
				return fmt.Errorf("npc %s is not an object", id)
			}
			npc["id"] = id
			if morale, ok := npc["morale"].(float64); ok {
				if _, has := npc["currentMood"]; !has {
					npc["currentMood"] = string(state.MoodFor(int(morale)))
				}
			}
			list = append(list, npc)
		}
		raw["npcs"] = list
	}

	setDefault(raw, "comboState", map[string]any{"active": []any{}, "completed": []any{}})
	setDefault(raw, "betrayalState", []any{})
	setDefault(raw, "betrayalSeq", 0)
	setDefault(raw, "crisisState", map[string]any{"lastStarted": map[string]any{}})
	setDefault(raw, "actorAIState", map[string]any{"pressure": 0, "escalationLevel": 0, "lastSpawnPhase": 0})
	setDefault(raw, "exposureCountdown", -1)
	raw["migrationVersion"] = CurrentMigrationVersion
	return nil
}

func setDefault(raw map[string]any, key string, v any) {
	if _, ok := raw[key]; !ok {
		raw[key] = v
	}
}
