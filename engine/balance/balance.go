// Package balance holds the difficulty presets. Every tunable constant of
// the economy, the exposure rules and the arms race lives here so content
// can override it without touching engine code.
package balance

import (
	"sort"

	"github.com/nathoo/storycore/engine/errs"
)

// Config is one difficulty preset.
type Config struct {
	Name string

	// Economy.
	StartBudget    int
	StartCapacity  int
	CapacityMax    int
	CapacityRegen  int
	ActionPoints   int
	MoneyPerRound  int
	UpkeepPerRound int
	CostMultiplier float64

	// Exposure.
	AttentionDecayRate  float64
	RiskDecayRate       float64
	MaxRounds           int
	DetectionThreshold  float64
	ExposureGracePhases int

	// Consequences and news.
	ConsequenceChanceMultiplier float64
	NewsChance                  float64
	WorldEventCooldown          int
	NPCEventCooldown            int
	ResourceEventCooldown       int

	// Arms race.
	DefensiveSpawnInterval int
	MaxDefensiveActors     int
	DefensiveSpawnPressure float64
	DefensiveTrustBase     float64
	DefensiveTrustPerActor float64
	PressureDecay          float64
	EscalationStep         float64
	AIStrengthMultiplier   float64

	// Team.
	BetrayalThreshold float64
}

// Default is the preset used when none is named.
const Default = "normal"

var presets = map[string]Config{
	"tutorial": {
		Name: "tutorial", StartBudget: 250, StartCapacity: 6, CapacityMax: 12, CapacityRegen: 3,
		ActionPoints: 6, MoneyPerRound: 60, UpkeepPerRound: 5, CostMultiplier: 0.75,
		AttentionDecayRate: 8, RiskDecayRate: 4, MaxRounds: 72, DetectionThreshold: 95, ExposureGracePhases: 4,
		ConsequenceChanceMultiplier: 0.5, NewsChance: 0.3, WorldEventCooldown: 2, NPCEventCooldown: 3, ResourceEventCooldown: 3,
		DefensiveSpawnInterval: 8, MaxDefensiveActors: 2, DefensiveSpawnPressure: 40, DefensiveTrustBase: 40,
		DefensiveTrustPerActor: 3, PressureDecay: 0.2, EscalationStep: 25, AIStrengthMultiplier: 0.5,
		BetrayalThreshold: 0.9,
	},
	"easy": {
		Name: "easy", StartBudget: 200, StartCapacity: 5, CapacityMax: 11, CapacityRegen: 3,
		ActionPoints: 5, MoneyPerRound: 50, UpkeepPerRound: 8, CostMultiplier: 0.9,
		AttentionDecayRate: 6, RiskDecayRate: 3, MaxRounds: 66, DetectionThreshold: 90, ExposureGracePhases: 3,
		ConsequenceChanceMultiplier: 0.75, NewsChance: 0.33, WorldEventCooldown: 2, NPCEventCooldown: 3, ResourceEventCooldown: 3,
		DefensiveSpawnInterval: 6, MaxDefensiveActors: 3, DefensiveSpawnPressure: 30, DefensiveTrustBase: 45,
		DefensiveTrustPerActor: 4, PressureDecay: 0.15, EscalationStep: 20, AIStrengthMultiplier: 0.75,
		BetrayalThreshold: 0.8,
	},
	"normal": {
		Name: "normal", StartBudget: 150, StartCapacity: 5, CapacityMax: 10, CapacityRegen: 2,
		ActionPoints: 5, MoneyPerRound: 40, UpkeepPerRound: 10, CostMultiplier: 1.0,
		AttentionDecayRate: 5, RiskDecayRate: 2, MaxRounds: 60, DetectionThreshold: 85, ExposureGracePhases: 3,
		ConsequenceChanceMultiplier: 1.0, NewsChance: 0.35, WorldEventCooldown: 2, NPCEventCooldown: 3, ResourceEventCooldown: 3,
		DefensiveSpawnInterval: 4, MaxDefensiveActors: 4, DefensiveSpawnPressure: 20, DefensiveTrustBase: 50,
		DefensiveTrustPerActor: 5, PressureDecay: 0.1, EscalationStep: 15, AIStrengthMultiplier: 1.0,
		BetrayalThreshold: 0.75,
	},
	"hard": {
		Name: "hard", StartBudget: 120, StartCapacity: 4, CapacityMax: 9, CapacityRegen: 2,
		ActionPoints: 4, MoneyPerRound: 35, UpkeepPerRound: 12, CostMultiplier: 1.15,
		AttentionDecayRate: 4, RiskDecayRate: 1.5, MaxRounds: 54, DetectionThreshold: 80, ExposureGracePhases: 2,
		ConsequenceChanceMultiplier: 1.25, NewsChance: 0.4, WorldEventCooldown: 2, NPCEventCooldown: 2, ResourceEventCooldown: 2,
		DefensiveSpawnInterval: 3, MaxDefensiveActors: 5, DefensiveSpawnPressure: 15, DefensiveTrustBase: 55,
		DefensiveTrustPerActor: 6, PressureDecay: 0.08, EscalationStep: 12, AIStrengthMultiplier: 1.25,
		BetrayalThreshold: 0.7,
	},
	"expert": {
		Name: "expert", StartBudget: 100, StartCapacity: 4, CapacityMax: 8, CapacityRegen: 1,
		ActionPoints: 4, MoneyPerRound: 30, UpkeepPerRound: 15, CostMultiplier: 1.3,
		AttentionDecayRate: 3, RiskDecayRate: 1, MaxRounds: 48, DetectionThreshold: 75, ExposureGracePhases: 2,
		ConsequenceChanceMultiplier: 1.5, NewsChance: 0.45, WorldEventCooldown: 1, NPCEventCooldown: 2, ResourceEventCooldown: 2,
		DefensiveSpawnInterval: 3, MaxDefensiveActors: 6, DefensiveSpawnPressure: 10, DefensiveTrustBase: 60,
		DefensiveTrustPerActor: 7, PressureDecay: 0.05, EscalationStep: 10, AIStrengthMultiplier: 1.5,
		BetrayalThreshold: 0.65,
	},
}

// Get returns the named preset. An empty name selects Default.
func Get(name string) (Config, error) {
	if name == "" {
		name = Default
	}
	cfg, ok := presets[name]
	if !ok {
		return Config{}, errs.NewReference(errs.KindDifficulty, name)
	}
	return cfg, nil
}

// Names returns the preset names in ascending difficulty.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return presets[names[i]].StartBudget > presets[names[j]].StartBudget
	})
	return names
}

// Override applies content-defined overrides on top of a preset.
// Unknown keys are ignored; the loader validates them.
func Override(cfg Config, values map[string]float64) Config {
	for key, v := range values {
		if set, ok := setters[key]; ok {
			set(&cfg, v)
		}
	}
	return cfg
}

// Keys returns the override keys content may use.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(*Config, float64){
	"start_budget":                  func(c *Config, v float64) { c.StartBudget = int(v) },
	"start_capacity":                func(c *Config, v float64) { c.StartCapacity = int(v) },
	"capacity_max":                  func(c *Config, v float64) { c.CapacityMax = int(v) },
	"capacity_regen":                func(c *Config, v float64) { c.CapacityRegen = int(v) },
	"action_points":                 func(c *Config, v float64) { c.ActionPoints = int(v) },
	"money_per_round":               func(c *Config, v float64) { c.MoneyPerRound = int(v) },
	"upkeep_per_round":              func(c *Config, v float64) { c.UpkeepPerRound = int(v) },
	"cost_multiplier":               func(c *Config, v float64) { c.CostMultiplier = v },
	"attention_decay_rate":          func(c *Config, v float64) { c.AttentionDecayRate = v },
	"risk_decay_rate":               func(c *Config, v float64) { c.RiskDecayRate = v },
	"max_rounds":                    func(c *Config, v float64) { c.MaxRounds = int(v) },
	"detection_threshold":           func(c *Config, v float64) { c.DetectionThreshold = v },
	"exposure_grace_phases":         func(c *Config, v float64) { c.ExposureGracePhases = int(v) },
	"consequence_chance_multiplier": func(c *Config, v float64) { c.ConsequenceChanceMultiplier = v },
	"news_chance":                   func(c *Config, v float64) { c.NewsChance = v },
	"world_event_cooldown":          func(c *Config, v float64) { c.WorldEventCooldown = int(v) },
	"npc_event_cooldown":            func(c *Config, v float64) { c.NPCEventCooldown = int(v) },
	"resource_event_cooldown":       func(c *Config, v float64) { c.ResourceEventCooldown = int(v) },
	"defensive_spawn_interval":      func(c *Config, v float64) { c.DefensiveSpawnInterval = int(v) },
	"max_defensive_actors":          func(c *Config, v float64) { c.MaxDefensiveActors = int(v) },
	"defensive_spawn_pressure":      func(c *Config, v float64) { c.DefensiveSpawnPressure = v },
	"defensive_trust_base":          func(c *Config, v float64) { c.DefensiveTrustBase = v },
	"defensive_trust_per_actor":     func(c *Config, v float64) { c.DefensiveTrustPerActor = v },
	"pressure_decay":                func(c *Config, v float64) { c.PressureDecay = v },
	"escalation_step":               func(c *Config, v float64) { c.EscalationStep = v },
	"ai_strength_multiplier":        func(c *Config, v float64) { c.AIStrengthMultiplier = v },
	"betrayal_threshold":            func(c *Config, v float64) { c.BetrayalThreshold = v },
}
