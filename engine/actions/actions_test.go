package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/engine/rules"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

func testDefs() *state.Defs {
	acts := map[string]types.ActionDef{
		"1.1":  {ID: "1.1", Category: "content", Cost: types.Costs{Budget: 20, Capacity: 1, ActionPoints: 1}},
		"1.10": {ID: "1.10", Category: "tech", MinPhase: 3, Cost: types.Costs{Budget: 10, ActionPoints: 1}},
		"1.2": {ID: "1.2", Category: "finance", Once: true, Cost: types.Costs{Budget: 200, ActionPoints: 1},
			NPC: "igor"},
		"2.1": {ID: "2.1", Category: "content", Cost: types.Costs{Budget: 5, ActionPoints: 1},
			Requires: []types.Condition{{Type: "flag_set", Params: map[string]any{"flag": "bots_online"}}}},
	}
	d := &state.Defs{
		Actions: acts,
		NPCs: []types.NPCDef{
			{ID: "marina", Affinity: []string{"content"}, DiscountPerLevel: 0.1, Morale: 60},
			{ID: "igor", Affinity: []string{"finance"}, DiscountPerLevel: 0.2, Morale: 60},
		},
	}
	for id := range acts {
		d.ActionOrder = append(d.ActionOrder, id)
	}
	state.SortActionIDs(d.ActionOrder)
	return d
}

func testEnv(t *testing.T, d *state.Defs) (rules.Env, balance.Config) {
	t.Helper()
	cfg, err := balance.Get("normal")
	require.NoError(t, err)
	s := state.NewGameState(d, cfg, "seed")
	return rules.Env{State: s}, cfg
}

func TestLoad_NaturalOrderAndAvailability(t *testing.T) {
	d := testDefs()
	env, cfg := testEnv(t, d)

	got := Load(d, env, cfg)
	require.Len(t, got, 4)

	ids := []string{got[0].Def.ID, got[1].Def.ID, got[2].Def.ID, got[3].Def.ID}
	assert.Equal(t, []string{"1.1", "1.2", "1.10", "2.1"}, ids)

	assert.True(t, got[0].Available)
	assert.False(t, got[2].Available, "min phase gate")
	assert.Equal(t, "not yet", got[2].UnavailableReason)
	assert.False(t, got[3].Available, "flag requirement")
	assert.False(t, got[1].Affordable, "200 > starting budget")
}

func TestLoad_OnceActionsDisappear(t *testing.T) {
	d := testDefs()
	env, cfg := testEnv(t, d)
	env.State.UsedActions["1.2"] = true

	la := Resolve(d, d.Actions["1.2"], env, cfg)
	assert.False(t, la.Available)
	assert.Equal(t, "already done", la.UnavailableReason)
}

func TestBestDiscount_NotStacked(t *testing.T) {
	d := testDefs()
	d.NPCs = append(d.NPCs, types.NPCDef{ID: "katja", Affinity: []string{"content"}, DiscountPerLevel: 0.15})
	npcs := []types.NPCState{
		{ID: "marina", RelationshipLevel: 2, Available: true},
		{ID: "igor", RelationshipLevel: 3, Available: true},
		{ID: "katja", RelationshipLevel: 1, Available: true},
	}

	id, disc := BestDiscount(d, d.Actions["1.1"], npcs)
	assert.Equal(t, "marina", id)
	assert.InDelta(t, 0.2, disc, 1e-9)

	id, disc = BestDiscount(d, d.Actions["1.2"], npcs)
	assert.Equal(t, "igor", id)
	assert.InDelta(t, MaxDiscount, disc, 1e-9, "0.2*3 is capped")

	npcs[0].Available = false
	id, _ = BestDiscount(d, d.Actions["1.1"], npcs)
	assert.Equal(t, "katja", id, "unavailable NPCs grant nothing")
}

func TestEffectiveCost(t *testing.T) {
	tests := []struct {
		name     string
		base     types.Costs
		mult     float64
		discount float64
		want     types.Costs
	}{
		{"no change", types.Costs{Budget: 20, Capacity: 2, ActionPoints: 1}, 1, 0, types.Costs{Budget: 20, Capacity: 2, ActionPoints: 1}},
		{"discount floors", types.Costs{Budget: 25, Capacity: 3, ActionPoints: 2}, 1, 0.2, types.Costs{Budget: 20, Capacity: 3, ActionPoints: 2}},
		{"multiplier rounds half up", types.Costs{Budget: 10, ActionPoints: 1}, 1.25, 0, types.Costs{Budget: 13, ActionPoints: 1}},
		{"zero multiplier reads as one", types.Costs{Budget: 10}, 0, 0, types.Costs{Budget: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveCost(tt.base, tt.mult, tt.discount))
		})
	}
}

func TestAffordableAndShortfall(t *testing.T) {
	r := types.StoryResources{Budget: 10, Capacity: 1, ActionPointsRemaining: 1}
	assert.True(t, Affordable(r, types.Costs{Budget: 10, Capacity: 1, ActionPoints: 1}))
	assert.False(t, Affordable(r, types.Costs{Budget: 11}))
	assert.Equal(t, "budget", Shortfall(r, types.Costs{Budget: 11}))
	assert.Equal(t, "capacity", Shortfall(r, types.Costs{Capacity: 2}))
	assert.Equal(t, "action points", Shortfall(r, types.Costs{ActionPoints: 2}))
	assert.Equal(t, "", Shortfall(r, types.Costs{}))
}
