package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/storycore/engine/balance"
	"github.com/nathoo/storycore/types"
)

// scripted returns queued floats and always picks the first weight.
type scripted struct {
	floats  []float64
	draws   int
	weights int
}

func (s *scripted) Float64() float64 {
	s.draws++
	if len(s.floats) == 0 {
		return 0.99
	}
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scripted) WeightedSelect([]int) int { s.weights++; return 0 }

func testCfg(t *testing.T) balance.Config {
	t.Helper()
	cfg, err := balance.Get("normal")
	require.NoError(t, err)
	return cfg
}

func testState(phase int) *types.GameState {
	return &types.GameState{
		Seed:          "42",
		Phase:         types.StoryPhase{Number: phase},
		Resources:     types.StoryResources{Budget: 100},
		NPCs:          []types.NPCState{{ID: "marina", Name: "Marina", Available: true}, {ID: "igor", Name: "Igor"}},
		NewsCooldowns: map[string]int{},
	}
}

func testDefs() []types.WorldEventDef {
	return []types.WorldEventDef{
		{ID: "leak", Kind: TypeWorld, Title: "Leak bei {npc}", Severity: SeverityHigh, Weight: 2},
		{ID: "late", Kind: TypeWorld, Title: "Spät", MinPhase: 10},
		{ID: "marina-doubt", Kind: TypeNPC, Title: "Marina zweifelt", NPC: "marina"},
		{ID: "igor-doubt", Kind: TypeNPC, Title: "Igor zweifelt", NPC: "igor"},
	}
}

func TestID_Deterministic(t *testing.T) {
	assert.Equal(t, ID("42", 1), ID("42", 1))
	assert.NotEqual(t, ID("42", 1), ID("42", 2))
	assert.NotEqual(t, ID("42", 1), ID("43", 1))
}

func TestRecord(t *testing.T) {
	s := testState(3)
	a := Record(s, types.NewsEvent{Title: "a"})
	b := Record(s, types.NewsEvent{Title: "b"})
	assert.Equal(t, 2, s.NewsSeq)
	assert.Equal(t, ID("42", 1), a.ID)
	assert.Equal(t, ID("42", 2), b.ID)
	assert.Equal(t, 3, b.Phase)
	require.Len(t, s.News, 2)
	assert.Equal(t, b, s.News[1])
}

func TestEligible(t *testing.T) {
	g := New(testDefs(), testCfg(t))
	s := testState(2)
	assert.Equal(t, []int{0}, g.Eligible(s, TypeWorld), "min phase gates late")
	assert.Equal(t, []int{2}, g.Eligible(s, TypeNPC), "unavailable npc skipped")

	s.Phase.Number = 10
	assert.Equal(t, []int{0, 1}, g.Eligible(s, TypeWorld))
}

func TestPhaseEvents_FixedOrderAndFormat(t *testing.T) {
	g := New(testDefs(), testCfg(t))
	g.Format = func(text, npcID string) string {
		if text == "Leak bei {npc}" {
			return "Leak bei Marina"
		}
		return text
	}
	s := testState(2)
	r := &scripted{floats: []float64{0.1, 0.1, 0.9}}

	out := g.PhaseEvents(s, r)
	require.Len(t, out, 2)
	assert.Equal(t, TypeWorld, out[0].Event.Type)
	assert.Equal(t, "Leak bei Marina", out[0].Event.Title)
	assert.Equal(t, SeverityHigh, out[0].Event.Severity)
	require.NotNil(t, out[0].Template)
	assert.Equal(t, "leak", out[0].Template.ID)

	assert.Equal(t, TypeNPC, out[1].Event.Type)
	assert.Equal(t, "marina", out[1].Event.NPCID)
	assert.Equal(t, SeverityLow, out[1].Event.Severity, "default severity")

	assert.Equal(t, 3, r.draws)
	assert.Equal(t, 2, r.weights)
	assert.Equal(t, map[string]int{TypeWorld: 2, TypeNPC: 2}, s.NewsCooldowns)
}

func TestPhaseEvents_CooldownSkipsDraw(t *testing.T) {
	g := New(testDefs(), testCfg(t))
	s := testState(3)
	s.NewsCooldowns[TypeWorld] = 2
	s.NewsCooldowns[TypeNPC] = 2
	s.NewsCooldowns[TypeResource] = 2

	r := &scripted{}
	assert.Empty(t, g.PhaseEvents(s, r))
	assert.Zero(t, r.draws, "cooling kinds consume no draws")

	s.Phase.Number = 4
	r = &scripted{}
	g.PhaseEvents(s, r)
	assert.Equal(t, 1, r.draws, "world cooldown of 2 elapsed, npc and resource still cooling")
}

func TestPhaseEvents_NoTemplateKeepsCooldown(t *testing.T) {
	g := New(nil, testCfg(t))
	s := testState(1)
	r := &scripted{floats: []float64{0, 0, 0}}
	assert.Empty(t, g.PhaseEvents(s, r))
	assert.Equal(t, 3, r.draws)
	assert.Empty(t, s.NewsCooldowns)
}

func TestResourceTrend(t *testing.T) {
	tests := []struct {
		name    string
		res     types.StoryResources
		trust   float64
		metrics []types.MetricsSnapshot
		want    string
	}{
		{"negative budget", types.StoryResources{Budget: -5}, 0, nil, "Kasse leer"},
		{"no snapshot yet", types.StoryResources{Budget: 50, Risk: 40}, 0, nil, ""},
		{"risk jump", types.StoryResources{Budget: 50, Risk: 22}, 0, []types.MetricsSnapshot{{Budget: 50, Risk: 10}}, "Ermittler werden aufmerksam"},
		{"attention jump", types.StoryResources{Budget: 50, Attention: 15}, 0, []types.MetricsSnapshot{{Budget: 50, Attention: 5}}, "Öffentlichkeit horcht auf"},
		{"budget drop", types.StoryResources{Budget: 60}, 0, []types.MetricsSnapshot{{Budget: 100}}, "Budget schmilzt"},
		{"trust slide", types.StoryResources{Budget: 90}, 54, []types.MetricsSnapshot{{Budget: 100, AverageTrust: 60}}, "Vertrauen bröckelt"},
		{"quiet", types.StoryResources{Budget: 95, Risk: 8}, 0, []types.MetricsSnapshot{{Budget: 100, Risk: 5}}, ""},
		{"only older snapshots moved", types.StoryResources{Budget: 50, Risk: 30}, 0,
			[]types.MetricsSnapshot{{Budget: 50, Risk: 5}, {Budget: 50, Risk: 30}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testState(1)
			s.Resources = tt.res
			if tt.trust > 0 {
				s.Actors = []types.ActorState{{ID: "press", Trust: tt.trust}}
			}
			s.Metrics = tt.metrics
			got := ResourceTrend(s)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Event.Title)
			assert.Equal(t, TypeResource, got.Event.Type)
			assert.Nil(t, got.Template)
		})
	}
}

func TestFilter(t *testing.T) {
	evs := []types.NewsEvent{
		{ID: "a", Phase: 1, Type: TypeWorld},
		{ID: "b", Phase: 2, Type: TypeAction, Read: true},
		{ID: "c", Phase: 3, Type: TypeWorld},
		{ID: "d", Phase: 4, Type: TypeWorld},
	}
	ids := func(evs []types.NewsEvent) []string {
		var out []string
		for _, e := range evs {
			out = append(out, e.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(Filter(evs, types.NewsFilter{})))
	assert.Equal(t, []string{"a", "c", "d"}, ids(Filter(evs, types.NewsFilter{Type: TypeWorld})))
	assert.Equal(t, []string{"c", "d"}, ids(Filter(evs, types.NewsFilter{SincePhase: 3})))
	assert.Equal(t, []string{"a", "c", "d"}, ids(Filter(evs, types.NewsFilter{UnreadOnly: true})))
	assert.Equal(t, []string{"c", "d"}, ids(Filter(evs, types.NewsFilter{Limit: 2, UnreadOnly: true})))
}

func TestMarkRead(t *testing.T) {
	s := testState(1)
	s.News = []types.NewsEvent{{ID: "a"}, {ID: "b", Read: true}, {ID: "c"}}
	assert.Equal(t, 1, MarkRead(s, "a", "b", "zzz"))
	assert.True(t, s.News[0].Read)
	assert.False(t, s.News[2].Read)
	assert.Equal(t, 1, MarkRead(s))
	assert.Equal(t, 0, MarkRead(s))
}

func TestFormatters(t *testing.T) {
	g := New(nil, testCfg(t))
	ev := g.FromAction(types.ActionDef{ID: "1.1", Name: "Bots", Risk: 20}, types.ActionResult{Effectiveness: 0.8})
	assert.Equal(t, SeverityHigh, ev.Severity)
	assert.Equal(t, "Wirkung 80%.", ev.Description)
	assert.Equal(t, "1.1", ev.ActionID)

	b := g.FromBetrayal(types.NPCState{ID: "igor", Name: "Igor"}, 3, true)
	assert.Equal(t, SeverityCritical, b.Severity)
	assert.Equal(t, "Igor hat uns verraten", b.Title)

	w := g.FromBetrayal(types.NPCState{ID: "igor", Name: "Igor"}, 1, false)
	assert.Equal(t, SeverityMedium, w.Severity)

	ai := g.FromAIAction(types.AIAction{Kind: "debunk", Strength: 12}, "Faktencheck")
	assert.Equal(t, "Faktencheck widerlegt unsere Geschichten", ai.Title)
	assert.Equal(t, SeverityHigh, ai.Severity)

	assert.Greater(t, SeverityRank(SeverityCritical), SeverityRank(SeverityHigh))
	assert.Zero(t, SeverityRank("unknown"))
}
