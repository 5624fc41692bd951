package combo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/storycore/types"
)

func testDefs() []types.ComboDef {
	return []types.ComboDef{
		{
			ID: "firehose", Name: "Firehose", Window: 3,
			Requires: []string{"fake_news", "bot_network", "amplify"},
			Bonus:    []types.Effect{{Type: "objective", Params: map[string]any{"objective": "polarize", "amount": 10}}},
		},
		{
			ID: "pincer", Name: "Pincer", Window: 2, Repeatable: true,
			Requires: []string{"1.1", "leak"},
		},
	}
}

func TestProcessAction_StartsProgress(t *testing.T) {
	s := New(testDefs())
	res := s.ProcessAction("3.4", []string{"fake_news"}, 1)

	require.Len(t, res.Updates, 1)
	assert.True(t, res.Updates[0].Started)
	assert.InDelta(t, 1.0/3, res.Updates[0].Progress, 1e-9)

	p, ok := s.Progress("firehose")
	require.True(t, ok)
	assert.Equal(t, 4, p.ExpiresPhase)
	assert.Equal(t, []string{"fake_news"}, p.Matched)
}

// Matching is order-independent within the window.
func TestProcessAction_AnyOrderCompletes(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("a", []string{"amplify"}, 1)
	s.ProcessAction("b", []string{"fake_news"}, 2)
	res := s.ProcessAction("c", []string{"bot_network"}, 3)

	require.Len(t, res.Completed, 1)
	assert.Equal(t, "firehose", res.Completed[0].ComboID)
	assert.Len(t, res.Completed[0].Bonus, 1)
	_, ok := s.Progress("firehose")
	assert.False(t, ok, "completed combos leave active progress")
	assert.Len(t, s.Completed(), 1)
}

func TestProcessAction_ActionIDRequirement(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("1.1", nil, 1)
	res := s.ProcessAction("9.9", []string{"leak"}, 2)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, "pincer", res.Completed[0].ComboID)
}

func TestProcessAction_NonRepeatableOnce(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("x", []string{"fake_news", "bot_network", "amplify"}, 1)
	res := s.ProcessAction("x", []string{"fake_news", "bot_network", "amplify"}, 2)
	assert.Empty(t, res.Completed)
	assert.Empty(t, res.Updates)

	s.ProcessAction("1.1", []string{"leak"}, 3)
	res = s.ProcessAction("1.1", []string{"leak"}, 4)
	assert.Len(t, res.Completed, 1, "repeatable combos can fire again")
}

func TestProcessAction_Monotonic(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("a", []string{"fake_news", "amplify"}, 1)
	res := s.ProcessAction("b", []string{"fake_news"}, 2)
	assert.Empty(t, res.Updates, "repeated tag does not change progress")
	p, _ := s.Progress("firehose")
	assert.Len(t, p.Matched, 2)
}

func TestProcessAction_ExpiredEntryRestarts(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("a", []string{"fake_news", "amplify"}, 1)
	res := s.ProcessAction("b", []string{"bot_network"}, 9)
	assert.Empty(t, res.Completed)
	require.Len(t, res.Updates, 1)
	assert.True(t, res.Updates[0].Started)
	p, _ := s.Progress("firehose")
	assert.Equal(t, []string{"bot_network"}, p.Matched)
}

func TestCleanupExpired_RemovesEntry(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("3.4", []string{"fake_news"}, 1)
	p, ok := s.Progress("firehose")
	require.True(t, ok)

	assert.Empty(t, s.CleanupExpired(p.ExpiresPhase), "still live at its expiry phase")
	removed := s.CleanupExpired(p.ExpiresPhase + 1)
	assert.Equal(t, []string{"firehose"}, removed)
	_, ok = s.Progress("firehose")
	assert.False(t, ok)
	assert.Empty(t, s.Completed(), "expiry awards nothing")
}

func TestActiveHints_HiddenBelowHalf(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("a", []string{"fake_news"}, 1)
	assert.Empty(t, s.ActiveHints(1), "1/3 stays hidden")

	s.ProcessAction("b", []string{"amplify"}, 1)
	hints := s.ActiveHints(1)
	require.Len(t, hints, 1)
	assert.Equal(t, "Firehose", hints[0].Name)
	assert.Equal(t, []string{"bot_network"}, hints[0].Missing)
	assert.GreaterOrEqual(t, hints[0].Progress, HintThreshold)

	assert.Empty(t, s.ActiveHints(5), "expired progress is not hinted")
}

func TestStateRoundTrip(t *testing.T) {
	s := New(testDefs())
	s.ProcessAction("a", []string{"fake_news"}, 1)
	s.ProcessAction("1.1", []string{"leak"}, 1)

	st := s.State()
	other := New(testDefs())
	other.Restore(st)
	assert.Equal(t, st, other.State())

	s.Reset()
	assert.Empty(t, s.State().Active)
}
