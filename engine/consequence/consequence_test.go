package consequence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/types"
)

func testDefs() map[string]types.ConsequenceDef {
	return map[string]types.ConsequenceDef{
		"leak": {
			ID: "leak", Title: "Leak", DefaultDelay: 2,
			Choices: []types.Choice{
				{ID: "deny", Label: "Deny"},
				{ID: "pay", Label: "Pay", Cost: types.Costs{Budget: 50}},
			},
		},
		"audit": {ID: "audit", Title: "Audit", DefaultDelay: 1,
			Choices: []types.Choice{{ID: "comply", Label: "Comply"}}},
	}
}

func TestSchedule_DelayAndDefault(t *testing.T) {
	s := New(testDefs())

	p, err := s.Schedule("leak", "3.4", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, p.ActivatesAtPhase)
	assert.Equal(t, 1, p.Seq)

	p, err = s.Schedule("leak", "3.4", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, p.ActivatesAtPhase, "default delay 2")

	_, err = s.Schedule("ghost", "1.1", 1, 1)
	assert.True(t, errors.Is(err, errs.ErrInvalidReference))
}

func TestPromote_NeverBeforeActivationPhase(t *testing.T) {
	s := New(testDefs())
	_, _ = s.Schedule("audit", "1.1", 1, 3)

	for phase := 1; phase < 4; phase++ {
		assert.Nil(t, s.Promote(phase), "phase %d", phase)
	}
	a := s.Promote(4)
	require.NotNil(t, a)
	assert.Equal(t, 4, a.ActivatedPhase)
	assert.Equal(t, "Audit", a.Title)
	assert.Empty(t, s.Pending())
}

func TestPromote_AtMostOneActive(t *testing.T) {
	s := New(testDefs())
	_, _ = s.Schedule("leak", "a", 1, 1)
	_, _ = s.Schedule("audit", "b", 1, 1)

	require.NotNil(t, s.Promote(2))
	assert.Nil(t, s.Promote(2), "slot is busy")
	assert.Nil(t, s.Promote(3), "still busy in a later phase")
	assert.Len(t, s.Due(3), 1, "second one waits as pending")

	_, _, err := s.Resolve("deny", 3)
	require.NoError(t, err)

	next := s.Promote(4)
	require.NotNil(t, next)
	assert.Equal(t, "audit", next.ConsequenceID)
}

func TestPromote_FIFOWithinPhase(t *testing.T) {
	s := New(testDefs())
	_, _ = s.Schedule("audit", "late", 2, 2)  // due 4, seq 1
	_, _ = s.Schedule("leak", "first", 1, 3)  // due 4, seq 2
	_, _ = s.Schedule("audit", "early", 1, 2) // due 3, seq 3

	var order []string
	for phase := 3; phase <= 6; phase++ {
		if a := s.Promote(phase); a != nil {
			order = append(order, a.SourceActionID)
			_, _, err := s.Resolve(a.Choices[0].ID, phase)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []string{"early", "late", "first"}, order)
}

func TestResolve_Errors(t *testing.T) {
	s := New(testDefs())
	_, _, err := s.Resolve("deny", 1)
	assert.ErrorIs(t, err, errs.ErrNoActiveConsequence)

	_, _ = s.Schedule("leak", "a", 1, 1)
	s.Promote(2)
	_, _, err = s.Resolve("flee", 2)
	assert.ErrorIs(t, err, errs.ErrInvalidReference)
	assert.NotNil(t, s.Active(), "bad choice keeps the consequence active")

	c, active, err := s.Resolve("pay", 2)
	require.NoError(t, err)
	assert.Equal(t, 50, c.Cost.Budget)
	assert.Equal(t, "leak", active.ConsequenceID)
	assert.Nil(t, s.Active())
	assert.Len(t, s.Resolved(), 1)
}

func TestStateRoundTrip(t *testing.T) {
	s := New(testDefs())
	_, _ = s.Schedule("leak", "a", 1, 1)
	_, _ = s.Schedule("audit", "b", 1, 4)
	s.Promote(2)

	st := s.State()
	other := New(testDefs())
	require.NoError(t, other.Restore(st))
	assert.Equal(t, st, other.State())

	p, _ := other.Schedule("audit", "c", 2, 1)
	assert.Equal(t, 3, p.Seq, "sequence continues after restore")
}

func TestRestore_UnknownID(t *testing.T) {
	s := New(testDefs())
	err := s.Restore(types.ConsequenceState{
		Pending: []types.PendingConsequence{{ConsequenceID: "ghost"}},
	})
	assert.ErrorIs(t, err, errs.ErrInvalidReference)
}
