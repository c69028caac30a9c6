package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStep_RecordsOutcomes(t *testing.T) {
	reg, _ := newTestFixture(t)
	tc, _ := reg.Register("t1")
	require.NoError(t, tc.Start())

	tc.RunStep(func(s *Step) {
		require.NoError(t, s.True(true, "holds"))
		require.NoError(t, s.False(false, "also holds"))
	})

	results := tc.Results()
	require.Len(t, results, 2)
	assert.Equal(t, PredicateAssertTrue, results[0].Predicate)
	assert.True(t, results[0].Pass)
	assert.Equal(t, PredicateAssertFalse, results[1].Predicate)
	assert.True(t, results[1].Pass)

	// Seq stamps are unique and increasing.
	assert.Less(t, results[0].Seq, results[1].Seq)
}

func TestRunStep_PanicDowngradedToFailingResult(t *testing.T) {
	reg, _ := newTestFixture(t)
	tc, _ := reg.Register("t1")
	require.NoError(t, tc.Start())

	require.NotPanics(t, func() {
		tc.RunStep(func(s *Step) {
			panic("boom")
		})
	})

	results := tc.Results()
	require.Len(t, results, 1)
	assert.Equal(t, PredicateStepPanic, results[0].Predicate)
	assert.False(t, results[0].Pass)
	assert.Contains(t, results[0].Message, "boom")

	require.NoError(t, tc.Done())
	assert.Equal(t, StateFailed, tc.State())
}

func TestRunStep_InertOnTerminalTest(t *testing.T) {
	reg, _ := newTestFixture(t)
	tc, _ := reg.Register("t1")
	require.NoError(t, tc.Start())
	require.NoError(t, tc.Done())

	ran := false
	tc.RunStep(func(s *Step) {
		ran = true
	})

	assert.False(t, ran, "steps for terminal tests must not run")
	assert.Empty(t, tc.Results())
	assert.Equal(t, StatePassed, tc.State())
}

func TestRunStep_PanicAfterDoneInsideStepIsDropped(t *testing.T) {
	reg, _ := newTestFixture(t)
	tc, _ := reg.Register("t1")
	require.NoError(t, tc.Start())

	require.NotPanics(t, func() {
		tc.RunStep(func(s *Step) {
			require.NoError(t, tc.Done())
			panic("after the verdict")
		})
	})

	assert.Equal(t, StatePassed, tc.State())
	assert.Empty(t, tc.Results())
}

func TestStep_AssertOutsideScopeIsNoContext(t *testing.T) {
	reg, _ := newTestFixture(t)
	tc, _ := reg.Register("t1")
	require.NoError(t, tc.Start())

	var escaped *Step
	tc.RunStep(func(s *Step) {
		escaped = s
	})

	err := escaped.True(true, "too late")
	require.Error(t, err)
	assert.True(t, IsNoContext(err))
	assert.Empty(t, tc.Results())
}

func TestStep_NilStepIsNoContext(t *testing.T) {
	var s *Step
	err := s.True(true, "no context at all")
	assert.True(t, IsNoContext(err))
}

func TestStep_Failf(t *testing.T) {
	reg, _ := newTestFixture(t)
	tc, _ := reg.Register("t1")
	require.NoError(t, tc.Start())

	tc.RunStep(func(s *Step) {
		require.NoError(t, s.Failf("custom_check", "value was %d", 7))
	})

	results := tc.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "custom_check", results[0].Predicate)
	assert.Equal(t, "value was 7", results[0].Message)
	assert.False(t, results[0].Pass)
}

func TestStep_GuaranteedRelease(t *testing.T) {
	reg, _ := newTestFixture(t)
	tc, _ := reg.Register("t1")
	require.NoError(t, tc.Start())

	var inner *Step
	tc.RunStep(func(s *Step) {
		inner = s
		panic("released anyway")
	})

	// The context closed despite the fault.
	assert.True(t, IsNoContext(inner.True(true, "late")))
}
