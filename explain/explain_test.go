package explain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/solver"
	"github.com/tonalworks/cadenza/theory"
)

func solveCadence(t *testing.T) *solver.Result {
	t.Helper()
	key, err := theory.NewKey(0, theory.Major)
	require.NoError(t, err)

	types := []harmony.FunctionType{harmony.Tonic, harmony.Subdominant, harmony.Dominant, harmony.Tonic}
	bass := []theory.Pitch{48, 53, 55, 48}
	steps := make([]solver.Step, len(types))
	for i, ft := range types {
		steps[i] = solver.Step{
			Function: harmony.NewFunction(ft, key),
			Fixed:    map[harmony.Voice]theory.Pitch{harmony.Bass: bass[i]},
		}
	}

	s, err := solver.New(rules.BassFiguredProfile(), harmony.FourPart(), solver.ChordTones, solver.DefaultConfig())
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), key, steps)
	require.NoError(t, err)
	return res
}

func TestExplainFollowsWinningPath(t *testing.T) {
	res := solveCadence(t)
	trace := NewEngine(0).Explain(res)

	require.Len(t, trace.Steps, len(res.Chords))
	for i, step := range trace.Steps {
		assert.Equal(t, i, step.Step)
		assert.Equal(t, res.Chords[i], step.Chord, "trace must follow the chosen line")
		assert.GreaterOrEqual(t, step.StepCost, 0.0)
	}

	// Accumulated cost is consistent along the path.
	for i := 1; i < len(trace.Steps); i++ {
		assert.InDelta(t,
			trace.Steps[i-1].TotalCost+trace.Steps[i].StepCost,
			trace.Steps[i].TotalCost, 1e-9)
	}
}

func TestExplainFirstStep(t *testing.T) {
	res := solveCadence(t)
	trace := NewEngine(0).Explain(res)

	first := trace.Steps[0]
	require.NotEmpty(t, first.PositiveFactors)
	assert.Contains(t, first.PositiveFactors[0], "opening chord")
	assert.Empty(t, first.Tradeoffs)
}

func TestExplainAlternativesBounded(t *testing.T) {
	res := solveCadence(t)
	trace := NewEngine(3).Explain(res)

	for _, step := range trace.Steps {
		assert.LessOrEqual(t, len(step.Rejected), 3)
		for _, alt := range step.Rejected {
			// Each alternative names a broken rule or a cost gap.
			if len(alt.Rules) == 0 {
				assert.Greater(t, alt.CostDelta, 0.0)
			}
		}
	}
}

func TestRender(t *testing.T) {
	res := solveCadence(t)
	trace := NewEngine(0).Explain(res)
	text := trace.Render()

	assert.Contains(t, text, "Key C major")
	assert.Contains(t, text, "=== Step 1")
	assert.Contains(t, text, "=== Step 4")
	assert.Contains(t, text, "Soprano:")
	assert.Contains(t, text, "cost ")
}
