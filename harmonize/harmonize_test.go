package harmonize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/solver"
	"github.com/tonalworks/cadenza/theory"
)

func cMajor(t *testing.T) theory.Key {
	t.Helper()
	k, err := theory.NewKey(0, theory.Major)
	require.NoError(t, err)
	return k
}

func TestSolveBassFigured(t *testing.T) {
	key := cMajor(t)
	ex, err := ParseExercise([]theory.Pitch{48, 53, 55, 48}, "T{}; S{}; D{}; T{}", key)
	require.NoError(t, err)

	res, err := Solve(context.Background(), ex, DefaultContext(key))
	require.NoError(t, err)
	require.Len(t, res.Chords, 4)
	assert.Equal(t, BassFigured, res.Type)
	assert.NotEqual(t, "", res.RunID.String())
	assert.NotEmpty(t, res.Text)
	require.NotNil(t, res.Trace)
	assert.Len(t, res.Trace.Steps, 4)

	// Fixed bass survives; nothing violates the profile afterwards.
	for i, c := range res.Chords {
		assert.Equal(t, ex.Line[i], c.Pitch(harmony.Bass))
	}
	report, err := Validate(res.Chords, DefaultContext(key))
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestSolveImpliedFunctions(t *testing.T) {
	key := cMajor(t)
	ex := Exercise{Line: []theory.Pitch{48, 55, 48}}

	res, err := Solve(context.Background(), ex, DefaultContext(key))
	require.NoError(t, err)
	require.Len(t, res.Chords, 3)
	assert.Equal(t, theory.PitchClass(7), res.Chords[1].Function.Root)
}

func TestSolveMelody(t *testing.T) {
	key := cMajor(t)
	ec := ContextForExercise(Melody, key)
	ex := Exercise{Line: []theory.Pitch{72, 71, 72}}

	res, err := Solve(context.Background(), ex, ec)
	require.NoError(t, err)
	require.Len(t, res.Chords, 3)
	for i, c := range res.Chords {
		assert.Equal(t, ex.Line[i], c.Pitch(harmony.Soprano), "melody is pinned to the soprano")
	}
	report, err := Validate(res.Chords, ec)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestSolveCounterpoint(t *testing.T) {
	key := cMajor(t)
	ec := ContextForExercise(Counterpoint, key)
	ex := Exercise{Line: []theory.Pitch{60, 62, 64, 62, 60}}

	res, err := Solve(context.Background(), ex, ec)
	require.NoError(t, err)
	require.Len(t, res.Chords, 5)
	for i, c := range res.Chords {
		assert.Equal(t, ex.Line[i], c.Pitch(harmony.CantusFirmus))
	}

	// Endpoints land on perfect consonances.
	for _, i := range []int{0, len(res.Chords) - 1} {
		cls := theory.Semitones(res.Chords[i].Pitch(harmony.Counterpoint), res.Chords[i].Pitch(harmony.CantusFirmus)) % 12
		assert.Contains(t, []int{0, 7}, cls)
	}
}

func TestSolveCounterpointBelow(t *testing.T) {
	key := cMajor(t)
	ec := ContextForExercise(Counterpoint, key)
	ec.Voices = harmony.TwoPartBelow()
	ex := Exercise{Line: []theory.Pitch{60, 62, 64, 62, 60}}

	res, err := Solve(context.Background(), ex, ec)
	require.NoError(t, err)
	require.Len(t, res.Chords, 5)
	for i, c := range res.Chords {
		assert.Equal(t, ex.Line[i], c.Pitch(harmony.CantusFirmus))
		assert.LessOrEqual(t, c.Pitch(harmony.Counterpoint), c.Pitch(harmony.CantusFirmus),
			"the counterpoint line stays under the cantus firmus")
	}
	for _, i := range []int{0, len(res.Chords) - 1} {
		cls := theory.Semitones(res.Chords[i].Pitch(harmony.Counterpoint), res.Chords[i].Pitch(harmony.CantusFirmus)) % 12
		assert.Contains(t, []int{0, 7}, cls)
	}
}

func TestSolveRejectsErrorCorrectionType(t *testing.T) {
	key := cMajor(t)
	ec := ContextForExercise(ErrorCorrection, key)
	ex := Exercise{Line: []theory.Pitch{48, 53, 55, 48}}

	_, err := Solve(context.Background(), ex, ec)
	var invalid *solver.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Msg, "Correct")

	// The harmony itself still goes through the correction path.
	chords := []harmony.Chord{
		harmony.NewChord(harmony.NewFunction(harmony.Tonic, key)).
			WithPitch(harmony.Soprano, 72).WithPitch(harmony.Alto, 64).
			WithPitch(harmony.Tenor, 55).WithPitch(harmony.Bass, 48),
		harmony.NewChord(harmony.NewFunction(harmony.Dominant, key)).
			WithPitch(harmony.Soprano, 71).WithPitch(harmony.Alto, 62).
			WithPitch(harmony.Tenor, 55).WithPitch(harmony.Bass, 43),
	}
	res, err := Correct(context.Background(), chords, ec)
	require.NoError(t, err)
	assert.True(t, res.Report.Valid)
}

func TestSolveBudgetExpired(t *testing.T) {
	key := cMajor(t)
	ec := DefaultContext(key)
	ec.Budget = time.Nanosecond
	ex := Exercise{Line: []theory.Pitch{48, 53, 55, 48}}

	_, err := Solve(context.Background(), ex, ec)
	var cancelled *solver.CancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSolveInputErrors(t *testing.T) {
	key := cMajor(t)
	var invalid *solver.InvalidInputError

	_, err := Solve(context.Background(), Exercise{}, DefaultContext(key))
	require.ErrorAs(t, err, &invalid)

	ex, err := ParseExercise([]theory.Pitch{48, 53}, "T{}", key)
	require.NoError(t, err)
	_, err = Solve(context.Background(), ex, DefaultContext(key))
	require.ErrorAs(t, err, &invalid)

	// Scenario from the error taxonomy: a bass note below the bass
	// range is invalid input, not an unsolvable exercise.
	_, err = Solve(context.Background(), Exercise{Line: []theory.Pitch{48, 20}}, DefaultContext(key))
	require.ErrorAs(t, err, &invalid)
}

func TestCorrectFacade(t *testing.T) {
	key := cMajor(t)
	chords := []harmony.Chord{
		harmony.NewChord(harmony.NewFunction(harmony.Tonic, key)).
			WithPitch(harmony.Soprano, 72).WithPitch(harmony.Alto, 64).
			WithPitch(harmony.Tenor, 55).WithPitch(harmony.Bass, 48),
		harmony.NewChord(harmony.FromChord(2, theory.MinorTriad)).
			WithPitch(harmony.Soprano, 74).WithPitch(harmony.Alto, 65).
			WithPitch(harmony.Tenor, 57).WithPitch(harmony.Bass, 50),
	}

	res, err := Correct(context.Background(), chords, DefaultContext(key))
	require.NoError(t, err)
	require.Len(t, res.Corrections, 1)
	assert.Equal(t, 1, res.Corrections[0].Step)
	require.NotNil(t, res.Corrections[0].Trace, "every repair carries its explanation")
	assert.Equal(t, res.Corrections[0].Fixed, res.Corrections[0].Trace.Chord)
	assert.True(t, res.Report.Valid)
}

func TestContextForExercise(t *testing.T) {
	key := cMajor(t)

	cp := ContextForExercise(Counterpoint, key)
	assert.Equal(t, harmony.TwoPart(), cp.Voices)
	assert.Equal(t, "counterpoint_first_species", cp.Profile.Name)

	mel := ContextForExercise(Melody, key)
	assert.Equal(t, harmony.FourPart(), mel.Voices)
	assert.Equal(t, 16, mel.BeamWidth)

	_, ok := ParseExerciseType("melody")
	assert.True(t, ok)
	_, ok = ParseExerciseType("figured_chorale")
	assert.False(t, ok)
}

func TestLoadProfile(t *testing.T) {
	// Built-in names resolve first.
	p, err := LoadProfile("counterpoint_first_species")
	require.NoError(t, err)
	assert.Equal(t, "counterpoint_first_species", p.Name)

	dir := t.TempDir()
	path := filepath.Join(dir, "strict.yaml")
	data := []byte("name: strict\nhard:\n  - range\n  - voice_crossing\nweights:\n  voice_motion: 2.0\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "strict", p.Name)
	assert.Equal(t, []rules.Tag{rules.TagRange, rules.TagOrdering}, p.Hard)
	assert.Equal(t, 2.0, p.Weights["voice_motion"])

	_, err = ParseProfile([]byte("name: broken\nhard:\n  - nonsense\n"))
	assert.Error(t, err)

	_, err = LoadProfile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
