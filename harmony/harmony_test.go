package harmony

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonalworks/cadenza/theory"
)

var cMajor = theory.Key{Tonic: 0, Mode: theory.Major}

func TestVoiceRanges(t *testing.T) {
	assert.Equal(t, Range{Min: 60, Max: 88}, RangeOf(Soprano))
	assert.Equal(t, Range{Min: 40, Max: 72}, RangeOf(Bass))
	assert.True(t, RangeOf(Tenor).Contains(60))
	assert.False(t, RangeOf(Bass).Contains(20))
}

func TestVoiceSetShape(t *testing.T) {
	satb := FourPart()
	assert.Equal(t, Bass, satb.Lowest())
	assert.Equal(t, VoiceSet{Soprano, Alto, Tenor}, satb.Upper())
	assert.True(t, satb.Contains(Alto))
	assert.False(t, satb.Contains(CantusFirmus))

	two := TwoPart()
	assert.Equal(t, CantusFirmus, two.Lowest())
}

func TestChordAssignment(t *testing.T) {
	c := NewChord(NewFunction(Tonic, cMajor))
	assert.False(t, c.Has(Soprano))

	c = c.WithPitch(Bass, 48).WithPitch(Soprano, 72)
	assert.Equal(t, theory.Pitch(48), c.Pitch(Bass))
	assert.True(t, c.Has(Soprano))
	assert.Equal(t, 2, c.CountClass(0, FourPart()))
}

func TestCompareTuple(t *testing.T) {
	f := NewFunction(Tonic, cMajor)
	a := NewChord(f).WithPitch(Bass, 48).WithPitch(Tenor, 55).WithPitch(Alto, 64).WithPitch(Soprano, 72)
	b := NewChord(f).WithPitch(Bass, 48).WithPitch(Tenor, 55).WithPitch(Alto, 64).WithPitch(Soprano, 76)

	assert.Equal(t, 0, CompareTuple(a, a, FourPart()))
	assert.Equal(t, -1, CompareTuple(a, b, FourPart()))
	assert.Equal(t, 1, CompareTuple(b, a, FourPart()))
}

func TestTransitionMotion(t *testing.T) {
	f := NewFunction(Tonic, cMajor)
	prev := NewChord(f).WithPitch(Bass, 48).WithPitch(Soprano, 72)
	next := NewChord(f).WithPitch(Bass, 53).WithPitch(Soprano, 69)

	tr := &Transition{Step: 1, Prev: &prev, Next: &next, Key: cMajor, Voices: FourPart()}

	m, ok := tr.Motion(Soprano)
	require.True(t, ok)
	assert.Equal(t, -3, m)

	bm, ok := tr.BassMotion()
	require.True(t, ok)
	assert.Equal(t, 5, bm)

	_, ok = tr.Motion(Alto)
	assert.False(t, ok, "alto is unassigned")

	first := &Transition{Step: 0, Next: &next, Key: cMajor, Voices: FourPart()}
	_, ok = first.Motion(Soprano)
	assert.False(t, ok)
}

func TestNewFunctionRoots(t *testing.T) {
	assert.Equal(t, theory.PitchClass(0), NewFunction(Tonic, cMajor).Root)
	assert.Equal(t, theory.PitchClass(7), NewFunction(Dominant, cMajor).Root)
	assert.Equal(t, theory.PitchClass(5), NewFunction(Subdominant, cMajor).Root)
	assert.Equal(t, theory.PitchClass(1), NewFunction(Neapolitan, cMajor).Root)

	aMinor := theory.Key{Tonic: 9, Mode: theory.Minor}
	tonic := NewFunction(Tonic, aMinor)
	assert.True(t, tonic.Minor)
	assert.Equal(t, theory.PitchClassSet{9, 0, 4}, tonic.Tones())
}

func TestFunctionTones(t *testing.T) {
	d7 := NewFunction(Dominant, cMajor)
	d7.Extra = []int{7}
	assert.Equal(t, theory.PitchClassSet{7, 11, 2, 5}, d7.Tones())
	assert.True(t, d7.HasSeventh())
	assert.Equal(t, theory.PitchClass(5), d7.SeventhClass())

	plain := NewFunction(Dominant, cMajor)
	assert.False(t, plain.HasSeventh())
	assert.Equal(t, theory.PitchClass(-1), plain.SeventhClass())
}

func TestFunctionAlterations(t *testing.T) {
	d := NewFunction(Dominant, cMajor)
	d.Alterations = map[int]Alteration{5: Lowered}
	assert.Equal(t, theory.PitchClassSet{7, 11, 1}, d.Tones(), "lowered fifth")
}

func TestFunctionBassClass(t *testing.T) {
	d7 := NewFunction(Dominant, cMajor)
	d7.Extra = []int{7}
	d7.Position = 3
	assert.Equal(t, theory.PitchClass(5), d7.BassClass(), "third position puts the seventh in the bass")

	t1 := NewFunction(Tonic, cMajor)
	t1.Position = 1
	assert.Equal(t, theory.PitchClass(4), t1.BassClass())
}

func TestParseFunction(t *testing.T) {
	f, err := ParseFunction("D{extra: 7}", cMajor)
	require.NoError(t, err)
	assert.Equal(t, Dominant, f.Type)
	assert.Equal(t, []int{7}, f.Extra)

	f, err = ParseFunction("S{position: 3}", cMajor)
	require.NoError(t, err)
	assert.Equal(t, Subdominant, f.Type)
	assert.Equal(t, 3, f.Position)

	f, err = ParseFunction("T{minor}", cMajor)
	require.NoError(t, err)
	assert.True(t, f.Minor)

	f, err = ParseFunction("D{alterations: 5: <}", cMajor)
	require.NoError(t, err)
	assert.Equal(t, Lowered, f.Alterations[5])

	f, err = ParseFunction("Ch{}", cMajor)
	require.NoError(t, err)
	assert.Equal(t, Chopin, f.Type)

	_, err = ParseFunction("X{}", cMajor)
	assert.Error(t, err)
}

func TestParseFunctionRoundTrip(t *testing.T) {
	for _, expr := range []string{"T{}", "D{extra: 7}", "S{position: 3}", "T{position: 1; minor}"} {
		f, err := ParseFunction(expr, cMajor)
		require.NoError(t, err)
		again, err := ParseFunction(f.String(), cMajor)
		require.NoError(t, err)
		assert.Equal(t, f, again, expr)
	}
}

func TestParseFunctionSequence(t *testing.T) {
	funcs, err := ParseFunctionSequence("T{}; D{extra: 7}; T{}", cMajor)
	require.NoError(t, err)
	require.Len(t, funcs, 3)
	assert.Equal(t, Tonic, funcs[0].Type)
	assert.Equal(t, Dominant, funcs[1].Type)
	assert.True(t, funcs[1].HasSeventh())

	funcs, err = ParseFunctionSequence("T{position: 1; minor}; D{}", cMajor)
	require.NoError(t, err)
	require.Len(t, funcs, 2)
	assert.Equal(t, 1, funcs[0].Position)
}

func TestCorrectFunctionClampsPosition(t *testing.T) {
	f := NewFunction(Tonic, cMajor)
	f.Position = 5
	corrected := CorrectFunction(f, nil)
	assert.Equal(t, 2, corrected.Position)
}

func TestCorrectFunctionDominantSeventhBass(t *testing.T) {
	d7 := NewFunction(Dominant, cMajor)
	d7.Extra = []int{7}
	d7.Position = 3

	tonic := NewFunction(Tonic, cMajor)
	corrected := CorrectFunction(tonic, &d7)
	assert.Equal(t, 1, corrected.Position, "tonic after D7 with seventh in bass resolves to first inversion")
}

func TestCorrectSequenceChopin(t *testing.T) {
	ch := NewFunction(Chopin, cMajor)
	out := CorrectSequence([]Function{ch})
	require.Len(t, out, 1)
	assert.Equal(t, []int{5}, out[0].Extra)
}

func TestPrecheckSequence(t *testing.T) {
	good, err := ParseFunctionSequence("T{}; D{}; T{}", cMajor)
	require.NoError(t, err)
	assert.Empty(t, PrecheckSequence(good))

	bad := NewFunction(Tonic, cMajor)
	bad.Position = 3
	problems := PrecheckSequence([]Function{bad})
	assert.Len(t, problems, 1)
}

func TestImpliedFunction(t *testing.T) {
	f := ImpliedFunction(48, cMajor) // C in C major
	assert.Equal(t, theory.PitchClass(0), f.Root)
	assert.Equal(t, theory.MajorTriad, f.Quality)

	f = ImpliedFunction(50, cMajor) // D: supertonic is minor
	assert.Equal(t, theory.MinorTriad, f.Quality)

	f = ImpliedFunction(47, cMajor) // B: leading-tone triad is diminished
	assert.Equal(t, theory.DiminishedTriad, f.Quality)
}
