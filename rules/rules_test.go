package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/theory"
)

func cMajor(t *testing.T) theory.Key {
	t.Helper()
	k, err := theory.NewKey(0, theory.Major)
	require.NoError(t, err)
	return k
}

func satb(f harmony.Function, s, a, tn, b theory.Pitch) harmony.Chord {
	c := harmony.NewChord(f)
	c = c.WithPitch(harmony.Soprano, s)
	c = c.WithPitch(harmony.Alto, a)
	c = c.WithPitch(harmony.Tenor, tn)
	return c.WithPitch(harmony.Bass, b)
}

func transition(t *testing.T, prev, next *harmony.Chord, voices harmony.VoiceSet) *harmony.Transition {
	t.Helper()
	return &harmony.Transition{Step: 1, Prev: prev, Next: next, Key: cMajor(t), Voices: voices}
}

func tags(violations []Violation) []Tag {
	out := make([]Tag, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestRangeRule(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	ok := satb(tonic, 72, 64, 55, 48)
	bad := satb(tonic, 40, 64, 55, 48) // soprano far below its range

	tr := transition(t, nil, &ok, harmony.FourPart())
	assert.Empty(t, rangeRule{}.Check(tr))

	tr = transition(t, nil, &bad, harmony.FourPart())
	vs := rangeRule{}.Check(tr)
	require.Len(t, vs, 1)
	assert.Equal(t, TagRange, vs[0].Rule)
	assert.Equal(t, []harmony.Voice{harmony.Soprano}, vs[0].Voices)
}

func TestOrderingRule(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	crossed := satb(tonic, 60, 64, 55, 48) // alto above soprano
	tr := transition(t, nil, &crossed, harmony.FourPart())
	vs := orderingRule{}.Check(tr)
	require.Len(t, vs, 1)
	assert.Equal(t, []harmony.Voice{harmony.Soprano, harmony.Alto}, vs[0].Voices)

	unison := satb(tonic, 64, 64, 55, 48)
	tr = transition(t, nil, &unison, harmony.FourPart())
	assert.Empty(t, orderingRule{}.Check(tr))
}

func TestSpacingRule(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	// Soprano to alto is 14 semitones; tenor to bass is also wide but
	// the gap above the lowest voice is not constrained.
	wide := satb(tonic, 79, 65, 60, 41)
	tr := transition(t, nil, &wide, harmony.FourPart())
	vs := spacingRule{}.Check(tr)
	require.Len(t, vs, 1)
	assert.Equal(t, []harmony.Voice{harmony.Soprano, harmony.Alto}, vs[0].Voices)

	okay := satb(tonic, 72, 64, 55, 41)
	tr = transition(t, nil, &okay, harmony.FourPart())
	assert.Empty(t, spacingRule{}.Check(tr))
}

func TestParallelRules(t *testing.T) {
	key := cMajor(t)
	cMaj := harmony.NewFunction(harmony.Tonic, key)
	dMin := harmony.FromChord(2, theory.MinorTriad)

	// C major to D minor with every voice shifted up a step keeps the
	// tenor-bass fifth and the soprano-bass octave intact.
	prev := satb(cMaj, 72, 64, 55, 48)
	next := satb(dMin, 74, 65, 57, 50)
	tr := transition(t, &prev, &next, harmony.FourPart())

	fifths := parallelFifthsRule{}.Check(tr)
	require.Len(t, fifths, 1)
	assert.Equal(t, []harmony.Voice{harmony.Tenor, harmony.Bass}, fifths[0].Voices)

	octaves := parallelOctavesRule{}.Check(tr)
	require.Len(t, octaves, 1)
	assert.Equal(t, []harmony.Voice{harmony.Soprano, harmony.Bass}, octaves[0].Voices)

	// Contrary motion into another fifth is fine: the tenor rises a
	// step while the bass drops to D2, landing on a compound fifth.
	contrary := satb(dMin, 74, 65, 57, 38)
	tr = transition(t, &prev, &contrary, harmony.FourPart())
	assert.Empty(t, parallelFifthsRule{}.Check(tr))
	assert.Empty(t, parallelOctavesRule{}.Check(tr))
}

func TestParallelRuleSpellingSensitive(t *testing.T) {
	key := cMajor(t)
	// B-F is a diminished fifth; moving from it into C-G (perfect
	// fifth) in similar motion is not a parallel-fifths hit.
	prev := harmony.NewChord(harmony.FromChord(11, theory.DiminishedTriad)).
		WithPitch(harmony.Soprano, 77).WithPitch(harmony.Bass, 59)
	next := harmony.NewChord(harmony.NewFunction(harmony.Tonic, key)).
		WithPitch(harmony.Soprano, 79).WithPitch(harmony.Bass, 60)
	tr := transition(t, &prev, &next, harmony.FourPart())
	assert.Empty(t, parallelFifthsRule{}.Check(tr))
}

func TestHiddenParallelsRule(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	// Soprano leaps up a third while the bass climbs an octave, both
	// arriving on a compound fifth they did not start from.
	prev := harmony.NewChord(tonic).
		WithPitch(harmony.Soprano, 76).WithPitch(harmony.Bass, 48)
	next := harmony.NewChord(tonic).
		WithPitch(harmony.Soprano, 79).WithPitch(harmony.Bass, 60)
	tr := transition(t, &prev, &next, harmony.FourPart())
	vs := hiddenParallelsRule{}.Check(tr)
	require.Len(t, vs, 1)
	assert.Equal(t, TagHiddenParallels, vs[0].Rule)

	// Same arrival by step in the upper voice is allowed.
	stepPrev := harmony.NewChord(tonic).
		WithPitch(harmony.Soprano, 77).WithPitch(harmony.Bass, 57)
	tr = transition(t, &stepPrev, &next, harmony.FourPart())
	assert.Empty(t, hiddenParallelsRule{}.Check(tr))
}

func TestSeventhResolutionRule(t *testing.T) {
	g7 := harmony.FromChord(7, theory.Dominant7)
	tonic := harmony.FromChord(0, theory.MajorTriad)

	prev := satb(g7, 71, 65, 62, 55) // alto carries F4, the seventh
	good := satb(tonic, 72, 64, 60, 48)
	bad := satb(tonic, 72, 67, 60, 48) // seventh climbs to G4

	tr := transition(t, &prev, &good, harmony.FourPart())
	assert.Empty(t, seventhResolutionRule{}.Check(tr))

	tr = transition(t, &prev, &bad, harmony.FourPart())
	vs := seventhResolutionRule{}.Check(tr)
	require.Len(t, vs, 1)
	assert.Equal(t, []harmony.Voice{harmony.Alto}, vs[0].Voices)
}

func TestLeadingToneRule(t *testing.T) {
	key := cMajor(t)
	dom := harmony.NewFunction(harmony.Dominant, key)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	prev := satb(dom, 71, 67, 62, 55)

	resolved := satb(tonic, 72, 67, 64, 48)
	tr := transition(t, &prev, &resolved, harmony.FourPart())
	assert.Empty(t, leadingToneRule{}.Check(tr))

	dropped := satb(tonic, 67, 64, 60, 48) // leading tone falls a fourth
	tr = transition(t, &prev, &dropped, harmony.FourPart())
	vs := leadingToneRule{}.Check(tr)
	require.Len(t, vs, 1)
	assert.Equal(t, []harmony.Voice{harmony.Soprano}, vs[0].Voices)

	// Holding the leading tone across two dominant chords is legal.
	held := satb(dom, 71, 67, 62, 43)
	tr = transition(t, &prev, &held, harmony.FourPart())
	assert.Empty(t, leadingToneRule{}.Check(tr))
}

func TestConsonanceRule(t *testing.T) {
	cp := harmony.FromChord(0, theory.MajorTriad)

	third := harmony.NewChord(cp).
		WithPitch(harmony.Counterpoint, 64).WithPitch(harmony.CantusFirmus, 60)
	tr := transition(t, nil, &third, harmony.TwoPart())
	assert.Empty(t, consonanceRule{}.Check(tr))

	fourth := harmony.NewChord(cp).
		WithPitch(harmony.Counterpoint, 65).WithPitch(harmony.CantusFirmus, 60)
	tr = transition(t, nil, &fourth, harmony.TwoPart())
	vs := consonanceRule{}.Check(tr)
	require.Len(t, vs, 1)
	assert.Equal(t, TagConsonance, vs[0].Rule)

	tritone := harmony.NewChord(cp).
		WithPitch(harmony.Counterpoint, 65).WithPitch(harmony.CantusFirmus, 59)
	tr = transition(t, nil, &tritone, harmony.TwoPart())
	assert.Len(t, consonanceRule{}.Check(tr), 1)
}

func TestCheckerCollectsAllViolations(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	// Crossed and out of range at once.
	bad := satb(tonic, 40, 64, 55, 48)
	checker := NewChecker([]HardRule{rangeRule{}, orderingRule{}})
	vs := checker.Check(transition(t, nil, &bad, harmony.FourPart()))
	assert.ElementsMatch(t, []Tag{TagRange, TagOrdering}, tags(vs))
}

func TestMotionCost(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	prev := satb(tonic, 72, 64, 55, 48)
	next := satb(tonic, 72, 66, 60, 48) // hold, step of 2, leap of 5, hold
	tr := transition(t, &prev, &next, harmony.FourPart())

	// 0 + 1 + (1 + 0.25*3*3) + 0
	assert.InDelta(t, 4.25, motionRule{}.Cost(tr), 1e-9)

	first := transition(t, nil, &next, harmony.FourPart())
	assert.Zero(t, motionRule{}.Cost(first))
}

func TestBassParallelCost(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	prev := satb(tonic, 72, 64, 55, 48)

	// Bass up 2: soprano up 2 (exact, 2), alto down (contrary, 0),
	// tenor holds (oblique, 0.5).
	next := satb(tonic, 74, 62, 55, 50)
	tr := transition(t, &prev, &next, harmony.FourPart())
	assert.InDelta(t, 2.5, bassParallelRule{}.Cost(tr), 1e-9)

	still := satb(tonic, 72, 64, 55, 48)
	tr = transition(t, &prev, &still, harmony.FourPart())
	assert.Zero(t, bassParallelRule{}.Cost(tr))
}

func TestDoublingCost(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)
	dom := harmony.NewFunction(harmony.Dominant, key)
	g7 := harmony.FromChord(7, theory.Dominant7)

	doubledRoot := satb(tonic, 72, 64, 55, 48)
	tr := transition(t, nil, &doubledRoot, harmony.FourPart())
	assert.Zero(t, doublingRule{}.Cost(tr))

	singleRoot := satb(tonic, 72, 67, 64, 52)
	tr = transition(t, nil, &singleRoot, harmony.FourPart())
	assert.InDelta(t, 1, doublingRule{}.Cost(tr), 1e-9)

	doubledLT := satb(dom, 71, 67, 59, 55) // B in soprano and tenor
	tr = transition(t, nil, &doubledLT, harmony.FourPart())
	assert.GreaterOrEqual(t, doublingRule{}.Cost(tr), 10.0)

	doubledSeventh := satb(g7, 77, 71, 65, 55) // F in soprano and tenor
	tr = transition(t, nil, &doubledSeventh, harmony.FourPart())
	assert.GreaterOrEqual(t, doublingRule{}.Cost(tr), 8.0)
}

func TestSpacingEvennessCost(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	even := satb(tonic, 72, 64, 56, 48) // gaps 8, 8, 8
	tr := transition(t, nil, &even, harmony.FourPart())
	assert.Zero(t, spacingEvennessRule{}.Cost(tr))

	uneven := satb(tonic, 79, 75, 71, 55) // gaps 4, 4, 16
	tr = transition(t, nil, &uneven, harmony.FourPart())
	assert.InDelta(t, 4.8, spacingEvennessRule{}.Cost(tr), 1e-9)
}

func TestScorerBreakdown(t *testing.T) {
	key := cMajor(t)
	tonic := harmony.NewFunction(harmony.Tonic, key)

	prev := satb(tonic, 72, 64, 55, 48)
	next := satb(tonic, 74, 62, 55, 50)
	tr := transition(t, &prev, &next, harmony.FourPart())

	scorer := NewScorer(DefaultWeights())
	total, components := scorer.Score(tr)

	var sum float64
	for _, c := range components {
		assert.GreaterOrEqual(t, c, 0.0)
		sum += c
	}
	assert.InDelta(t, sum, total, 1e-9)
	assert.Contains(t, components, CostVoiceMotion)

	// Zero-weight components are skipped entirely.
	partial := NewScorer(map[string]float64{CostVoiceMotion: 1})
	_, components = partial.Score(tr)
	assert.NotContains(t, components, CostDoubling)
}

func TestProfiles(t *testing.T) {
	for _, name := range ProfileNames() {
		p, ok := ProfileFor(name)
		require.True(t, ok, name)
		assert.Equal(t, name, p.Name)
		checker, err := p.Checker()
		require.NoError(t, err)
		assert.Len(t, checker.Rules(), len(p.Hard))
		assert.NotNil(t, p.Scorer())
	}

	_, ok := ProfileFor("second_species")
	assert.False(t, ok)

	cp, _ := ProfileFor("counterpoint_first_species")
	assert.True(t, cp.Enables(TagConsonance))
	assert.False(t, cp.Enables(TagSeventhResolution))
	assert.False(t, cp.Enables(TagSpacing))

	bad := Profile{Name: "bad", Hard: []Tag{"nonsense"}}
	_, err := bad.Checker()
	assert.Error(t, err)
}
