package rules

import (
	"fmt"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/theory"
)

// rangeRule rejects any voice placed outside its reference range.
type rangeRule struct{}

func (rangeRule) Tag() Tag { return TagRange }

func (rangeRule) Check(t *harmony.Transition) []Violation {
	var out []Violation
	for _, v := range t.Voices {
		p := t.Next.Pitch(v)
		if p == theory.PitchNone {
			continue
		}
		if r := harmony.RangeOf(v); !r.Contains(p) {
			out = append(out, Violation{
				Rule:        TagRange,
				Voices:      []harmony.Voice{v},
				Description: fmt.Sprintf("%s at %s is outside %s..%s", v.LongName(), p, r.Min, r.Max),
			})
		}
	}
	return out
}

// orderingRule enforces the vertical order of the voice set: each
// voice must sound at or above the next lower one. Unisons between
// adjacent voices are allowed.
type orderingRule struct{}

func (orderingRule) Tag() Tag { return TagOrdering }

func (orderingRule) Check(t *harmony.Transition) []Violation {
	var out []Violation
	for i := 0; i+1 < len(t.Voices); i++ {
		hi, lo := t.Voices[i], t.Voices[i+1]
		pHi, pLo := t.Next.Pitch(hi), t.Next.Pitch(lo)
		if pHi == theory.PitchNone || pLo == theory.PitchNone {
			continue
		}
		if pHi < pLo {
			out = append(out, Violation{
				Rule:        TagOrdering,
				Voices:      []harmony.Voice{hi, lo},
				Description: fmt.Sprintf("%s (%s) crosses below %s (%s)", hi.LongName(), pHi, lo.LongName(), pLo),
			})
		}
	}
	return out
}

// spacingRule limits adjacent upper voices to an octave. The gap above
// the lowest voice is unconstrained, so with SATB the rule binds S-A
// and A-T but not T-B.
type spacingRule struct{}

func (spacingRule) Tag() Tag { return TagSpacing }

func (spacingRule) Check(t *harmony.Transition) []Violation {
	var out []Violation
	upper := t.Voices.Upper()
	for i := 0; i+1 < len(upper); i++ {
		hi, lo := upper[i], upper[i+1]
		pHi, pLo := t.Next.Pitch(hi), t.Next.Pitch(lo)
		if pHi == theory.PitchNone || pLo == theory.PitchNone {
			continue
		}
		if gap := theory.Semitones(pHi, pLo); gap > 12 {
			out = append(out, Violation{
				Rule:        TagSpacing,
				Voices:      []harmony.Voice{hi, lo},
				Description: fmt.Sprintf("%s and %s are %d semitones apart", hi.LongName(), lo.LongName(), gap),
			})
		}
	}
	return out
}

// pairMotion reports the motion of a pair of voices across the
// transition. ok is false when either line is incomplete (first step
// or a voice missing an endpoint).
func pairMotion(t *harmony.Transition, hi, lo harmony.Voice) (mHi, mLo int, ok bool) {
	mHi, okHi := t.Motion(hi)
	mLo, okLo := t.Motion(lo)
	return mHi, mLo, okHi && okLo
}

// spelledInterval is IntervalBetween with the lookup errors swallowed:
// the generator only emits valid pitches, so an error here means the
// pair cannot be classified and the rule passes on it.
func spelledInterval(a, b theory.Pitch, k theory.Key) (theory.Interval, bool) {
	iv, err := theory.IntervalBetween(a, b, k)
	if err != nil {
		return theory.Interval{}, false
	}
	return iv, true
}

// parallelFifthsRule forbids two voices moving in the same direction
// from one perfect fifth to another. The intervals are qualified by
// spelling, so a diminished fifth opening or closing the motion does
// not trigger the rule.
type parallelFifthsRule struct{}

func (parallelFifthsRule) Tag() Tag { return TagParallelFifths }

func (parallelFifthsRule) Check(t *harmony.Transition) []Violation {
	return checkParallel(t, TagParallelFifths, 5)
}

// parallelOctavesRule forbids two voices moving in the same direction
// from one perfect octave (or unison) to another.
type parallelOctavesRule struct{}

func (parallelOctavesRule) Tag() Tag { return TagParallelOctaves }

func (parallelOctavesRule) Check(t *harmony.Transition) []Violation {
	return checkParallel(t, TagParallelOctaves, 8)
}

// matchesSimple reports whether the interval is a perfect consonance
// of the given simple size, with octaves and unisons pooled under 8.
func matchesSimple(iv theory.Interval, simple int) bool {
	if !iv.IsPerfectConsonance() {
		return false
	}
	s := iv.SimpleSize()
	if simple == 8 {
		return s == 1 || s == 8
	}
	return s == simple
}

func checkParallel(t *harmony.Transition, tag Tag, simple int) []Violation {
	if t.Prev == nil {
		return nil
	}
	var out []Violation
	for i := 0; i < len(t.Voices); i++ {
		for j := i + 1; j < len(t.Voices); j++ {
			hi, lo := t.Voices[i], t.Voices[j]
			mHi, mLo, ok := pairMotion(t, hi, lo)
			if !ok || mHi == 0 || mLo == 0 {
				continue
			}
			if (mHi > 0) != (mLo > 0) {
				continue
			}
			prevIv, ok := spelledInterval(t.Prev.Pitch(hi), t.Prev.Pitch(lo), t.Key)
			if !ok || !matchesSimple(prevIv, simple) {
				continue
			}
			nextIv, ok := spelledInterval(t.Next.Pitch(hi), t.Next.Pitch(lo), t.Key)
			if !ok || !matchesSimple(nextIv, simple) {
				continue
			}
			out = append(out, Violation{
				Rule:        tag,
				Voices:      []harmony.Voice{hi, lo},
				Description: fmt.Sprintf("%s and %s move in parallel %s to %s", hi.LongName(), lo.LongName(), prevIv, nextIv),
			})
		}
	}
	return out
}

// hiddenParallelsRule forbids similar motion into a perfect fifth or
// octave when the upper voice of the pair arrives by leap. Pairs that
// already stood on the same perfect consonance are left to the
// parallel rules.
type hiddenParallelsRule struct{}

func (hiddenParallelsRule) Tag() Tag { return TagHiddenParallels }

func (hiddenParallelsRule) Check(t *harmony.Transition) []Violation {
	if t.Prev == nil {
		return nil
	}
	var out []Violation
	for i := 0; i < len(t.Voices); i++ {
		for j := i + 1; j < len(t.Voices); j++ {
			hi, lo := t.Voices[i], t.Voices[j]
			mHi, mLo, ok := pairMotion(t, hi, lo)
			if !ok || mHi == 0 || mLo == 0 {
				continue
			}
			if (mHi > 0) != (mLo > 0) {
				continue
			}
			leap := mHi
			if leap < 0 {
				leap = -leap
			}
			if leap <= 2 {
				continue
			}
			nextIv, ok := spelledInterval(t.Next.Pitch(hi), t.Next.Pitch(lo), t.Key)
			if !ok || !nextIv.IsPerfectConsonance() {
				continue
			}
			prevIv, ok := spelledInterval(t.Prev.Pitch(hi), t.Prev.Pitch(lo), t.Key)
			if ok && matchesSimple(prevIv, nextIv.SimpleSize()) {
				continue
			}
			out = append(out, Violation{
				Rule:        TagHiddenParallels,
				Voices:      []harmony.Voice{hi, lo},
				Description: fmt.Sprintf("%s leaps with %s into a %s", hi.LongName(), lo.LongName(), nextIv),
			})
		}
	}
	return out
}

// seventhResolutionRule requires a chordal seventh to fall by step.
// The rule fires on the transition out of the chord that carries the
// seventh.
type seventhResolutionRule struct{}

func (seventhResolutionRule) Tag() Tag { return TagSeventhResolution }

func (seventhResolutionRule) Check(t *harmony.Transition) []Violation {
	if t.Prev == nil || !t.Prev.Function.HasSeventh() {
		return nil
	}
	seventh := t.Prev.Function.SeventhClass()
	if seventh < 0 {
		return nil
	}
	var out []Violation
	for _, v := range t.Voices {
		prev := t.Prev.Pitch(v)
		if prev == theory.PitchNone || prev.Class() != seventh {
			continue
		}
		m, ok := t.Motion(v)
		if !ok {
			continue
		}
		if m == -1 || m == -2 {
			continue
		}
		out = append(out, Violation{
			Rule:        TagSeventhResolution,
			Voices:      []harmony.Voice{v},
			Description: fmt.Sprintf("seventh in %s moves %+d instead of falling by step", v.LongName(), m),
		})
	}
	return out
}

// leadingToneRule requires a sounding leading tone to rise by semitone
// to the tonic. Holding it is allowed only when the next chord still
// contains the leading tone as a chord member.
type leadingToneRule struct{}

func (leadingToneRule) Tag() Tag { return TagLeadingTone }

func (leadingToneRule) Check(t *harmony.Transition) []Violation {
	if t.Prev == nil {
		return nil
	}
	lt := t.Key.LeadingTone()
	nextHasLT := t.Next.Function.Tones().Contains(lt)
	var out []Violation
	for _, v := range t.Voices {
		prev := t.Prev.Pitch(v)
		if prev == theory.PitchNone || prev.Class() != lt {
			continue
		}
		m, ok := t.Motion(v)
		if !ok {
			continue
		}
		next := t.Next.Pitch(v)
		if next.Class() == lt && nextHasLT {
			continue
		}
		if next == prev.Transpose(1) {
			continue
		}
		out = append(out, Violation{
			Rule:        TagLeadingTone,
			Voices:      []harmony.Voice{v},
			Description: fmt.Sprintf("leading tone in %s moves %+d instead of rising to the tonic", v.LongName(), m),
		})
	}
	return out
}

// consonantClasses marks the chromatic interval classes allowed
// between the two lines of first-species counterpoint: unison/octave,
// thirds, fifth and sixths. The fourth counts as a dissonance in a
// two-voice texture.
var consonantClasses = map[int]bool{0: true, 3: true, 4: true, 7: true, 8: true, 9: true}

// consonanceRule restricts two-voice textures to vertical consonances.
type consonanceRule struct{}

func (consonanceRule) Tag() Tag { return TagConsonance }

func (consonanceRule) Check(t *harmony.Transition) []Violation {
	var out []Violation
	for i := 0; i < len(t.Voices); i++ {
		for j := i + 1; j < len(t.Voices); j++ {
			hi, lo := t.Voices[i], t.Voices[j]
			pHi, pLo := t.Next.Pitch(hi), t.Next.Pitch(lo)
			if pHi == theory.PitchNone || pLo == theory.PitchNone {
				continue
			}
			if cls := theory.Semitones(pHi, pLo) % 12; !consonantClasses[cls] {
				out = append(out, Violation{
					Rule:        TagConsonance,
					Voices:      []harmony.Voice{hi, lo},
					Description: fmt.Sprintf("%s against %s sounds a dissonance (%d semitones)", hi.LongName(), lo.LongName(), theory.Semitones(pHi, pLo)),
				})
			}
		}
	}
	return out
}

// hardRegistry maps tags to rule instances. All rules are stateless,
// so sharing instances is safe.
var hardRegistry = map[Tag]HardRule{
	TagRange:             rangeRule{},
	TagOrdering:          orderingRule{},
	TagSpacing:           spacingRule{},
	TagParallelFifths:    parallelFifthsRule{},
	TagParallelOctaves:   parallelOctavesRule{},
	TagHiddenParallels:   hiddenParallelsRule{},
	TagSeventhResolution: seventhResolutionRule{},
	TagLeadingTone:       leadingToneRule{},
	TagConsonance:        consonanceRule{},
}

// NewHardRule looks up the rule registered under a tag.
func NewHardRule(tag Tag) (HardRule, bool) {
	r, ok := hardRegistry[tag]
	return r, ok
}

// AllTags lists every registered hard-rule tag in a stable order.
func AllTags() []Tag {
	return []Tag{
		TagRange, TagOrdering, TagSpacing,
		TagParallelFifths, TagParallelOctaves, TagHiddenParallels,
		TagSeventhResolution, TagLeadingTone, TagConsonance,
	}
}
