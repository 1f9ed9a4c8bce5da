package harmony

import (
	"strings"

	"github.com/tonalworks/cadenza/theory"
)

// Chord is one vertical slice: a pitch per voice slot plus the implied
// harmonic function. Unused voice slots hold theory.PitchNone. Chord
// is a value type; the solver never mutates a chord after creating it.
type Chord struct {
	Pitches  [NumVoices]theory.Pitch `json:"pitches"`
	Function Function                `json:"function"`
}

// NewChord creates a chord with every voice slot empty.
func NewChord(f Function) Chord {
	c := Chord{Function: f}
	for i := range c.Pitches {
		c.Pitches[i] = theory.PitchNone
	}
	return c
}

// Pitch returns the pitch assigned to a voice, or theory.PitchNone.
func (c Chord) Pitch(v Voice) theory.Pitch {
	if v < 0 || v >= NumVoices {
		return theory.PitchNone
	}
	return c.Pitches[v]
}

// WithPitch returns a copy of the chord with one voice assigned.
func (c Chord) WithPitch(v Voice, p theory.Pitch) Chord {
	c.Pitches[v] = p
	return c
}

// Has reports whether a voice slot is filled.
func (c Chord) Has(v Voice) bool {
	return c.Pitch(v) != theory.PitchNone
}

// Tuple returns the pitches of the given voices from lowest to
// highest voice. The solver's deterministic tie-break compares these
// tuples lexicographically.
func (c Chord) Tuple(voices VoiceSet) []theory.Pitch {
	tuple := make([]theory.Pitch, 0, len(voices))
	for i := len(voices) - 1; i >= 0; i-- {
		tuple = append(tuple, c.Pitch(voices[i]))
	}
	return tuple
}

// CompareTuple orders two chords by their pitch tuples over the given
// voices, lowest voice first. Returns -1, 0, or 1.
func CompareTuple(a, b Chord, voices VoiceSet) int {
	for i := len(voices) - 1; i >= 0; i-- {
		pa, pb := a.Pitch(voices[i]), b.Pitch(voices[i])
		if pa != pb {
			if pa < pb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CountClass counts how many sounding voices carry a pitch class.
func (c Chord) CountClass(pc theory.PitchClass, voices VoiceSet) int {
	n := 0
	for _, v := range voices {
		if p := c.Pitch(v); p != theory.PitchNone && p.Class() == pc {
			n++
		}
	}
	return n
}

// String renders the sounding voices as "S:C5 A:G4 T:E4 B:C3".
func (c Chord) String() string {
	var parts []string
	for v := Voice(0); v < NumVoices; v++ {
		if p := c.Pitches[v]; p != theory.PitchNone {
			parts = append(parts, v.String()+":"+p.String())
		}
	}
	return strings.Join(parts, " ")
}

// Transition is the ordered pair of consecutive vertical slices that
// both constraint checkers operate on. Prev is nil at the first step.
type Transition struct {
	Step   int
	Prev   *Chord
	Next   *Chord
	Key    theory.Key
	Voices VoiceSet
}

// Motion returns the signed semitone motion of a voice across the
// transition, and false when either end of the line is missing.
func (t *Transition) Motion(v Voice) (int, bool) {
	if t.Prev == nil {
		return 0, false
	}
	prev, next := t.Prev.Pitch(v), t.Next.Pitch(v)
	if prev == theory.PitchNone || next == theory.PitchNone {
		return 0, false
	}
	return int(next) - int(prev), true
}

// BassMotion returns the signed motion of the lowest voice.
func (t *Transition) BassMotion() (int, bool) {
	return t.Motion(t.Voices.Lowest())
}
