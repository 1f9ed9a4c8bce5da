package theory

import "fmt"

// IntervalQuality qualifies a diatonic interval size.
type IntervalQuality int

const (
	Diminished IntervalQuality = iota
	MinorQuality
	MajorQuality
	Perfect
	Augmented
)

func (q IntervalQuality) String() string {
	switch q {
	case Diminished:
		return "d"
	case MinorQuality:
		return "m"
	case MajorQuality:
		return "M"
	case Perfect:
		return "P"
	case Augmented:
		return "A"
	default:
		return "?"
	}
}

// Interval is a diatonic interval between two pitches: a size counted
// in letter steps (1=unison, 5=fifth, 8=octave) plus a quality. The
// quality depends on how the pitches are spelled in the active key,
// which is what lets the checker distinguish a perfect fifth from a
// diminished fifth when hunting parallels.
type Interval struct {
	Size      int             `json:"size"`
	Quality   IntervalQuality `json:"quality"`
	Semitones int             `json:"semitones"`
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s%d", iv.Quality, iv.Size)
}

// SimpleSize reduces a compound interval size to 1..7 (octaves to 8).
func (iv Interval) SimpleSize() int {
	s := iv.Size
	for s > 8 {
		s -= 7
	}
	return s
}

// IsPerfectConsonance reports whether the interval is a perfect
// unison, fifth or octave (the intervals the parallel rules police).
func (iv Interval) IsPerfectConsonance() bool {
	if iv.Quality != Perfect {
		return false
	}
	switch iv.SimpleSize() {
	case 1, 5, 8:
		return true
	}
	return false
}

// perfectSizes marks the diatonic sizes whose default quality is
// perfect rather than major.
var perfectSizes = map[int]bool{1: true, 4: true, 5: true, 8: true}

// referenceSemitones gives the semitone count of the perfect/major
// interval for each simple size 1..8.
var referenceSemitones = [9]int{0, 0, 2, 4, 5, 7, 9, 11, 12}

// IntervalBetween computes the diatonic interval from the lower to the
// higher of two pitches, spelled in the given key. Passing an invalid
// pitch or key is an internal-contract violation and yields a
// TheoryError.
func IntervalBetween(a, b Pitch, k Key) (Interval, error) {
	if !a.Valid() || !b.Valid() {
		return Interval{}, errInvalid("IntervalBetween", "pitch out of MIDI range: %d, %d", a, b)
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	sLo, err := Spell(lo, k)
	if err != nil {
		return Interval{}, err
	}
	sHi, err := Spell(hi, k)
	if err != nil {
		return Interval{}, err
	}

	posLo := letterIndex(sLo.Letter) + 7*sLo.Octave
	posHi := letterIndex(sHi.Letter) + 7*sHi.Octave
	size := posHi - posLo + 1
	if size < 1 {
		size = 1
	}
	semitones := int(hi) - int(lo)

	simple := size
	for simple > 8 {
		simple -= 7
	}
	ref := referenceSemitones[simple] + 12*((size-simple)/7)
	diff := semitones - ref

	var quality IntervalQuality
	switch {
	case diff == 0 && perfectSizes[simple]:
		quality = Perfect
	case diff == 0:
		quality = MajorQuality
	case diff == -1 && !perfectSizes[simple]:
		quality = MinorQuality
	case diff < 0:
		quality = Diminished
	default:
		quality = Augmented
	}

	return Interval{Size: size, Quality: quality, Semitones: semitones}, nil
}

// Semitones returns the absolute semitone distance between two pitches.
func Semitones(a, b Pitch) int {
	d := int(b) - int(a)
	if d < 0 {
		d = -d
	}
	return d
}

// IsPerfectFifthChromatic reports whether two pitches sound a perfect
// fifth apart modulo the octave, ignoring spelling. The parallel rules
// use the spelled IntervalBetween; this is the fast chromatic check
// used during candidate generation.
func IsPerfectFifthChromatic(a, b Pitch) bool {
	return Semitones(a, b)%12 == 7
}

// IsPerfectOctaveChromatic reports whether two pitches are an octave
// or unison apart modulo the octave.
func IsPerfectOctaveChromatic(a, b Pitch) bool {
	return Semitones(a, b)%12 == 0
}
