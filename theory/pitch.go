package theory

import "fmt"

// Pitch is an equal-tempered pitch as a MIDI note number (0-127).
// It is an immutable value; all derived views (pitch class, octave,
// spelling) are computed on demand.
type Pitch int

// PitchNone marks an unused voice slot in a vertical slice.
const PitchNone Pitch = -1

// PitchClass represents a pitch class (0=C, 1=C#/Db, ..., 11=B).
type PitchClass int

// MIDI range accepted by the primitives.
const (
	MinPitch Pitch = 0
	MaxPitch Pitch = 127
)

// Class returns the pitch class of the pitch.
func (p Pitch) Class() PitchClass {
	return PitchClass(((int(p) % 12) + 12) % 12)
}

// Octave returns the scientific octave number (C4 = MIDI 60).
func (p Pitch) Octave() int {
	return int(p)/12 - 1
}

// Valid reports whether the pitch is inside the MIDI range.
func (p Pitch) Valid() bool {
	return p >= MinPitch && p <= MaxPitch
}

// Transpose returns the pitch shifted by the given number of semitones.
func (p Pitch) Transpose(semitones int) Pitch {
	return p + Pitch(semitones)
}

// String returns a chromatic name with octave, e.g. "C4" or "F#3".
// Key-aware spelling is provided by Spell.
func (p Pitch) String() string {
	if p == PitchNone {
		return "-"
	}
	return fmt.Sprintf("%s%d", sharpNames[p.Class()], p.Octave())
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// Name returns the sharp-preferred name of a pitch class.
func (pc PitchClass) Name() string {
	return sharpNames[((int(pc)%12)+12)%12]
}

// Add returns the pitch class shifted by the given number of semitones.
func (pc PitchClass) Add(semitones int) PitchClass {
	return PitchClass((((int(pc) + semitones) % 12) + 12) % 12)
}

// TheoryError reports an internal-contract violation: a primitive was
// called with a value no well-formed caller should ever pass. It is a
// programming-error class, fatal to the surrounding solve.
type TheoryError struct {
	Op  string
	Msg string
}

func (e *TheoryError) Error() string {
	return fmt.Sprintf("theory: %s: %s", e.Op, e.Msg)
}

func errInvalid(op, format string, args ...any) *TheoryError {
	return &TheoryError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
