package theory

import "fmt"

// Accidental is the chromatic alteration of a spelled note letter.
type Accidental int

const (
	DoubleFlat Accidental = iota - 2
	Flat
	Natural
	Sharp
	DoubleSharp
)

func (a Accidental) String() string {
	switch a {
	case DoubleFlat:
		return "bb"
	case Flat:
		return "b"
	case Sharp:
		return "#"
	case DoubleSharp:
		return "##"
	default:
		return ""
	}
}

// Spelling is a letter-name rendering of a pitch relative to a key.
type Spelling struct {
	Letter     byte       `json:"letter"` // 'A'..'G'
	Accidental Accidental `json:"accidental"`
	Octave     int        `json:"octave"`
}

func (s Spelling) String() string {
	return fmt.Sprintf("%c%s%d", s.Letter, s.Accidental, s.Octave)
}

// letterSemitones maps C,D,E,F,G,A,B to semitones above C.
var letterSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}
var letterNames = [7]byte{'C', 'D', 'E', 'F', 'G', 'A', 'B'}

// letterIndex returns 0..6 for letters C..B, or -1.
func letterIndex(letter byte) int {
	for i, l := range letterNames {
		if l == letter {
			return i
		}
	}
	return -1
}

// Spell renders a pitch as letter plus accidental in the context of a
// key. The mapping is a pure function of (pitch, key): sharp keys use
// sharp spellings for chromatic notes, flat keys use flat spellings,
// with the raised leading tone of minor keys always spelled as a sharp
// so that its resolution upward reads correctly. Explanation text
// quotes these spellings, so stability matters more than orthographic
// perfection in remote keys.
func Spell(p Pitch, k Key) (Spelling, error) {
	if !p.Valid() {
		return Spelling{}, errInvalid("Spell", "pitch %d out of MIDI range", p)
	}
	if !k.Valid() {
		return Spelling{}, errInvalid("Spell", "invalid key %+v", k)
	}

	pc := p.Class()
	name := sharpNames[pc]
	if k.Sharps() < 0 {
		name = flatNames[pc]
	}
	if k.Mode == Minor && pc == k.LeadingTone() && len(flatNames[pc]) > 1 {
		// Raised seventh in minor reads as a sharpened degree even in
		// flat keys (e.g. G# in A minor, C# in D minor).
		name = sharpNames[pc]
	}

	letter := name[0]
	acc := Natural
	if len(name) > 1 {
		if name[1] == '#' {
			acc = Sharp
		} else {
			acc = Flat
		}
	}

	return Spelling{Letter: letter, Accidental: acc, Octave: p.Octave()}, nil
}
