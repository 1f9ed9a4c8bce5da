package theory

// Mode distinguishes the two diatonic modes the engine harmonizes in.
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "minor"
	}
	return "major"
}

// Key represents a tonal center: a tonic pitch class plus a mode.
type Key struct {
	Tonic PitchClass `json:"tonic"`
	Mode  Mode       `json:"mode"`
}

// signatureFifths maps a major-key tonic pitch class to its position on
// the circle of fifths (positive = sharp keys, negative = flat keys).
var signatureFifths = [12]int{0, -5, 2, -3, 4, -1, 6, 1, -4, 3, -2, 5}

// majorDegrees lists scale degrees of the major scale in semitones
// above the tonic. minorDegrees is the natural minor scale.
var (
	majorDegrees = [7]int{0, 2, 4, 5, 7, 9, 11}
	minorDegrees = [7]int{0, 2, 3, 5, 7, 8, 10}
)

// NewKey validates and constructs a key.
func NewKey(tonic PitchClass, mode Mode) (Key, error) {
	if tonic < 0 || tonic > 11 {
		return Key{}, errInvalid("NewKey", "tonic pitch class %d out of range [0,11]", tonic)
	}
	if mode != Major && mode != Minor {
		return Key{}, errInvalid("NewKey", "unknown mode %d", mode)
	}
	return Key{Tonic: tonic, Mode: mode}, nil
}

// Valid reports whether the key holds a legal tonic and mode.
func (k Key) Valid() bool {
	return k.Tonic >= 0 && k.Tonic <= 11 && (k.Mode == Major || k.Mode == Minor)
}

// Sharps returns the number of accidentals in the key signature,
// positive for sharp keys and negative for flat keys.
func (k Key) Sharps() int {
	tonic := k.Tonic
	if k.Mode == Minor {
		// Relative major sits a minor third above.
		tonic = tonic.Add(3)
	}
	return signatureFifths[tonic]
}

// Degree returns the 1-based scale degree of a pitch class in the key,
// or 0 if the pitch class is chromatic (not in the scale).
func (k Key) Degree(pc PitchClass) int {
	degrees := majorDegrees
	if k.Mode == Minor {
		degrees = minorDegrees
	}
	rel := int(pc.Add(-int(k.Tonic)))
	for i, d := range degrees {
		if d == rel {
			return i + 1
		}
	}
	// The raised leading tone counts as degree 7 in minor.
	if k.Mode == Minor && rel == 11 {
		return 7
	}
	return 0
}

// LeadingTone returns the pitch class a semitone below the tonic. In
// minor this is the raised seventh degree, which carries the same
// upward resolution tendency as in major.
func (k Key) LeadingTone() PitchClass {
	return k.Tonic.Add(-1)
}

// DominantRoot returns the pitch class of the dominant scale degree.
func (k Key) DominantRoot() PitchClass {
	return k.Tonic.Add(7)
}

// SubdominantRoot returns the pitch class of the subdominant degree.
func (k Key) SubdominantRoot() PitchClass {
	return k.Tonic.Add(5)
}

func (k Key) String() string {
	name := sharpNames[k.Tonic]
	if k.Sharps() < 0 {
		name = flatNames[k.Tonic]
	}
	return name + " " + k.Mode.String()
}
