package harmony

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tonalworks/cadenza/theory"
)

// FunctionType enumerates the harmonic functions of functional
// harmony notation.
type FunctionType int

const (
	Tonic FunctionType = iota
	Subdominant
	Dominant
	Neapolitan
	Chopin
)

var functionSymbols = map[FunctionType]string{
	Tonic:       "T",
	Subdominant: "S",
	Dominant:    "D",
	Neapolitan:  "N",
	Chopin:      "Ch",
}

func (ft FunctionType) String() string {
	if s, ok := functionSymbols[ft]; ok {
		return s
	}
	return "?"
}

// Alteration marks a chromatically altered chord member.
type Alteration int

const (
	Lowered Alteration = iota
	Raised
)

func (a Alteration) String() string {
	if a == Raised {
		return ">"
	}
	return "<"
}

// Function is the implied harmony of a vertical slice: a functional
// symbol resolved against a key, an optional inversion (Position),
// figured extras (7, 9), chromatic alterations keyed by chord-member
// interval, and deflection flags for secondary relationships.
type Function struct {
	Type        FunctionType        `json:"type"`
	Root        theory.PitchClass   `json:"root"`
	Quality     theory.ChordQuality `json:"quality"`
	Position    int                 `json:"position"` // 0 = root position
	Extra       []int               `json:"extra,omitempty"`
	Alterations map[int]Alteration  `json:"alterations,omitempty"`
	RelatedBack bool                `json:"related_back,omitempty"`
	RelatedFwd  bool                `json:"related_fwd,omitempty"`
	Minor       bool                `json:"minor,omitempty"`
}

// NewFunction resolves a function type against a key, picking the
// conventional root and quality for that degree.
func NewFunction(ft FunctionType, key theory.Key) Function {
	f := Function{Type: ft, Quality: theory.MajorTriad}
	switch ft {
	case Tonic:
		f.Root = key.Tonic
	case Subdominant:
		f.Root = key.SubdominantRoot()
	case Dominant:
		f.Root = key.DominantRoot()
	case Neapolitan:
		f.Root = key.Tonic.Add(1)
	case Chopin:
		f.Root = key.Tonic
		f.Quality = theory.Dominant7
	}
	if key.Mode == theory.Minor && (ft == Tonic || ft == Subdominant) {
		f.Minor = true
		f.Quality = theory.MinorTriad
	}
	return f
}

// FromChord builds a plain function for a root and chord quality,
// used by exercises that specify chords directly rather than by
// functional symbol.
func FromChord(root theory.PitchClass, quality theory.ChordQuality) Function {
	return Function{Type: Tonic, Root: root, Quality: quality}
}

// HasSeventh reports whether the function carries a chordal seventh,
// either from its quality or from a figured extra.
func (f Function) HasSeventh() bool {
	switch f.Quality {
	case theory.Dominant7, theory.Major7, theory.Minor7,
		theory.HalfDiminished7, theory.FullyDiminished7:
		return true
	}
	for _, e := range f.Extra {
		if e == 7 {
			return true
		}
	}
	return false
}

// SeventhClass returns the pitch class of the chordal seventh, or -1
// when the function has none.
func (f Function) SeventhClass() theory.PitchClass {
	tones := f.Tones()
	if len(tones) >= 4 {
		return tones[3]
	}
	return -1
}

// Tones returns the chord-member pitch classes of the function in
// member order (root, third, fifth, then extras), with alterations
// applied.
func (f Function) Tones() theory.PitchClassSet {
	quality := f.Quality
	if f.Minor && quality == theory.MajorTriad {
		quality = theory.MinorTriad
	}
	tones, err := theory.ChordTones(f.Root, quality, 0)
	if err != nil {
		// Function values are built by the parser or constructors,
		// both of which only emit valid roots and qualities.
		return nil
	}

	for _, e := range f.Extra {
		switch e {
		case 7:
			if len(tones) < 4 {
				tones = append(tones, f.Root.Add(10))
			}
		case 9:
			tones = append(tones, f.Root.Add(2))
		}
	}

	if len(f.Alterations) > 0 {
		memberIntervals := []int{1, 3, 5, 7, 9}
		altered := make(theory.PitchClassSet, len(tones))
		copy(altered, tones)
		keys := make([]int, 0, len(f.Alterations))
		for k := range f.Alterations {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, member := range keys {
			idx := -1
			for i, m := range memberIntervals {
				if m == member && i < len(altered) {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			if f.Alterations[member] == Lowered {
				altered[idx] = altered[idx].Add(-1)
			} else {
				altered[idx] = altered[idx].Add(1)
			}
		}
		tones = altered
	}
	return tones
}

// BassClass returns the pitch class that must sound in the bass given
// the function's position.
func (f Function) BassClass() theory.PitchClass {
	tones := f.Tones()
	if len(tones) == 0 {
		return -1
	}
	if f.Position > 0 && f.Position < len(tones) {
		return tones[f.Position]
	}
	return tones[0]
}

// String renders the function in the text notation the parser accepts,
// e.g. "T{}", "D{extra: 7}", "S{position: 3}".
func (f Function) String() string {
	var parts []string
	if f.Position > 0 {
		parts = append(parts, fmt.Sprintf("position: %d", f.Position))
	}
	if len(f.Extra) > 0 {
		strs := make([]string, len(f.Extra))
		for i, e := range f.Extra {
			strs[i] = strconv.Itoa(e)
		}
		parts = append(parts, "extra: "+strings.Join(strs, ", "))
	}
	if len(f.Alterations) > 0 {
		keys := make([]int, 0, len(f.Alterations))
		for k := range f.Alterations {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		strs := make([]string, len(keys))
		for i, k := range keys {
			strs[i] = fmt.Sprintf("%d: %s", k, f.Alterations[k])
		}
		parts = append(parts, "alterations: "+strings.Join(strs, ", "))
	}
	if f.RelatedBack {
		parts = append(parts, "isRelatedBackwards")
	}
	if f.RelatedFwd {
		parts = append(parts, "isRelatedForwards")
	}
	if f.Minor {
		parts = append(parts, "minor")
	}
	return fmt.Sprintf("%s{%s}", f.Type, strings.Join(parts, "; "))
}

// ParseFunction parses a single function expression like "T{}",
// "D{extra: 7}" or "S{position: 3; minor}" against a key.
func ParseFunction(s string, key theory.Key) (Function, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Function{}, fmt.Errorf("empty function expression")
	}

	var ft FunctionType
	switch {
	case strings.HasPrefix(s, "Ch"):
		ft = Chopin
	case strings.HasPrefix(s, "T"):
		ft = Tonic
	case strings.HasPrefix(s, "S"):
		ft = Subdominant
	case strings.HasPrefix(s, "D"):
		ft = Dominant
	case strings.HasPrefix(s, "N"):
		ft = Neapolitan
	default:
		return Function{}, fmt.Errorf("unknown function symbol in %q", s)
	}

	f := NewFunction(ft, key)

	open := strings.Index(s, "{")
	closing := strings.LastIndex(s, "}")
	if open < 0 || closing < open {
		return f, nil
	}

	for _, part := range strings.Split(s[open+1:closing], ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if !found {
			switch key {
			case "isRelatedBackwards":
				f.RelatedBack = true
			case "isRelatedForwards":
				f.RelatedFwd = true
			case "minor":
				f.Minor = true
			default:
				return Function{}, fmt.Errorf("unknown function flag %q in %q", key, s)
			}
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "position":
			pos, err := strconv.Atoi(value)
			if err != nil {
				return Function{}, fmt.Errorf("bad position in %q: %w", s, err)
			}
			f.Position = pos
		case "extra":
			for _, item := range strings.Split(value, ",") {
				n, err := strconv.Atoi(strings.TrimSpace(item))
				if err != nil {
					return Function{}, fmt.Errorf("bad extra in %q: %w", s, err)
				}
				f.Extra = append(f.Extra, n)
			}
		case "alterations":
			f.Alterations = make(map[int]Alteration)
			for _, item := range strings.Split(value, ",") {
				member, alt, ok := strings.Cut(item, ":")
				if !ok {
					return Function{}, fmt.Errorf("bad alteration %q in %q", item, s)
				}
				n, err := strconv.Atoi(strings.TrimSpace(member))
				if err != nil {
					return Function{}, fmt.Errorf("bad alteration member in %q: %w", s, err)
				}
				switch strings.TrimSpace(alt) {
				case "<":
					f.Alterations[n] = Lowered
				case ">":
					f.Alterations[n] = Raised
				default:
					return Function{}, fmt.Errorf("bad alteration direction %q in %q", alt, s)
				}
			}
		default:
			return Function{}, fmt.Errorf("unknown function parameter %q in %q", key, s)
		}
	}
	return f, nil
}

// ParseFunctionSequence parses a sequence like "T{}; D{extra: 7}; T{}".
// Functions are separated by ";" at the top level only; semicolons
// inside braces belong to the function's own parameter list.
func ParseFunctionSequence(s string, key theory.Key) ([]Function, error) {
	var funcs []Function
	depth := 0
	start := 0
	flush := func(end int) error {
		expr := strings.TrimSpace(s[start:end])
		if expr == "" {
			return nil
		}
		f, err := ParseFunction(expr, key)
		if err != nil {
			return err
		}
		funcs = append(funcs, f)
		return nil
	}
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case ';':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}
	return funcs, nil
}
