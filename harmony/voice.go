package harmony

import (
	"github.com/tonalworks/cadenza/theory"
)

// Voice identifies one line in the texture. Four-part exercises use
// Soprano..Bass; two-voice counterpoint exercises use CantusFirmus and
// Counterpoint.
type Voice int

const (
	Soprano Voice = iota
	Alto
	Tenor
	Bass
	CantusFirmus
	Counterpoint
	NumVoices
)

var voiceNames = [NumVoices]string{"S", "A", "T", "B", "CF", "CP"}
var voiceLongNames = [NumVoices]string{"Soprano", "Alto", "Tenor", "Bass", "Cantus Firmus", "Counterpoint"}

func (v Voice) String() string {
	if v < 0 || v >= NumVoices {
		return "?"
	}
	return voiceNames[v]
}

// LongName returns the full display name of the voice.
func (v Voice) LongName() string {
	if v < 0 || v >= NumVoices {
		return "unknown"
	}
	return voiceLongNames[v]
}

// Range is an inclusive pitch range for a voice.
type Range struct {
	Min theory.Pitch `json:"min"`
	Max theory.Pitch `json:"max"`
}

// Contains reports whether a pitch lies inside the range.
func (r Range) Contains(p theory.Pitch) bool {
	return p >= r.Min && p <= r.Max
}

// voiceRanges holds the reference ranges (MIDI numbers). The two-voice
// exercise lines get wide ranges; the cantus firmus is conventionally
// the lower line.
var voiceRanges = [NumVoices]Range{
	Soprano:      {Min: 60, Max: 88},
	Alto:         {Min: 55, Max: 84},
	Tenor:        {Min: 48, Max: 79},
	Bass:         {Min: 40, Max: 72},
	CantusFirmus: {Min: 40, Max: 79},
	Counterpoint: {Min: 48, Max: 88},
}

// RangeOf returns the reference range for a voice.
func RangeOf(v Voice) Range {
	if v < 0 || v >= NumVoices {
		return Range{}
	}
	return voiceRanges[v]
}

// VoiceSet is the ordered set of voices active in an exercise, listed
// from highest to lowest. Order matters: the crossing rule compares
// adjacent entries, and candidate tuples are enumerated in reverse
// (lowest voice first).
type VoiceSet []Voice

// FourPart is the standard SATB texture.
func FourPart() VoiceSet {
	return VoiceSet{Soprano, Alto, Tenor, Bass}
}

// TwoPart is the counterpoint texture with the counterpoint line above
// the cantus firmus.
func TwoPart() VoiceSet {
	return VoiceSet{Counterpoint, CantusFirmus}
}

// TwoPartBelow places the counterpoint line under the cantus firmus.
func TwoPartBelow() VoiceSet {
	return VoiceSet{CantusFirmus, Counterpoint}
}

// Contains reports whether the set includes the voice.
func (vs VoiceSet) Contains(v Voice) bool {
	for _, member := range vs {
		if member == v {
			return true
		}
	}
	return false
}

// Upper returns all voices above the lowest one.
func (vs VoiceSet) Upper() VoiceSet {
	if len(vs) == 0 {
		return nil
	}
	return vs[:len(vs)-1]
}

// Lowest returns the bottom voice of the set.
func (vs VoiceSet) Lowest() Voice {
	if len(vs) == 0 {
		return -1
	}
	return vs[len(vs)-1]
}
