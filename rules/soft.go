package rules

import (
	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/theory"
	"gonum.org/v1/gonum/stat"
)

// Soft-rule component names. These are the keys of the weight map and
// of the per-candidate cost breakdown shown in explanations.
const (
	CostVoiceMotion     = "voice_motion"
	CostBassParallel    = "bass_parallel"
	CostDoubling        = "doubling"
	CostSpacingEvenness = "spacing_evenness"
)

// motionRule prices melodic motion per voice: holding a tone is free,
// a step costs one unit, and leaps grow quadratically with their size.
type motionRule struct{}

func (motionRule) Name() string { return CostVoiceMotion }

func (motionRule) Cost(t *harmony.Transition) float64 {
	if t.Prev == nil {
		return 0
	}
	var total float64
	for _, v := range t.Voices {
		m, ok := t.Motion(v)
		if !ok {
			continue
		}
		if m < 0 {
			m = -m
		}
		switch {
		case m == 0:
		case m <= 2:
			total++
		default:
			d := float64(m - 2)
			total += 1 + 0.25*d*d
		}
	}
	return total
}

// bassParallelRule prices the relationship of each upper voice to the
// lowest one: contrary motion is free, oblique motion cheap, similar
// motion dearer, and moving by the exact same amount dearest.
type bassParallelRule struct{}

func (bassParallelRule) Name() string { return CostBassParallel }

func (bassParallelRule) Cost(t *harmony.Transition) float64 {
	bm, ok := t.BassMotion()
	if !ok {
		return 0
	}
	var total float64
	for _, v := range t.Voices.Upper() {
		m, ok := t.Motion(v)
		if !ok {
			continue
		}
		switch {
		case m == 0 && bm == 0:
		case m == 0 || bm == 0:
			total += 0.5
		case (m > 0) != (bm > 0):
		case m == bm:
			total += 2
		default:
			total++
		}
	}
	return total
}

// doublingRule prices the chord-member distribution of a vertical
// slice: the root should appear at least twice, and the leading tone
// and chordal seventh must not be doubled. Two-voice textures have no
// doubling to police.
type doublingRule struct{}

func (doublingRule) Name() string { return CostDoubling }

func (doublingRule) Cost(t *harmony.Transition) float64 {
	if len(t.Voices) < 3 {
		return 0
	}
	var total float64
	root := t.Next.Function.Root
	switch t.Next.CountClass(root, t.Voices) {
	case 0:
		total += 5
	case 1:
		total++
	}
	if t.Next.CountClass(t.Key.LeadingTone(), t.Voices) >= 2 {
		total += 10
	}
	if t.Next.Function.HasSeventh() {
		if seventh := t.Next.Function.SeventhClass(); seventh >= 0 &&
			t.Next.CountClass(seventh, t.Voices) >= 2 {
			total += 8
		}
	}
	return total
}

// spacingEvennessRule prices uneven vertical layouts as the variance
// of the gaps between adjacent voices, scaled down so that ordinary
// spreads stay comparable with the other components.
type spacingEvennessRule struct{}

func (spacingEvennessRule) Name() string { return CostSpacingEvenness }

func (spacingEvennessRule) Cost(t *harmony.Transition) float64 {
	var gaps []float64
	for i := 0; i+1 < len(t.Voices); i++ {
		hi, lo := t.Next.Pitch(t.Voices[i]), t.Next.Pitch(t.Voices[i+1])
		if hi == theory.PitchNone || lo == theory.PitchNone {
			continue
		}
		gaps = append(gaps, float64(theory.Semitones(hi, lo)))
	}
	if len(gaps) < 2 {
		return 0
	}
	return 0.1 * stat.Variance(gaps, nil)
}

// softRegistry maps component names to rule instances.
var softRegistry = map[string]SoftRule{
	CostVoiceMotion:     motionRule{},
	CostBassParallel:    bassParallelRule{},
	CostDoubling:        doublingRule{},
	CostSpacingEvenness: spacingEvennessRule{},
}

// NewSoftRule looks up the soft rule registered under a component name.
func NewSoftRule(name string) (SoftRule, bool) {
	r, ok := softRegistry[name]
	return r, ok
}

// SoftNames lists every registered soft-rule component in a stable
// order.
func SoftNames() []string {
	return []string{CostVoiceMotion, CostBassParallel, CostDoubling, CostSpacingEvenness}
}

// Scorer evaluates a weighted sum of soft rules over a transition and
// keeps the per-component breakdown for explanations. A component with
// weight zero is skipped entirely.
type Scorer struct {
	rules   []SoftRule
	weights map[string]float64
}

// NewScorer builds a scorer over the registered soft rules with the
// given weights. Components missing from the weight map get weight
// zero.
func NewScorer(weights map[string]float64) *Scorer {
	s := &Scorer{weights: make(map[string]float64, len(weights))}
	for name, w := range weights {
		s.weights[name] = w
	}
	for _, name := range SoftNames() {
		if s.weights[name] != 0 {
			s.rules = append(s.rules, softRegistry[name])
		}
	}
	return s
}

// Score returns the total weighted cost of the transition together
// with the weighted per-component breakdown.
func (s *Scorer) Score(t *harmony.Transition) (float64, map[string]float64) {
	var total float64
	components := make(map[string]float64, len(s.rules))
	for _, r := range s.rules {
		c := s.weights[r.Name()] * r.Cost(t)
		components[r.Name()] = c
		total += c
	}
	return total, components
}

// Weights returns a copy of the scorer's weight map.
func (s *Scorer) Weights() map[string]float64 {
	out := make(map[string]float64, len(s.weights))
	for name, w := range s.weights {
		out[name] = w
	}
	return out
}
