package solver

import (
	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/theory"
)

// Step describes one vertical slice to be solved: the harmonic
// function sounding there plus the voices the exercise fixes (the
// given bass, melody or cantus firmus note).
type Step struct {
	Index    int
	Function harmony.Function
	// Alternatives lists further harmonic readings of the step, used
	// by melody harmonization where the given note may be the root,
	// third or fifth of its chord. Candidates are enumerated for the
	// main function first, then for each alternative in order.
	Alternatives []harmony.Function
	Fixed        map[harmony.Voice]theory.Pitch
	First        bool
	Last         bool
}

// Functions returns the step's harmonic readings in enumeration order.
func (s Step) Functions() []harmony.Function {
	return append([]harmony.Function{s.Function}, s.Alternatives...)
}

// CandidatePolicy selects how per-voice candidates are derived.
type CandidatePolicy int

const (
	// ChordTones admits every pitch in the voice's range whose class
	// is a member of the step's function; a free lowest voice is
	// pinned to the function's bass class so inversions are honored.
	ChordTones CandidatePolicy = iota
	// Consonances admits pitches consonant with the step's fixed
	// line, for note-against-note counterpoint. The first and last
	// steps are restricted to perfect consonances.
	Consonances
)

// Generator enumerates candidate chords for a step as the Cartesian
// product of per-voice candidate lists. Enumeration order is fixed:
// voices fill from the lowest up, each candidate list ascending, so
// the produced chords are in lexicographic tuple order regardless of
// map iteration or scheduling.
type Generator struct {
	voices harmony.VoiceSet
	policy CandidatePolicy
}

// NewGenerator builds a generator for a voice set and policy.
func NewGenerator(voices harmony.VoiceSet, policy CandidatePolicy) *Generator {
	return &Generator{voices: voices, policy: policy}
}

// maxConsonanceSpan caps how far the counterpoint line may sit from
// the cantus firmus, a compound perfect fifth.
const maxConsonanceSpan = 19

// consonantCandidateClasses mirrors the consonance hard rule: the
// classes a counterpoint candidate may form against the fixed line.
var consonantCandidateClasses = map[int]bool{0: true, 3: true, 4: true, 7: true, 8: true, 9: true}

// Candidates returns the candidate pitches for one voice at a step
// under one harmonic reading, in ascending order. A fixed voice
// yields exactly its fixed pitch.
func (g *Generator) Candidates(step Step, f harmony.Function, v harmony.Voice) []theory.Pitch {
	if p, ok := step.Fixed[v]; ok {
		return []theory.Pitch{p}
	}
	switch g.policy {
	case Consonances:
		return g.consonantCandidates(step, v)
	default:
		return g.chordToneCandidates(f, v)
	}
}

func (g *Generator) chordToneCandidates(f harmony.Function, v harmony.Voice) []theory.Pitch {
	r := harmony.RangeOf(v)
	var out []theory.Pitch
	if v == g.voices.Lowest() {
		bass := f.BassClass()
		for p := r.Min; p <= r.Max; p++ {
			if p.Class() == bass {
				out = append(out, p)
			}
		}
		return out
	}
	tones := f.Tones()
	for p := r.Min; p <= r.Max; p++ {
		if tones.Contains(p.Class()) {
			out = append(out, p)
		}
	}
	return out
}

func (g *Generator) consonantCandidates(step Step, v harmony.Voice) []theory.Pitch {
	anchor := theory.PitchNone
	for _, other := range g.voices {
		if p, ok := step.Fixed[other]; ok && other != v {
			anchor = p
			break
		}
	}
	if anchor == theory.PitchNone {
		return nil
	}
	r := harmony.RangeOf(v)
	var out []theory.Pitch
	for p := r.Min; p <= r.Max; p++ {
		span := theory.Semitones(p, anchor)
		if span > maxConsonanceSpan {
			continue
		}
		if step.First || step.Last {
			if !theory.IsPerfectOctaveChromatic(p, anchor) && !theory.IsPerfectFifthChromatic(p, anchor) {
				continue
			}
		} else if !consonantCandidateClasses[span%12] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Chords enumerates every candidate chord for the step: for each
// harmonic reading in order, the Cartesian product of per-voice
// candidates in lexicographic tuple order, lowest voice first.
func (g *Generator) Chords(step Step) []harmony.Chord {
	var out []harmony.Chord
	for _, f := range step.Functions() {
		out = append(out, g.chordsFor(step, f)...)
	}
	return out
}

func (g *Generator) chordsFor(step Step, f harmony.Function) []harmony.Chord {
	perVoice := make([][]theory.Pitch, len(g.voices))
	for i, v := range g.voices {
		perVoice[i] = g.Candidates(step, f, v)
		if len(perVoice[i]) == 0 {
			return nil
		}
	}

	var out []harmony.Chord
	base := harmony.NewChord(f)

	// Fill from the lowest voice up so the lowest voice varies
	// slowest.
	var fill func(chord harmony.Chord, idx int)
	fill = func(chord harmony.Chord, idx int) {
		if idx < 0 {
			out = append(out, chord)
			return
		}
		v := g.voices[idx]
		for _, p := range perVoice[idx] {
			fill(chord.WithPitch(v, p), idx-1)
		}
	}
	fill(base, len(g.voices)-1)
	return out
}
