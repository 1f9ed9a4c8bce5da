// Package explain turns solver results into teaching material: for
// every step it reconstructs why the chosen chord won, which
// alternatives were rejected and by what rule, which factors were
// traded against each other, and where a student attempting the same
// exercise is most likely to slip.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/solver"
	"github.com/tonalworks/cadenza/theory"
)

// RejectedAlternative summarizes one discarded candidate: either a
// hard-rule kill or a survivor that scored worse than the choice.
type RejectedAlternative struct {
	Chord     harmony.Chord `json:"chord"`
	Rules     []rules.Tag   `json:"rules,omitempty"`
	CostDelta float64       `json:"cost_delta,omitempty"`
}

// StepExplanation explains one step of the solution.
type StepExplanation struct {
	Step            int                   `json:"step"`
	Chord           harmony.Chord         `json:"chord"`
	StepCost        float64               `json:"step_cost"`
	TotalCost       float64               `json:"total_cost"`
	Components      map[string]float64    `json:"components"`
	Dominant        string                `json:"dominant_component,omitempty"`
	PositiveFactors []string              `json:"positive_factors,omitempty"`
	WhyChosen       []string              `json:"why_chosen,omitempty"`
	Rejected        []RejectedAlternative `json:"rejected,omitempty"`
	Tradeoffs       []string              `json:"tradeoffs,omitempty"`
	PotentialErrors []string              `json:"potential_errors,omitempty"`
}

// Trace is the full explanation of a solve.
type Trace struct {
	Key    theory.Key        `json:"key"`
	Voices harmony.VoiceSet  `json:"voices"`
	Steps  []StepExplanation `json:"steps"`
}

// Engine builds traces from solver results.
type Engine struct {
	maxAlternatives int
}

// NewEngine returns an engine that keeps up to maxAlternatives
// rejected alternatives per step; zero or negative applies the
// default of 5.
func NewEngine(maxAlternatives int) *Engine {
	if maxAlternatives <= 0 {
		maxAlternatives = 5
	}
	return &Engine{maxAlternatives: maxAlternatives}
}

// Explain reconstructs the winning line through the beam layers and
// explains every step of it.
func (e *Engine) Explain(res *solver.Result) *Trace {
	trace := &Trace{Key: res.Key, Voices: res.Voices}
	path := winningPath(res)

	for i, chosen := range path {
		var prev *harmony.Chord
		if i > 0 {
			prev = &path[i-1].Chord
		}
		tr := &harmony.Transition{
			Step:   i,
			Prev:   prev,
			Next:   &path[i].Chord,
			Key:    res.Key,
			Voices: res.Voices,
		}
		trace.Steps = append(trace.Steps, e.step(chosen, res.Records[i], tr))
	}
	return trace
}

// ExplainStep explains one step solved in isolation, as the corrector
// does when it re-solves a single vertical slice: the record's best
// candidate is the chosen chord, prev is the (possibly nil) preceding
// chord it was checked against. Returns nil on an empty beam.
func (e *Engine) ExplainStep(rec solver.StepRecord, key theory.Key, voices harmony.VoiceSet, prev *harmony.Chord) *StepExplanation {
	if len(rec.Beam) == 0 {
		return nil
	}
	chosen := rec.Beam[0]
	tr := &harmony.Transition{
		Step:   rec.Step,
		Prev:   prev,
		Next:   &chosen.Chord,
		Key:    key,
		Voices: voices,
	}
	step := e.step(chosen, rec, tr)
	return &step
}

// step assembles the explanation of one chosen candidate against its
// step record.
func (e *Engine) step(chosen solver.Candidate, rec solver.StepRecord, tr *harmony.Transition) StepExplanation {
	return StepExplanation{
		Step:            rec.Step,
		Chord:           chosen.Chord,
		StepCost:        chosen.StepCost,
		TotalCost:       chosen.TotalCost,
		Components:      chosen.Components,
		Dominant:        dominantComponent(chosen.Components),
		PositiveFactors: positiveFactors(tr),
		WhyChosen:       e.whyChosen(chosen, rec, tr),
		Rejected:        e.rejected(chosen, rec),
		Tradeoffs:       tradeoffs(chosen, tr),
		PotentialErrors: potentialErrors(tr),
	}
}

// winningPath walks beam parent pointers back from the best final
// candidate.
func winningPath(res *solver.Result) []solver.Candidate {
	path := make([]solver.Candidate, len(res.Records))
	idx := 0
	for i := len(res.Records) - 1; i >= 0; i-- {
		path[i] = res.Records[i].Beam[idx]
		idx = path[i].Parent
		if idx < 0 {
			idx = 0
		}
	}
	return path
}

// dominantComponent names the largest weighted cost component, empty
// when the step cost is zero.
func dominantComponent(components map[string]float64) string {
	best, bestCost := "", 0.0
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if components[name] > bestCost {
			best, bestCost = name, components[name]
		}
	}
	return best
}

func positiveFactors(tr *harmony.Transition) []string {
	if tr.Prev == nil {
		return []string{"opening chord, chosen for spacing and doubling alone"}
	}
	var factors []string
	bm, _ := tr.BassMotion()
	for _, v := range tr.Voices.Upper() {
		m, ok := tr.Motion(v)
		if !ok {
			continue
		}
		switch {
		case m == 0:
			factors = append(factors, fmt.Sprintf("%s holds its tone", v.LongName()))
		case m >= -2 && m <= 2:
			factors = append(factors, fmt.Sprintf("%s moves by step (%+d semitones)", v.LongName(), m))
		}
		if bm != 0 && m != 0 && (bm > 0) != (m > 0) {
			factors = append(factors, fmt.Sprintf("%s moves contrary to the bass", v.LongName()))
		}
	}
	root := tr.Next.Function.Root
	if n := tr.Next.CountClass(root, tr.Voices); n >= 2 {
		factors = append(factors, fmt.Sprintf("root doubled (%d voices)", n))
	}
	return factors
}

// whyChosen compares the winner against the best surviving rival in
// the same beam.
func (e *Engine) whyChosen(chosen solver.Candidate, rec solver.StepRecord, tr *harmony.Transition) []string {
	var rival *solver.Candidate
	for i := range rec.Beam {
		if harmony.CompareTuple(rec.Beam[i].Chord, chosen.Chord, tr.Voices) != 0 {
			rival = &rec.Beam[i]
			break
		}
	}
	if rival == nil {
		return []string{"only one candidate survived the hard rules"}
	}

	var reasons []string
	if delta := rival.TotalCost - chosen.TotalCost; delta >= 0 {
		reasons = append(reasons, fmt.Sprintf(
			"beat the closest rival by %.2f cost (%.2f vs %.2f)",
			delta, chosen.TotalCost, rival.TotalCost))
	} else {
		// The winning line does not have to win every step locally.
		reasons = append(reasons, fmt.Sprintf(
			"locally %.2f costlier than the best rival, but its continuation wins overall",
			-delta))
	}

	if tr.Prev != nil {
		chosenMotion := totalMotion(tr.Prev, &chosen.Chord, tr.Voices)
		rivalMotion := totalMotion(tr.Prev, &rival.Chord, tr.Voices)
		if chosenMotion < rivalMotion {
			reasons = append(reasons, fmt.Sprintf(
				"less total voice motion (%d vs %d semitones)", chosenMotion, rivalMotion))
		}
		chosenContrary := contraryCount(tr.Prev, &chosen.Chord, tr.Voices)
		rivalContrary := contraryCount(tr.Prev, &rival.Chord, tr.Voices)
		if chosenContrary > rivalContrary {
			reasons = append(reasons, fmt.Sprintf(
				"more contrary motion against the bass (%d vs %d voices)", chosenContrary, rivalContrary))
		}
	}
	return reasons
}

func (e *Engine) rejected(chosen solver.Candidate, rec solver.StepRecord) []RejectedAlternative {
	var out []RejectedAlternative
	for _, r := range rec.Rejected {
		if len(out) >= e.maxAlternatives {
			break
		}
		tags := make([]rules.Tag, 0, len(r.Violations))
		seen := make(map[rules.Tag]bool)
		for _, v := range r.Violations {
			if !seen[v.Rule] {
				seen[v.Rule] = true
				tags = append(tags, v.Rule)
			}
		}
		out = append(out, RejectedAlternative{Chord: r.Chord, Rules: tags})
	}
	for _, c := range rec.Beam {
		if len(out) >= e.maxAlternatives {
			break
		}
		if c.TotalCost > chosen.TotalCost {
			out = append(out, RejectedAlternative{
				Chord:     c.Chord,
				CostDelta: c.TotalCost - chosen.TotalCost,
			})
		}
	}
	return out
}

func tradeoffs(chosen solver.Candidate, tr *harmony.Transition) []string {
	if tr.Prev == nil {
		return nil
	}
	var out []string
	motion := totalMotion(tr.Prev, tr.Next, tr.Voices)
	contrary := contraryCount(tr.Prev, tr.Next, tr.Voices)
	switch {
	case motion < 5 && contrary < 2:
		out = append(out, "minimal motion preferred over contrary motion; voices stay near their previous tones")
	case motion > 10 && contrary >= 2:
		out = append(out, "contrary motion preferred over minimal motion; voices travel further for better counterpoint")
	}
	if chosen.Components[rules.CostDoubling] == 0 && chosen.Components[rules.CostSpacingEvenness] > 0.5 {
		out = append(out, "root doubling kept at the price of uneven spacing")
	}
	return out
}

func potentialErrors(tr *harmony.Transition) []string {
	var out []string
	for _, v := range tr.Voices {
		p := tr.Next.Pitch(v)
		if p == theory.PitchNone {
			continue
		}
		r := harmony.RangeOf(v)
		if p <= r.Min+2 || p >= r.Max-2 {
			out = append(out, fmt.Sprintf("%s sits near its range limit at %s", v.LongName(), p))
		}
	}
	if tr.Prev == nil {
		return out
	}
	bm, _ := tr.BassMotion()
	for _, v := range tr.Voices.Upper() {
		m, ok := tr.Motion(v)
		if !ok {
			continue
		}
		if m > 7 || m < -7 {
			out = append(out, fmt.Sprintf("%s leaps %d semitones; watch the voice leading into the next chord", v.LongName(), abs(m)))
		}
		if bm != 0 && m != 0 && (bm > 0) == (m > 0) {
			out = append(out, fmt.Sprintf("%s moves with the bass; the next step must avoid parallels", v.LongName()))
		}
	}
	return out
}

func totalMotion(prev, next *harmony.Chord, voices harmony.VoiceSet) int {
	total := 0
	for _, v := range voices.Upper() {
		a, b := prev.Pitch(v), next.Pitch(v)
		if a == theory.PitchNone || b == theory.PitchNone {
			continue
		}
		total += abs(int(b) - int(a))
	}
	return total
}

func contraryCount(prev, next *harmony.Chord, voices harmony.VoiceSet) int {
	low := voices.Lowest()
	bm := int(next.Pitch(low)) - int(prev.Pitch(low))
	if bm == 0 {
		return 0
	}
	count := 0
	for _, v := range voices.Upper() {
		a, b := prev.Pitch(v), next.Pitch(v)
		if a == theory.PitchNone || b == theory.PitchNone {
			continue
		}
		m := int(b) - int(a)
		if m != 0 && (m > 0) != (bm > 0) {
			count++
		}
	}
	return count
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Render formats the trace as readable text, one block per step.
func (t *Trace) Render() string {
	var b strings.Builder
	costs := make([]float64, len(t.Steps))
	for i, s := range t.Steps {
		costs[i] = s.StepCost
	}
	fmt.Fprintf(&b, "Key %s, %d steps, mean step cost %.2f\n",
		t.Key, len(t.Steps), stat.Mean(costs, nil))

	for _, s := range t.Steps {
		fmt.Fprintf(&b, "\n=== Step %d: %s ===\n", s.Step+1, s.Chord.Function.String())
		for _, v := range t.Voices {
			p := s.Chord.Pitch(v)
			if p == theory.PitchNone {
				continue
			}
			fmt.Fprintf(&b, "  %-13s %s (MIDI %d)\n", v.LongName()+":", p, int(p))
		}
		fmt.Fprintf(&b, "  cost %.2f (total %.2f)", s.StepCost, s.TotalCost)
		if s.Dominant != "" {
			fmt.Fprintf(&b, ", dominated by %s", s.Dominant)
		}
		b.WriteString("\n")

		writeList(&b, "Positive factors", s.PositiveFactors, "+")
		writeList(&b, "Why chosen", s.WhyChosen, ">")

		if len(s.Rejected) > 0 {
			fmt.Fprintf(&b, "Rejected alternatives (%d shown):\n", len(s.Rejected))
			for i, alt := range s.Rejected {
				if len(alt.Rules) > 0 {
					names := make([]string, len(alt.Rules))
					for j, tag := range alt.Rules {
						names[j] = string(tag)
					}
					fmt.Fprintf(&b, "  %d. %s breaks %s\n", i+1, alt.Chord, strings.Join(names, ", "))
				} else {
					fmt.Fprintf(&b, "  %d. %s costs %.2f more\n", i+1, alt.Chord, alt.CostDelta)
				}
			}
		}

		writeList(&b, "Tradeoffs", s.Tradeoffs, "~")
		writeList(&b, "Watch for", s.PotentialErrors, "!")
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string, marker string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  %s %s\n", marker, item)
	}
}
