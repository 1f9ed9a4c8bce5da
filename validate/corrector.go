package validate

import (
	"context"
	"sort"

	"github.com/tonalworks/cadenza/explain"
	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/logging"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/solver"
	"github.com/tonalworks/cadenza/theory"
)

// Correction records one repaired step: the chord swap, the issues
// that forced it, and the explanation of why the replacement won over
// its alternatives.
type Correction struct {
	Step     int                      `json:"step"`
	Original harmony.Chord            `json:"original"`
	Fixed    harmony.Chord            `json:"fixed"`
	Issues   []Issue                  `json:"issues"`
	Trace    *explain.StepExplanation `json:"trace,omitempty"`
}

// CorrectionResult is the outcome of a correction pass: the updated
// harmony, the list of repairs, and a fresh validation report over
// the result.
type CorrectionResult struct {
	Chords      []harmony.Chord `json:"chords"`
	Corrections []Correction    `json:"corrections,omitempty"`
	Report      Report          `json:"report"`
}

// maxCorrectionRejections bounds the rejection sample kept per
// re-solved step, mirroring the solver's default.
const maxCorrectionRejections = 12

// Corrector repairs localized rule violations by re-solving each
// offending step against its fixed neighborhood: the lowest voice
// keeps the given pitch, the upper voices are regenerated, and a
// candidate must satisfy the hard rules against both the previous and
// the following chord.
type Corrector struct {
	profile rules.Profile
	voices  harmony.VoiceSet
	checker *rules.Checker
	scorer  *rules.Scorer
	gen     *solver.Generator
	engine  *explain.Engine
	log     logging.Logger
}

// NewCorrector builds a corrector for a profile and voice set. The
// candidate policy follows the profile: a profile that enforces
// vertical consonance gets counterpoint candidates, everything else
// gets chord tones.
func NewCorrector(profile rules.Profile, voices harmony.VoiceSet) (*Corrector, error) {
	checker, err := profile.Checker()
	if err != nil {
		return nil, err
	}
	policy := solver.ChordTones
	if profile.Enables(rules.TagConsonance) {
		policy = solver.Consonances
	}
	return &Corrector{
		profile: profile,
		voices:  voices,
		checker: checker,
		scorer:  profile.Scorer(),
		gen:     solver.NewGenerator(voices, policy),
		engine:  explain.NewEngine(0),
		log: logging.WithFields(logging.Fields{
			"component": "corrector",
			"profile":   profile.Name,
		}),
	}, nil
}

// Correct locates violations and repairs the offending steps in
// ascending order, so later checks run against already-corrected
// predecessors. Steps it cannot repair keep their original chord and
// stay visible in the final report. Cancellation is honored between
// steps.
func (c *Corrector) Correct(ctx context.Context, chords []harmony.Chord, key theory.Key) (*CorrectionResult, error) {
	if len(chords) == 0 {
		return nil, &solver.InvalidInputError{Step: -1, Msg: "empty harmony"}
	}
	issues, err := LocateViolations(chords, key, c.voices, c.profile)
	if err != nil {
		return nil, &solver.InvalidInputError{Step: -1, Msg: err.Error()}
	}

	byStep := make(map[int][]Issue)
	steps := make([]int, 0, len(byStep))
	for _, issue := range issues {
		if issue.Severity != SeverityError {
			continue
		}
		if _, seen := byStep[issue.Step]; !seen {
			steps = append(steps, issue.Step)
		}
		byStep[issue.Step] = append(byStep[issue.Step], issue)
	}
	sort.Ints(steps)

	out := make([]harmony.Chord, len(chords))
	copy(out, chords)
	result := &CorrectionResult{Chords: out}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			return nil, &solver.CancelledError{Step: step - 1, Err: ctx.Err()}
		default:
		}

		rec, ok := c.resolveStep(out, step, key)
		if !ok {
			c.log.Warn("step not correctable", logging.Fields{"step": step})
			continue
		}
		var prev *harmony.Chord
		if step > 0 {
			prev = &out[step-1]
		}
		fixed := rec.Beam[0].Chord
		result.Corrections = append(result.Corrections, Correction{
			Step:     step,
			Original: out[step],
			Fixed:    fixed,
			Issues:   byStep[step],
			Trace:    c.engine.ExplainStep(rec, key, c.voices, prev),
		})
		out[step] = fixed
	}

	finalIssues, err := LocateViolations(out, key, c.voices, c.profile)
	if err != nil {
		return nil, &solver.InvalidInputError{Step: -1, Msg: err.Error()}
	}
	result.Report = NewReport(finalIssues, len(out))
	return result, nil
}

// resolveStep regenerates one vertical slice with the lowest voice
// pinned and records every candidate the way a solver step does:
// hard-rule kills in the rejection sample, survivors scored and
// ordered, the repair at the head of the beam. A survivor's step cost
// is its cost against the previous chord; the accumulated cost adds
// the cost into the following chord, so the ordering picks the
// candidate cheapest for the whole neighborhood. ok is false when no
// candidate clears the hard rules against both neighbors.
func (c *Corrector) resolveStep(chords []harmony.Chord, step int, key theory.Key) (solver.StepRecord, bool) {
	low := c.voices.Lowest()
	genStep := solver.Step{
		Index:    step,
		Function: chords[step].Function,
		Fixed:    map[harmony.Voice]theory.Pitch{low: chords[step].Pitch(low)},
		First:    step == 0,
		Last:     step == len(chords)-1,
	}

	var prev, next *harmony.Chord
	if step > 0 {
		prev = &chords[step-1]
	}
	if step < len(chords)-1 {
		next = &chords[step+1]
	}

	rec := solver.StepRecord{Step: step, Function: chords[step].Function}

	candidates := c.gen.Chords(genStep)
	for i := range candidates {
		cand := &candidates[i]
		rec.Explored++
		in := &harmony.Transition{Step: step, Prev: prev, Next: cand, Key: key, Voices: c.voices}
		violations := c.checker.Check(in)
		if len(violations) == 0 && next != nil {
			outTr := &harmony.Transition{Step: step + 1, Prev: cand, Next: next, Key: key, Voices: c.voices}
			violations = c.checker.Check(outTr)
		}
		if len(violations) > 0 {
			if len(rec.Rejected) < maxCorrectionRejections {
				rec.Rejected = append(rec.Rejected, solver.Rejection{
					Chord:      *cand,
					Parent:     -1,
					Violations: violations,
				})
			}
			continue
		}
		cost, components := c.scorer.Score(in)
		total := cost
		if next != nil {
			outTr := &harmony.Transition{Step: step + 1, Prev: cand, Next: next, Key: key, Voices: c.voices}
			outCost, _ := c.scorer.Score(outTr)
			total += outCost
		}
		rec.Beam = append(rec.Beam, solver.Candidate{
			Chord:      *cand,
			Parent:     -1,
			StepCost:   cost,
			TotalCost:  total,
			Components: components,
		})
	}
	if len(rec.Beam) == 0 {
		return rec, false
	}
	solver.SortCandidates(rec.Beam, c.voices)
	return rec, true
}
