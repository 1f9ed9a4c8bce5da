// Package solver implements the beam-search core of the harmonization
// engine: candidate generation, hard-rule filtering, soft-cost
// scoring, and pruning to a fixed beam width with deterministic
// tie-breaking. Partial solutions are immutable rows in per-step
// layers linked by parent indices, so reconstructing the best line is
// a walk back through the layers.
package solver

import (
	"context"
	"sort"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/logging"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/theory"
)

// Candidate is one scored, accepted extension of a beam branch.
// Parent indexes the previous step's beam; -1 on the first step.
type Candidate struct {
	Chord      harmony.Chord      `json:"chord"`
	Parent     int                `json:"parent"`
	StepCost   float64            `json:"step_cost"`
	TotalCost  float64            `json:"total_cost"`
	Components map[string]float64 `json:"components"`
}

// Rejection records a candidate killed by hard rules, kept for the
// explanation engine.
type Rejection struct {
	Chord      harmony.Chord     `json:"chord"`
	Parent     int               `json:"parent"`
	Violations []rules.Violation `json:"violations"`
}

// StepRecord is the audit trail of one solved step: the surviving
// beam (best first), a bounded sample of rejections, and counts.
type StepRecord struct {
	Step     int              `json:"step"`
	Function harmony.Function `json:"function"`
	Beam     []Candidate      `json:"beam"`
	Rejected []Rejection      `json:"rejected,omitempty"`
	Explored int              `json:"explored"`
}

// Config tunes the search.
type Config struct {
	// BeamWidth is the number of branches kept per step.
	BeamWidth int
	// MaxRejections bounds the rejection sample kept per step.
	MaxRejections int
	// MaxSteps bounds the input length; 0 means unbounded.
	MaxSteps int
}

// DefaultConfig returns the stock search configuration.
func DefaultConfig() Config {
	return Config{
		BeamWidth:     10,
		MaxRejections: 12,
		MaxSteps:      256,
	}
}

// Result holds the chosen chord per step plus the per-step records
// the explanation engine consumes.
type Result struct {
	Chords  []harmony.Chord  `json:"chords"`
	Records []StepRecord     `json:"records"`
	Key     theory.Key       `json:"key"`
	Voices  harmony.VoiceSet `json:"voices"`
}

// Solver runs beam search under a rule profile. A Solver is safe for
// concurrent use: each Solve call keeps all search state on its own
// stack and heap.
type Solver struct {
	cfg     Config
	voices  harmony.VoiceSet
	gen     *Generator
	checker *rules.Checker
	scorer  *rules.Scorer
	log     logging.Logger
}

// New builds a solver for a rule profile, voice set and candidate
// policy.
func New(profile rules.Profile, voices harmony.VoiceSet, policy CandidatePolicy, cfg Config) (*Solver, error) {
	if cfg.BeamWidth < 1 {
		return nil, &InvalidInputError{Step: -1, Msg: "beam width must be at least 1"}
	}
	if len(voices) < 2 {
		return nil, &InvalidInputError{Step: -1, Msg: "voice set needs at least two voices"}
	}
	checker, err := profile.Checker()
	if err != nil {
		return nil, &InvalidInputError{Step: -1, Msg: err.Error()}
	}
	return &Solver{
		cfg:     cfg,
		voices:  voices,
		gen:     NewGenerator(voices, policy),
		checker: checker,
		scorer:  profile.Scorer(),
		log: logging.WithFields(logging.Fields{
			"component": "solver",
			"profile":   profile.Name,
		}),
	}, nil
}

// precheck validates the step sequence before any search runs, so
// malformed input never reads as "unsolvable".
func (s *Solver) precheck(steps []Step) error {
	if len(steps) == 0 {
		return &InvalidInputError{Step: -1, Msg: "empty step sequence"}
	}
	if s.cfg.MaxSteps > 0 && len(steps) > s.cfg.MaxSteps {
		return &InvalidInputError{Step: -1, Msg: "step sequence exceeds configured maximum"}
	}
	for i, step := range steps {
		if len(step.Function.Tones()) == 0 {
			return &InvalidInputError{Step: i, Msg: "function has no realizable tones"}
		}
		for _, v := range s.voices {
			p, ok := step.Fixed[v]
			if !ok {
				continue
			}
			if !p.Valid() {
				return &InvalidInputError{Step: i, Msg: "fixed pitch out of MIDI range"}
			}
			if r := harmony.RangeOf(v); !r.Contains(p) {
				return &InvalidInputError{Step: i, Msg: "fixed " + v.LongName() + " pitch " + p.String() + " outside voice range"}
			}
		}
	}
	return nil
}

// Solve runs the full Expand/Filter/Score/Prune loop over the steps.
// Cancellation is honored at step boundaries only; a started step
// always finishes.
func (s *Solver) Solve(ctx context.Context, key theory.Key, steps []Step) (*Result, error) {
	if !key.Valid() {
		return nil, &InvalidInputError{Step: -1, Msg: "invalid key"}
	}
	if err := s.precheck(steps); err != nil {
		return nil, err
	}

	records := make([]StepRecord, 0, len(steps))
	var beam []Candidate

	for i := range steps {
		select {
		case <-ctx.Done():
			return nil, &CancelledError{Step: i - 1, Err: ctx.Err()}
		default:
		}

		step := steps[i]
		step.Index = i
		step.First = i == 0
		step.Last = i == len(steps)-1

		record, err := s.solveStep(key, step, beam)
		if err != nil {
			return nil, err
		}
		beam = record.Beam
		records = append(records, record)

		s.log.Debug("step solved", logging.Fields{
			"step":     i,
			"explored": record.Explored,
			"beam":     len(record.Beam),
			"best":     record.Beam[0].TotalCost,
		})
	}

	return &Result{
		Chords:  reconstruct(records),
		Records: records,
		Key:     key,
		Voices:  s.voices,
	}, nil
}

// solveStep expands every beam branch with every candidate chord,
// filters through the hard rules, scores survivors and prunes to the
// beam width.
func (s *Solver) solveStep(key theory.Key, step Step, beam []Candidate) (StepRecord, error) {
	record := StepRecord{Step: step.Index, Function: step.Function}

	chords := s.gen.Chords(step)
	if len(chords) == 0 {
		return record, &NoSolutionError{Step: step.Index}
	}

	parents := beam
	if step.Index == 0 {
		parents = []Candidate{{Parent: -1}}
	}

	var accepted []Candidate
	ruleHits := make(map[rules.Tag]int)

	for pi := range parents {
		var prev *harmony.Chord
		var prevCost float64
		if step.Index > 0 {
			prev = &parents[pi].Chord
			prevCost = parents[pi].TotalCost
		}
		for ci := range chords {
			record.Explored++
			tr := &harmony.Transition{
				Step:   step.Index,
				Prev:   prev,
				Next:   &chords[ci],
				Key:    key,
				Voices: s.voices,
			}
			if violations := s.checker.Check(tr); len(violations) > 0 {
				for _, v := range violations {
					ruleHits[v.Rule]++
				}
				if len(record.Rejected) < s.cfg.MaxRejections {
					record.Rejected = append(record.Rejected, Rejection{
						Chord:      chords[ci],
						Parent:     parentIndex(step.Index, pi),
						Violations: violations,
					})
				}
				continue
			}
			cost, components := s.scorer.Score(tr)
			accepted = append(accepted, Candidate{
				Chord:      chords[ci],
				Parent:     parentIndex(step.Index, pi),
				StepCost:   cost,
				TotalCost:  prevCost + cost,
				Components: components,
			})
		}
	}

	if len(accepted) == 0 {
		return record, &NoSolutionError{Step: step.Index, Rules: rankTags(ruleHits)}
	}

	SortCandidates(accepted, s.voices)
	if len(accepted) > s.cfg.BeamWidth {
		accepted = accepted[:s.cfg.BeamWidth]
	}
	record.Beam = accepted
	return record, nil
}

func parentIndex(step, pi int) int {
	if step == 0 {
		return -1
	}
	return pi
}

// SortCandidates orders candidates by accumulated cost, then by the
// lexicographic pitch tuple (lowest voice first), then by parent
// index. The order is total, so pruning is reproducible bit for bit.
// The corrector uses the same order when re-solving a single step.
func SortCandidates(cands []Candidate, voices harmony.VoiceSet) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.TotalCost != b.TotalCost {
			return a.TotalCost < b.TotalCost
		}
		if c := harmony.CompareTuple(a.Chord, b.Chord, voices); c != 0 {
			return c < 0
		}
		return a.Parent < b.Parent
	})
}

// rankTags orders blocking rules by hit count descending, name
// ascending on ties.
func rankTags(hits map[rules.Tag]int) []rules.Tag {
	tags := make([]rules.Tag, 0, len(hits))
	for tag := range hits {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if hits[tags[i]] != hits[tags[j]] {
			return hits[tags[i]] > hits[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}

// reconstruct walks parent pointers back from the best final
// candidate to produce the chosen chord per step.
func reconstruct(records []StepRecord) []harmony.Chord {
	chords := make([]harmony.Chord, len(records))
	idx := 0
	for i := len(records) - 1; i >= 0; i-- {
		best := records[i].Beam[idx]
		chords[i] = best.Chord
		idx = best.Parent
		if idx < 0 {
			idx = 0
		}
	}
	return chords
}
