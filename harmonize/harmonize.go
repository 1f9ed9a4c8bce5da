// Package harmonize is the engine's front door. It assembles the
// generator, rule profile, beam solver, explanation engine and
// corrector behind two calls: Solve for producing a harmony from a
// given line, Correct for repairing an existing one.
package harmonize

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonalworks/cadenza/explain"
	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/logging"
	"github.com/tonalworks/cadenza/solver"
	"github.com/tonalworks/cadenza/theory"
	"github.com/tonalworks/cadenza/validate"
)

// Exercise is the musical input of a solve: the given line plus an
// optional harmonic-function sequence. An empty sequence makes the
// engine imply functions from the line itself.
type Exercise struct {
	Line      []theory.Pitch
	Functions []harmony.Function
}

// ParseExercise builds an exercise from a pitch line and a function
// string such as "T{}; D{extra: 7}; T{}". An empty string leaves the
// functions implied.
func ParseExercise(line []theory.Pitch, functions string, key theory.Key) (Exercise, error) {
	ex := Exercise{Line: line}
	if strings.TrimSpace(functions) == "" {
		return ex, nil
	}
	funcs, err := harmony.ParseFunctionSequence(functions, key)
	if err != nil {
		return Exercise{}, err
	}
	ex.Functions = funcs
	return ex, nil
}

// Result is the outcome of a completed solve.
type Result struct {
	RunID   uuid.UUID       `json:"run_id"`
	Type    ExerciseType    `json:"type"`
	Chords  []harmony.Chord `json:"chords"`
	Trace   *explain.Trace  `json:"trace"`
	Elapsed time.Duration   `json:"elapsed"`
	Text    string          `json:"-"`
}

// CorrectionResult is the outcome of a correction run.
type CorrectionResult struct {
	RunID   uuid.UUID     `json:"run_id"`
	Elapsed time.Duration `json:"elapsed"`
	validate.CorrectionResult
}

// Solve harmonizes the exercise under the context's profile and
// texture. Errors are the solver's typed errors: *InvalidInputError,
// *NoSolutionError, *CancelledError.
func Solve(ctx context.Context, ex Exercise, ec ExerciseContext) (*Result, error) {
	start := time.Now()
	runID := uuid.New()
	log := logging.WithFields(logging.Fields{
		"component": "harmonize",
		"run_id":    runID.String(),
		"type":      string(ec.Type),
	})

	if ec.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ec.Budget)
		defer cancel()
	}

	steps, policy, err := buildSteps(ex, ec)
	if err != nil {
		return nil, err
	}

	cfg := solver.DefaultConfig()
	if ec.BeamWidth > 0 {
		cfg.BeamWidth = ec.BeamWidth
	}
	s, err := solver.New(ec.Profile, ec.Voices, policy, cfg)
	if err != nil {
		return nil, err
	}

	res, err := s.Solve(ctx, ec.Key, steps)
	if err != nil {
		return nil, err
	}

	trace := explain.NewEngine(0).Explain(res)
	result := &Result{
		RunID:   runID,
		Type:    ec.Type,
		Chords:  res.Chords,
		Trace:   trace,
		Elapsed: time.Since(start),
		Text:    trace.Render(),
	}
	log.Info("solve finished", logging.Fields{
		"steps":   len(result.Chords),
		"elapsed": result.Elapsed.String(),
	})
	return result, nil
}

// Correct validates an existing harmony and repairs the steps that
// break the profile's hard rules.
func Correct(ctx context.Context, chords []harmony.Chord, ec ExerciseContext) (*CorrectionResult, error) {
	start := time.Now()
	runID := uuid.New()

	if ec.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ec.Budget)
		defer cancel()
	}

	c, err := validate.NewCorrector(ec.Profile, ec.Voices)
	if err != nil {
		return nil, err
	}
	res, err := c.Correct(ctx, chords, ec.Key)
	if err != nil {
		return nil, err
	}
	return &CorrectionResult{
		RunID:            runID,
		Elapsed:          time.Since(start),
		CorrectionResult: *res,
	}, nil
}

// Validate checks a harmony without repairing it.
func Validate(chords []harmony.Chord, ec ExerciseContext) (validate.Report, error) {
	issues, err := validate.LocateViolations(chords, ec.Key, ec.Voices, ec.Profile)
	if err != nil {
		return validate.Report{}, &solver.InvalidInputError{Step: -1, Msg: err.Error()}
	}
	return validate.NewReport(issues, len(chords)), nil
}

// buildSteps translates the exercise into solver steps for the
// context's exercise type.
func buildSteps(ex Exercise, ec ExerciseContext) ([]solver.Step, solver.CandidatePolicy, error) {
	if ec.Type == ErrorCorrection {
		return nil, 0, &solver.InvalidInputError{Step: -1, Msg: "error_correction exercises take a complete harmony; use Correct"}
	}
	if len(ex.Line) == 0 {
		return nil, 0, &solver.InvalidInputError{Step: -1, Msg: "empty line"}
	}
	if len(ex.Functions) > 0 && len(ex.Functions) != len(ex.Line) {
		return nil, 0, &solver.InvalidInputError{Step: -1, Msg: "function sequence length does not match the line"}
	}

	funcs := ex.Functions
	if len(funcs) > 0 {
		funcs = harmony.CorrectSequence(funcs)
		if problems := harmony.PrecheckSequence(funcs); len(problems) > 0 {
			return nil, 0, &solver.InvalidInputError{Step: -1, Msg: strings.Join(problems, "; ")}
		}
	}

	fixed := ec.fixedVoice()
	policy := solver.ChordTones
	if ec.Type == Counterpoint {
		policy = solver.Consonances
	}

	steps := make([]solver.Step, len(ex.Line))
	for i, p := range ex.Line {
		step := solver.Step{
			Fixed: map[harmony.Voice]theory.Pitch{fixed: p},
		}
		switch {
		case len(funcs) > 0:
			step.Function = funcs[i]
		case ec.Type == Melody:
			step.Function, step.Alternatives = melodyReadings(p)
		case ec.Type == Counterpoint:
			step.Function = harmony.FromChord(ec.Key.Tonic, theory.MajorTriad)
		default:
			step.Function = harmony.ImpliedFunction(p, ec.Key)
		}
		steps[i] = step
	}
	return steps, policy, nil
}

// melodyReadings enumerates the harmonic interpretations of a melody
// note: root of a triad, third of a major or minor triad, fifth of a
// major or minor triad.
func melodyReadings(p theory.Pitch) (harmony.Function, []harmony.Function) {
	pc := p.Class()
	main := harmony.FromChord(pc, theory.MajorTriad)
	alts := []harmony.Function{
		harmony.FromChord(pc.Add(-4), theory.MajorTriad),
		harmony.FromChord(pc.Add(-3), theory.MinorTriad),
		harmony.FromChord(pc.Add(-7), theory.MajorTriad),
		harmony.FromChord(pc.Add(-7), theory.MinorTriad),
	}
	return main, alts
}
