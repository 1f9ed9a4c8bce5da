package solver

import (
	"fmt"
	"strings"

	"github.com/tonalworks/cadenza/rules"
)

// InvalidInputError reports a malformed exercise: an empty sequence, a
// fixed pitch outside its voice range, or a function without
// realizable tones. Step is -1 when the problem is not tied to one
// step.
type InvalidInputError struct {
	Step int
	Msg  string
}

func (e *InvalidInputError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("invalid input at step %d: %s", e.Step, e.Msg)
	}
	return "invalid input: " + e.Msg
}

// NoSolutionError reports an over-constrained step: every candidate
// chord at Step broke at least one hard rule. Rules lists the distinct
// blocking rules, most frequently hit first, so the caller can tell
// the user which constraints closed the door.
type NoSolutionError struct {
	Step  int
	Rules []rules.Tag
}

func (e *NoSolutionError) Error() string {
	if len(e.Rules) == 0 {
		return fmt.Sprintf("no solution at step %d: no candidate chords", e.Step)
	}
	names := make([]string, len(e.Rules))
	for i, tag := range e.Rules {
		names[i] = string(tag)
	}
	return fmt.Sprintf("no solution at step %d (blocking rules: %s)", e.Step, strings.Join(names, ", "))
}

// CancelledError reports a context cancellation observed at a step
// boundary. Step is the index of the last fully completed step, -1
// when cancellation hit before the first one.
type CancelledError struct {
	Step int
	Err  error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("solve cancelled after step %d: %v", e.Step, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}
