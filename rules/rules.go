// Package rules implements the constraint model for the harmonization
// engine: hard rules that accept or reject a transition between two
// vertical slices, and soft rules that price an accepted transition.
// A Profile names the hard rules in force and the soft-cost weights,
// which is how one engine serves figured bass, melody harmonization
// and species counterpoint without code duplication.
package rules

import (
	"fmt"

	"github.com/tonalworks/cadenza/harmony"
)

// Tag names a hard rule. Tags appear in rejection records, solver
// failures and explanation traces.
type Tag string

const (
	TagRange             Tag = "range"
	TagOrdering          Tag = "voice_crossing"
	TagSpacing           Tag = "spacing"
	TagParallelFifths    Tag = "parallel_fifths"
	TagParallelOctaves   Tag = "parallel_octaves"
	TagHiddenParallels   Tag = "hidden_parallels"
	TagSeventhResolution Tag = "seventh_resolution"
	TagLeadingTone       Tag = "leading_tone_resolution"
	TagConsonance        Tag = "consonance"
)

// Violation records one broken hard rule on a transition.
type Violation struct {
	Rule        Tag             `json:"rule"`
	Voices      []harmony.Voice `json:"voices,omitempty"`
	Description string          `json:"description"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Description)
}

// HardRule is a binary accept/reject predicate over a transition. A
// nil/empty result means the rule accepts. Rules are stateless beyond
// the two chords in the transition.
type HardRule interface {
	Tag() Tag
	Check(t *harmony.Transition) []Violation
}

// SoftRule prices one stylistic aspect of an accepted transition. The
// cost is nonnegative, bounded, and monotonic in the aspect it
// measures so that totals are comparable across candidates.
type SoftRule interface {
	Name() string
	Cost(t *harmony.Transition) float64
}

// Checker runs a fixed list of hard rules against transitions and
// reports every violated rule, not just the first, so the explanation
// engine can show the full picture.
type Checker struct {
	rules []HardRule
}

// NewChecker builds a checker over the given rules.
func NewChecker(rules []HardRule) *Checker {
	return &Checker{rules: rules}
}

// Check returns all violations of the transition, in rule order.
func (c *Checker) Check(t *harmony.Transition) []Violation {
	var violations []Violation
	for _, r := range c.rules {
		violations = append(violations, r.Check(t)...)
	}
	return violations
}

// Rules exposes the checker's rule list in evaluation order.
func (c *Checker) Rules() []HardRule {
	return c.rules
}
