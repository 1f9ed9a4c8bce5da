// Package validate checks complete harmonies against a rule profile
// and repairs localized mistakes by re-solving the offending steps in
// place, keeping the surrounding chords fixed.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/theory"
)

// Severity grades an issue. Spacing problems are stylistic and grade
// as warnings; everything else is an error.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one located problem in a harmony.
type Issue struct {
	Step        int             `json:"step"`
	Rule        rules.Tag       `json:"rule"`
	Severity    Severity        `json:"severity"`
	Voices      []harmony.Voice `json:"voices,omitempty"`
	Description string          `json:"description"`
}

func (i Issue) String() string {
	return fmt.Sprintf("step %d [%s/%s]: %s", i.Step+1, i.Severity, i.Rule, i.Description)
}

func severityOf(tag rules.Tag) Severity {
	if tag == rules.TagSpacing {
		return SeverityWarning
	}
	return SeverityError
}

// LocateViolations runs the profile's hard rules over every vertical
// and every transition of a complete harmony and returns the issues
// in step order.
func LocateViolations(chords []harmony.Chord, key theory.Key, voices harmony.VoiceSet, profile rules.Profile) ([]Issue, error) {
	checker, err := profile.Checker()
	if err != nil {
		return nil, err
	}
	var issues []Issue
	for i := range chords {
		var prev *harmony.Chord
		if i > 0 {
			prev = &chords[i-1]
		}
		tr := &harmony.Transition{Step: i, Prev: prev, Next: &chords[i], Key: key, Voices: voices}
		for _, v := range checker.Check(tr) {
			issues = append(issues, Issue{
				Step:        i,
				Rule:        v.Rule,
				Severity:    severityOf(v.Rule),
				Voices:      v.Voices,
				Description: v.Description,
			})
		}
	}
	return issues, nil
}

// Summary aggregates issue counts for a report.
type Summary struct {
	Steps    int               `json:"steps"`
	Errors   int               `json:"errors"`
	Warnings int               `json:"warnings"`
	ByRule   map[rules.Tag]int `json:"by_rule,omitempty"`
}

// Report is the result of validating a complete harmony.
type Report struct {
	Valid   bool    `json:"valid"`
	Issues  []Issue `json:"issues,omitempty"`
	Summary Summary `json:"summary"`
}

// NewReport builds a report from located issues. Valid means no
// error-grade issues; warnings alone do not invalidate a harmony.
func NewReport(issues []Issue, steps int) Report {
	summary := Summary{Steps: steps, ByRule: make(map[rules.Tag]int)}
	for _, issue := range issues {
		summary.ByRule[issue.Rule]++
		if issue.Severity == SeverityError {
			summary.Errors++
		} else {
			summary.Warnings++
		}
	}
	return Report{
		Valid:   summary.Errors == 0,
		Issues:  issues,
		Summary: summary,
	}
}

// Text renders a human-readable summary.
func (r Report) Text() string {
	if r.Valid && r.Summary.Warnings == 0 {
		return "Harmony is valid, no issues found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d error(s) and %d warning(s) in %d step(s):\n",
		r.Summary.Errors, r.Summary.Warnings, r.Summary.Steps)

	tags := make([]rules.Tag, 0, len(r.Summary.ByRule))
	for tag := range r.Summary.ByRule {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	for _, tag := range tags {
		fmt.Fprintf(&b, "  %d x %s\n", r.Summary.ByRule[tag], tag)
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	return b.String()
}
