package rules

import "fmt"

// Profile is the capability model for an exercise type: the hard
// rules in force plus the soft-cost weights. Profiles serialize to
// YAML so a course can ship custom grading schemes.
type Profile struct {
	Name    string             `yaml:"name" json:"name"`
	Hard    []Tag              `yaml:"hard" json:"hard"`
	Weights map[string]float64 `yaml:"weights" json:"weights"`
}

// DefaultWeights returns the stock soft-cost weights shared by the
// built-in profiles.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		CostVoiceMotion:     1.0,
		CostBassParallel:    1.5,
		CostDoubling:        1.0,
		CostSpacingEvenness: 1.0,
	}
}

// fourPartHard is the hard-rule set shared by the SATB exercise types.
func fourPartHard() []Tag {
	return []Tag{
		TagRange, TagOrdering, TagSpacing,
		TagParallelFifths, TagParallelOctaves, TagHiddenParallels,
		TagSeventhResolution, TagLeadingTone,
	}
}

// BassFiguredProfile grades four-part realizations of a figured bass.
func BassFiguredProfile() Profile {
	return Profile{
		Name:    "bass_figured",
		Hard:    fourPartHard(),
		Weights: DefaultWeights(),
	}
}

// MelodyProfile grades four-part harmonizations of a given soprano.
// The rule set matches the figured-bass profile; only the fixed voice
// differs.
func MelodyProfile() Profile {
	return Profile{
		Name:    "melody",
		Hard:    fourPartHard(),
		Weights: DefaultWeights(),
	}
}

// CounterpointProfile grades first-species two-voice counterpoint:
// every vertical must be consonant, the dissonance-treatment rules do
// not apply, and doubling has no meaning in two voices.
func CounterpointProfile() Profile {
	return Profile{
		Name: "counterpoint_first_species",
		Hard: []Tag{
			TagRange, TagOrdering, TagConsonance,
			TagParallelFifths, TagParallelOctaves, TagHiddenParallels,
		},
		Weights: map[string]float64{
			CostVoiceMotion:  1.0,
			CostBassParallel: 1.5,
		},
	}
}

// builtinProfiles indexes the stock profiles by name.
var builtinProfiles = map[string]func() Profile{
	"bass_figured":               BassFiguredProfile,
	"melody":                     MelodyProfile,
	"counterpoint_first_species": CounterpointProfile,
}

// ProfileFor returns the built-in profile registered under a name.
func ProfileFor(name string) (Profile, bool) {
	f, ok := builtinProfiles[name]
	if !ok {
		return Profile{}, false
	}
	return f(), true
}

// ProfileNames lists the built-in profile names in a stable order.
func ProfileNames() []string {
	return []string{"bass_figured", "melody", "counterpoint_first_species"}
}

// Checker resolves the profile's hard tags against the registry. An
// unknown tag is a configuration error.
func (p Profile) Checker() (*Checker, error) {
	hard := make([]HardRule, 0, len(p.Hard))
	for _, tag := range p.Hard {
		r, ok := NewHardRule(tag)
		if !ok {
			return nil, fmt.Errorf("profile %q: unknown hard rule %q", p.Name, tag)
		}
		hard = append(hard, r)
	}
	return NewChecker(hard), nil
}

// Scorer builds a scorer from the profile's weights.
func (p Profile) Scorer() *Scorer {
	return NewScorer(p.Weights)
}

// Enables reports whether the profile includes a hard rule.
func (p Profile) Enables(tag Tag) bool {
	for _, t := range p.Hard {
		if t == tag {
			return true
		}
	}
	return false
}
