package harmonize

import (
	"time"

	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/theory"
)

// ExerciseType selects which kind of exercise the engine solves.
type ExerciseType string

const (
	BassFigured     ExerciseType = "bass_figured"
	Melody          ExerciseType = "melody"
	Counterpoint    ExerciseType = "counterpoint"
	ErrorCorrection ExerciseType = "error_correction"
)

// ParseExerciseType resolves a type name.
func ParseExerciseType(s string) (ExerciseType, bool) {
	switch ExerciseType(s) {
	case BassFigured, Melody, Counterpoint, ErrorCorrection:
		return ExerciseType(s), true
	}
	return "", false
}

// ExerciseContext carries everything a solve needs besides the notes:
// key, texture, rule profile and search tuning.
type ExerciseContext struct {
	Key       theory.Key
	Type      ExerciseType
	Voices    harmony.VoiceSet
	Profile   rules.Profile
	BeamWidth int
	// Budget bounds wall-clock time for the solve; zero means no
	// limit. Cancellation lands at a step boundary.
	Budget time.Duration
}

// DefaultContext returns the standard figured-bass context: SATB
// texture, the bass_figured profile, beam width 10.
func DefaultContext(key theory.Key) ExerciseContext {
	return ExerciseContext{
		Key:       key,
		Type:      BassFigured,
		Voices:    harmony.FourPart(),
		Profile:   rules.BassFiguredProfile(),
		BeamWidth: 10,
	}
}

// ContextForExercise returns a context tuned for the given exercise
// type: the matching voice set and rule profile, and a wider beam for
// melody harmonization where alternative readings multiply the
// candidate space. Error correction keeps the figured-bass context;
// its exercises carry a complete harmony and go through Correct.
func ContextForExercise(et ExerciseType, key theory.Key) ExerciseContext {
	ec := DefaultContext(key)
	ec.Type = et
	switch et {
	case Melody:
		ec.Profile = rules.MelodyProfile()
		ec.BeamWidth = 16
	case Counterpoint:
		ec.Voices = harmony.TwoPart()
		ec.Profile = rules.CounterpointProfile()
	}
	return ec
}

// fixedVoice returns the voice the exercise type pins to the given
// line.
func (ec ExerciseContext) fixedVoice() harmony.Voice {
	switch ec.Type {
	case Melody:
		return ec.Voices[0]
	case Counterpoint:
		for _, v := range ec.Voices {
			if v == harmony.CantusFirmus {
				return v
			}
		}
	}
	return ec.Voices.Lowest()
}
