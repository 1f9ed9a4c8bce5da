package harmony

import (
	"fmt"

	"github.com/tonalworks/cadenza/theory"
)

// CorrectFunction normalizes a harmonic function against its
// predecessor, applying the notation-level fixes students routinely
// need: out-of-range positions are clamped, a dominant seventh with
// the seventh in the bass forces the following tonic into first
// inversion, and a Chopin chord with no figures gets its conventional
// omitted fifth.
func CorrectFunction(f Function, prev *Function) Function {
	corrected := f
	if corrected.Extra != nil {
		corrected.Extra = append([]int(nil), f.Extra...)
	}
	if corrected.Alterations != nil {
		corrected.Alterations = make(map[int]Alteration, len(f.Alterations))
		for k, v := range f.Alterations {
			corrected.Alterations[k] = v
		}
	}

	maxPos := len(corrected.Tones()) - 1
	if maxPos < 0 {
		maxPos = 0
	}
	if corrected.Position > maxPos {
		corrected.Position = maxPos
	}

	if prev != nil && prev.Type == Dominant && prev.HasSeventh() && prev.Position == 3 {
		if corrected.Type == Tonic && corrected.Position == 0 {
			corrected.Position = 1
		}
	}

	if corrected.Type == Chopin && len(corrected.Extra) == 0 {
		corrected.Extra = []int{5}
	}

	return corrected
}

// CorrectSequence applies CorrectFunction across a whole progression.
func CorrectSequence(funcs []Function) []Function {
	corrected := make([]Function, 0, len(funcs))
	for _, f := range funcs {
		var prev *Function
		if len(corrected) > 0 {
			prev = &corrected[len(corrected)-1]
		}
		corrected = append(corrected, CorrectFunction(f, prev))
	}
	return corrected
}

// PrecheckSequence validates a progression before any solving starts.
// It returns one message per problem; an empty slice means the
// sequence can in principle be realized.
func PrecheckSequence(funcs []Function) []string {
	var problems []string
	for i, f := range funcs {
		tones := f.Tones()
		if len(tones) == 0 {
			problems = append(problems, fmt.Sprintf("step %d: %s cannot generate chord tones", i, f))
			continue
		}
		if f.Position < 0 || f.Position >= len(tones) {
			problems = append(problems, fmt.Sprintf("step %d: %s position %d is invalid (max %d)", i, f, f.Position, len(tones)-1))
		}
		for _, e := range f.Extra {
			if e != 5 && e != 7 && e != 9 {
				problems = append(problems, fmt.Sprintf("step %d: %s unsupported figure %d", i, f, e))
			}
		}
	}
	return problems
}

// ImpliedFunction infers the harmony of a bass pitch when the
// exercise gives no figures: a plain triad rooted on the bass note,
// major or minor following the key's scale degree.
func ImpliedFunction(bass theory.Pitch, key theory.Key) Function {
	root := bass.Class()
	quality := theory.MajorTriad
	if key.Mode == theory.Minor {
		switch key.Degree(root) {
		case 1, 4:
			quality = theory.MinorTriad
		}
	} else {
		switch key.Degree(root) {
		case 2, 3, 6:
			quality = theory.MinorTriad
		case 7:
			quality = theory.DiminishedTriad
		}
	}
	return FromChord(root, quality)
}
