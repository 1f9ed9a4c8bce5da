package theory

// ChordQuality enumerates the triad and seventh-chord qualities the
// engine harmonizes with.
type ChordQuality int

const (
	MajorTriad ChordQuality = iota
	MinorTriad
	DiminishedTriad
	AugmentedTriad
	Dominant7
	Major7
	Minor7
	HalfDiminished7
	FullyDiminished7
)

var qualityNames = map[ChordQuality]string{
	MajorTriad:       "major",
	MinorTriad:       "minor",
	DiminishedTriad:  "diminished",
	AugmentedTriad:   "augmented",
	Dominant7:        "dominant7",
	Major7:           "major7",
	Minor7:           "minor7",
	HalfDiminished7:  "half_diminished7",
	FullyDiminished7: "fully_diminished7",
}

func (q ChordQuality) String() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return "unknown"
}

// qualityIntervals lists chord-member intervals in semitones above the
// root for each quality, root first.
var qualityIntervals = map[ChordQuality][]int{
	MajorTriad:       {0, 4, 7},
	MinorTriad:       {0, 3, 7},
	DiminishedTriad:  {0, 3, 6},
	AugmentedTriad:   {0, 4, 8},
	Dominant7:        {0, 4, 7, 10},
	Major7:           {0, 4, 7, 11},
	Minor7:           {0, 3, 7, 10},
	HalfDiminished7:  {0, 3, 6, 10},
	FullyDiminished7: {0, 3, 6, 9},
}

// PitchClassSet is a small ordered set of pitch classes. Order follows
// chord-member order (root, third, fifth, seventh) so that inversion
// indexing works.
type PitchClassSet []PitchClass

// Contains reports membership of a pitch class in the set.
func (s PitchClassSet) Contains(pc PitchClass) bool {
	for _, member := range s {
		if member == pc {
			return true
		}
	}
	return false
}

// IndexOf returns the chord-member index of a pitch class (0=root,
// 1=third, 2=fifth, 3=seventh) or -1 if absent.
func (s PitchClassSet) IndexOf(pc PitchClass) int {
	for i, member := range s {
		if member == pc {
			return i
		}
	}
	return -1
}

// ChordTones returns the pitch classes of a chord built on the given
// root in chord-member order. The inversion does not change the tone
// set, only which member sounds in the bass; it is validated so that a
// caller asking for the bass of a nonexistent member fails loudly.
func ChordTones(root PitchClass, quality ChordQuality, inversion int) (PitchClassSet, error) {
	if root < 0 || root > 11 {
		return nil, errInvalid("ChordTones", "root pitch class %d out of range [0,11]", root)
	}
	intervals, ok := qualityIntervals[quality]
	if !ok {
		return nil, errInvalid("ChordTones", "unknown chord quality %d", quality)
	}
	if inversion < 0 || inversion >= len(intervals) {
		return nil, errInvalid("ChordTones", "inversion %d invalid for %s", inversion, quality)
	}

	tones := make(PitchClassSet, len(intervals))
	for i, semis := range intervals {
		tones[i] = root.Add(semis)
	}
	return tones, nil
}

// BassClass returns the pitch class that sounds in the bass for a
// chord in the given inversion.
func BassClass(root PitchClass, quality ChordQuality, inversion int) (PitchClass, error) {
	tones, err := ChordTones(root, quality, inversion)
	if err != nil {
		return 0, err
	}
	return tones[inversion], nil
}

// InversionOf determines the inversion implied by a bass pitch class,
// or -1 when the bass is not a chord member.
func InversionOf(bass PitchClass, root PitchClass, quality ChordQuality) int {
	tones, err := ChordTones(root, quality, 0)
	if err != nil {
		return -1
	}
	return tones.IndexOf(bass)
}
