// Command cadenza solves, corrects and validates tonal harmony
// exercises from the command line.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tonalworks/cadenza/explain"
	"github.com/tonalworks/cadenza/harmonize"
	"github.com/tonalworks/cadenza/harmony"
	"github.com/tonalworks/cadenza/logging"
	"github.com/tonalworks/cadenza/rules"
	"github.com/tonalworks/cadenza/theory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "cadenza",
		Short:         "Four-part harmony and counterpoint exercise engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logging.SetLevel(logging.DebugLevel)
			} else {
				logging.SetLevel(logging.WarnLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newSolveCmd(), newCorrectCmd(), newValidateCmd(), newProfilesCmd())
	return root
}

func newSolveCmd() *cobra.Command {
	var (
		keyName   string
		exType    string
		functions string
		profile   string
		beam      int
		budget    time.Duration
		showTrace bool
		below     bool
	)
	cmd := &cobra.Command{
		Use:   "solve <pitches>",
		Short: "Harmonize a given line (MIDI pitches, comma separated)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(keyName)
			if err != nil {
				return err
			}
			et, ok := harmonize.ParseExerciseType(exType)
			if !ok {
				return fmt.Errorf("unknown exercise type %q", exType)
			}
			line, err := parsePitches(args[0])
			if err != nil {
				return err
			}

			ec := harmonize.ContextForExercise(et, key)
			ec.Budget = budget
			if below {
				if et != harmonize.Counterpoint {
					return fmt.Errorf("--below applies to counterpoint exercises only")
				}
				ec.Voices = harmony.TwoPartBelow()
			}
			if beam > 0 {
				ec.BeamWidth = beam
			}
			if profile != "" {
				p, err := harmonize.LoadProfile(profile)
				if err != nil {
					return err
				}
				ec.Profile = p
			}

			ex, err := harmonize.ParseExercise(line, functions, key)
			if err != nil {
				return err
			}
			res, err := harmonize.Solve(cmd.Context(), ex, ec)
			if err != nil {
				return err
			}

			printChords(cmd, res.Chords, ec.Voices)
			if showTrace {
				cmd.Println(res.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyName, "key", "k", "C", "key, e.g. C, F#, Bbm")
	cmd.Flags().StringVarP(&exType, "type", "t", string(harmonize.BassFigured), "exercise type: bass_figured, melody, counterpoint")
	cmd.Flags().StringVarP(&functions, "functions", "f", "", `harmonic functions, e.g. "T{}; D{extra: 7}; T{}"`)
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "rule profile name or YAML file")
	cmd.Flags().IntVarP(&beam, "beam", "b", 0, "beam width (0 = profile default)")
	cmd.Flags().DurationVar(&budget, "budget", 0, "wall-clock budget, e.g. 2s")
	cmd.Flags().BoolVarP(&showTrace, "explain", "e", false, "print the decision trace")
	cmd.Flags().BoolVar(&below, "below", false, "place the counterpoint line under the cantus firmus")
	return cmd
}

func newCorrectCmd() *cobra.Command {
	var keyName, profile string
	var showTrace bool
	cmd := &cobra.Command{
		Use:   "correct <chords>",
		Short: "Repair rule violations in a harmony (steps separated by ';', voices high to low)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ec, chords, err := harmonyInput(keyName, profile, args[0])
			if err != nil {
				return err
			}
			res, err := harmonize.Correct(cmd.Context(), chords, ec)
			if err != nil {
				return err
			}
			for _, c := range res.Corrections {
				cmd.Printf("step %d: %s -> %s\n", c.Step+1, c.Original, c.Fixed)
			}
			if showTrace {
				trace := explain.Trace{Key: ec.Key, Voices: ec.Voices}
				for _, c := range res.Corrections {
					if c.Trace != nil {
						trace.Steps = append(trace.Steps, *c.Trace)
					}
				}
				cmd.Println(trace.Render())
			}
			printChords(cmd, res.Chords, ec.Voices)
			cmd.Println(res.Report.Text())
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyName, "key", "k", "C", "key, e.g. C, F#, Bbm")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "rule profile name or YAML file")
	cmd.Flags().BoolVarP(&showTrace, "explain", "e", false, "print the explanation of each repair")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var keyName, profile string
	cmd := &cobra.Command{
		Use:   "validate <chords>",
		Short: "Check a harmony against the rule profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ec, chords, err := harmonyInput(keyName, profile, args[0])
			if err != nil {
				return err
			}
			report, err := harmonize.Validate(chords, ec)
			if err != nil {
				return err
			}
			cmd.Println(report.Text())
			if !report.Valid {
				return fmt.Errorf("harmony has %d error(s)", report.Summary.Errors)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyName, "key", "k", "C", "key, e.g. C, F#, Bbm")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "rule profile name or YAML file")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in rule profiles as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range rules.ProfileNames() {
				p, _ := rules.ProfileFor(name)
				data, err := yaml.Marshal(p)
				if err != nil {
					return err
				}
				cmd.Println("---")
				cmd.Print(string(data))
			}
			return nil
		},
	}
}

// harmonyInput parses the shared flags and chord argument of the
// correct and validate commands.
func harmonyInput(keyName, profile, arg string) (harmonize.ExerciseContext, []harmony.Chord, error) {
	key, err := parseKey(keyName)
	if err != nil {
		return harmonize.ExerciseContext{}, nil, err
	}
	ec := harmonize.DefaultContext(key)
	if profile != "" {
		p, err := harmonize.LoadProfile(profile)
		if err != nil {
			return harmonize.ExerciseContext{}, nil, err
		}
		ec.Profile = p
	}
	chords, err := parseChords(arg, key, ec.Voices)
	if err != nil {
		return harmonize.ExerciseContext{}, nil, err
	}
	return ec, chords, nil
}

// noteClasses maps note names to pitch classes; both sharp and flat
// spellings are accepted.
var noteClasses = map[string]theory.PitchClass{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4,
	"F": 5, "F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9,
	"A#": 10, "Bb": 10, "B": 11,
}

// parseKey parses names like "C", "F#", "Bbm", "am".
func parseKey(s string) (theory.Key, error) {
	name := strings.TrimSpace(s)
	mode := theory.Major
	if strings.HasSuffix(name, "m") && len(name) > 1 {
		mode = theory.Minor
		name = name[:len(name)-1]
	}
	if len(name) > 0 {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	pc, ok := noteClasses[name]
	if !ok {
		return theory.Key{}, fmt.Errorf("unknown key %q", s)
	}
	return theory.NewKey(pc, mode)
}

// parsePitches parses a comma-separated MIDI pitch list.
func parsePitches(s string) ([]theory.Pitch, error) {
	parts := strings.Split(s, ",")
	out := make([]theory.Pitch, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad pitch %q: %w", part, err)
		}
		out = append(out, theory.Pitch(n))
	}
	return out, nil
}

// parseChords parses "72,64,55,48; 74,65,57,50" into chords, voices
// listed high to low per step. Functions are implied from the lowest
// voice.
func parseChords(s string, key theory.Key, voices harmony.VoiceSet) ([]harmony.Chord, error) {
	steps := strings.Split(s, ";")
	out := make([]harmony.Chord, 0, len(steps))
	for i, stepStr := range steps {
		pitches, err := parsePitches(stepStr)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if len(pitches) != len(voices) {
			return nil, fmt.Errorf("step %d: expected %d voices, got %d", i+1, len(voices), len(pitches))
		}
		bass := pitches[len(pitches)-1]
		chord := harmony.NewChord(harmony.ImpliedFunction(bass, key))
		for j, v := range voices {
			chord = chord.WithPitch(v, pitches[j])
		}
		out = append(out, chord)
	}
	return out, nil
}

func printChords(cmd *cobra.Command, chords []harmony.Chord, voices harmony.VoiceSet) {
	for i, c := range chords {
		parts := make([]string, 0, len(voices))
		for _, v := range voices {
			parts = append(parts, fmt.Sprintf("%s=%s", v, c.Pitch(v)))
		}
		cmd.Printf("%2d  %s  %s\n", i+1, c.Function.String(), strings.Join(parts, " "))
	}
}
