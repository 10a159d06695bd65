package authenticity

import (
	"errors"
	"fmt"
)

// Config holds every threshold and weight the detector uses.
type Config struct {
	PhraseHighCount int     `yaml:"phrase_high_count"`
	PhraseHighScore float64 `yaml:"phrase_high_score"`
	PhraseLowScore  float64 `yaml:"phrase_low_score"`

	StructureMarkerThreshold int     `yaml:"structure_marker_threshold"`
	StructureScore           float64 `yaml:"structure_score"`

	LengthHighChars   int     `yaml:"length_high_chars"`
	LengthHighScore   float64 `yaml:"length_high_score"`
	LengthMediumChars int     `yaml:"length_medium_chars"`
	LengthMediumScore float64 `yaml:"length_medium_score"`

	PatternScoreEach   float64 `yaml:"pattern_score_each"`
	FormalMinCount     int     `yaml:"formal_min_count"`
	FormalMinChars     int     `yaml:"formal_min_chars"`
	MinSentencesFormal int     `yaml:"min_sentences_grammar"`
	MinSentencesRepeat int     `yaml:"min_sentences_repeat"`
	RepeatStarterCount int     `yaml:"repeat_starter_count"`

	PreviousWeight float64 `yaml:"cumulative_previous_weight"`
	CurrentWeight  float64 `yaml:"cumulative_current_weight"`

	RejectThreshold float64 `yaml:"reject_threshold"`
	CapThreshold    float64 `yaml:"cap_score_threshold"`
	WarnThreshold   float64 `yaml:"warn_threshold"`

	// OverrideThreshold replaces the responder's message with ChallengeMessage.
	OverrideThreshold float64 `yaml:"override_threshold"`

	RejectNoSignalsTurn      int     `yaml:"reject_no_signals_turn"`
	RejectNoSignalsThreshold float64 `yaml:"reject_no_signals_threshold"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		PhraseHighCount: 3,
		PhraseHighScore: 1.0,
		PhraseLowScore:  0.3,

		StructureMarkerThreshold: 3,
		StructureScore:           1.0,

		LengthHighChars:   1500,
		LengthHighScore:   0.8,
		LengthMediumChars: 1000,
		LengthMediumScore: 0.4,

		PatternScoreEach:   0.2,
		FormalMinCount:     3,
		FormalMinChars:     200,
		MinSentencesFormal: 3,
		MinSentencesRepeat: 4,
		RepeatStarterCount: 3,

		PreviousWeight: 0.6,
		CurrentWeight:  0.4,

		RejectThreshold: 0.7,
		CapThreshold:    0.5,
		WarnThreshold:   0.3,

		OverrideThreshold: 0.6,

		RejectNoSignalsTurn:      3,
		RejectNoSignalsThreshold: 0.6,
	}
}

// Validate reports every out-of-range or misordered field.
func (c Config) Validate() error {
	var errs []error

	probs := []struct {
		name string
		v    float64
	}{
		{"phrase_high_score", c.PhraseHighScore},
		{"phrase_low_score", c.PhraseLowScore},
		{"structure_score", c.StructureScore},
		{"length_high_score", c.LengthHighScore},
		{"length_medium_score", c.LengthMediumScore},
		{"pattern_score_each", c.PatternScoreEach},
		{"cumulative_previous_weight", c.PreviousWeight},
		{"cumulative_current_weight", c.CurrentWeight},
		{"reject_threshold", c.RejectThreshold},
		{"cap_score_threshold", c.CapThreshold},
		{"warn_threshold", c.WarnThreshold},
		{"override_threshold", c.OverrideThreshold},
		{"reject_no_signals_threshold", c.RejectNoSignalsThreshold},
	}
	for _, p := range probs {
		if !(p.v >= 0 && p.v <= 1) {
			errs = append(errs, fmt.Errorf("%s %v must be within 0..1", p.name, p.v))
		}
	}
	if sum := c.PreviousWeight + c.CurrentWeight; !(sum > 0 && sum <= 1+1e-9) {
		errs = append(errs, fmt.Errorf("cumulative weights sum to %v (must be within (0, 1])", sum))
	}
	if !(c.WarnThreshold <= c.CapThreshold && c.CapThreshold <= c.RejectThreshold) {
		errs = append(errs, fmt.Errorf("thresholds must be ordered warn %v <= cap %v <= reject %v", c.WarnThreshold, c.CapThreshold, c.RejectThreshold))
	}

	counts := []struct {
		name string
		v    int
	}{
		{"phrase_high_count", c.PhraseHighCount},
		{"structure_marker_threshold", c.StructureMarkerThreshold},
		{"formal_min_count", c.FormalMinCount},
		{"min_sentences_grammar", c.MinSentencesFormal},
		{"min_sentences_repeat", c.MinSentencesRepeat},
		{"repeat_starter_count", c.RepeatStarterCount},
		{"reject_no_signals_turn", c.RejectNoSignalsTurn},
	}
	for _, n := range counts {
		if n.v < 1 {
			errs = append(errs, fmt.Errorf("%s %d must be at least 1", n.name, n.v))
		}
	}
	if c.FormalMinChars < 0 {
		errs = append(errs, fmt.Errorf("formal_min_chars %d must not be negative", c.FormalMinChars))
	}
	if c.LengthMediumChars < 1 || c.LengthHighChars <= c.LengthMediumChars {
		errs = append(errs, fmt.Errorf("length bands must satisfy 0 < length_medium_chars %d < length_high_chars %d", c.LengthMediumChars, c.LengthHighChars))
	}

	return errors.Join(errs...)
}
