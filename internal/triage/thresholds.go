package triage

import (
	"errors"
	"fmt"

	"github.com/linnemanlabs/screener/internal/archetype"
	"github.com/linnemanlabs/screener/internal/authenticity"
	"github.com/linnemanlabs/screener/internal/behavior"
	"github.com/linnemanlabs/screener/internal/scoring"
)

// MaxTurnLimit is the largest accepted max_turns.
const MaxTurnLimit = 20

// TriggerConfig decides when a conversation is evaluated.
type TriggerConfig struct {
	MinTurns          int     `yaml:"min_turns"`
	MaxTurns          int     `yaml:"max_turns"`
	ForceAI           float64 `yaml:"force_ai"`
	StrongSignalCount int     `yaml:"strong_signal_count"`
	NoSignalAI        float64 `yaml:"no_signal_ai"`
}

// Thresholds is the full typed configuration of the engine.
type Thresholds struct {
	Authenticity authenticity.Config `yaml:"authenticity"`
	Behavior     behavior.Config     `yaml:"behavior"`
	Archetype    archetype.Config    `yaml:"archetype"`
	Scoring      scoring.Config      `yaml:"scoring"`
	Trigger      TriggerConfig       `yaml:"trigger"`
}

// DefaultThresholds returns the production configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Authenticity: authenticity.DefaultConfig(),
		Behavior:     behavior.DefaultConfig(),
		Archetype:    archetype.DefaultConfig(),
		Scoring:      scoring.DefaultConfig(),
		Trigger: TriggerConfig{
			MinTurns:          4,
			MaxTurns:          7,
			ForceAI:           0.8,
			StrongSignalCount: 4,
			NoSignalAI:        0.5,
		},
	}
}

// Validate reports every out-of-range trigger setting.
func (c TriggerConfig) Validate() error {
	var errs []error
	if c.MinTurns < 1 {
		errs = append(errs, fmt.Errorf("min_turns %d must be at least 1", c.MinTurns))
	}
	if c.MaxTurns < c.MinTurns {
		errs = append(errs, fmt.Errorf("max_turns %d must not be below min_turns %d", c.MaxTurns, c.MinTurns))
	}
	if c.MaxTurns > MaxTurnLimit {
		errs = append(errs, fmt.Errorf("max_turns %d must be at most %d", c.MaxTurns, MaxTurnLimit))
	}
	if !(c.ForceAI >= 0 && c.ForceAI <= 1) {
		errs = append(errs, fmt.Errorf("force_ai %v must be within 0..1", c.ForceAI))
	}
	if !(c.NoSignalAI >= 0 && c.NoSignalAI <= 1) {
		errs = append(errs, fmt.Errorf("no_signal_ai %v must be within 0..1", c.NoSignalAI))
	}
	if c.StrongSignalCount < 1 {
		errs = append(errs, fmt.Errorf("strong_signal_count %d must be at least 1", c.StrongSignalCount))
	}
	return errors.Join(errs...)
}

// Validate checks every section and joins the failures, each prefixed with
// its section name.
func (t Thresholds) Validate() error {
	var errs []error
	for _, sec := range []struct {
		name string
		err  error
	}{
		{"authenticity", t.Authenticity.Validate()},
		{"behavior", t.Behavior.Validate()},
		{"archetype", t.Archetype.Validate()},
		{"scoring", t.Scoring.Validate()},
		{"trigger", t.Trigger.Validate()},
	} {
		if sec.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sec.name, sec.err))
		}
	}
	return errors.Join(errs...)
}

// Trigger reasons.
const (
	ReasonMaxTurns      = "Maximum turns reached"
	ReasonHighAI        = "Very high AI probability - early termination"
	ReasonStrongSignals = "Strong signals detected - proceeding to evaluation"
	ReasonNoSignalsAI   = "No signals + high AI probability"
)

// ShouldTrigger reports whether the conversation should be evaluated after
// this turn, and why. A hardcoded rejection always triggers.
func (c TriggerConfig) ShouldTrigger(s *ConversationState, effectiveAI float64) (bool, string) {
	turn, sigs := s.TurnCount, s.SignalCount()
	switch {
	case s.HardcodedRejection:
		return true, s.HardcodedRejectionReason
	case turn >= c.MaxTurns:
		return true, ReasonMaxTurns
	case effectiveAI >= c.ForceAI:
		return true, ReasonHighAI
	case turn >= c.MinTurns && sigs >= c.StrongSignalCount:
		return true, ReasonStrongSignals
	case turn >= c.MinTurns && sigs == 0 && effectiveAI >= c.NoSignalAI:
		return true, ReasonNoSignalsAI
	default:
		return false, ""
	}
}
