// Package behavior analyzes how a contact answers: whether they evade,
// how specific they are and whether their story is anchored in time.
package behavior

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const maxReportedTemporal = 5

// Red flags and positive signals.
const (
	FlagEvasive       = "Response appears evasive"
	FlagLowSpecific   = "Low specificity - lacks concrete details"
	FlagVagueTemporal = "Uses vague temporal references"
	FlagVeryShort     = "Very short response"
	FlagVeryLong      = "Excessively long response"

	SignalHighSpecific = "High specificity - includes concrete details"
	SignalTemporal     = "Includes temporal grounding"
)

// Config holds the prober's thresholds.
type Config struct {
	EvasionScoreThreshold float64 `yaml:"evasion_score_threshold"`
	DirectMatchWeight     float64 `yaml:"direct_match_weight"`
	EvasionMinUnanswered  int     `yaml:"evasion_min_unanswered"`

	HighWeight        float64 `yaml:"specificity_high_weight"`
	MediumWeight      float64 `yaml:"specificity_medium_weight"`
	LowWeight         float64 `yaml:"specificity_low_weight"`
	SpecificityScale  float64 `yaml:"specificity_scale"`
	LowSpecificity    float64 `yaml:"low_specificity"`
	HighSpecificity   float64 `yaml:"high_specificity"`
	ShortChars        int     `yaml:"short_chars"`
	LongChars         int     `yaml:"long_chars"`
	PenaltyPerFlag    float64 `yaml:"penalty_per_red_flag"`
	RepeatEvasions    int     `yaml:"repeat_evasions"`
	RepeatEvasionCost float64 `yaml:"repeat_evasion_penalty"`

	EvasionCapCount       int     `yaml:"evasion_cap_count"`
	EvasionCapScore       int     `yaml:"evasion_cap_score"`
	LowSpecificityCap     float64 `yaml:"low_specificity_cap_threshold"`
	LowSpecificityCapAI   float64 `yaml:"low_specificity_cap_ai"`
	LowSpecificityCapMax  int     `yaml:"low_specificity_cap_score"`
	TradeoffProbeMaxSpecs float64 `yaml:"tradeoff_probe_specificity"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		EvasionScoreThreshold: 1.5,
		DirectMatchWeight:     0.5,
		EvasionMinUnanswered:  2,

		HighWeight:        1.0,
		MediumWeight:      0.5,
		LowWeight:         0.3,
		SpecificityScale:  5,
		LowSpecificity:    0.2,
		HighSpecificity:   0.6,
		ShortChars:        50,
		LongChars:         1500,
		PenaltyPerFlag:    0.15,
		RepeatEvasions:    2,
		RepeatEvasionCost: 0.2,

		EvasionCapCount:       3,
		EvasionCapScore:       2,
		LowSpecificityCap:     0.05,
		LowSpecificityCapAI:   0.4,
		LowSpecificityCapMax:  4,
		TradeoffProbeMaxSpecs: 0.3,
	}
}

// Validate reports every out-of-range or misordered field.
func (c Config) Validate() error {
	var errs []error

	if !(c.SpecificityScale > 0) {
		errs = append(errs, fmt.Errorf("specificity_scale %v must be positive", c.SpecificityScale))
	}
	if !(c.EvasionScoreThreshold > 0) {
		errs = append(errs, fmt.Errorf("evasion_score_threshold %v must be positive", c.EvasionScoreThreshold))
	}
	for name, w := range map[string]float64{
		"direct_match_weight":       c.DirectMatchWeight,
		"specificity_high_weight":   c.HighWeight,
		"specificity_medium_weight": c.MediumWeight,
		"specificity_low_weight":    c.LowWeight,
	} {
		if !(w >= 0) || math.IsInf(w, 0) {
			errs = append(errs, fmt.Errorf("%s %v must be a non-negative number", name, w))
		}
	}
	for name, v := range map[string]float64{
		"low_specificity":               c.LowSpecificity,
		"high_specificity":              c.HighSpecificity,
		"penalty_per_red_flag":          c.PenaltyPerFlag,
		"repeat_evasion_penalty":        c.RepeatEvasionCost,
		"low_specificity_cap_threshold": c.LowSpecificityCap,
		"low_specificity_cap_ai":        c.LowSpecificityCapAI,
		"tradeoff_probe_specificity":    c.TradeoffProbeMaxSpecs,
	} {
		if !(v >= 0 && v <= 1) {
			errs = append(errs, fmt.Errorf("%s %v must be within 0..1", name, v))
		}
	}
	if c.LowSpecificity > c.HighSpecificity {
		errs = append(errs, fmt.Errorf("low_specificity %v must not exceed high_specificity %v", c.LowSpecificity, c.HighSpecificity))
	}
	if c.ShortChars < 0 || c.LongChars <= c.ShortChars {
		errs = append(errs, fmt.Errorf("length bands must satisfy 0 <= short_chars %d < long_chars %d", c.ShortChars, c.LongChars))
	}
	if c.EvasionMinUnanswered < 1 || c.RepeatEvasions < 1 || c.EvasionCapCount < 1 {
		errs = append(errs, fmt.Errorf("evasion counts must be at least 1 (min_unanswered %d, repeat %d, cap %d)",
			c.EvasionMinUnanswered, c.RepeatEvasions, c.EvasionCapCount))
	}
	if c.EvasionCapScore < 0 || c.EvasionCapScore > 10 {
		errs = append(errs, fmt.Errorf("evasion_cap_score %d must be within 0..10", c.EvasionCapScore))
	}
	if c.LowSpecificityCapMax < 0 || c.LowSpecificityCapMax > 10 {
		errs = append(errs, fmt.Errorf("low_specificity_cap_score %d must be within 0..10", c.LowSpecificityCapMax))
	}

	return errors.Join(errs...)
}

// Result is the analysis of one message.
type Result struct {
	Specificity       float64  `json:"specificity_score"`
	Evasive           bool     `json:"evasion_flag"`
	TemporalGrounding bool     `json:"temporal_grounding"`
	RedFlags          []string `json:"red_flags,omitempty"`
	PositiveSignals   []string `json:"positive_signals,omitempty"`
	Details           Details  `json:"details"`
}

// Details carries the raw counts behind a Result.
type Details struct {
	EvasionMatches   []string   `json:"evasion_matches,omitempty"`
	DirectMatches    int        `json:"direct_matches"`
	Specificity      TierCounts `json:"specificity_breakdown"`
	TemporalSpecific []string   `json:"temporal_specific,omitempty"`
	TemporalVague    []string   `json:"temporal_vague,omitempty"`
	TextLength       int        `json:"text_length"`
}

// TierCounts counts specificity pattern matches per tier.
type TierCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Prober runs behavioral analysis.
type Prober struct {
	cfg Config
}

// New creates a Prober with the given thresholds.
func New(cfg Config) *Prober {
	return &Prober{cfg: cfg}
}

// Analyze inspects a single message. It never fails.
func (p *Prober) Analyze(text string) Result {
	lower := strings.ToLower(text)
	var res Result

	evasions := firstMatches(lower, evasionPatterns)
	direct := len(firstMatches(lower, directPatterns))
	res.Evasive = p.isEvasive(len(evasions), direct)
	res.Details.EvasionMatches = evasions
	res.Details.DirectMatches = direct
	if res.Evasive {
		res.RedFlags = append(res.RedFlags, FlagEvasive)
	}

	tiers := TierCounts{
		High:   countAll(lower, specificityHigh),
		Medium: countAll(lower, specificityMedium),
		Low:    countAll(lower, specificityLow),
	}
	res.Details.Specificity = tiers
	res.Specificity = p.specificity(tiers)
	switch {
	case res.Specificity < p.cfg.LowSpecificity:
		res.RedFlags = append(res.RedFlags, FlagLowSpecific)
	case res.Specificity > p.cfg.HighSpecificity:
		res.PositiveSignals = append(res.PositiveSignals, SignalHighSpecific)
	}

	specific := matchAll(lower, temporalSpecific)
	vague := matchAll(lower, temporalVague)
	res.TemporalGrounding = len(specific) > len(vague) && len(specific) >= 1
	res.Details.TemporalSpecific = specific[:min(len(specific), maxReportedTemporal)]
	res.Details.TemporalVague = vague[:min(len(vague), maxReportedTemporal)]
	if res.TemporalGrounding {
		res.PositiveSignals = append(res.PositiveSignals, SignalTemporal)
	} else if len(vague) > len(specific) {
		res.RedFlags = append(res.RedFlags, FlagVagueTemporal)
	}

	n := utf8.RuneCountInString(text)
	res.Details.TextLength = n
	if n < p.cfg.ShortChars {
		res.RedFlags = append(res.RedFlags, FlagVeryShort)
	}
	if n > p.cfg.LongChars {
		res.RedFlags = append(res.RedFlags, FlagVeryLong)
	}
	return res
}

func (p *Prober) isEvasive(evasions, direct int) bool {
	score := float64(evasions) - float64(direct)*p.cfg.DirectMatchWeight
	return score >= p.cfg.EvasionScoreThreshold || (evasions >= p.cfg.EvasionMinUnanswered && direct == 0)
}

func (p *Prober) specificity(t TierCounts) float64 {
	raw := float64(t.High)*p.cfg.HighWeight + float64(t.Medium)*p.cfg.MediumWeight - float64(t.Low)*p.cfg.LowWeight
	score := math.Min(1, math.Max(0, raw/p.cfg.SpecificityScale))
	return math.Round(score*1000) / 1000
}

// EvasionCount counts evasive answers across history.
func EvasionCount(history []Result) int {
	n := 0
	for _, r := range history {
		if r.Evasive {
			n++
		}
	}
	return n
}

// RedFlagCount sums red flags across history.
func RedFlagCount(history []Result) int {
	n := 0
	for _, r := range history {
		n += len(r.RedFlags)
	}
	return n
}

// AverageSpecificity is the mean specificity across history, 0.5 when empty.
func AverageSpecificity(history []Result) float64 {
	if len(history) == 0 {
		return 0.5
	}
	var sum float64
	for _, r := range history {
		sum += r.Specificity
	}
	return sum / float64(len(history))
}

// HasTemporalGrounding reports whether any answer was anchored in time.
func HasTemporalGrounding(history []Result) bool {
	for _, r := range history {
		if r.TemporalGrounding {
			return true
		}
	}
	return false
}

// Penalty is the amount added to the cumulative AI score for behavioral red flags.
func (p *Prober) Penalty(history []Result) float64 {
	if len(history) == 0 {
		return 0
	}
	penalty := float64(RedFlagCount(history)) * p.cfg.PenaltyPerFlag
	if EvasionCount(history) >= p.cfg.RepeatEvasions {
		penalty += p.cfg.RepeatEvasionCost
	}
	return penalty
}

// Cap reports whether behavior alone caps the final score, the cap, and why.
func (p *Prober) Cap(history []Result, cumulativeAI float64) (bool, int, string) {
	if len(history) == 0 {
		return false, 10, ""
	}
	if n := EvasionCount(history); n >= p.cfg.EvasionCapCount {
		return true, p.cfg.EvasionCapScore, fmt.Sprintf("Too many evasive responses (%d)", n)
	}
	if AverageSpecificity(history) < p.cfg.LowSpecificityCap && cumulativeAI >= p.cfg.LowSpecificityCapAI {
		return true, p.cfg.LowSpecificityCapMax, "Low specificity combined with AI signals"
	}
	return false, 10, ""
}
