package scoring

import (
	"errors"
	"fmt"
)

// Config enumerates every cap, floor and band boundary the scorer applies.
type Config struct {
	// authenticity axis
	AuthRejectAI        float64 `yaml:"auth_reject_ai"`
	AuthRejectScore     int     `yaml:"auth_reject_score"`
	AuthCapAI           float64 `yaml:"auth_cap_ai"`
	AuthCapScore        int     `yaml:"auth_cap_score"`
	AuthWarnAI          float64 `yaml:"auth_warn_ai"`
	AuthWarnScore       int     `yaml:"auth_warn_score"`
	EvasionRejectCount  int     `yaml:"evasion_reject_count"`
	EvasionRejectScore  int     `yaml:"evasion_reject_score"`
	EvasionWarnCount    int     `yaml:"evasion_warn_count"`
	EvasionWarnScore    int     `yaml:"evasion_warn_score"`
	LowSpecificity      float64 `yaml:"low_specificity"`
	LowSpecificityAI    float64 `yaml:"low_specificity_ai"`
	LowSpecificityScore int     `yaml:"low_specificity_score"`
	WeakSpecificity     float64 `yaml:"weak_specificity"`
	WeakSpecificScore   int     `yaml:"weak_specificity_score"`
	RelaxedSpecScore    int     `yaml:"relaxed_specificity_score"`
	RelaxedSignalCount  int     `yaml:"relaxed_signal_count"`
	RedFlagCapCount     int     `yaml:"red_flag_cap_count"`
	RedFlagCapScore     int     `yaml:"red_flag_cap_score"`
	RedFlagDeductCount  int     `yaml:"red_flag_deduct_count"`

	// quality axis
	RejectSimilarity    float64 `yaml:"reject_similarity"`
	DowngradeSimilarity float64 `yaml:"downgrade_similarity"`
	DowngradeScore      int     `yaml:"downgrade_score"`
	SignalBoostCount    int     `yaml:"signal_boost_count"`
	SignalBoostValue    int     `yaml:"signal_boost_value"`
	NoSignalScore       int     `yaml:"no_signal_score"`
	PartnershipScore    int     `yaml:"partnership_score"`
	StudentScore        int     `yaml:"student_score"`

	// recommendation bands, inclusive upper bounds
	DoNotRecommendMax int `yaml:"do_not_recommend_max"`
	ReferOutMax       int `yaml:"refer_out_max"`
	IfBandwidthMax    int `yaml:"recommend_if_bandwidth_max"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		AuthRejectAI:        0.75,
		AuthRejectScore:     1,
		AuthCapAI:           0.55,
		AuthCapScore:        3,
		AuthWarnAI:          0.35,
		AuthWarnScore:       5,
		EvasionRejectCount:  3,
		EvasionRejectScore:  2,
		EvasionWarnCount:    2,
		EvasionWarnScore:    5,
		LowSpecificity:      0.05,
		LowSpecificityAI:    0.4,
		LowSpecificityScore: 4,
		WeakSpecificity:     0.2,
		WeakSpecificScore:   6,
		RelaxedSpecScore:    7,
		RelaxedSignalCount:  2,
		RedFlagCapCount:     5,
		RedFlagCapScore:     4,
		RedFlagDeductCount:  3,

		RejectSimilarity:    0.96,
		DowngradeSimilarity: 0.92,
		DowngradeScore:      4,
		SignalBoostCount:    3,
		SignalBoostValue:    1,
		NoSignalScore:       6,
		PartnershipScore:    3,
		StudentScore:        4,

		DoNotRecommendMax: 4,
		ReferOutMax:       6,
		IfBandwidthMax:    7,
	}
}

// Validate reports every out-of-range or misordered field. Scores are on the
// 0..10 scale and bands must ascend.
func (c Config) Validate() error {
	var errs []error

	for _, f := range []struct {
		name string
		v    float64
	}{
		{"auth_reject_ai", c.AuthRejectAI},
		{"auth_cap_ai", c.AuthCapAI},
		{"auth_warn_ai", c.AuthWarnAI},
		{"low_specificity", c.LowSpecificity},
		{"low_specificity_ai", c.LowSpecificityAI},
		{"weak_specificity", c.WeakSpecificity},
		{"reject_similarity", c.RejectSimilarity},
		{"downgrade_similarity", c.DowngradeSimilarity},
	} {
		if !(f.v >= 0 && f.v <= 1) {
			errs = append(errs, fmt.Errorf("%s %v must be within 0..1", f.name, f.v))
		}
	}
	if !(c.AuthWarnAI <= c.AuthCapAI && c.AuthCapAI <= c.AuthRejectAI) {
		errs = append(errs, fmt.Errorf("ai cutoffs must be ordered warn %v <= cap %v <= reject %v", c.AuthWarnAI, c.AuthCapAI, c.AuthRejectAI))
	}
	if c.LowSpecificity > c.WeakSpecificity {
		errs = append(errs, fmt.Errorf("low_specificity %v must not exceed weak_specificity %v", c.LowSpecificity, c.WeakSpecificity))
	}
	if c.DowngradeSimilarity > c.RejectSimilarity {
		errs = append(errs, fmt.Errorf("downgrade_similarity %v must not exceed reject_similarity %v", c.DowngradeSimilarity, c.RejectSimilarity))
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"auth_reject_score", c.AuthRejectScore},
		{"auth_cap_score", c.AuthCapScore},
		{"auth_warn_score", c.AuthWarnScore},
		{"evasion_reject_score", c.EvasionRejectScore},
		{"evasion_warn_score", c.EvasionWarnScore},
		{"low_specificity_score", c.LowSpecificityScore},
		{"weak_specificity_score", c.WeakSpecificScore},
		{"relaxed_specificity_score", c.RelaxedSpecScore},
		{"red_flag_cap_score", c.RedFlagCapScore},
		{"downgrade_score", c.DowngradeScore},
		{"signal_boost_value", c.SignalBoostValue},
		{"no_signal_score", c.NoSignalScore},
		{"partnership_score", c.PartnershipScore},
		{"student_score", c.StudentScore},
	} {
		if f.v < 0 || f.v > 10 {
			errs = append(errs, fmt.Errorf("%s %d must be within 0..10", f.name, f.v))
		}
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"evasion_reject_count", c.EvasionRejectCount},
		{"evasion_warn_count", c.EvasionWarnCount},
		{"relaxed_signal_count", c.RelaxedSignalCount},
		{"red_flag_cap_count", c.RedFlagCapCount},
		{"red_flag_deduct_count", c.RedFlagDeductCount},
		{"signal_boost_count", c.SignalBoostCount},
	} {
		if f.v < 1 {
			errs = append(errs, fmt.Errorf("%s %d must be at least 1", f.name, f.v))
		}
	}
	if c.EvasionWarnCount > c.EvasionRejectCount {
		errs = append(errs, fmt.Errorf("evasion_warn_count %d must not exceed evasion_reject_count %d", c.EvasionWarnCount, c.EvasionRejectCount))
	}
	if c.RedFlagDeductCount > c.RedFlagCapCount {
		errs = append(errs, fmt.Errorf("red_flag_deduct_count %d must not exceed red_flag_cap_count %d", c.RedFlagDeductCount, c.RedFlagCapCount))
	}

	if c.DoNotRecommendMax < 0 || c.DoNotRecommendMax >= c.ReferOutMax || c.ReferOutMax >= c.IfBandwidthMax || c.IfBandwidthMax > 10 {
		errs = append(errs, fmt.Errorf("recommendation bands must ascend 0 <= do_not_recommend_max %d < refer_out_max %d < recommend_if_bandwidth_max %d <= 10",
			c.DoNotRecommendMax, c.ReferOutMax, c.IfBandwidthMax))
	}

	return errors.Join(errs...)
}
