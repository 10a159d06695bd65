// Package scoring fuses the analyzers' summaries and the evaluator's raw
// judgment into an authenticity axis, a quality axis and a final
// recommendation. Hardcoded rules always decide the outcome; the
// evaluator only supplies the starting point of the quality axis.
package scoring

import "fmt"

// Recommendation is the final outcome tier.
type Recommendation string

const (
	DoNotRecommend       Recommendation = "do_not_recommend"
	ReferOut             Recommendation = "refer_out"
	RecommendIfBandwidth Recommendation = "recommend_if_bandwidth"
	RecommendMeeting     Recommendation = "recommend_meeting"
)

// Classification labels consumed by the quality axis.
const (
	ClassFounder     = "founder"
	ClassStudent     = "student"
	ClassOperator    = "operator"
	ClassPartnership = "partnership"
	ClassUnknown     = "unknown"
)

// Inputs are the aggregated conversation summaries the scorer reads.
type Inputs struct {
	CumulativeAI         float64
	EvasionCount         int
	AvgSpecificity       float64
	BehavioralRedFlags   int
	SignalCount          int
	ArchetypeSimilarity  float64
	Classification       string
	HasStrongCredentials bool
	HardcodedRejection   bool
	HardcodedReason      string

	// EvaluatorScore is the external evaluator's raw 0..10 judgment.
	EvaluatorScore int
}

// Result is the scorer's output.
type Result struct {
	AuthenticityScore   int            `json:"authenticity_score"`
	AuthenticityFactors []string       `json:"authenticity_factors"`
	QualityScore        int            `json:"quality_score"`
	QualityFactors      []string       `json:"quality_factors"`
	FinalScore          int            `json:"final_score"`
	Recommendation      Recommendation `json:"recommendation"`
	RecommendationText  string         `json:"recommendation_text"`
	Factors             []string       `json:"combined_factors"`
}

// Scorer applies Config to Inputs.
type Scorer struct {
	cfg Config
}

// New returns a Scorer.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score runs both axes and the final combination.
func (s *Scorer) Score(in Inputs) Result {
	auth, authFactors := s.Authenticity(in.CumulativeAI, in.EvasionCount, in.AvgSpecificity, in.BehavioralRedFlags, in.SignalCount)
	quality, qualityFactors := s.Quality(in.EvaluatorScore, in.SignalCount, in.ArchetypeSimilarity, in.Classification, in.HasStrongCredentials)
	final, rec, finalFactors := s.Final(auth, quality, in.HardcodedRejection, in.HardcodedReason)

	factors := make([]string, 0, len(authFactors)+len(qualityFactors)+len(finalFactors))
	factors = append(factors, authFactors...)
	factors = append(factors, qualityFactors...)
	factors = append(factors, finalFactors...)

	return Result{
		AuthenticityScore:   auth,
		AuthenticityFactors: authFactors,
		QualityScore:        quality,
		QualityFactors:      qualityFactors,
		FinalScore:          final,
		Recommendation:      rec,
		RecommendationText:  Text(rec, final),
		Factors:             factors,
	}
}

// Authenticity scores whether the contact is a real person answering in
// their own words. It starts at 10 and only ever decreases.
func (s *Scorer) Authenticity(cumulativeAI float64, evasions int, avgSpecificity float64, redFlags, signalCount int) (int, []string) {
	c := s.cfg
	score := 10
	factors := []string{}

	if cumulativeAI >= c.AuthRejectAI {
		return c.AuthRejectScore, append(factors, fmt.Sprintf("Very high AI probability (%.2f)", cumulativeAI))
	}

	switch {
	case cumulativeAI >= c.AuthCapAI:
		score = min(score, c.AuthCapScore)
		factors = append(factors, fmt.Sprintf("High AI probability (%.2f) - capped at %d", cumulativeAI, c.AuthCapScore))
	case cumulativeAI >= c.AuthWarnAI:
		score = min(score, c.AuthWarnScore)
		factors = append(factors, fmt.Sprintf("Moderate AI signals (%.2f)", cumulativeAI))
	}

	switch {
	case evasions >= c.EvasionRejectCount:
		score = min(score, c.EvasionRejectScore)
		factors = append(factors, fmt.Sprintf("Too many evasive responses (%d)", evasions))
	case evasions >= c.EvasionWarnCount:
		score = min(score, c.EvasionWarnScore)
		factors = append(factors, fmt.Sprintf("Multiple evasive responses (%d)", evasions))
	}

	switch {
	case avgSpecificity < c.LowSpecificity && cumulativeAI >= c.LowSpecificityAI:
		score = min(score, c.LowSpecificityScore)
		factors = append(factors, "Very low specificity combined with AI signals")
	case avgSpecificity < c.WeakSpecificity:
		if signalCount >= c.RelaxedSignalCount {
			score = min(score, c.RelaxedSpecScore)
			factors = append(factors, fmt.Sprintf("Low specificity in responses (%.2f); relaxed (concrete signals present)", avgSpecificity))
		} else {
			score = min(score, c.WeakSpecificScore)
			factors = append(factors, fmt.Sprintf("Low specificity in responses (%.2f)", avgSpecificity))
		}
	}

	switch {
	case redFlags >= c.RedFlagCapCount:
		score = min(score, c.RedFlagCapScore)
		factors = append(factors, fmt.Sprintf("Multiple behavioral red flags (%d)", redFlags))
	case redFlags >= c.RedFlagDeductCount:
		score--
		factors = append(factors, fmt.Sprintf("Some behavioral red flags (%d)", redFlags))
	}

	return max(0, score), factors
}

// Quality scores whether the contact is worth the time, starting from the
// evaluator's raw judgment.
func (s *Scorer) Quality(evaluatorScore, signalCount int, similarity float64, classification string, strongCredentials bool) (int, []string) {
	c := s.cfg
	score := clamp(evaluatorScore)
	factors := []string{}

	if similarity >= c.RejectSimilarity {
		return 1, append(factors, "Too similar to rejected low-signal pattern")
	}
	if similarity >= c.DowngradeSimilarity {
		score = min(score, c.DowngradeScore)
		factors = append(factors, fmt.Sprintf("Similar to known low-signal archetype (%.2f)", similarity))
	}

	switch {
	case signalCount >= c.SignalBoostCount:
		score = min(score+c.SignalBoostValue, 10)
		factors = append(factors, fmt.Sprintf("Strong concrete signals (%d)", signalCount))
	case signalCount >= 2:
		factors = append(factors, fmt.Sprintf("Some concrete signals (%d)", signalCount))
	case signalCount == 0:
		score = min(score, c.NoSignalScore)
		factors = append(factors, "No concrete signals detected")
	}

	if classification == ClassPartnership {
		score = min(score, c.PartnershipScore)
		factors = append(factors, "Partnership/sales outreach - typically low signal")
	}
	if classification == ClassStudent && signalCount == 0 {
		score = min(score, c.StudentScore)
		factors = append(factors, "Student without specific actionable need")
	}

	if strongCredentials && score < 10 {
		score++
		factors = append(factors, "Strong credentials detected")
	}

	return clamp(score), factors
}

// Final combines the axes. A hardcoded rejection overrides both.
func (s *Scorer) Final(auth, quality int, hardcoded bool, reason string) (int, Recommendation, []string) {
	if hardcoded {
		return 1, DoNotRecommend, []string{"Hardcoded rejection: " + reason}
	}

	final := min(auth, quality)
	var factor string
	switch {
	case auth < quality:
		factor = fmt.Sprintf("Score limited by authenticity (%d)", auth)
	case quality < auth:
		factor = fmt.Sprintf("Score limited by quality (%d)", quality)
	default:
		factor = fmt.Sprintf("Both axes aligned at %d", final)
	}
	return final, s.Band(final), []string{factor}
}

// Band maps a final score to its recommendation.
func (s *Scorer) Band(score int) Recommendation {
	switch {
	case score <= s.cfg.DoNotRecommendMax:
		return DoNotRecommend
	case score <= s.cfg.ReferOutMax:
		return ReferOut
	case score <= s.cfg.IfBandwidthMax:
		return RecommendIfBandwidth
	default:
		return RecommendMeeting
	}
}

// Text is the human-readable form of a recommendation.
func Text(rec Recommendation, score int) string {
	switch rec {
	case DoNotRecommend:
		return fmt.Sprintf("Not recommended (Score: %d/10). This does not appear to be a good use of the reviewer's time.", score)
	case ReferOut:
		return fmt.Sprintf("Refer out (Score: %d/10). May be worth connecting with other resources, but not a priority meeting.", score)
	case RecommendIfBandwidth:
		return fmt.Sprintf("Consider if bandwidth (Score: %d/10). Some interesting signals, but not a strong fit. Meeting optional.", score)
	case RecommendMeeting:
		return fmt.Sprintf("Recommend meeting (Score: %d/10). Strong signals detected. Worth the reviewer's time.", score)
	default:
		return fmt.Sprintf("Score: %d/10", score)
	}
}

func clamp(score int) int {
	return max(0, min(10, score))
}
