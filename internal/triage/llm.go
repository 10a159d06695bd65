package triage

import (
	"context"

	"github.com/linnemanlabs/screener/internal/archetype"
	"github.com/linnemanlabs/screener/internal/classify"
	"github.com/linnemanlabs/screener/internal/signals"
)

// Evaluator produces the raw quality judgment for a finished conversation.
// Implementations wrap failures in ErrEvaluatorUnavailable or
// ErrMalformedJudgment.
type Evaluator interface {
	Evaluate(ctx context.Context, req *EvaluationRequest) (*Judgment, error)
}

// Responder writes the next assistant message.
type Responder interface {
	NextMessage(ctx context.Context, req *ResponderRequest) (string, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Classifier labels a contact from their email and a free-text description.
type Classifier interface {
	Classify(email, text string) classify.Classification
}

// Notifier is told about conversations worth a meeting.
type Notifier interface {
	Notify(ctx context.Context, s *ConversationState) error
}

// EvaluationRequest is everything the evaluator sees.
type EvaluationRequest struct {
	ConversationID string
	Transcript     string
	AIDetection    AIDetectionSummary
	Behavior       BehaviorSummary
	Signals        signals.Result
	Archetype      archetype.Assessment
	Classification string
}

// AIDetectionSummary aggregates the detector history.
type AIDetectionSummary struct {
	CumulativeScore float64   `json:"cumulative_score"`
	EffectiveScore  float64   `json:"effective_score"`
	Flags           []string  `json:"flags"`
	TurnScores      []float64 `json:"turn_scores"`
}

// BehaviorSummary aggregates the prober history.
type BehaviorSummary struct {
	EvasionCount   int     `json:"evasion_count"`
	AvgSpecificity float64 `json:"avg_specificity"`
	HasTemporal    bool    `json:"has_temporal"`
	RedFlagCount   int     `json:"red_flag_count"`
}

// Judgment is the evaluator's raw output. Its Recommendation is ignored;
// the final tier is always derived by the scorer.
type Judgment struct {
	Score                 int        `json:"score"`
	Recommendation        string     `json:"recommendation"`
	Rationale             []string   `json:"rationale"`
	SuggestedMeetingFocus string     `json:"suggested_meeting_focus"`
	KeyClaimsToVerify     []string   `json:"key_claims_to_verify"`
	AIDetection           AIJudgment `json:"ai_detection"`

	InputTokens  int `json:"-"`
	OutputTokens int `json:"-"`
}

// FallbackRationale marks an evaluation that used the neutral default.
const FallbackRationale = "fallback: evaluator unavailable"

// FallbackJudgment is the neutral evaluation used when the evaluator
// fails or returns something unusable.
func FallbackJudgment() *Judgment {
	return &Judgment{
		Score:          5,
		Recommendation: "refer_out",
		Rationale:      []string{FallbackRationale},
		AIDetection:    AIJudgment{Confidence: "low"},
	}
}

// ResponderRequest is everything the responder sees.
type ResponderRequest struct {
	ConversationID string
	Turn           int
	History        []Message
	Instruction    string
	Classification string
	AIContext      string
}
