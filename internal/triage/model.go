package triage

import (
	"strings"
	"time"

	"github.com/linnemanlabs/screener/internal/archetype"
	"github.com/linnemanlabs/screener/internal/authenticity"
	"github.com/linnemanlabs/screener/internal/behavior"
	"github.com/linnemanlabs/screener/internal/scoring"
	"github.com/linnemanlabs/screener/internal/signals"
)

// Status tracks where a conversation is in its lifecycle.
type Status string

const (
	// StatusNew means created at intake, no user turn yet
	StatusNew Status = "NEW"

	// StatusActive means at least one user turn, not yet evaluated
	StatusActive Status = "ACTIVE"

	// StatusEvaluating means the evaluation trigger fired for the current turn
	StatusEvaluating Status = "EVALUATING"

	// StatusScored means an evaluation is attached (terminal)
	StatusScored Status = "SCORED"

	// StatusRejected means a hardcoded rejection was recorded (terminal once evaluated)
	StatusRejected Status = "REJECTED"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DetectionRecord is the authenticity detector's output for one turn.
type DetectionRecord struct {
	Turn int `json:"turn"`
	authenticity.Result
}

// BehavioralRecord is the behavioral prober's output for one turn.
type BehavioralRecord struct {
	Turn int `json:"turn"`
	behavior.Result
}

// AIJudgment is the evaluator's own view on generated content.
type AIJudgment struct {
	LikelyAIGenerated bool     `json:"likely_ai_generated"`
	Confidence        string   `json:"confidence"`
	RedFlags          []string `json:"red_flags"`
}

// Evaluation is the post-processed verdict attached to a scored
// conversation. Score and Recommendation always come from the hardcoded
// rules; OriginalScore keeps what the evaluator said.
type Evaluation struct {
	Score                 int                    `json:"score"`
	Recommendation        scoring.Recommendation `json:"recommendation"`
	RecommendationText    string                 `json:"recommendation_text"`
	AuthenticityScore     int                    `json:"authenticity_score"`
	QualityScore          int                    `json:"quality_score"`
	Factors               []string               `json:"scoring_factors"`
	Rationale             []string               `json:"rationale"`
	SuggestedMeetingFocus string                 `json:"suggested_meeting_focus"`
	KeyClaimsToVerify     []string               `json:"key_claims_to_verify"`
	AIDetection           AIJudgment             `json:"ai_detection"`
	OriginalScore         int                    `json:"original_llm_score"`
	HasStrongCredentials  bool                   `json:"has_strong_credentials"`
	HardcodedOverride     bool                   `json:"hardcoded_override"`
	Fallback              bool                   `json:"fallback"`
	TriggerReason         string                 `json:"trigger_reason"`
	CompletedAt           time.Time              `json:"completed_at"`
}

// ConversationState is the full record of one triage conversation.
type ConversationState struct {
	ID                       string                `json:"conversation_id"`
	ContactID                string                `json:"contact_id"`
	Email                    string                `json:"email"`
	Status                   Status                `json:"status"`
	Messages                 []Message             `json:"messages"`
	TurnCount                int                   `json:"turn_count"`
	CumulativeAIScore        float64               `json:"cumulative_ai_score"`
	DetectionHistory         []DetectionRecord     `json:"ai_detection_history"`
	BehavioralHistory        []BehavioralRecord    `json:"behavioral_history"`
	Signals                  signals.Result        `json:"concrete_signals"`
	Archetype                *archetype.Assessment `json:"archetype_analysis,omitempty"`
	Classification           string                `json:"classification"`
	Evaluation               *Evaluation           `json:"evaluation,omitempty"`
	HardcodedRejection       bool                  `json:"hardcoded_rejection"`
	HardcodedRejectionReason string                `json:"hardcoded_rejection_reason"`
	CreatedAt                time.Time             `json:"created_at"`
	UpdatedAt                time.Time             `json:"updated_at"`
}

// NewConversation returns a state at turn 0.
func NewConversation(id, contactID string, now time.Time) *ConversationState {
	now = now.UTC()
	return &ConversationState{
		ID:             id,
		ContactID:      contactID,
		Status:         StatusNew,
		Classification: scoring.ClassUnknown,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Closed reports whether an evaluation has been attached.
func (s *ConversationState) Closed() bool {
	return s.Evaluation != nil
}

// AddUserMessage appends a user message and advances the turn.
func (s *ConversationState) AddUserMessage(text string, now time.Time) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: text})
	s.TurnCount++
	if s.Status == StatusNew {
		s.Status = StatusActive
	}
	s.UpdatedAt = now.UTC()
}

// AddAssistantMessage appends an assistant message.
func (s *ConversationState) AddAssistantMessage(text string, now time.Time) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: text})
	s.UpdatedAt = now.UTC()
}

// AddDetection records the current turn's detector output. The carried
// cumulative score is taken from the detector, never set directly.
func (s *ConversationState) AddDetection(r authenticity.Result) {
	s.DetectionHistory = append(s.DetectionHistory, DetectionRecord{Turn: s.TurnCount, Result: r})
	s.CumulativeAIScore = r.CumulativeScore
}

// AddBehavioral records the current turn's prober output.
func (s *ConversationState) AddBehavioral(r behavior.Result) {
	s.BehavioralHistory = append(s.BehavioralHistory, BehavioralRecord{Turn: s.TurnCount, Result: r})
}

// AddSignals merges a message's signals into the conversation,
// deduplicating by type and value. It returns how many were new.
func (s *ConversationState) AddSignals(r signals.Result) int {
	var added int
	s.Signals.Traction, added = mergeSignals(s.Signals.Traction, r.Traction, added)
	s.Signals.Credentials, added = mergeSignals(s.Signals.Credentials, r.Credentials, added)
	return added
}

func mergeSignals(have, in []signals.Signal, added int) ([]signals.Signal, int) {
	seen := make(map[string]struct{}, len(have))
	for _, sig := range have {
		seen[sig.Key()] = struct{}{}
	}
	for _, sig := range in {
		if _, ok := seen[sig.Key()]; ok {
			continue
		}
		seen[sig.Key()] = struct{}{}
		have = append(have, sig)
		added++
	}
	return have, added
}

// RecordHardcodedRejection sets the sticky rejection. The first reason wins.
func (s *ConversationState) RecordHardcodedRejection(reason string) {
	if s.HardcodedRejection {
		return
	}
	s.HardcodedRejection = true
	s.HardcodedRejectionReason = reason
	s.Status = StatusRejected
}

// BeginEvaluation marks the evaluation trigger as fired.
func (s *ConversationState) BeginEvaluation() {
	if s.Status != StatusRejected {
		s.Status = StatusEvaluating
	}
}

// AttachEvaluation stores the final verdict.
func (s *ConversationState) AttachEvaluation(e *Evaluation) {
	s.Evaluation = e
	if s.Status != StatusRejected {
		s.Status = StatusScored
	}
	s.UpdatedAt = e.CompletedAt.UTC()
}

// Behavior returns the behavioral history as prober results.
func (s *ConversationState) Behavior() []behavior.Result {
	out := make([]behavior.Result, len(s.BehavioralHistory))
	for i, b := range s.BehavioralHistory {
		out[i] = b.Result
	}
	return out
}

// SignalCount is the number of distinct signals across the conversation.
func (s *ConversationState) SignalCount() int {
	return s.Signals.Count()
}

// FirstUserMessage is the contact's opening pitch.
func (s *ConversationState) FirstUserMessage() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// Transcript renders the messages for the evaluator.
func (s *ConversationState) Transcript() string {
	var b strings.Builder
	for i, m := range s.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if m.Role == RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Screener: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
