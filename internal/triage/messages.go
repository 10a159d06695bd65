package triage

import (
	"fmt"

	"github.com/linnemanlabs/screener/internal/scoring"
)

// OpeningMessage starts every conversation.
const OpeningMessage = "Tell me what you're working on and why you want this meeting. Specifics beat adjectives."

var turnInstructions = []string{
	"First turn. Ask why this meeting specifically and which concrete problem they are stuck on. " +
		"If they already said, ask for evidence: retention numbers, paying customers, or what users actually do.",
	"Second turn. Probe for authenticity. Ask what assumption turned out wrong or what they tried that failed. " +
		"If they were vague, say so and ask for numbers and dates.",
	"Third turn. Ask for concrete signals: retention, unit economics, acquisition channel, how narrow the customer profile is. " +
		"If they evaded earlier, repeat the unanswered question plainly.",
	"Fourth turn. Ask about a decision they personally made and its tradeoff, or a specific moment that changed their plan.",
	"Final turn. Ask the one question whose answer would most change the assessment. Keep it short.",
}

// TurnInstruction returns the responder instruction for a 1-based turn.
// Turns past the last instruction reuse it.
func TurnInstruction(turn int) string {
	i := min(max(turn, 1), len(turnInstructions)) - 1
	return turnInstructions[i]
}

// ClosingMessage is the assistant's final message once an evaluation is
// attached. Bands follow the scorer's recommendation boundaries.
func ClosingMessage(cfg scoring.Config, e *Evaluation) string {
	switch {
	case e.Score <= cfg.DoNotRecommendMax:
		return fmt.Sprintf("Based on our conversation, I don't see a strong fit for a meeting at this time. %s", e.RecommendationText)
	case e.Score <= cfg.ReferOutMax:
		return fmt.Sprintf("Thank you for sharing. %s I'd suggest exploring other resources that might be a better fit.", e.RecommendationText)
	default:
		return fmt.Sprintf("This looks promising. %s I'll flag this for review.", e.RecommendationText)
	}
}
