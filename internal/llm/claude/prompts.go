package claude

import (
	"fmt"
	"strings"

	"github.com/linnemanlabs/screener/internal/signals"
	"github.com/linnemanlabs/screener/internal/triage"
)

const personaPrompt = `You are the screener, an automated triage filter for an early-stage investor's inbound meeting requests.

You are not a mentor and not a helpful chatbot. The investor gets 100-200 requests a month and can take a handful of meetings. Your job is to find the few worth that time.

What counts as signal:
- Product-to-problem fit: the pain goes away when customers use the product. Retention, referrals, organic demand.
- Motion-to-market fit: a narrow persona reached through one channel with a sharp message, and a path to positive contribution margin.
- Founders who report what customers do, not what they say.

How you talk:
- Be direct and brief. One question per message.
- Demand specifics: numbers, dates, names of customers or channels.
- Call out vague or generic answers plainly.
- No pleasantries, no encouragement, no advice, no "that's interesting".

If the system flags an answer as likely machine-written, say so and ask for an answer in their own words.`

// systemFor builds the responder system prompt for one turn.
func systemFor(req *triage.ResponderRequest) string {
	var b strings.Builder
	b.WriteString(personaPrompt)
	fmt.Fprintf(&b, "\n\n[TURN %d INSTRUCTION]\n", req.Turn)
	if req.AIContext != "" {
		b.WriteString(req.AIContext)
		b.WriteString("\n\n")
	}
	b.WriteString(req.Instruction)
	if req.Classification != "" {
		fmt.Fprintf(&b, "\n\nContact classification: %s", req.Classification)
	}
	b.WriteString("\n\nReply with the next message to the contact only.")
	return b.String()
}

const evaluationInstructions = `Respond with JSON only, exactly this shape:
{
  "score": <integer 0-10>,
  "recommendation": "<do_not_recommend|refer_out|recommend_if_bandwidth|recommend_meeting>",
  "rationale": ["<specific point>", "<specific point>", "<specific point>"],
  "suggested_meeting_focus": "<one sentence if score >= 6, empty otherwise>",
  "key_claims_to_verify": ["<claim>"],
  "ai_detection": {"likely_ai_generated": <true|false>, "confidence": "<low|medium|high>", "red_flags": ["<flag>"]}
}

Scoring guide:
- 0-2: definite no. Machine-written, no substance, wrong fit.
- 3-4: probably no. Vague, weak signals or too early.
- 5-6: maybe. Some signal, not compelling.
- 7-8: worth considering. Clear value and fit.
- 9-10: strong yes.

When in doubt, score lower. A missed meeting costs less than a wasted one.`

// evaluationPrompt renders everything the evaluator needs into one message.
func evaluationPrompt(req *triage.EvaluationRequest) string {
	var b strings.Builder
	b.WriteString("Decide whether this contact is worth a meeting.\n\n")

	b.WriteString("## Automated AI detection (binding)\n")
	fmt.Fprintf(&b, "- Cumulative AI score: %.2f\n", req.AIDetection.CumulativeScore)
	fmt.Fprintf(&b, "- Effective AI score with behavioral penalty: %.2f\n", req.AIDetection.EffectiveScore)
	fmt.Fprintf(&b, "- Flags: %s\n", listOrNone(req.AIDetection.Flags))
	b.WriteString("If the cumulative score is 0.5 or more, the score must be 0-2 regardless of content.\n\n")

	b.WriteString("## Behavior\n")
	fmt.Fprintf(&b, "- Evasive answers: %d\n", req.Behavior.EvasionCount)
	fmt.Fprintf(&b, "- Average specificity: %.2f\n", req.Behavior.AvgSpecificity)
	fmt.Fprintf(&b, "- Temporal grounding: %t\n", req.Behavior.HasTemporal)
	fmt.Fprintf(&b, "- Red flags: %d\n\n", req.Behavior.RedFlagCount)

	b.WriteString("## Concrete signals\n")
	fmt.Fprintf(&b, "- Traction: %s\n", listOrNone(rawMatches(req.Signals.Traction)))
	fmt.Fprintf(&b, "- Credentials: %s\n", listOrNone(rawMatches(req.Signals.Credentials)))
	fmt.Fprintf(&b, "- Total: %d\n\n", req.Signals.Count())

	b.WriteString("## Archetype\n")
	fmt.Fprintf(&b, "- Similarity to rejected pitches: %.2f\n", req.Archetype.Similarity())
	matched := "none"
	if id := req.Archetype.Keyword.ArchetypeID; id != "" {
		matched = id
	}
	fmt.Fprintf(&b, "- Matched archetype: %s\n", matched)
	fmt.Fprintf(&b, "- Contact classification: %s\n\n", req.Classification)

	b.WriteString("## Transcript\n")
	b.WriteString(req.Transcript)
	b.WriteString("\n\n")
	b.WriteString(evaluationInstructions)
	return b.String()
}

func rawMatches(sigs []signals.Signal) []string {
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, fmt.Sprintf("%s (%s)", s.Raw, s.Type))
	}
	return out
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}
