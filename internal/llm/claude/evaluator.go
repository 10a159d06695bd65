package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/linnemanlabs/screener/internal/triage"
)

const evaluatorSystem = "You are a strict evaluator of inbound meeting requests for an early-stage investor. You output JSON only."

// Evaluate implements triage.Evaluator.
func (c *Client) Evaluate(ctx context.Context, req *triage.EvaluationRequest) (*triage.Judgment, error) {
	params := anthropic.MessageNewParams{
		MaxTokens:   evaluatorMaxTokens,
		Temperature: anthropic.Float(evaluatorTemperature),
		System:      []anthropic.TextBlockParam{{Text: evaluatorSystem}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(evaluationPrompt(req))),
		},
	}

	r, err := c.send(ctx, "evaluate", params, c.maxRetries)
	if err != nil {
		return nil, err
	}

	j, err := parseJudgment(r.Text)
	if err != nil {
		c.logger.Warn(ctx, "unusable evaluator output",
			"conversation_id", req.ConversationID,
			"error", err,
			"output_chars", len(r.Text),
		)
		return nil, err
	}
	j.InputTokens, j.OutputTokens = r.InputTokens, r.OutputTokens
	return j, nil
}

// parseJudgment extracts the outermost JSON object from text. Models
// sometimes wrap it in prose or a code fence.
func parseJudgment(text string) (*triage.Judgment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", triage.ErrMalformedJudgment)
	}

	var j triage.Judgment
	if err := json.Unmarshal([]byte(text[start:end+1]), &j); err != nil {
		return nil, fmt.Errorf("%w: %v", triage.ErrMalformedJudgment, err)
	}
	if j.Score < 0 || j.Score > 10 {
		return nil, fmt.Errorf("%w: score %d out of range", triage.ErrMalformedJudgment, j.Score)
	}
	return &j, nil
}
