package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/linnemanlabs/screener/internal/triage"
)

var errEmptyReply = errors.New("empty reply")

// NextMessage implements triage.Responder. It makes a single attempt; the
// engine has its own fallback question.
func (c *Client) NextMessage(ctx context.Context, req *triage.ResponderRequest) (string, error) {
	msgs := toSDKMessages(req.History)
	if len(msgs) == 0 {
		return "", fmt.Errorf("responder: no user message in history")
	}

	params := anthropic.MessageNewParams{
		MaxTokens:   responderMaxTokens,
		Temperature: anthropic.Float(responderTemperature),
		System:      []anthropic.TextBlockParam{{Text: systemFor(req)}},
		Messages:    msgs,
	}
	r, err := c.send(ctx, "respond", params, 0)
	if err != nil {
		return "", err
	}
	if r.Text == "" {
		return "", fmt.Errorf("responder: %w", errEmptyReply)
	}
	return r.Text, nil
}
