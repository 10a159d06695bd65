// Package slack posts conversations worth a meeting to a Slack incoming
// webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/screener/internal/scoring"
	"github.com/linnemanlabs/screener/internal/triage"
)

const (
	maxPitchLen = 600
	httpTimeout = 10 * time.Second
)

// Notifier sends scored conversations to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a Slack notifier. If webhookURL is empty, Notify is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Notify implements triage.Notifier. Conversations without an evaluation
// are skipped.
func (n *Notifier) Notify(ctx context.Context, s *triage.ConversationState) error {
	if n.webhookURL == "" || s.Evaluation == nil {
		return nil
	}

	body, err := json.Marshal(buildMessage(s))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "slack notification sent",
		"conversation_id", s.ID,
		"score", s.Evaluation.Score,
		"recommendation", s.Evaluation.Recommendation,
	)
	return nil
}

func buildMessage(s *triage.ConversationState) map[string]any {
	blocks := []map[string]any{
		headerBlock(s),
		{"type": "divider"},
		fieldsBlock(s),
		pitchBlock(s),
	}
	if b := rationaleBlock(s.Evaluation); b != nil {
		blocks = append(blocks, b)
	}
	blocks = append(blocks, contextBlock(s))
	return map[string]any{"blocks": blocks}
}

func headerBlock(s *triage.ConversationState) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s (%d/10)", recommendationEmoji(s.Evaluation.Recommendation),
				headline(s.Evaluation.Recommendation), s.Evaluation.Score),
		},
	}
}

func fieldsBlock(s *triage.ConversationState) map[string]any {
	e := s.Evaluation
	field := func(format string, args ...any) map[string]any {
		return map[string]any{"type": "mrkdwn", "text": fmt.Sprintf(format, args...)}
	}
	return map[string]any{
		"type": "section",
		"fields": []map[string]any{
			field("*Contact:* %s", contact(s)),
			field("*Classification:* %s", s.Classification),
			field("*Authenticity:* %d/10", e.AuthenticityScore),
			field("*Quality:* %d/10", e.QualityScore),
			field("*AI score:* %.2f", s.CumulativeAIScore),
			field("*Turns:* %d", s.TurnCount),
		},
	}
}

func pitchBlock(s *triage.ConversationState) map[string]any {
	pitch := truncate(s.FirstUserMessage(), maxPitchLen)
	if pitch == "" {
		pitch = "_No pitch recorded._"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": "*Pitch*\n>" + strings.ReplaceAll(pitch, "\n", "\n>"),
		},
	}
}

func rationaleBlock(e *triage.Evaluation) map[string]any {
	var b strings.Builder
	if len(e.Rationale) > 0 {
		b.WriteString("*Why*\n")
		for _, r := range e.Rationale {
			fmt.Fprintf(&b, "• %s\n", r)
		}
	}
	if e.SuggestedMeetingFocus != "" {
		fmt.Fprintf(&b, "*Meeting focus:* %s\n", e.SuggestedMeetingFocus)
	}
	if len(e.KeyClaimsToVerify) > 0 {
		fmt.Fprintf(&b, "*Verify:* %s\n", strings.Join(e.KeyClaimsToVerify, "; "))
	}
	if b.Len() == 0 {
		return nil
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": strings.TrimSuffix(b.String(), "\n")},
	}
}

func contextBlock(s *triage.ConversationState) map[string]any {
	ts := s.Evaluation.CompletedAt
	if ts.IsZero() {
		ts = s.UpdatedAt
	}
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{{
			"type": "mrkdwn",
			"text": fmt.Sprintf("screener • conversation %s • %s", s.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		}},
	}
}

func contact(s *triage.ConversationState) string {
	if s.Email != "" {
		return s.Email
	}
	return s.ContactID
}

func headline(r scoring.Recommendation) string {
	switch r {
	case scoring.RecommendMeeting:
		return "Recommend meeting"
	case scoring.RecommendIfBandwidth:
		return "Meeting if bandwidth"
	case scoring.ReferOut:
		return "Refer out"
	default:
		return "Do not recommend"
	}
}

func recommendationEmoji(r scoring.Recommendation) string {
	switch r {
	case scoring.RecommendMeeting:
		return "\U0001f7e2" // green circle
	case scoring.RecommendIfBandwidth:
		return "\U0001f7e1" // yellow circle
	default:
		return "⚪" // white circle
	}
}

// truncate shortens s to at most limit runes.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
