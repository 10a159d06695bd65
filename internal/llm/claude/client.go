// Package claude implements the triage evaluator and responder on the
// Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/screener/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/screener/internal/llm/claude")

// Config holds the client settings.
type Config struct {
	APIKey     string
	Model      string
	Timeout    time.Duration // per attempt
	MaxRetries int           // extra attempts after a timeout or 5xx
	BaseURL    string        // empty uses the public endpoint
}

const (
	defaultTimeout       = 20 * time.Second
	evaluatorMaxTokens   = 1024
	responderMaxTokens   = 300
	evaluatorTemperature = 0.2
	responderTemperature = 0.7
)

// Client talks to Claude. It implements triage.Evaluator and
// triage.Responder.
type Client struct {
	sdk        anthropic.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     log.Logger
}

// New creates a Client. SDK-level retries are disabled; the retry policy is
// the client's own.
func New(cfg Config, logger log.Logger) *Client {
	if logger == nil {
		logger = log.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		sdk:        anthropic.NewClient(opts...),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: max(0, cfg.MaxRetries),
		logger:     logger,
	}
}

// reply is the flattened model output.
type reply struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// send issues params with up to retries extra attempts. Only attempt
// timeouts and 5xx responses are retried, without backoff. Every failure is
// wrapped in triage.ErrEvaluatorUnavailable.
func (c *Client) send(ctx context.Context, op string, params anthropic.MessageNewParams, retries int) (*reply, error) {
	ctx, span := tracer.Start(ctx, "claude."+op)
	defer span.End()
	span.SetAttributes(attribute.String("gen_ai.request.model", c.model))

	params.Model = anthropic.Model(c.model)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		msg, err := c.attempt(ctx, params)
		if err == nil {
			r := fromSDKResponse(msg)
			span.SetAttributes(
				attribute.Int("gen_ai.usage.input_tokens", r.InputTokens),
				attribute.Int("gen_ai.usage.output_tokens", r.OutputTokens),
				attribute.Int("claude.attempts", attempt+1),
			)
			return r, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
		c.logger.Warn(ctx, "claude call failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"error", err,
		)
	}

	err := fmt.Errorf("%w: %w", triage.ErrEvaluatorUnavailable, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (c *Client) attempt(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	msg, err := c.sdk.Messages.New(actx, params)
	if err != nil {
		if actx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("attempt timed out after %s: %w", c.timeout, context.DeadlineExceeded)
		}
		return nil, err
	}
	return msg, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// fromSDKResponse joins the text blocks of msg.
func fromSDKResponse(msg *anthropic.Message) *reply {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.Text)
	}
	return &reply{
		Text:         strings.TrimSpace(b.String()),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
}

// toSDKMessages maps a conversation history onto the alternating user and
// assistant turns the API requires. Leading assistant messages are dropped
// and consecutive messages from one role are merged.
func toSDKMessages(history []triage.Message) []anthropic.MessageParam {
	type turn struct {
		role  string
		parts []string
	}
	var turns []turn
	for _, m := range history {
		if len(turns) == 0 && m.Role != triage.RoleUser {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].role == m.Role {
			turns[n-1].parts = append(turns[n-1].parts, m.Content)
			continue
		}
		turns = append(turns, turn{role: m.Role, parts: []string{m.Content}})
	}

	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(strings.Join(t.parts, "\n\n"))
		if t.role == triage.RoleUser {
			out = append(out, anthropic.NewUserMessage(block))
		} else {
			out = append(out, anthropic.NewAssistantMessage(block))
		}
	}
	return out
}
