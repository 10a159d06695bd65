package triage

import "errors"

var (
	// ErrEmptyMessage is returned for an empty or whitespace-only user message.
	// No state is mutated.
	ErrEmptyMessage = errors.New("message is required")

	// ErrMessageTooLong is returned for a user message over MaxMessageBytes.
	// No state is mutated.
	ErrMessageTooLong = errors.New("message too long")

	// ErrNotFound is returned for an unknown conversation id.
	ErrNotFound = errors.New("conversation not found")

	// ErrConversationClosed is returned for a turn on a conversation that
	// already has an evaluation.
	ErrConversationClosed = errors.New("conversation already evaluated")

	// ErrInvalidToken is returned when a stateless token cannot be decoded.
	ErrInvalidToken = errors.New("invalid state token")

	// ErrEvaluatorUnavailable wraps evaluator timeouts and 5xx responses
	// once retries are exhausted.
	ErrEvaluatorUnavailable = errors.New("evaluator unavailable")

	// ErrMalformedJudgment wraps evaluator responses that could not be parsed.
	ErrMalformedJudgment = errors.New("malformed evaluator judgment")
)
