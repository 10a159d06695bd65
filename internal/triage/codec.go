package triage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Encode serializes a state into an opaque token for stateless transport.
// Decode is its exact inverse.
func Encode(s *ConversationState) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode restores a state from a token produced by Encode.
func Decode(token string) (*ConversationState, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var s ConversationState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: missing conversation id", ErrInvalidToken)
	}
	return &s, nil
}
