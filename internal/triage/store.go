package triage

import "context"

// Store is the persistence interface for conversation states.
// Get reports absence with ok=false and a nil error; Delete returns
// ErrNotFound for an unknown id.
type Store interface {
	Get(ctx context.Context, id string) (*ConversationState, bool, error)
	Save(ctx context.Context, s *ConversationState) error
	Delete(ctx context.Context, id string) error
}
