package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/screener/internal/scoring"
)

// Intake is what a contact provides before the first turn.
type Intake struct {
	ContactID string `json:"contact_id"`
	Email     string `json:"email"`
	Context   string `json:"context"`
}

// StartResult is the outcome of opening a conversation.
type StartResult struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	StateToken     string `json:"state_token"`
}

// Service is the business boundary for triage conversations. Turns of the
// same conversation are serialized; different conversations run in parallel.
type Service struct {
	store    Store
	engine   *Engine
	notifier Notifier
	logger   log.Logger
	locks    keyedMutex
	metrics  *Metrics
}

// NewService creates a new triage service. notifier and metrics may be nil.
func NewService(store Store, engine *Engine, notifier Notifier, metrics *Metrics, logger log.Logger) *Service {
	if store == nil || engine == nil {
		panic(xerrors.New("triage.NewService: store and engine are required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start opens a conversation, classifies the contact and persists the state.
func (s *Service) Start(ctx context.Context, in Intake) (*StartResult, error) {
	id := ulid.Make().String()
	contact := strings.TrimSpace(in.ContactID)
	if contact == "" {
		contact = id
	}

	now := time.Now()
	st := NewConversation(id, contact, now)
	st.Email = strings.TrimSpace(in.Email)
	st.Classification = s.engine.Classify(st.Email, in.Context).Label
	st.AddAssistantMessage(OpeningMessage, now)

	if err := s.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	token, err := Encode(st)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ConversationsStarted.WithLabelValues(st.Classification).Inc()
	}

	s.logger.Info(ctx, "conversation started",
		"conversation_id", id,
		"contact_id", contact,
		"classification", st.Classification,
	)
	return &StartResult{ConversationID: id, Message: OpeningMessage, StateToken: token}, nil
}

// Turn runs one user message through a stored conversation.
func (s *Service) Turn(ctx context.Context, id, text string) (*TurnResult, error) {
	if err := checkMessage(text); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	st, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	res, err := s.engine.Turn(ctx, st, text)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, st); err != nil {
		s.logger.Error(ctx, err, "failed to persist conversation", "conversation_id", id)
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	if res.StateToken, err = Encode(st); err != nil {
		return nil, err
	}
	s.finish(ctx, st, res)
	return res, nil
}

// StatelessTurn runs one user message against a state carried in token and
// returns the next token. Nothing is stored.
func (s *Service) StatelessTurn(ctx context.Context, token, text string) (*TurnResult, error) {
	if err := checkMessage(text); err != nil {
		return nil, err
	}
	st, err := Decode(token)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Turn(ctx, st, text)
	if err != nil {
		return nil, err
	}
	if res.StateToken, err = Encode(st); err != nil {
		return nil, err
	}
	s.finish(ctx, st, res)
	return res, nil
}

// finish runs the side effects of a committed evaluation. Nothing here can
// fail the turn.
func (s *Service) finish(ctx context.Context, st *ConversationState, res *TurnResult) {
	if !res.EvaluationComplete {
		return
	}
	s.engine.Learn(ctx, st)
	s.notify(ctx, st, res)
}

// Get retrieves a conversation by id.
func (s *Service) Get(ctx context.Context, id string) (*ConversationState, error) {
	st, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// Delete removes a conversation.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.store.Delete(ctx, id)
}

func (s *Service) notify(ctx context.Context, st *ConversationState, res *TurnResult) {
	if s.notifier == nil || !res.EvaluationComplete || res.Evaluation == nil {
		return
	}
	switch res.Evaluation.Recommendation {
	case scoring.RecommendMeeting, scoring.RecommendIfBandwidth:
	default:
		return
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), st); err != nil {
		s.logger.Error(ctx, err, "notification failed", "conversation_id", st.ID)
	}
}
