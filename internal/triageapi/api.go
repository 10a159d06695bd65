// Package triageapi exposes triage conversations over HTTP.
package triageapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/screener/internal/triage"
)

// ConversationService defines the business operations the API needs.
type ConversationService interface {
	Start(ctx context.Context, in triage.Intake) (*triage.StartResult, error)
	Turn(ctx context.Context, id, text string) (*triage.TurnResult, error)
	StatelessTurn(ctx context.Context, token, text string) (*triage.TurnResult, error)
	Get(ctx context.Context, id string) (*triage.ConversationState, error)
	Delete(ctx context.Context, id string) error
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    ConversationService
	guard  func(http.Handler) http.Handler
}

// New creates a new API handler. guard wraps the /api/v1 group and may be
// nil.
func New(logger log.Logger, svc ConversationService, guard func(http.Handler) http.Handler) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("conversation service is required"))
	}
	return &API{logger: logger, svc: svc, guard: guard}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		if a.guard != nil {
			r.Use(a.guard)
		}
		r.Post("/conversations", a.handleStart)
		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/", a.handleGet)
			r.Delete("/", a.handleDelete)
			r.Post("/turns", a.handleTurn)
		})
		r.Post("/turn", a.handleStatelessTurn)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, triage.ErrEmptyMessage):
		return http.StatusBadRequest, "message is empty"
	case errors.Is(err, triage.ErrMessageTooLong):
		return http.StatusBadRequest, "message too long"
	case errors.Is(err, triage.ErrInvalidToken):
		return http.StatusBadRequest, "invalid state token"
	case errors.Is(err, triage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, triage.ErrConversationClosed):
		return http.StatusConflict, "conversation already evaluated"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error, msg string, kv ...any) {
	status, text := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(r.Context(), err, msg, kv...)
	}
	writeError(w, status, text)
}

// decode reads a JSON body, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
