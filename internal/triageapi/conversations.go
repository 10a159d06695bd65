package triageapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/screener/internal/triage"
)

type turnRequest struct {
	Message string `json:"message"`
}

type statelessTurnRequest struct {
	StateToken string `json:"state_token"`
	Message    string `json:"message"`
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	var in triage.Intake
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := a.svc.Start(r.Context(), in)
	if err != nil {
		a.fail(w, r, err, "failed to start conversation")
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("screener.conversation.id", res.ConversationID))
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("screener.conversation.id", id))

	var in turnRequest
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := a.svc.Turn(r.Context(), id, in.Message)
	if err != nil {
		a.fail(w, r, err, "turn failed", "conversation_id", id)
		return
	}
	annotate(span, res)
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleStatelessTurn(w http.ResponseWriter, r *http.Request) {
	var in statelessTurnRequest
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := a.svc.StatelessTurn(r.Context(), in.StateToken, in.Message)
	if err != nil {
		a.fail(w, r, err, "stateless turn failed")
		return
	}
	annotate(trace.SpanFromContext(r.Context()), res)
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("screener.conversation.id", id))

	st, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "failed to get conversation", "conversation_id", id)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err, "failed to delete conversation", "conversation_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func annotate(span trace.Span, res *triage.TurnResult) {
	span.SetAttributes(
		attribute.String("screener.conversation.id", res.ConversationID),
		attribute.Int("screener.turn", res.TurnCount),
		attribute.String("screener.status", string(res.Status)),
		attribute.Bool("screener.evaluated", res.EvaluationComplete),
	)
}
