// Package pgstore provides a PostgreSQL implementation of triage.Store.
//
// The full conversation state is kept as JSONB. Status, classification and
// the final outcome are mirrored into columns for reporting queries.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/screener/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/screener/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists conversation states in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on pool and returns a ready Store. The caller owns
// the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Get retrieves a conversation by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.ConversationState, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.Get", "SELECT")
	defer span.End()

	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM conversations WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fail(span, fmt.Errorf("select conversation: %w", err))
	}

	var st triage.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fail(span, fmt.Errorf("unmarshal state %s: %w", id, err))
	}
	return &st, true, nil
}

// Save upserts the full state.
func (s *Store) Save(ctx context.Context, st *triage.ConversationState) error {
	ctx, span := startSpan(ctx, "pgstore.Save", "UPSERT")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", st.ID))

	data, err := json.Marshal(st)
	if err != nil {
		return fail(span, fmt.Errorf("marshal state %s: %w", st.ID, err))
	}

	var score *int
	var rec *string
	if e := st.Evaluation; e != nil {
		score = &e.Score
		r := string(e.Recommendation)
		rec = &r
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO conversations (
		id, contact_id, status, classification, turn_count, final_score, recommendation, state, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (id) DO UPDATE SET
		status         = EXCLUDED.status,
		classification = EXCLUDED.classification,
		turn_count     = EXCLUDED.turn_count,
		final_score    = EXCLUDED.final_score,
		recommendation = EXCLUDED.recommendation,
		state          = EXCLUDED.state,
		updated_at     = EXCLUDED.updated_at`,
		st.ID, st.ContactID, string(st.Status), st.Classification, st.TurnCount,
		score, rec, data, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fail(span, fmt.Errorf("upsert conversation: %w", err))
	}
	return nil
}

// Delete removes a conversation. Returns triage.ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "pgstore.Delete", "DELETE")
	defer span.End()

	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fail(span, fmt.Errorf("delete conversation: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return triage.ErrNotFound
	}
	return nil
}
