// Package sqlitecorpus persists the rejected-archetype corpus in a SQLite file.
package sqlitecorpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/screener/internal/archetype"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("github.com/linnemanlabs/screener/internal/archetype/sqlitecorpus")

const schema = `
CREATE TABLE IF NOT EXISTS rejected_archetypes (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	excerpt          TEXT NOT NULL,
	embedding        TEXT NOT NULL,
	rejection_reason TEXT NOT NULL
);`

// Corpus is an archetype.Corpus backed by SQLite.
type Corpus struct {
	db    *sql.DB
	limit int
}

// Open opens or creates the corpus database at path. A limit <= 0 uses
// archetype.DefaultCorpusLimit.
func Open(ctx context.Context, path string, limit int) (*Corpus, error) {
	if limit <= 0 {
		limit = archetype.DefaultCorpusLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps append+evict atomic without busy retries
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create corpus schema: %w", err)
	}
	return &Corpus{db: db, limit: limit}, nil
}

// Close releases the database handle.
func (c *Corpus) Close() error {
	return c.db.Close()
}

func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "sqlitecorpus."+op, trace.WithAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation.name", op),
	))
}

// Append stores r and evicts the oldest records beyond the limit.
func (c *Corpus) Append(ctx context.Context, r archetype.Record) error {
	ctx, span := startSpan(ctx, "append")
	defer span.End()

	emb, err := json.Marshal(r.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is harmless

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rejected_archetypes (id, excerpt, embedding, rejection_reason) VALUES (?, ?, ?, ?)`,
		r.ID, r.Excerpt, string(emb), r.Reason,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("insert record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rejected_archetypes WHERE seq NOT IN (
			SELECT seq FROM rejected_archetypes ORDER BY seq DESC LIMIT ?
		)`, c.limit,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evict failed")
		return fmt.Errorf("evict records: %w", err)
	}

	return tx.Commit()
}

// All returns every record, oldest first.
func (c *Corpus) All(ctx context.Context) ([]archetype.Record, error) {
	ctx, span := startSpan(ctx, "all")
	defer span.End()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, excerpt, embedding, rejection_reason FROM rejected_archetypes ORDER BY seq`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []archetype.Record
	for rows.Next() {
		var (
			r   archetype.Record
			emb string
		)
		if err := rows.Scan(&r.ID, &r.Excerpt, &emb, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(emb), &r.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding for %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	span.SetAttributes(attribute.Int("screener.corpus.size", len(out)))
	return out, nil
}
