package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/screener/internal/archetype"
	"github.com/linnemanlabs/screener/internal/archetype/sqlitecorpus"
	vc "github.com/linnemanlabs/screener/internal/cfg"
	"github.com/linnemanlabs/screener/internal/llm/gemini"
	"github.com/linnemanlabs/screener/internal/postgres"
	"github.com/linnemanlabs/screener/internal/triage"
	"github.com/linnemanlabs/screener/internal/triage/memstore"
	"github.com/linnemanlabs/screener/internal/triage/pgstore"
	"github.com/linnemanlabs/screener/internal/triage/redisstore"
)

// closer releases a resource opened during startup.
type closer func()

// openStore picks the conversation store: postgres when a database URL is
// set, then redis, then in-memory.
func openStore(ctx context.Context, c *vc.Config, L log.Logger) (triage.Store, closer, error) {
	switch {
	case c.DatabaseURL != "":
		pool, err := postgres.NewPool(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		s, err := pgstore.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pgstore init: %w", err)
		}
		L.Info(ctx, "using postgres store")
		return s, pool.Close, nil
	case c.RedisURL != "":
		ttl := time.Duration(c.RedisTTLHours) * time.Hour
		s, err := redisstore.Dial(ctx, c.RedisURL, ttl)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		L.Info(ctx, "using redis store", "ttl", ttl.String())
		return s, func() { _ = s.Close() }, nil
	default:
		L.Info(ctx, "using in-memory store (no database-url or redis-url configured)")
		return memstore.New(), func() {}, nil
	}
}

// openCorpus opens the rejected-pitch corpus, persisted to SQLite when a
// path is configured.
func openCorpus(ctx context.Context, c *vc.Config, L log.Logger) (archetype.Corpus, closer, error) {
	if c.CorpusPath == "" {
		L.Info(ctx, "using in-memory archetype corpus")
		return archetype.NewMemoryCorpus(0), func() {}, nil
	}
	corpus, err := sqlitecorpus.Open(ctx, c.CorpusPath, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("archetype corpus: %w", err)
	}
	L.Info(ctx, "using sqlite archetype corpus", "path", c.CorpusPath)
	return corpus, func() { _ = corpus.Close() }, nil
}

// openEmbedder returns nil when no Gemini key is configured, which disables
// embedding similarity.
func openEmbedder(ctx context.Context, c *vc.Config, L log.Logger) (triage.Embedder, error) {
	if c.GeminiAPIKey == "" {
		L.Info(ctx, "embeddings disabled (no gemini-api-key configured)")
		return nil, nil
	}
	e, err := gemini.New(ctx, gemini.Config{APIKey: c.GeminiAPIKey, Model: c.GeminiEmbedModel})
	if err != nil {
		return nil, err
	}
	L.Info(ctx, "embeddings enabled", "provider", "gemini", "model", c.GeminiEmbedModel)
	return e, nil
}

// dbStats attaches per-request query counters and the HTTP method used for
// DB metric labels, and records the totals on the request span.
func dbStats(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := postgres.WithHTTPMethod(r.Context(), r.Method)
		ctx, stats := postgres.WithRequestStats(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))

		q, errs, d := stats.Snapshot()
		if q == 0 {
			return
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("db.queries", q),
			attribute.Int("db.errors", errs),
			attribute.Float64("db.duration_ms", float64(d.Microseconds())/1000),
		)
	})
}
