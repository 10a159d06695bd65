// Package redisstore provides a Redis implementation of triage.Store with a
// sliding expiry: every Save refreshes the key's TTL.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/screener/internal/triage"
)

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "screener:conversation:"

var tracer = otel.Tracer("github.com/linnemanlabs/screener/internal/triage/redisstore")

// Store keeps conversation states as JSON values.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Store {
	if client == nil {
		panic(xerrors.New("redisstore.New: client is required"))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Dial parses a redis:// URL, pings the server and returns a Store that owns
// the client.
func Dial(ctx context.Context, url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, ttl), nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func key(id string) string {
	return keyPrefix + id
}

func startSpan(ctx context.Context, name, op, id string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation.name", op),
		attribute.String("conversation.id", id),
	))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Get retrieves a conversation by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.ConversationState, bool, error) {
	ctx, span := startSpan(ctx, "redisstore.Get", "GET", id)
	defer span.End()

	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fail(span, fmt.Errorf("get conversation: %w", err))
	}

	var st triage.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fail(span, fmt.Errorf("decode conversation %s: %w", id, err))
	}
	return &st, true, nil
}

// Save writes the state and refreshes its expiry.
func (s *Store) Save(ctx context.Context, st *triage.ConversationState) error {
	ctx, span := startSpan(ctx, "redisstore.Save", "SET", st.ID)
	defer span.End()

	data, err := json.Marshal(st)
	if err != nil {
		return fail(span, fmt.Errorf("encode conversation %s: %w", st.ID, err))
	}
	if err := s.client.Set(ctx, key(st.ID), data, s.ttl).Err(); err != nil {
		return fail(span, fmt.Errorf("set conversation: %w", err))
	}
	return nil
}

// Delete removes a conversation. Returns triage.ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "redisstore.Delete", "DEL", id)
	defer span.End()

	n, err := s.client.Del(ctx, key(id)).Result()
	if err != nil {
		return fail(span, fmt.Errorf("delete conversation: %w", err))
	}
	if n == 0 {
		return triage.ErrNotFound
	}
	return nil
}
