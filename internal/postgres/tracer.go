package postgres

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

// frames under this prefix are store helpers, not the code that asked for data
const modulePrefix = "github.com/linnemanlabs/screener/"

var observer atomic.Pointer[observerBox]

type observerBox struct{ QueryObserver }

type ctxKey int

const (
	queryKey ctxKey = iota
	methodKey
	statsKey
)

// QueryObserver receives the duration of every query. main wires it to a
// Prometheus histogram.
type QueryObserver interface {
	ObserveQuery(ctx context.Context, method, route, outcome string, dur time.Duration)
}

// QueryObserverFunc adapts a plain function to QueryObserver.
type QueryObserverFunc func(ctx context.Context, method, route, outcome string, dur time.Duration)

// ObserveQuery implements QueryObserver.
func (f QueryObserverFunc) ObserveQuery(ctx context.Context, method, route, outcome string, dur time.Duration) {
	f(ctx, method, route, outcome, dur)
}

// SetQueryObserver installs the process-wide observer. nil removes it.
func SetQueryObserver(o QueryObserver) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerBox{QueryObserver: o})
}

func currentObserver() QueryObserver {
	if b := observer.Load(); b != nil {
		return b.QueryObserver
	}
	return nil
}

// RequestStats totals the queries issued on behalf of one request.
type RequestStats struct {
	mu       sync.Mutex
	Queries  int
	Errors   int
	Duration time.Duration
}

// Add records one query.
func (s *RequestStats) Add(dur time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries++
	s.Duration += dur
	if err != nil {
		s.Errors++
	}
}

// Snapshot returns the totals under the lock.
func (s *RequestStats) Snapshot() (queries, errs int, dur time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Queries, s.Errors, s.Duration
}

// WithRequestStats attaches a fresh RequestStats to ctx.
func WithRequestStats(ctx context.Context) (context.Context, *RequestStats) {
	s := &RequestStats{}
	return context.WithValue(ctx, statsKey, s), s
}

// RequestStatsFromContext returns the stats attached by WithRequestStats.
func RequestStatsFromContext(ctx context.Context) (*RequestStats, bool) {
	s, ok := ctx.Value(statsKey).(*RequestStats)
	return s, ok
}

// WithHTTPMethod records the request method for query metric labels.
func WithHTTPMethod(ctx context.Context, method string) context.Context {
	if method == "" {
		return ctx
	}
	return context.WithValue(ctx, methodKey, method)
}

func methodFrom(ctx context.Context) string {
	if m, ok := ctx.Value(methodKey).(string); ok {
		return m
	}
	return "UNKNOWN"
}

func routeFrom(ctx context.Context) string {
	if rc := chi.RouteContext(ctx); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}

// queryInfo travels from TraceQueryStart to TraceQueryEnd.
type queryInfo struct {
	sql     string
	args    []any
	start   time.Time
	caller  string
	handler string
}

// loggingTracer decorates an inner pgx tracer (otelpgx) with one log line
// per query, request stats and the duration observer.
type loggingTracer struct {
	inner pgx.QueryTracer
}

func wrapQueryTracer(inner pgx.QueryTracer) pgx.QueryTracer {
	return loggingTracer{inner: inner}
}

func (t loggingTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	q := &queryInfo{sql: data.SQL, args: data.Args, start: time.Now()}
	q.caller, q.handler = callSite()

	// inner first so the span exists before it is annotated
	if t.inner != nil {
		ctx = t.inner.TraceQueryStart(ctx, conn, data)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		if q.caller != "" {
			span.SetAttributes(attribute.String("db.caller", q.caller))
		}
		if q.handler != "" {
			span.SetAttributes(attribute.String("db.handler", q.handler))
		}
	}
	return context.WithValue(ctx, queryKey, q)
}

func (t loggingTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if t.inner != nil {
		t.inner.TraceQueryEnd(ctx, conn, data)
	}

	q, ok := ctx.Value(queryKey).(*queryInfo)
	if !ok {
		return
	}
	dur := time.Since(q.start)

	if s, ok := RequestStatsFromContext(ctx); ok {
		s.Add(dur, data.Err)
	}
	if obs := currentObserver(); obs != nil {
		outcome := "ok"
		if data.Err != nil {
			outcome = "error"
		}
		obs.ObserveQuery(ctx, methodFrom(ctx), routeFrom(ctx), outcome, dur)
	}

	fields := []any{
		"db.statement", q.sql,
		"db.args", q.args,
		"db.duration", dur.Seconds(),
	}
	if tag := strings.TrimSpace(data.CommandTag.String()); tag != "" {
		fields = append(fields,
			"db.operation.name", strings.ToUpper(strings.Fields(tag)[0]),
			"db.rows", data.CommandTag.RowsAffected(),
		)
	}
	if q.caller != "" {
		fields = append(fields, "db.caller", q.caller)
	}
	if q.handler != "" {
		fields = append(fields, "db.handler", q.handler)
	}

	L := log.FromContext(ctx)
	if data.Err != nil {
		var pgErr *pgconn.PgError
		if errors.As(data.Err, &pgErr) {
			fields = append(fields, "db.error_code", pgErr.Code, "db.error_constraint", pgErr.ConstraintName)
		}
		L.Error(ctx, data.Err, "db query failed", fields...)
		return
	}
	L.Info(ctx, "db query", fields...)
}

// callSite walks the stack past pgx and tracing frames. caller is the first
// application frame; handler is the first one above it outside this package.
func callSite() (caller, handler string) {
	pcs := make([]uintptr, 32)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(3, pcs)])

	for {
		fr, more := frames.Next()
		fn := fr.Function
		switch {
		case fn == "",
			strings.HasPrefix(fn, "runtime."),
			strings.Contains(fn, "github.com/jackc/pgx/v5"),
			strings.Contains(fn, "github.com/exaring/otelpgx"),
			strings.Contains(fn, "loggingTracer."):
		case caller == "":
			caller = shortFunc(fn)
		case !strings.HasPrefix(fn, modulePrefix+"internal/postgres."):
			return caller, shortFunc(fn)
		}
		if !more {
			return caller, handler
		}
	}
}

// shortFunc drops the import path and package name, keeping receiver and
// method.
func shortFunc(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	if i := strings.Index(fn, "."); i >= 0 && i+1 < len(fn) {
		fn = fn[i+1:]
	}
	return fn
}
