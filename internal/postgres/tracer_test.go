package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestShortFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full path", "github.com/linnemanlabs/screener/internal/triage/pgstore.(*Store).Get", "(*Store).Get"},
		{"already short", "(*Store).Get", "Get"},
		{"empty string", "", ""},
		{"no dots", "main", "main"},
		{"no slashes", "pgstore.(*Store).Save", "(*Store).Save"},
		{"trailing dot", "pkg.", "pkg."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := shortFunc(tt.in); got != tt.want {
				t.Errorf("shortFunc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequestStats(t *testing.T) {
	t.Parallel()

	ctx, s := WithRequestStats(context.Background())
	got, ok := RequestStatsFromContext(ctx)
	if !ok || got != s {
		t.Fatal("stats not found in context")
	}

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%5 == 0 {
				err = errors.New("boom")
			}
			s.Add(time.Millisecond, err)
		}()
	}
	wg.Wait()

	q, e, d := s.Snapshot()
	if q != 10 || e != 2 || d != 10*time.Millisecond {
		t.Errorf("snapshot = %d %d %v, want 10 2 10ms", q, e, d)
	}

	if _, ok := RequestStatsFromContext(context.Background()); ok {
		t.Error("expected no stats on a bare context")
	}
}

func TestWithHTTPMethod(t *testing.T) {
	t.Parallel()

	if got := methodFrom(WithHTTPMethod(context.Background(), "POST")); got != "POST" {
		t.Errorf("method = %q, want POST", got)
	}
	if got := methodFrom(WithHTTPMethod(context.Background(), "")); got != "UNKNOWN" {
		t.Errorf("method = %q, want UNKNOWN", got)
	}
	if got := routeFrom(context.Background()); got != "unknown" {
		t.Errorf("route = %q, want unknown", got)
	}
}

func TestSetQueryObserver(t *testing.T) {
	// mutates a process-wide value, so not parallel
	defer SetQueryObserver(nil)

	var gotRoute string
	SetQueryObserver(QueryObserverFunc(func(_ context.Context, _, route, _ string, _ time.Duration) {
		gotRoute = route
	}))
	obs := currentObserver()
	if obs == nil {
		t.Fatal("expected observer after Set")
	}
	obs.ObserveQuery(context.Background(), "GET", "/api/v1/conversations/{id}", "ok", time.Millisecond)
	if gotRoute != "/api/v1/conversations/{id}" {
		t.Errorf("route = %q", gotRoute)
	}

	SetQueryObserver(nil)
	if currentObserver() != nil {
		t.Error("expected nil observer after Set(nil)")
	}
}
