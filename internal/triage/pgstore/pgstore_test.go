package pgstore_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/screener/internal/postgres"
	"github.com/linnemanlabs/screener/internal/scoring"
	"github.com/linnemanlabs/screener/internal/triage"
	"github.com/linnemanlabs/screener/internal/triage/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("SCREENER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SCREENER_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	st := triage.NewConversation(ulid.Make().String(), "contact-pg", now)
	st.Email = "founder@example.com"
	st.AddAssistantMessage(triage.OpeningMessage, now)
	st.AddUserMessage("हम 40 clinics को software बेचते हैं", now)

	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Get(ctx, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}
	if got.Email != st.Email || got.TurnCount != 1 || len(got.Messages) != 2 {
		t.Errorf("got %+v", got)
	}
	if got.Messages[1].Content != st.Messages[1].Content {
		t.Errorf("unicode content changed: %q", got.Messages[1].Content)
	}
	if !got.CreatedAt.Equal(st.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, st.CreatedAt)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)
	_, ok, err := s.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected ok=false")
	}
}

func TestUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	st := triage.NewConversation(ulid.Make().String(), "contact", time.Now())
	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st.AddUserMessage("second save", time.Now())
	st.BeginEvaluation()
	st.AttachEvaluation(&triage.Evaluation{Score: 8, Recommendation: scoring.RecommendMeeting, CompletedAt: time.Now()})
	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	got, _, err := s.Get(ctx, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != triage.StatusScored || got.Evaluation == nil || got.Evaluation.Score != 8 {
		t.Errorf("upsert not applied: %+v", got)
	}
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	st := triage.NewConversation(ulid.Make().String(), "contact", time.Now())
	_ = s.Save(ctx, st)

	if err := s.Delete(ctx, st.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, st.ID); !errors.Is(err, triage.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}
