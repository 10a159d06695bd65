package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/screener/internal/triage"
)

func TestStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	st := triage.NewConversation("c-1", "contact-1", time.Now())
	st.AddUserMessage("We sell to clinics.", time.Now())

	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Get(ctx, "c-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}
	if got.ContactID != "contact-1" || got.TurnCount != 1 || len(got.Messages) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing id")
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	st := triage.NewConversation("c-2", "contact", time.Now())
	st.AddUserMessage("first", time.Now())
	_ = s.Save(ctx, st)

	// mutating the caller's value after Save must not leak into the store
	st.AddUserMessage("second", time.Now())

	got, _, _ := s.Get(ctx, "c-2")
	if got.TurnCount != 1 {
		t.Errorf("stored turn count = %d, want 1", got.TurnCount)
	}

	got.Messages[0].Content = "mutated"
	again, _, _ := s.Get(ctx, "c-2")
	if again.Messages[0].Content != "first" {
		t.Errorf("stored message mutated through returned copy: %q", again.Messages[0].Content)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.Save(ctx, triage.NewConversation("c-3", "contact", time.Now()))

	if err := s.Delete(ctx, "c-3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "c-3"); !errors.Is(err, triage.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c-%d", n)
			_ = s.Save(ctx, triage.NewConversation(id, "contact", time.Now()))
			_, _, _ = s.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len = %d, want 50", s.Len())
	}
}
