package sqlitecorpus

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/linnemanlabs/screener/internal/archetype"
)

func openTemp(t *testing.T, limit int) *Corpus {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "corpus.db"), limit)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCorpus_AppendAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTemp(t, 0)

	all, err := c.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("fresh corpus has %d records", len(all))
	}

	want := []archetype.Record{
		{ID: "a", Excerpt: "AI for HR", Embedding: []float32{0.25, -0.5, 1}, Reason: "generic"},
		{ID: "b", Excerpt: "Marketplace für Handwerker", Embedding: []float32{1, 0, 0}, Reason: "marketplace"},
	}
	for _, r := range want {
		if err := c.Append(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	got, err := c.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All mismatch (-want +got):\n%s", diff)
	}
}

func TestCorpus_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTemp(t, 2)
	for i := 1; i <= 4; i++ {
		if err := c.Append(ctx, archetype.Record{ID: fmt.Sprintf("r%d", i), Embedding: []float32{float32(i)}}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := c.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "r3" || got[1].ID != "r4" {
		t.Errorf("got %+v, want r3 and r4", got)
	}
}

func TestCorpus_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.db")
	c, err := Open(ctx, path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Append(ctx, archetype.Record{ID: "keep", Embedding: []float32{1}}); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	c2, err := Open(ctx, path, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	got, err := c2.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("got %+v after reopen", got)
	}
}

func TestCorpus_FeedsMatcher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTemp(t, 0)
	m := archetype.New(archetype.DefaultConfig(), c)
	if _, err := m.Remember(ctx, "an AI platform for enterprise", []float32{0, 1, 0}, "do_not_recommend"); err != nil {
		t.Fatal(err)
	}
	a := m.Assess(ctx, "something new", []float32{0, 1, 0})
	if a.Action != archetype.ActionReject {
		t.Errorf("action = %q, want reject", a.Action)
	}
}
