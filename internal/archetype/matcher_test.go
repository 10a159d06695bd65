package archetype

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

type failingCorpus struct{}

func (failingCorpus) Append(context.Context, Record) error { return errors.New("disk full") }
func (failingCorpus) All(context.Context) ([]Record, error) {
	return nil, errors.New("disk full")
}

func TestMatchKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		wantID     string
		wantConf   float64
		wantAction Action
	}{
		{"ai for healthcare", "We are building an AI-powered platform for healthcare", "ai_for_x", 0.8, ActionDowngrade},
		{"marketplace", "A marketplace for freelancers and agencies", "marketplace_for_y", 0.7, ActionDowngrade},
		{"uber for", "Think of it as Uber for laundry", "uber_for_z", 0.7, ActionDowngrade},
		{"generic saas", "We sell enterprise software to streamline operations", "generic_saas", 0.6, ActionWarn},
		{"fintech without traction", "Financial inclusion for the unbanked", "vague_fintech", 0.6, ActionWarn},
		{"fintech with traction", "Financial inclusion for the unbanked, 5000 users already", "", 0, ActionNone},
		{"student seeking advice", "I'm a student looking for mentorship", "student_advice_seeking", 0.7, ActionDowngrade},
		{"student who is building", "I'm a student building a payroll product", "", 0, ActionNone},
		{"networking", "Would love to pick your brain over a coffee chat", "networking_request", 0.8, ActionDowngrade},
		{"edtech", "An online courses business for skill development", "generic_edtech", 0.6, ActionWarn},
		{"edtech with paying users", "Online courses with 400 paying learners", "", 0, ActionNone},
		{"empty", "", "", 0, ActionNone},
	}

	m := New(DefaultConfig(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kw := MatchKeywords(tt.text)
			if kw.ArchetypeID != tt.wantID || kw.Confidence != tt.wantConf {
				t.Fatalf("MatchKeywords = %+v, want id %q confidence %v", kw, tt.wantID, tt.wantConf)
			}
			if got := m.Assess(context.Background(), tt.text, nil); got.Action != tt.wantAction {
				t.Errorf("Assess action = %q, want %q", got.Action, tt.wantAction)
			}
		})
	}
}

func TestMatchKeywords_FirstRuleWins(t *testing.T) {
	t.Parallel()

	kw := MatchKeywords("AI-driven marketplace for retail")
	if kw.ArchetypeID != "ai_for_x" {
		t.Fatalf("got %q, want ai_for_x", kw.ArchetypeID)
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}

func TestAssess_Embedding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	corpus := NewMemoryCorpus(0)
	if err := corpus.Append(ctx, Record{ID: "r1", Embedding: []float32{1, 0, 0}, Reason: "generic ai wrapper"}); err != nil {
		t.Fatal(err)
	}
	if err := corpus.Append(ctx, Record{ID: "r2", Reason: "no embedding"}); err != nil {
		t.Fatal(err)
	}
	m := New(DefaultConfig(), corpus)

	tests := []struct {
		name        string
		sim         float64
		wantAction  Action
		wantPenalty int
	}{
		{"reject", 0.97, ActionReject, 10},
		{"downgrade", 0.93, ActionDowngrade, 2},
		{"below cutoffs", 0.5, ActionNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := m.Assess(ctx, "we help teams", unitAt(tt.sim))
			if a.Action != tt.wantAction || a.Penalty != tt.wantPenalty {
				t.Fatalf("got action %q penalty %d, want %q %d", a.Action, a.Penalty, tt.wantAction, tt.wantPenalty)
			}
			if math.Abs(a.Similarity()-tt.sim) > 1e-4 {
				t.Errorf("similarity = %v, want %v", a.Similarity(), tt.sim)
			}
			if a.Embedding.RecordID != "r1" {
				t.Errorf("record id = %q, want r1", a.Embedding.RecordID)
			}
		})
	}
}

func TestAssess_EmbeddingBeatsKeyword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	corpus := NewMemoryCorpus(0)
	_ = corpus.Append(ctx, Record{ID: "r1", Embedding: []float32{1, 0, 0}, Reason: "seen before"})
	m := New(DefaultConfig(), corpus)

	a := m.Assess(ctx, "Would love to pick your brain", []float32{1, 0, 0})
	if a.Action != ActionReject || a.Reason != "seen before" {
		t.Fatalf("got %q %q, want reject from embedding", a.Action, a.Reason)
	}
	if a.Keyword.ArchetypeID != "networking_request" {
		t.Errorf("keyword result dropped: %+v", a.Keyword)
	}
}

func TestAssess_DegradesToKeywords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	text := "A marketplace for tutors"

	for name, m := range map[string]*Matcher{
		"nil corpus":     New(DefaultConfig(), nil),
		"empty corpus":   New(DefaultConfig(), NewMemoryCorpus(0)),
		"failing corpus": New(DefaultConfig(), failingCorpus{}),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a := m.Assess(ctx, text, []float32{1, 0})
			if a.Embedding != nil {
				t.Errorf("embedding path ran: %+v", a.Embedding)
			}
			if a.Action != ActionDowngrade || a.Similarity() != 0 {
				t.Errorf("got %q similarity %v, want keyword downgrade", a.Action, a.Similarity())
			}
		})
	}
}

func TestRemember(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	corpus := NewMemoryCorpus(0)
	m := New(DefaultConfig(), corpus)

	pitch := strings.Repeat("é", 700)
	rec, err := m.Remember(ctx, pitch, []float32{0.1, 0.2}, "do_not_recommend")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Error("record id is empty")
	}
	if n := utf8.RuneCountInString(rec.Excerpt); n != 500 {
		t.Errorf("excerpt runes = %d, want 500", n)
	}

	if _, err := m.Remember(ctx, "no vector", nil, "x"); err != nil {
		t.Fatal(err)
	}
	all, _ := corpus.All(ctx)
	if len(all) != 1 {
		t.Fatalf("corpus size = %d, want 1", len(all))
	}
}

func TestMemoryCorpus_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemoryCorpus(3)
	for i := 1; i <= 5; i++ {
		if err := c.Append(ctx, Record{ID: fmt.Sprintf("r%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	all, err := c.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	if got := strings.Join(ids, ","); got != "r3,r4,r5" {
		t.Errorf("ids = %s, want r3,r4,r5", got)
	}
}
