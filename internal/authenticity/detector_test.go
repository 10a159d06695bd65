package authenticity

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const threePhrases = "i hope this message finds you well. i wanted to reach out. i look forward to hearing back"

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetect_EmptyInput(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	got := d.Detect("", 0)
	if got.CurrentScore != 0 {
		t.Errorf("CurrentScore = %v, want 0", got.CurrentScore)
	}
	if len(got.Flags) != 0 {
		t.Errorf("Flags = %v, want none", got.Flags)
	}
	if got.Action != ActionNone {
		t.Errorf("Action = %q, want %q", got.Action, ActionNone)
	}
}

func TestDetect_PhraseLayer(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"none", "we sell chai to offices in pune", 0},
		{"one", "to be honest we sell chai", 0.3},
		{"three", threePhrases, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := d.Detect(tt.text, 0)
			if !approx(got.Breakdown.Phrases.Score, tt.want) {
				t.Errorf("phrase score = %v, want %v", got.Breakdown.Phrases.Score, tt.want)
			}
		})
	}
}

func TestDetect_ScenarioGenericPhrases(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	got := d.Detect(threePhrases+". we leverage synergies and offer a value proposition", 0)
	if got.CurrentScore < 1.0 {
		t.Fatalf("CurrentScore = %v, want >= 1.0", got.CurrentScore)
	}
	if got.CumulativeScore < 0.3 {
		t.Fatalf("CumulativeScore = %v, want >= 0.3", got.CumulativeScore)
	}
	switch got.Action {
	case ActionWarn, ActionCap, ActionReject:
	default:
		t.Errorf("Action = %q, want warn, cap_score or reject", got.Action)
	}
}

func TestDetect_CumulativeWeighting(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	got := d.Detect(threePhrases, 0.3)
	if !approx(got.CurrentScore, 1.0) {
		t.Fatalf("CurrentScore = %v, want 1.0", got.CurrentScore)
	}
	// 0.3*0.6 + 1.0*0.4
	if !approx(got.CumulativeScore, 0.58) {
		t.Errorf("CumulativeScore = %v, want 0.58", got.CumulativeScore)
	}
}

func TestDetect_StructureLayer(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	got := d.Detect("1. pricing\n2. distribution\n3. hiring", 0)
	if got.Breakdown.Structure.Score != 1.0 {
		t.Errorf("structure score = %v, want 1.0 (count %d)", got.Breakdown.Structure.Score, got.Breakdown.Structure.Count)
	}
	if diff := cmp.Diff([]string{"numbered_list"}, got.Breakdown.Structure.Types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_LengthLayer(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())

	tests := []struct {
		chars int
		want  float64
	}{
		{1000, 0},
		{1001, 0.4},
		{1501, 0.8},
	}
	for _, tt := range tests {
		got := d.Detect(strings.Repeat("a", tt.chars), 0)
		if got.Breakdown.Length.Score != tt.want {
			t.Errorf("chars=%d: length score = %v, want %v", tt.chars, got.Breakdown.Length.Score, tt.want)
		}
	}

	// runes, not bytes
	got := d.Detect(strings.Repeat("ह", 1001), 0)
	if got.Breakdown.Length.Chars != 1001 {
		t.Errorf("Chars = %d, want 1001", got.Breakdown.Length.Chars)
	}
}

func TestDetect_PatternLayer(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"perfect grammar", "Alpha one. Bravo two. Charlie three.", []string{"perfect_grammar"}},
		{"repetitive starters", "we built it. we sold it. we hired two. ok then", []string{"repetitive_starters:we"}},
		{"casual", "yeah so we sell chai. its going ok", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := d.Detect(tt.text, 0)
			if diff := cmp.Diff(tt.want, got.Breakdown.Patterns.Detected); diff != "" {
				t.Errorf("patterns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetect_NoContractions(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	text := "honestly i am not sure where this goes but it is the thing we do not stop talking about, " +
		"and we are going to keep at it for a long while because the customers keep asking and asking for more of it every week"
	got := d.Detect(text, 0)
	found := false
	for _, p := range got.Breakdown.Patterns.Detected {
		if p == "no_contractions" {
			found = true
		}
	}
	if !found {
		t.Errorf("patterns = %v, want no_contractions", got.Breakdown.Patterns.Detected)
	}
}

func TestDetect_Actions(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())

	tests := []struct {
		prev float64
		want Action
	}{
		{0, ActionNone},
		{0.5, ActionWarn},
		{0.9, ActionCap},
		{1.2, ActionReject},
	}
	for _, tt := range tests {
		got := d.Detect("ok", tt.prev)
		if got.Action != tt.want {
			t.Errorf("prev=%v: Action = %q (cumulative %v), want %q", tt.prev, got.Action, got.CumulativeScore, tt.want)
		}
	}
}

func TestDetect_Deterministic(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	text := "## Overview\n- **Fast**\n- **Cheap**\nI would be delighted. Certainly it is a paradigm shift."
	a := d.Detect(text, 0.2)
	b := d.Detect(text, 0.2)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("non-deterministic result (-a +b):\n%s", diff)
	}
}

func TestDetect_NonLatin(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	for _, in := range []string{"我们有两百个客户。", "مرحبا بكم", "\x00\x01", strings.Repeat("🚀", 3000)} {
		_ = d.Detect(in, 0)
	}
}

func TestShouldReject(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())

	tests := []struct {
		name       string
		cumulative float64
		turn       int
		signals    int
		want       bool
		reason     string
	}{
		{"very high", 0.7, 1, 5, true, "AI probability too high"},
		{"high no signals late", 0.6, 3, 0, true, "High AI probability with no concrete signals"},
		{"high no signals early", 0.6, 2, 0, false, ""},
		{"high with signals", 0.65, 4, 1, false, ""},
		{"low", 0.1, 6, 0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, reason := d.ShouldReject(tt.cumulative, tt.turn, tt.signals)
			if got != tt.want || reason != tt.reason {
				t.Errorf("ShouldReject = (%v, %q), want (%v, %q)", got, reason, tt.want, tt.reason)
			}
		})
	}
}

func TestShouldChallenge(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig())
	if d.ShouldChallenge(Result{Action: ActionWarn, CumulativeScore: 0.4}) {
		t.Error("warn at 0.4 should not challenge")
	}
	if !d.ShouldChallenge(Result{Action: ActionCap, CumulativeScore: 0.6}) {
		t.Error("cumulative 0.6 should challenge")
	}
	if !d.ShouldChallenge(Result{Action: ActionReject}) {
		t.Error("reject should challenge")
	}
}
