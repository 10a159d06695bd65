package cfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/linnemanlabs/screener/internal/triage"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadThresholds_NoFile(t *testing.T) {
	t.Parallel()

	c := validBase()
	got, err := c.LoadThresholds("")
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if diff := cmp.Diff(triage.DefaultThresholds(), got); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadThresholds_Overlay(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
authenticity:
  reject_threshold: 0.9
archetype:
  reject_similarity: 0.97
scoring:
  do_not_recommend_max: 3
trigger:
  force_ai: 0.85
`)
	c := validBase()
	c.MinTurns, c.MaxTurns = 3, 6

	got, err := c.LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}

	want := triage.DefaultThresholds()
	want.Authenticity.RejectThreshold = 0.9
	want.Archetype.RejectSimilarity = 0.97
	want.Scoring.DoNotRecommendMax = 3
	want.Trigger.ForceAI = 0.85
	want.Trigger.MinTurns, want.Trigger.MaxTurns = 3, 6

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadThresholds_FileTurnLimits(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "trigger:\n  min_turns: 2\n  max_turns: 5\n")

	tests := []struct {
		name             string
		flagMin, flagMax int
		wantMin, wantMax int
	}{
		{"flags unset", 0, 0, 2, 5},
		{"max flag only", 0, 6, 2, 6},
		{"both flags", 3, 9, 3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validBase()
			c.MinTurns, c.MaxTurns = tt.flagMin, tt.flagMax
			got, err := c.LoadThresholds(path)
			if err != nil {
				t.Fatalf("LoadThresholds: %v", err)
			}
			if got.Trigger.MinTurns != tt.wantMin || got.Trigger.MaxTurns != tt.wantMax {
				t.Errorf("turns = %d..%d, want %d..%d", got.Trigger.MinTurns, got.Trigger.MaxTurns, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestLoadThresholds_EmptyFile(t *testing.T) {
	t.Parallel()

	c := validBase()
	got, err := c.LoadThresholds(writeFile(t, ""))
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if got.Authenticity != triage.DefaultThresholds().Authenticity {
		t.Error("empty file changed the defaults")
	}
}

func TestLoadThresholds_Errors(t *testing.T) {
	t.Parallel()

	yaml := func(body string) func(t *testing.T) string {
		return func(t *testing.T) string { return writeFile(t, body) }
	}

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		mut     func(*Config)
		wantSub []string
	}{
		{name: "missing file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }, wantSub: []string{"read thresholds file"}},
		{name: "unknown key", path: yaml("scoring:\n  bogus_key: 1\n"), wantSub: []string{"bogus_key"}},
		{name: "wrong type", path: yaml("trigger:\n  force_ai: high\n"), wantSub: []string{"parse thresholds file"}},
		{
			name:    "zero specificity scale",
			path:    yaml("behavior:\n  specificity_scale: 0\n"),
			wantSub: []string{"invalid thresholds", "behavior", "specificity_scale"},
		},
		{
			name:    "nan weight",
			path:    yaml("behavior:\n  specificity_high_weight: .nan\n"),
			wantSub: []string{"specificity_high_weight"},
		},
		{
			name:    "inverted recommendation bands",
			path:    yaml("scoring:\n  do_not_recommend_max: 9\n  refer_out_max: 2\n"),
			wantSub: []string{"scoring", "recommendation bands"},
		},
		{
			name:    "misordered authenticity thresholds",
			path:    yaml("authenticity:\n  warn_threshold: 0.8\n"),
			wantSub: []string{"authenticity", "warn"},
		},
		{
			name:    "cumulative weights above one",
			path:    yaml("authenticity:\n  cumulative_previous_weight: 0.9\n"),
			wantSub: []string{"cumulative weights"},
		},
		{
			name:    "archetype cutoffs inverted",
			path:    yaml("archetype:\n  downgrade_similarity: 0.99\n"),
			wantSub: []string{"archetype", "downgrade_similarity"},
		},
		{
			name:    "file min above file max",
			path:    yaml("trigger:\n  min_turns: 6\n  max_turns: 3\n"),
			mut:     func(c *Config) { c.MinTurns, c.MaxTurns = 0, 0 },
			wantSub: []string{"trigger", "max_turns"},
		},
		{
			name:    "flag min above file max",
			path:    yaml("trigger:\n  max_turns: 5\n"),
			mut:     func(c *Config) { c.MinTurns, c.MaxTurns = 6, 0 },
			wantSub: []string{"max_turns 5"},
		},
		{
			name: "several sections joined",
			path: yaml("behavior:\n  specificity_scale: -1\nscoring:\n  auth_cap_ai: 1.5\ntrigger:\n  force_ai: 2\n"),
			wantSub: []string{"behavior: ", "scoring: ", "trigger: ", "auth_cap_ai", "force_ai"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validBase()
			if tt.mut != nil {
				tt.mut(&c)
			}
			_, err := c.LoadThresholds(tt.path(t))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			for _, sub := range tt.wantSub {
				if !strings.Contains(err.Error(), sub) {
					t.Errorf("error %q does not contain %q", err, sub)
				}
			}
		})
	}
}
