// Package archetype recognizes generically low-signal pitches, by keyword
// rules and by embedding similarity to pitches that were rejected before.
package archetype

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// Action is what the quality axis should do with an archetype match.
type Action string

const (
	ActionNone      Action = "none"
	ActionWarn      Action = "warn"
	ActionDowngrade Action = "downgrade"
	ActionReject    Action = "reject"
)

// Config holds the matcher's cutoffs and penalties.
type Config struct {
	RejectSimilarity    float64 `yaml:"reject_similarity"`
	DowngradeSimilarity float64 `yaml:"downgrade_similarity"`
	KeywordDowngrade    float64 `yaml:"keyword_downgrade"`
	KeywordWarn         float64 `yaml:"keyword_warn"`
	RejectPenalty       int     `yaml:"reject_penalty"`
	DowngradePenalty    int     `yaml:"downgrade_penalty"`
	WarnPenalty         int     `yaml:"warn_penalty"`
	ExcerptChars        int     `yaml:"excerpt_chars"`
}

// DefaultConfig returns the production cutoffs.
func DefaultConfig() Config {
	return Config{
		RejectSimilarity:    0.96,
		DowngradeSimilarity: 0.92,
		KeywordDowngrade:    0.7,
		KeywordWarn:         0.5,
		RejectPenalty:       10,
		DowngradePenalty:    2,
		WarnPenalty:         1,
		ExcerptChars:        500,
	}
}

// Validate reports every out-of-range or misordered cutoff.
func (c Config) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"reject_similarity", c.RejectSimilarity},
		{"downgrade_similarity", c.DowngradeSimilarity},
		{"keyword_downgrade", c.KeywordDowngrade},
		{"keyword_warn", c.KeywordWarn},
	} {
		if !(f.v >= 0 && f.v <= 1) {
			errs = append(errs, fmt.Errorf("%s %v must be within 0..1", f.name, f.v))
		}
	}
	if c.DowngradeSimilarity > c.RejectSimilarity {
		errs = append(errs, fmt.Errorf("downgrade_similarity %v must not exceed reject_similarity %v", c.DowngradeSimilarity, c.RejectSimilarity))
	}
	if c.KeywordWarn > c.KeywordDowngrade {
		errs = append(errs, fmt.Errorf("keyword_warn %v must not exceed keyword_downgrade %v", c.KeywordWarn, c.KeywordDowngrade))
	}
	if c.WarnPenalty < 0 || c.WarnPenalty > c.DowngradePenalty || c.DowngradePenalty > c.RejectPenalty {
		errs = append(errs, fmt.Errorf("penalties must satisfy 0 <= warn %d <= downgrade %d <= reject %d", c.WarnPenalty, c.DowngradePenalty, c.RejectPenalty))
	}
	if c.ExcerptChars < 1 {
		errs = append(errs, fmt.Errorf("excerpt_chars %d must be positive", c.ExcerptChars))
	}
	return errors.Join(errs...)
}

// EmbeddingMatch is the closest rejected pitch in the corpus.
type EmbeddingMatch struct {
	MaxSimilarity float64 `json:"max_similarity"`
	RecordID      string  `json:"record_id,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// Assessment is the combined verdict of both paths.
type Assessment struct {
	Action     Action          `json:"action"`
	Confidence float64         `json:"confidence"`
	Penalty    int             `json:"penalty"`
	Reason     string          `json:"reason,omitempty"`
	Keyword    KeywordMatch    `json:"keyword"`
	Embedding  *EmbeddingMatch `json:"embedding,omitempty"`
}

// Similarity is the embedding similarity the quality axis reads, 0 when
// the embedding path did not run.
func (a Assessment) Similarity() float64 {
	if a.Embedding == nil {
		return 0
	}
	return a.Embedding.MaxSimilarity
}

// Matcher combines the keyword and embedding paths.
type Matcher struct {
	cfg    Config
	corpus Corpus
}

// New returns a Matcher. A nil corpus disables the embedding path.
func New(cfg Config, corpus Corpus) *Matcher {
	return &Matcher{cfg: cfg, corpus: corpus}
}

// Config returns the matcher's cutoffs.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Assess classifies text. The embedding path runs only when an embedding
// is supplied and the corpus is readable and non-empty; otherwise the
// keyword result stands alone.
func (m *Matcher) Assess(ctx context.Context, text string, embedding []float32) Assessment {
	kw := MatchKeywords(text)

	var emb *EmbeddingMatch
	if len(embedding) > 0 && m.corpus != nil {
		if records, err := m.corpus.All(ctx); err == nil && len(records) > 0 {
			best := nearest(embedding, records)
			emb = &best
		}
	}

	return m.combine(kw, emb)
}

func (m *Matcher) combine(kw KeywordMatch, emb *EmbeddingMatch) Assessment {
	a := Assessment{Action: ActionNone, Keyword: kw, Embedding: emb}
	sim := 0.0
	if emb != nil {
		sim = emb.MaxSimilarity
	}

	switch {
	case sim >= m.cfg.RejectSimilarity:
		a.Action, a.Confidence, a.Reason = ActionReject, sim, emb.Reason
	case sim >= m.cfg.DowngradeSimilarity:
		a.Action, a.Confidence, a.Reason = ActionDowngrade, sim, emb.Reason
	case kw.Confidence >= m.cfg.KeywordDowngrade:
		a.Action, a.Confidence, a.Reason = ActionDowngrade, kw.Confidence, kw.Reason
	case kw.Confidence >= m.cfg.KeywordWarn:
		a.Action, a.Confidence, a.Reason = ActionWarn, kw.Confidence, kw.Reason
	}
	a.Penalty = m.penalty(a.Action)
	return a
}

func (m *Matcher) penalty(a Action) int {
	switch a {
	case ActionReject:
		return m.cfg.RejectPenalty
	case ActionDowngrade:
		return m.cfg.DowngradePenalty
	case ActionWarn:
		return m.cfg.WarnPenalty
	default:
		return 0
	}
}

// Remember appends a rejected pitch to the corpus.
func (m *Matcher) Remember(ctx context.Context, pitch string, embedding []float32, reason string) (Record, error) {
	if m.corpus == nil || len(embedding) == 0 {
		return Record{}, nil
	}
	rec := Record{
		ID:        ulid.Make().String(),
		Excerpt:   excerpt(pitch, m.cfg.ExcerptChars),
		Embedding: embedding,
		Reason:    reason,
	}
	return rec, m.corpus.Append(ctx, rec)
}

func nearest(embedding []float32, records []Record) EmbeddingMatch {
	var best EmbeddingMatch
	for _, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		if sim := Cosine(embedding, r.Embedding); sim > best.MaxSimilarity {
			best = EmbeddingMatch{MaxSimilarity: sim, RecordID: r.ID, Reason: r.Reason}
		}
	}
	best.MaxSimilarity = math.Round(best.MaxSimilarity*10000) / 10000
	return best
}

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
