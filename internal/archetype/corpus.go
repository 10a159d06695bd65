package archetype

import (
	"context"
	"slices"
	"sync"
)

// DefaultCorpusLimit is how many rejected pitches a corpus keeps.
const DefaultCorpusLimit = 1000

// Record is one previously rejected pitch.
type Record struct {
	ID        string    `json:"id"`
	Excerpt   string    `json:"excerpt"`
	Embedding []float32 `json:"embedding"`
	Reason    string    `json:"rejection_reason"`
}

// Corpus is an append-only store of rejected pitches. Implementations keep
// at most a fixed number of records and evict the oldest first.
type Corpus interface {
	Append(ctx context.Context, r Record) error
	All(ctx context.Context) ([]Record, error)
}

// MemoryCorpus is an in-process Corpus.
type MemoryCorpus struct {
	mu      sync.RWMutex
	limit   int
	records []Record
}

// NewMemoryCorpus returns an empty corpus capped at limit records.
// A limit <= 0 uses DefaultCorpusLimit.
func NewMemoryCorpus(limit int) *MemoryCorpus {
	if limit <= 0 {
		limit = DefaultCorpusLimit
	}
	return &MemoryCorpus{limit: limit}
}

func (c *MemoryCorpus) Append(_ context.Context, r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r.Embedding = slices.Clone(r.Embedding)
	c.records = append(c.records, r)
	if over := len(c.records) - c.limit; over > 0 {
		c.records = slices.Clone(c.records[over:])
	}
	return nil
}

func (c *MemoryCorpus) All(_ context.Context) ([]Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out, nil
}
