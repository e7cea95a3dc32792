// Package rules holds the immutable citation-rule corpus, its per-bucket inverted
// index, and deterministic rule retrieval with coverage accounting.
package rules

import (
	"fmt"
	"slices"
	"strings"
)

// Entry is a single formatting rule. Text is the only prose that may be quoted as evidence.
type Entry struct {
	ID       string   `json:"id" yaml:"id"`
	Bucket   Bucket   `json:"bucket" yaml:"bucket"`
	Title    string   `json:"title" yaml:"title"`
	Text     string   `json:"text" yaml:"text"`
	Keywords []string `json:"keywords,omitempty" yaml:"-"`
}

type entryKey struct {
	bucket Bucket
	id     string
}

// Corpus is the loaded rule dataset. It is never mutated after construction and
// is safe for concurrent reads.
type Corpus struct {
	version string
	buckets map[Bucket][]Entry
	lookup  map[entryKey]int
}

// NewCorpus validates entries and builds a Corpus. Entries keep their source order
// within each bucket.
func NewCorpus(version string, entries []Entry) (*Corpus, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: corpus contains no rules", ErrCorpusLoad)
	}

	c := &Corpus{
		version: version,
		buckets: make(map[Bucket][]Entry, len(Priority)),
		lookup:  make(map[entryKey]int, len(entries)),
	}

	for i, e := range entries {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			return nil, fmt.Errorf("%w: rule %d has no id", ErrCorpusLoad, i)
		}
		if !e.Bucket.Valid() {
			return nil, fmt.Errorf("%w: rule %s: %w", ErrCorpusLoad, e.ID, ErrUnknownBucket)
		}
		if strings.TrimSpace(e.Text) == "" {
			return nil, fmt.Errorf("%w: rule %s has empty text", ErrCorpusLoad, e.ID)
		}

		key := entryKey{e.Bucket, e.ID}
		if _, dup := c.lookup[key]; dup {
			return nil, fmt.Errorf("%w: duplicate rule id %q in bucket %s", ErrCorpusLoad, e.ID, e.Bucket)
		}

		e.Keywords = nil
		c.lookup[key] = len(c.buckets[e.Bucket])
		c.buckets[e.Bucket] = append(c.buckets[e.Bucket], e)
	}

	return c, nil
}

// Version returns the dataset version label, if the source declared one.
func (c *Corpus) Version() string {
	return c.version
}

// Len returns the total number of rules across all buckets.
func (c *Corpus) Len() int {
	return len(c.lookup)
}

// Count returns the number of rules in bucket b.
func (c *Corpus) Count(b Bucket) int {
	return len(c.buckets[b])
}

// Bucket returns a copy of the rules in bucket b in source order.
func (c *Corpus) Bucket(b Bucket) []Entry {
	return slices.Clone(c.buckets[b])
}

// Entries returns every rule in bucket priority order.
func (c *Corpus) Entries() []Entry {
	all := make([]Entry, 0, c.Len())
	for _, b := range Priority {
		all = append(all, c.buckets[b]...)
	}
	return all
}

// Find returns the rule with the given id in bucket b.
func (c *Corpus) Find(b Bucket, id string) (Entry, error) {
	idx, ok := c.lookup[entryKey{b, id}]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s/%s", ErrRuleNotFound, b, id)
	}
	return c.buckets[b][idx], nil
}

// Stats summarizes the corpus per bucket.
type Stats struct {
	Version string        `json:"version,omitempty"`
	Total   int           `json:"total"`
	Buckets []BucketCount `json:"buckets"`
}

// BucketCount is the rule count of a single bucket.
type BucketCount struct {
	Bucket Bucket `json:"bucket"`
	Rules  int    `json:"rules"`
}

// Stats returns rule counts in bucket priority order.
func (c *Corpus) Stats() Stats {
	s := Stats{
		Version: c.version,
		Total:   c.Len(),
		Buckets: make([]BucketCount, 0, len(Priority)),
	}
	for _, b := range Priority {
		s.Buckets = append(s.Buckets, BucketCount{Bucket: b, Rules: c.Count(b)})
	}
	return s
}
