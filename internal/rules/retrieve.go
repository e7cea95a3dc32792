package rules

import (
	"cmp"
	"slices"
)

// BucketCoverage records how much of one bucket a retrieval touched.
// Returned <= Matched <= Scanned always holds.
type BucketCoverage struct {
	Bucket   Bucket `json:"bucket"`
	Scanned  int    `json:"scanned"`
	Matched  int    `json:"matched"`
	Returned int    `json:"returned"`
}

// Coverage is the audit record of a retrieval. Buckets appear in priority order.
type Coverage struct {
	Buckets []BucketCoverage `json:"buckets"`
	Terms   []string         `json:"terms"`
	Quota   int              `json:"quota"`
}

// Returned is the total number of rules handed back across buckets.
func (c Coverage) Returned() int {
	n := 0
	for _, b := range c.Buckets {
		n += b.Returned
	}
	return n
}

// Ran distinguishes a retrieval that found nothing from one that never executed.
func (c Coverage) Ran() bool {
	return len(c.Buckets) > 0
}

// Result is the outcome of one retrieval: rules grouped by bucket in priority order,
// then by descending relevance within a bucket.
type Result struct {
	Rules    []Entry  `json:"matched_rules"`
	Scores   []int    `json:"scores"`
	Coverage Coverage `json:"coverage"`
}

// Degraded reports whether retrieval produced no rules to ground a semantic check on.
func (r *Result) Degraded() bool {
	return r == nil || len(r.Rules) == 0
}

// Retriever runs deterministic, bucket-ordered keyword retrieval over an Index.
type Retriever struct {
	index     *Index
	extractor *TermExtractor
}

// NewRetriever binds a retriever to an index. A nil index is allowed; every
// retrieval then fails with ErrCorpusUnavailable.
func NewRetriever(index *Index) *Retriever {
	var tok Tokenizer
	if index != nil {
		tok = index.tokenizer
	}
	return &Retriever{
		index:     index,
		extractor: NewTermExtractor(tok),
	}
}

// Index returns the underlying index, or nil.
func (r *Retriever) Index() *Index {
	return r.index
}

// Retrieve extracts terms from text and queries each bucket in priority order,
// keeping at most quota rules per bucket. A negative quota is treated as zero.
// Retrieval fails only when no index is loaded; an empty match is a valid result.
func (r *Retriever) Retrieve(text string, quota int) (*Result, error) {
	if r == nil || r.index == nil {
		return nil, ErrCorpusUnavailable
	}
	quota = max(quota, 0)

	terms := r.extractor.Extract(text)

	result := &Result{
		Rules:  []Entry{},
		Scores: []int{},
		Coverage: Coverage{
			Buckets: make([]BucketCoverage, 0, len(Priority)),
			Terms:   terms,
			Quota:   quota,
		},
	}

	for _, b := range Priority {
		cov := BucketCoverage{
			Bucket:  b,
			Scanned: r.index.Scanned(b),
		}

		ranked := r.rank(b, terms)
		cov.Matched = len(ranked)

		take := min(quota, len(ranked))
		for _, c := range ranked[:take] {
			result.Rules = append(result.Rules, r.index.entries[b][c.pos])
			result.Scores = append(result.Scores, c.score)
		}
		cov.Returned = take

		result.Coverage.Buckets = append(result.Coverage.Buckets, cov)
	}

	return result, nil
}

type candidate struct {
	pos   int
	id    string
	score int
}

// rank orders matches in bucket b by score descending, then rule id ascending.
func (r *Retriever) rank(b Bucket, terms []string) []candidate {
	scores := r.index.score(b, terms)
	ranked := make([]candidate, 0, len(scores))

	for pos, score := range scores {
		ranked = append(ranked, candidate{
			pos:   pos,
			id:    r.index.entries[b][pos].ID,
			score: score,
		})
	}

	slices.SortFunc(ranked, func(a, c candidate) int {
		if n := cmp.Compare(c.score, a.score); n != 0 {
			return n
		}
		return cmp.Compare(a.id, c.id)
	})

	return ranked
}
