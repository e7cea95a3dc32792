package rules

import (
	"fmt"
	"slices"
)

// Index is an inverted keyword index, one posting map per bucket. It never mutates
// after Build and is safe for concurrent reads.
type Index struct {
	corpus    *Corpus
	tokenizer Tokenizer
	entries   map[Bucket][]Entry
	postings  map[Bucket]map[string][]int
}

// Build tokenizes each rule's title and text and indexes the resulting keywords.
// A nil tokenizer selects the default WordTokenizer. Building twice from the same
// corpus yields equivalent indexes.
func Build(corpus *Corpus, tokenizer Tokenizer) (*Index, error) {
	if corpus == nil {
		return nil, fmt.Errorf("build index: %w", ErrCorpusUnavailable)
	}
	if tokenizer == nil {
		tokenizer = NewWordTokenizer()
	}

	idx := &Index{
		corpus:    corpus,
		tokenizer: tokenizer,
		entries:   make(map[Bucket][]Entry, len(Priority)),
		postings:  make(map[Bucket]map[string][]int, len(Priority)),
	}

	for _, b := range Priority {
		source := corpus.buckets[b]
		entries := make([]Entry, len(source))
		postings := make(map[string][]int)

		for i, e := range source {
			keywords := tokenizer.Tokenize(e.Title + " " + e.Text)
			slices.Sort(keywords)
			keywords = slices.Compact(keywords)

			e.Keywords = keywords
			entries[i] = e

			for _, k := range keywords {
				postings[k] = append(postings[k], i)
			}
		}

		idx.entries[b] = entries
		idx.postings[b] = postings
	}

	return idx, nil
}

// Corpus returns the corpus the index was built from.
func (x *Index) Corpus() *Corpus {
	return x.corpus
}

// Tokenizer returns the tokenizer used to build the index.
func (x *Index) Tokenizer() Tokenizer {
	return x.tokenizer
}

// Scanned returns the number of rules in bucket b.
func (x *Index) Scanned(b Bucket) int {
	return len(x.entries[b])
}

// Lookup returns the ids of rules in bucket b containing token, in source order.
func (x *Index) Lookup(b Bucket, token string) []string {
	positions := x.postings[b][token]
	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = x.entries[b][p].ID
	}
	return ids
}

// Entry returns the indexed rule (with keywords) for bucket b and id.
func (x *Index) Entry(b Bucket, id string) (Entry, error) {
	pos, ok := x.corpus.lookup[entryKey{b, id}]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s/%s", ErrRuleNotFound, b, id)
	}
	return x.entries[b][pos], nil
}

// score counts distinct matching terms per rule position in bucket b.
func (x *Index) score(b Bucket, terms []string) map[int]int {
	scores := make(map[int]int)
	postings := x.postings[b]
	for _, t := range terms {
		for _, pos := range postings[t] {
			scores[pos]++
		}
	}
	return scores
}
