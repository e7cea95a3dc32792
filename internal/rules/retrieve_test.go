package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/rules"
)

func newRetriever(t *testing.T, corpus *rules.Corpus) *rules.Retriever {
	t.Helper()
	idx, err := rules.Build(corpus, nil)
	require.NoError(t, err)
	return rules.NewRetriever(idx)
}

func newCorpus(t *testing.T, entries ...rules.Entry) *rules.Corpus {
	t.Helper()
	corpus, err := rules.NewCorpus("test", entries)
	require.NoError(t, err)
	return corpus
}

func assertCoverageInvariants(t *testing.T, result *rules.Result, quota int) {
	t.Helper()

	require.Len(t, result.Coverage.Buckets, len(rules.Priority))
	for i, cov := range result.Coverage.Buckets {
		assert.Equal(t, rules.Priority[i], cov.Bucket, "coverage must follow bucket priority")
		assert.LessOrEqual(t, cov.Returned, quota)
		assert.LessOrEqual(t, cov.Returned, cov.Matched)
		assert.LessOrEqual(t, cov.Matched, cov.Scanned)
	}

	last := 0
	for _, r := range result.Rules {
		rank := int(r.Bucket)
		assert.GreaterOrEqual(t, rank, last, "rules must stay grouped in bucket priority order")
		last = rank
	}
	assert.Len(t, result.Scores, len(result.Rules))
}

func TestRetrieveBackgroundSignal(t *testing.T) {
	r := newRetriever(t, loadTestCorpus(t))

	result, err := r.Retrieve("See generally Smith (2019) (discussing topic).", 3)
	require.NoError(t, err)
	assertCoverageInvariants(t, result, 3)

	require.NotEmpty(t, result.Rules)
	assert.Equal(t, "H-1", result.Rules[0].ID)
	assert.Contains(t, result.Coverage.Terms, "signal")
	assert.Contains(t, result.Coverage.Terms, "parenthetical")
	assert.Contains(t, result.Coverage.Terms, "year")
	assert.Contains(t, result.Coverage.Terms, "discussing")

	house := result.Coverage.Buckets[0]
	assert.Equal(t, 4, house.Scanned)
	assert.Positive(t, house.Matched)
}

func TestRetrieveQuota(t *testing.T) {
	r := newRetriever(t, loadTestCorpus(t))
	text := "See also Doe v. Roe, 123 F.3d 456 (9th Cir. 2019) (holding that a court must cite the code)."

	for _, quota := range []int{0, 1, 2, 5, 100} {
		result, err := r.Retrieve(text, quota)
		require.NoError(t, err)
		assertCoverageInvariants(t, result, quota)
	}

	result, err := r.Retrieve(text, 1)
	require.NoError(t, err)
	for _, cov := range result.Coverage.Buckets {
		if cov.Matched > 1 {
			assert.Equal(t, 1, cov.Returned)
		}
	}

	negative, err := r.Retrieve(text, -3)
	require.NoError(t, err)
	assert.Empty(t, negative.Rules)
	assert.Equal(t, 0, negative.Coverage.Quota)
}

func TestRetrieveDeterministic(t *testing.T) {
	r := newRetriever(t, loadTestCorpus(t))
	text := "Cf. Acme Corp. v. Dep't of Labor, No. 19-cv-1234 (S.D.N.Y. Mar. 3, 2020)."

	first, err := r.Retrieve(text, 4)
	require.NoError(t, err)

	for range 10 {
		again, err := r.Retrieve(text, 4)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	rebuilt := newRetriever(t, loadTestCorpus(t))
	again, err := rebuilt.Retrieve(text, 4)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestRetrieveTieBreakByID(t *testing.T) {
	corpus := newCorpus(t,
		rules.Entry{ID: "g-2", Bucket: rules.BucketGeneral, Title: "alpha", Text: "alpha beta"},
		rules.Entry{ID: "g-3", Bucket: rules.BucketGeneral, Title: "alpha", Text: "alpha"},
		rules.Entry{ID: "g-1", Bucket: rules.BucketGeneral, Title: "alpha", Text: "alpha beta"},
	)
	r := newRetriever(t, corpus)

	result, err := r.Retrieve("alpha beta", 10)
	require.NoError(t, err)

	ids := make([]string, len(result.Rules))
	for i, e := range result.Rules {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"g-1", "g-2", "g-3"}, ids)
	assert.Equal(t, []int{2, 2, 1}, result.Scores)
}

func TestRetrieveNeverReordersAcrossBuckets(t *testing.T) {
	corpus := newCorpus(t,
		rules.Entry{ID: "h", Bucket: rules.BucketHouse, Title: "weak", Text: "alpha"},
		rules.Entry{ID: "t", Bucket: rules.BucketTables, Title: "strong", Text: "alpha beta gamma delta"},
	)
	r := newRetriever(t, corpus)

	result, err := r.Retrieve("alpha beta gamma delta", 5)
	require.NoError(t, err)
	require.Len(t, result.Rules, 2)

	assert.Equal(t, "h", result.Rules[0].ID)
	assert.Equal(t, "t", result.Rules[1].ID)
	assert.Less(t, result.Scores[0], result.Scores[1])
}

func TestRetrieveLowerBucketEmpty(t *testing.T) {
	corpus := newCorpus(t,
		rules.Entry{ID: "h", Bucket: rules.BucketHouse, Title: "x", Text: "alpha"},
		rules.Entry{ID: "g", Bucket: rules.BucketGeneral, Title: "x", Text: "omega"},
	)
	r := newRetriever(t, corpus)

	result, err := r.Retrieve("alpha", 5)
	require.NoError(t, err)
	assertCoverageInvariants(t, result, 5)

	assert.Equal(t, rules.BucketCoverage{Bucket: rules.BucketHouse, Scanned: 1, Matched: 1, Returned: 1}, result.Coverage.Buckets[0])
	assert.Equal(t, rules.BucketCoverage{Bucket: rules.BucketGeneral, Scanned: 1, Matched: 0, Returned: 0}, result.Coverage.Buckets[1])
	assert.Equal(t, rules.BucketCoverage{Bucket: rules.BucketTables, Scanned: 0, Matched: 0, Returned: 0}, result.Coverage.Buckets[2])
}

func TestRetrieveEmptyTermSet(t *testing.T) {
	corpus := loadTestCorpus(t)
	r := newRetriever(t, corpus)

	for _, text := range []string{"", "   ", "the of and"} {
		result, err := r.Retrieve(text, 5)
		require.NoError(t, err)

		assert.Empty(t, result.Coverage.Terms)
		assert.Empty(t, result.Rules)
		assert.True(t, result.Degraded())
		assert.True(t, result.Coverage.Ran())
		assert.Equal(t, 0, result.Coverage.Returned())

		for _, cov := range result.Coverage.Buckets {
			assert.Equal(t, corpus.Count(cov.Bucket), cov.Scanned)
			assert.Zero(t, cov.Matched)
			assert.Zero(t, cov.Returned)
		}
	}
}

func TestRetrieveWithoutIndex(t *testing.T) {
	_, err := rules.NewRetriever(nil).Retrieve("See id.", 5)
	assert.ErrorIs(t, err, rules.ErrCorpusUnavailable)
}

func TestExtractTerms(t *testing.T) {
	ex := rules.NewTermExtractor(nil)

	tests := []struct {
		name    string
		text    string
		want    []string
		without []string
	}{
		{
			name: "signal and parenthetical",
			text: "See generally Smith (2019) (discussing topic).",
			want: []string{"signal", "see", "generally", "parenthetical", "year", "discussing", "topic", "smith", "2019"},
		},
		{
			name:    "date-only parenthetical",
			text:    "Smith v. Jones, 100 F.3d 200 (9th Cir. 2001).",
			want:    []string{"year", "court", "circuit", "reporter", "federal"},
			without: []string{"parenthetical", "signal"},
		},
		{
			name: "docket number",
			text: "Doe v. Roe, No. 19-cv-1234 (S.D.N.Y. Mar. 3, 2020).",
			want: []string{"docket", "19", "cv", "1234", "district", "court"},
		},
		{
			name: "statute",
			text: "42 U.S.C. § 1983 (2018).",
			want: []string{"section", "code", "statute", "1983"},
		},
		{
			name: "short form",
			text: "Id. at 5.",
			want: []string{"short", "id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := ex.Extract(tt.text)
			assert.IsIncreasing(t, terms)
			for _, w := range tt.want {
				assert.Contains(t, terms, w)
			}
			for _, w := range tt.without {
				assert.NotContains(t, terms, w)
			}
		})
	}
}
