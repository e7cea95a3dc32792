package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/pkg/routes"
)

func newRulesServer(t *testing.T, retriever *rules.Retriever) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	routes.Register(mux, newRulesHandler(retriever, 2, slog.New(slog.DiscardHandler)).routes())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testRetriever(t *testing.T) *rules.Retriever {
	t.Helper()
	corpus, err := rules.NewCorpus("test", []rules.Entry{
		{ID: "H-1", Bucket: rules.BucketHouse, Title: "Parentheticals", Text: "Signals require an explanatory parenthetical."},
		{ID: "R10", Bucket: rules.BucketGeneral, Title: "Cases", Text: "Case citations include the reporter and the decision year."},
		{ID: "R12", Bucket: rules.BucketGeneral, Title: "Statutes", Text: "Statute citations include the code title and section."},
		{ID: "T1", Bucket: rules.BucketTables, Title: "Reporters", Text: "Abbreviate reporter names as listed."},
	})
	require.NoError(t, err)
	index, err := rules.Build(corpus, rules.NewWordTokenizer())
	require.NoError(t, err)
	return rules.NewRetriever(index)
}

func TestRulesStats(t *testing.T) {
	srv := newRulesServer(t, testRetriever(t))

	resp, err := http.Get(srv.URL + "/rules")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats rules.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 4, stats.Total)
	require.Len(t, stats.Buckets, 3)
	assert.Equal(t, rules.BucketHouse, stats.Buckets[0].Bucket)
	assert.Equal(t, 2, stats.Buckets[1].Rules)
}

func TestRulesFind(t *testing.T) {
	srv := newRulesServer(t, testRetriever(t))

	tests := []struct {
		path   string
		status int
	}{
		{"/rules/general/R10", http.StatusOK},
		{"/rules/general/R99", http.StatusNotFound},
		{"/rules/appendix/R10", http.StatusBadRequest},
	}

	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
	}
}

func TestRulesRetrieve(t *testing.T) {
	srv := newRulesServer(t, testRetriever(t))

	post := func(body string) *http.Response {
		resp, err := http.Post(srv.URL+"/rules/retrieve", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"text":"case reporter year","quota":1}`)
	var result rules.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, result.Coverage.Quota)
	for _, b := range result.Coverage.Buckets {
		assert.LessOrEqual(t, b.Returned, 1)
	}

	resp = post(`{"text":"case reporter year"}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.Equal(t, 2, result.Coverage.Quota)

	resp = post(`{"text":"  "}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRulesWithoutCorpus(t *testing.T) {
	srv := newRulesServer(t, rules.NewRetriever(nil))

	resp, err := http.Get(srv.URL + "/rules")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/rules/retrieve", "application/json", strings.NewReader(`{"text":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
