package pagination_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/pkg/pagination"
	"github.com/JaimeStill/bluecite/pkg/query"
)

func testConfig(t *testing.T) pagination.Config {
	t.Helper()
	cfg := pagination.Config{}
	require.NoError(t, cfg.Finalize(nil))
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
}

func TestConfigValidation(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	assert.Error(t, cfg.Finalize(nil))
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := testConfig(t)

	req := pagination.PageRequestFromQuery(url.Values{
		"page":      {"3"},
		"page_size": {"500"},
		"search":    {"Smith"},
		"sort":      {"-createdAt"},
	}, cfg)

	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 100, req.PageSize)
	require.NotNil(t, req.Search)
	assert.Equal(t, "Smith", *req.Search)
	assert.Equal(t, []query.SortField{{Field: "createdAt", Descending: true}}, req.Sort)
}

func TestPageRequestDefaults(t *testing.T) {
	req := pagination.PageRequestFromQuery(url.Values{"page": {"zero"}}, testConfig(t))

	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.PageSize)
	assert.Nil(t, req.Search)
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"empty", 0, 20, 1},
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult[string](nil, tt.total, 1, tt.pageSize)
			assert.Equal(t, tt.wantPages, result.TotalPages)
			assert.NotNil(t, result.Data)
		})
	}
}
