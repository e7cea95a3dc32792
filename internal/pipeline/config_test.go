package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/pipeline"
)

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := &pipeline.Config{}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, 0.9, cfg.RegexThreshold)
	assert.Equal(t, 0.85, cfg.RuleThreshold)
	assert.Equal(t, 5, cfg.QuotaPerBucket)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 3*time.Minute, cfg.CitationTimeoutDuration())
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PIPELINE_REGEX_THRESHOLD", "0.8")
	t.Setenv("TEST_PIPELINE_QUOTA", "2")
	t.Setenv("TEST_PIPELINE_WORKERS", "16")
	t.Setenv("TEST_PIPELINE_TIMEOUT", "90s")

	cfg := &pipeline.Config{}
	require.NoError(t, cfg.Finalize(&pipeline.Env{
		RegexThreshold:  "TEST_PIPELINE_REGEX_THRESHOLD",
		QuotaPerBucket:  "TEST_PIPELINE_QUOTA",
		Workers:         "TEST_PIPELINE_WORKERS",
		CitationTimeout: "TEST_PIPELINE_TIMEOUT",
	}))

	assert.Equal(t, 0.8, cfg.RegexThreshold)
	assert.Equal(t, 0.85, cfg.RuleThreshold)
	assert.Equal(t, 2, cfg.QuotaPerBucket)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.CitationTimeoutDuration())
}

func TestConfigFinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  pipeline.Config
	}{
		{"regex threshold above one", pipeline.Config{RegexThreshold: 1.5}},
		{"negative rule threshold", pipeline.Config{RuleThreshold: -0.1}},
		{"negative quota", pipeline.Config{QuotaPerBucket: -1}},
		{"negative workers", pipeline.Config{Workers: -2}},
		{"bad timeout", pipeline.Config{CitationTimeout: "later"}},
		{"zero timeout", pipeline.Config{CitationTimeout: "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Error(t, cfg.Finalize(nil))
		})
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := &pipeline.Config{RegexThreshold: 0.9, Workers: 4}
	cfg.Merge(&pipeline.Config{Workers: 8, CitationTimeout: "1m"})

	assert.Equal(t, 0.9, cfg.RegexThreshold)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "1m", cfg.CitationTimeout)
}
