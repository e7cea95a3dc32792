package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{ConnectionString: "conn"}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, storage.BackendAzure, cfg.Backend)
	assert.Equal(t, "bluecite", cfg.ContainerName)
	assert.Equal(t, "runs", cfg.ArchivePrefix)
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_BACKEND", "memory")
	t.Setenv("TEST_CONTAINER", "citations")
	t.Setenv("TEST_PREFIX", "archive/")

	cfg := storage.Config{}
	require.NoError(t, cfg.Finalize(&storage.Env{
		Backend:       "TEST_BACKEND",
		ContainerName: "TEST_CONTAINER",
		ArchivePrefix: "TEST_PREFIX",
	}))

	assert.Equal(t, storage.BackendMemory, cfg.Backend)
	assert.Equal(t, "citations", cfg.ContainerName)
	assert.Equal(t, "archive/run-1.json", cfg.ArchiveKey("run-1.json"))
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{"azure without connection string", storage.Config{}, "connection_string required"},
		{"memory without connection string", storage.Config{Backend: storage.BackendMemory}, ""},
		{"unknown backend", storage.Config{Backend: "s3"}, "unsupported storage backend"},
		{"traversal prefix", storage.Config{Backend: storage.BackendMemory, ArchivePrefix: "../x"}, "archive_prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{ContainerName: "bluecite", ConnectionString: "base"}
	base.Merge(&storage.Config{ConnectionString: "overlay"})

	assert.Equal(t, "bluecite", base.ContainerName)
	assert.Equal(t, "overlay", base.ConnectionString)
}
