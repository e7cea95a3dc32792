package formatting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"4096", 4096, false},
		{"512B", 512, false},
		{"1KB", 1024, false},
		{"10MB", 10 << 20, false},
		{"10 mib", 10 << 20, false},
		{"1.5K", 1536, false},
		{"  2GB ", 2 << 30, false},
		{"", 0, true},
		{"MB", 0, true},
		{"-5MB", 0, true},
		{"5XB", 0, true},
		{"99999999TB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", formatting.FormatBytes(0, 1))
	assert.Equal(t, "1023 B", formatting.FormatBytes(1023, 1))
	assert.Equal(t, "10.0 MB", formatting.FormatBytes(10<<20, 1))
	assert.Equal(t, "2 GB", formatting.FormatBytes(2<<30, 0))
}
