package inference_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/inference"
)

func TestParseResponse(t *testing.T) {
	t.Run("valid with findings", func(t *testing.T) {
		resp, err := inference.ParseResponse(`{
			"is_correct": false,
			"errors": [{
				"error_type": "weak_parenthetical",
				"message": "parenthetical names only the topic",
				"rule_text_quote": "must carry an explanatory parenthetical",
				"confidence": 0.8
			}],
			"corrected_version": "See generally Smith (2019) (holding that X)."
		}`)
		require.NoError(t, err)

		assert.False(t, resp.IsCorrect)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "weak_parenthetical", resp.Errors[0].ErrorType)
		assert.Equal(t, "must carry an explanatory parenthetical", resp.Errors[0].RuleTextQuote)
		assert.Equal(t, 0.8, resp.Errors[0].Confidence)
		assert.Equal(t, "See generally Smith (2019) (holding that X).", resp.CorrectedVersion)
	})

	t.Run("null quote is accepted", func(t *testing.T) {
		resp, err := inference.ParseResponse(`{"is_correct": false, "errors": [{"error_type": "x", "message": "y", "rule_text_quote": null, "confidence": 0.5}], "corrected_version": null}`)
		require.NoError(t, err)
		assert.Empty(t, resp.Errors[0].RuleTextQuote)
		assert.Empty(t, resp.CorrectedVersion)
	})

	t.Run("fenced json", func(t *testing.T) {
		resp, err := inference.ParseResponse("```json\n{\"is_correct\": true, \"errors\": [], \"corrected_version\": null}\n```")
		require.NoError(t, err)
		assert.True(t, resp.IsCorrect)
		assert.Empty(t, resp.Errors)
	})
}

func TestParseResponseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "the citation looks fine"},
		{"missing is_correct", `{"errors": [], "corrected_version": null}`},
		{"missing errors", `{"is_correct": true, "corrected_version": null}`},
		{"null errors", `{"is_correct": true, "errors": null}`},
		{"unknown field", `{"is_correct": true, "errors": [], "verdict": "ok"}`},
		{"wrong type", `{"is_correct": "yes", "errors": []}`},
		{"empty error type", `{"is_correct": false, "errors": [{"error_type": "", "message": "m", "confidence": 0.5}]}`},
		{"missing confidence", `{"is_correct": false, "errors": [{"error_type": "t", "message": "m"}]}`},
		{"confidence out of range", `{"is_correct": false, "errors": [{"error_type": "t", "message": "m", "confidence": 1.5}]}`},
		{"correct with errors", `{"is_correct": true, "errors": [{"error_type": "t", "message": "m", "confidence": 0.5}]}`},
		{"trailing data", `{"is_correct": true, "errors": []} {"is_correct": false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inference.ParseResponse(tt.content)
			assert.ErrorIs(t, err, inference.ErrMalformedResponse)
		})
	}
}
