package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JaimeStill/bluecite/pkg/formatting"
)

// SchemaName names ResponseSchema in structured output requests.
const SchemaName = "citation_validation"

// ResponseSchema is the JSON schema every validation response must satisfy.
var ResponseSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["is_correct", "errors", "corrected_version"],
  "properties": {
    "is_correct": {"type": "boolean"},
    "errors": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["error_type", "message", "rule_text_quote", "confidence"],
        "properties": {
          "error_type": {"type": "string"},
          "message": {"type": "string"},
          "rule_text_quote": {"type": ["string", "null"]},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "corrected_version": {"type": ["string", "null"]}
  }
}`)

// Finding is one error reported by the service.
type Finding struct {
	ErrorType     string  `json:"error_type"`
	Message       string  `json:"message"`
	RuleTextQuote string  `json:"rule_text_quote"`
	Confidence    float64 `json:"confidence"`
}

// Response is a decoded validation response.
type Response struct {
	IsCorrect        bool      `json:"is_correct"`
	Errors           []Finding `json:"errors"`
	CorrectedVersion string    `json:"corrected_version,omitempty"`
}

type wireFinding struct {
	ErrorType     *string  `json:"error_type"`
	Message       *string  `json:"message"`
	RuleTextQuote *string  `json:"rule_text_quote"`
	Confidence    *float64 `json:"confidence"`
}

type wireResponse struct {
	IsCorrect        *bool          `json:"is_correct"`
	Errors           *[]wireFinding `json:"errors"`
	CorrectedVersion *string        `json:"corrected_version"`
}

// ParseResponse decodes content against ResponseSchema. Any deviation, including
// unknown fields, missing required fields, or out-of-range confidence, returns
// ErrMalformedResponse.
func ParseResponse(content string) (Response, error) {
	w, err := formatting.Parse[wireResponse](content)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if w.IsCorrect == nil {
		return Response{}, fmt.Errorf("%w: is_correct required", ErrMalformedResponse)
	}
	if w.Errors == nil {
		return Response{}, fmt.Errorf("%w: errors required", ErrMalformedResponse)
	}

	resp := Response{
		IsCorrect: *w.IsCorrect,
		Errors:    make([]Finding, 0, len(*w.Errors)),
	}
	if w.CorrectedVersion != nil {
		resp.CorrectedVersion = strings.TrimSpace(*w.CorrectedVersion)
	}

	for i, f := range *w.Errors {
		finding, err := f.finding()
		if err != nil {
			return Response{}, fmt.Errorf("%w: errors[%d]: %w", ErrMalformedResponse, i, err)
		}
		resp.Errors = append(resp.Errors, finding)
	}

	if resp.IsCorrect && len(resp.Errors) > 0 {
		return Response{}, fmt.Errorf("%w: is_correct is true but %d errors reported", ErrMalformedResponse, len(resp.Errors))
	}

	return resp, nil
}

func (f wireFinding) finding() (Finding, error) {
	if f.ErrorType == nil || strings.TrimSpace(*f.ErrorType) == "" {
		return Finding{}, fmt.Errorf("error_type required")
	}
	if f.Message == nil || strings.TrimSpace(*f.Message) == "" {
		return Finding{}, fmt.Errorf("message required")
	}
	if f.Confidence == nil {
		return Finding{}, fmt.Errorf("confidence required")
	}
	if *f.Confidence < 0 || *f.Confidence > 1 {
		return Finding{}, fmt.Errorf("confidence %v outside [0,1]", *f.Confidence)
	}

	out := Finding{
		ErrorType:  strings.TrimSpace(*f.ErrorType),
		Message:    strings.TrimSpace(*f.Message),
		Confidence: *f.Confidence,
	}
	if f.RuleTextQuote != nil {
		out.RuleTextQuote = *f.RuleTextQuote
	}
	return out, nil
}
