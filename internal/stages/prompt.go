package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/rules"
)

const primaryInstructions = `You are a legal citation editor checking one citation against a style manual.

The rules below were retrieved from the manual for this citation. You also have access to the full manual and may consult it, but any error you report must still quote one of the rules shown here. House rules take precedence over general rules when they conflict. Report only errors you are confident the citation actually contains.`

const secondaryInstructions = `You are a legal citation editor checking one citation against a style manual.

The rules below were retrieved from the manual for this citation and are the only rules available to you. House rules take precedence over general rules when they conflict. Do not rely on memory of any style manual. Report only errors you are confident the citation actually contains and can support from the rules shown.`

const tertiaryInstructions = `You are a legal citation editor checking one citation against a style manual.

No rules could be retrieved for this citation. Assess the citation on its form alone. You cannot quote a rule, so report rule_text_quote as null for every error; these findings will be routed to human review. Report only errors you are confident the citation actually contains.`

const responseSpec = `Evidence requirement:
- Every error you report MUST include rule_text_quote: a passage copied character for character from the text of one of the rules above.
- Do not paraphrase, abbreviate, or combine passages. Quote a single contiguous passage.
- If you cannot quote a rule that supports an error, do not report that error.

Respond with a JSON object matching this exact structure:

{
  "is_correct": true,
  "errors": [
    {
      "error_type": "<snake_case_error_type>",
      "message": "<what is wrong and how to fix it>",
      "rule_text_quote": "<verbatim passage from a rule above>",
      "confidence": 0.0
    }
  ],
  "corrected_version": null
}

Field constraints:
- is_correct: true only when errors is empty.
- errors: empty array when the citation is correct.
- confidence: your confidence in each error, between 0 and 1.
- corrected_version: the corrected citation when is_correct is false, otherwise null.
- Always respond with valid JSON, no markdown fencing.`

var defaultInstructions = map[AccessTier]string{
	TierPrimary:   primaryInstructions,
	TierSecondary: secondaryInstructions,
	TierTertiary:  tertiaryInstructions,
}

// DefaultInstructions returns the built-in instructions for an access tier.
func DefaultInstructions(tier AccessTier) (string, error) {
	text, ok := defaultInstructions[tier]
	if !ok {
		return "", fmt.Errorf("unknown access tier %q", tier)
	}
	return text, nil
}

// ResponseSpec returns the evidence requirement and response format appended to
// every prompt. It is not tunable.
func ResponseSpec() string {
	return responseSpec
}

// InstructionSource supplies the tunable instruction block for a tier.
type InstructionSource interface {
	Instructions(ctx context.Context, tier AccessTier) (string, error)
}

type defaultSource struct{}

func (defaultSource) Instructions(_ context.Context, tier AccessTier) (string, error) {
	return DefaultInstructions(tier)
}

// ComposePrompt assembles the prompt for one citation: instructions, the
// retrieved rules verbatim grouped by bucket in priority order, the response
// spec, and the citation.
func ComposePrompt(instructions string, c citations.Citation, retrieved []rules.Entry) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\n")

	if len(retrieved) == 0 {
		sb.WriteString("Rules: none retrieved.\n\n")
	} else {
		sb.WriteString("Rules:\n")
		for _, b := range rules.Priority {
			group := filterBucket(retrieved, b)
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "\n## %s rules\n", b)
			for _, e := range group {
				fmt.Fprintf(&sb, "\n[%s] %s\n%s\n", e.ID, e.Title, e.Text)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(responseSpec)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Citation (type: %s", c.Type)
	if c.FootnoteNumber > 0 {
		fmt.Fprintf(&sb, ", footnote %d", c.FootnoteNumber)
	}
	sb.WriteString("):\n")
	sb.WriteString(c.RawText)

	return sb.String()
}

func filterBucket(entries []rules.Entry, b rules.Bucket) []rules.Entry {
	var out []rules.Entry
	for _, e := range entries {
		if e.Bucket == b {
			out = append(out, e)
		}
	}
	return out
}
