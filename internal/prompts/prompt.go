// Package prompts manages named instruction overrides for the LLM stage, one
// active override per access tier. The response spec and evidence requirement
// are never overridable.
package prompts

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/bluecite/internal/stages"
)

// Prompt is a named instruction override for one access tier.
type Prompt struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Tier         stages.AccessTier `json:"tier"`
	Instructions string            `json:"instructions"`
	Description  *string           `json:"description"`
	Active       bool              `json:"active"`
}

// CreateCommand carries the data needed to create a new prompt override.
type CreateCommand struct {
	Name         string            `json:"name"`
	Tier         stages.AccessTier `json:"tier"`
	Instructions string            `json:"instructions"`
	Description  *string           `json:"description"`
}

// UpdateCommand carries the data needed to update an existing prompt override.
type UpdateCommand = CreateCommand

func (c CreateCommand) validate() error {
	if _, err := ParseTier(string(c.Tier)); err != nil {
		return err
	}
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Instructions == "" {
		return ErrInstructionsRequired
	}
	return nil
}

// Tiers lists the access tiers a prompt may target.
func Tiers() []stages.AccessTier {
	return []stages.AccessTier{stages.TierPrimary, stages.TierSecondary, stages.TierTertiary}
}

// ParseTier validates an access tier name.
func ParseTier(s string) (stages.AccessTier, error) {
	if _, err := stages.DefaultInstructions(stages.AccessTier(s)); err != nil {
		return "", ErrInvalidTier
	}
	return stages.AccessTier(s), nil
}
