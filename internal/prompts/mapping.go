package prompts

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/bluecite/internal/stages"
	"github.com/JaimeStill/bluecite/pkg/query"
	"github.com/JaimeStill/bluecite/pkg/repository"
)

const columns = "id, name, tier, instructions, description, active"

var projection = query.
	NewProjectionMap("public", "prompts", "p").
	Project("id", "id").
	Project("name", "name").
	Project("tier", "tier").
	Project("instructions", "instructions").
	Project("description", "description").
	Project("active", "active")

var defaultSort = query.SortField{Field: "name"}

// Filters contains optional filtering criteria for prompt queries.
// Nil fields are ignored.
type Filters struct {
	Tier   *stages.AccessTier `json:"tier,omitempty"`
	Active *bool              `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("tier", f.Tier).
		WhereEquals("active", f.Active)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("tier"); s != "" {
		if tier, err := ParseTier(s); err == nil {
			f.Tier = &tier
		}
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Active = &v
		}
	}

	return f
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Tier,
		&p.Instructions,
		&p.Description,
		&p.Active,
	)
	return p, err
}
