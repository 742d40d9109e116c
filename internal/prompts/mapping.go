package prompts

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/regwatch/pkg/query"
	"github.com/JaimeStill/regwatch/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "prompts", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("stage", "Stage").
	Project("instructions", "Instructions").
	Project("description", "Description").
	Project("active", "Active").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// returning matches the projection's column order for scanPrompt.
const returning = `RETURNING id, name, stage, instructions, description, active, created_at, updated_at`

var defaultSort = []query.SortField{
	{Field: "Stage"},
	{Field: "Name"},
}

// Filters narrows prompt listings. Stage and Active match exactly; Name
// matches case-insensitively anywhere in the name.
type Filters struct {
	Stage  *Stage  `json:"stage,omitempty"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Stage", f.Stage).
		WhereContains("Name", f.Name).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery reads stage, name, and active from query parameters.
// Unknown stages and non-boolean active values are rejected.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if raw := values.Get("stage"); raw != "" {
		stage, err := ParseStage(raw)
		if err != nil {
			return Filters{}, err
		}
		f.Stage = &stage
	}

	if name := values.Get("name"); name != "" {
		f.Name = &name
	}

	if raw := values.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: active must be a boolean", ErrInvalid)
		}
		f.Active = &active
	}

	return f, nil
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(
		&p.ID, &p.Name, &p.Stage, &p.Instructions,
		&p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
