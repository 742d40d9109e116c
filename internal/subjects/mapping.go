package subjects

import (
	"net/url"

	"github.com/JaimeStill/regwatch/pkg/query"
	"github.com/JaimeStill/regwatch/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "subjects", "s").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("created_at", "CreatedAt")

var defaultSort = []query.SortField{{Field: "Name"}}

// Filters narrows subject queries. Name is a substring match.
type Filters struct {
	Name *string `json:"name,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	return f
}

func scanSubject(s repository.Scanner) (Subject, error) {
	var sub Subject
	err := s.Scan(&sub.ID, &sub.Name, &sub.Description, &sub.CreatedAt)
	return sub, err
}
