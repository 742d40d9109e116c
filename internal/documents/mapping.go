package documents

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/query"
	"github.com/JaimeStill/regwatch/pkg/repository"
)

func projectDocument(p *query.ProjectionMap) *query.ProjectionMap {
	return p.
		Project("id", "ID").
		Project("filename", "Filename").
		Project("content_type", "ContentType").
		Project("size_bytes", "SizeBytes").
		Project("page_count", "PageCount").
		Project("storage_key", "StorageKey").
		Project("collection_name", "CollectionName").
		Project("document_type", "DocumentType").
		Project("document_name", "DocumentName").
		Project("document_number", "DocumentNumber").
		Project("document_year", "DocumentYear").
		Project("presented_by", "PresentedBy").
		Project("presented_at", "PresentedAt").
		Project("link", "Link").
		Project("summary", "Summary").
		Project("central_theme", "CentralTheme").
		Project("key_points", "KeyPoints").
		Project("relevance_score", "RelevanceScore").
		Project("created_at", "CreatedAt").
		Project("updated_at", "UpdatedAt")
}

var primaryProjection = projectDocument(
	query.NewProjectionMap("public", "primary_documents", "p"),
)

var secondaryProjection = projectDocument(
	query.NewProjectionMap("public", "secondary_documents", "s"),
).
	Project("primary_id", "PrimaryID").
	Project("role", "Role").
	Project("party_affiliation", "PartyAffiliation")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for primary document queries.
// Nil fields are ignored. DocumentName and PresentedBy use case-insensitive
// contains matching, YearFrom and YearTo bound document_year inclusively, and
// Subject keeps primaries linked to that vocabulary term (case-insensitive).
type Filters struct {
	DocumentType   *string `json:"document_type,omitempty"`
	DocumentName   *string `json:"document_name,omitempty"`
	DocumentYear   *int    `json:"document_year,omitempty"`
	YearFrom       *int    `json:"year_from,omitempty"`
	YearTo         *int    `json:"year_to,omitempty"`
	DocumentNumber *int    `json:"document_number,omitempty"`
	PresentedBy    *string `json:"presented_by,omitempty"`
	ContentType    *string `json:"content_type,omitempty"`
	Subject        *string `json:"subject,omitempty"`
}

const subjectExistsSQL = `
	SELECT 1 FROM primary_subjects ps
	JOIN subjects sj ON sj.id = ps.subject_id
	WHERE ps.primary_id = p.id AND lower(sj.name) = lower($?)`

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var subject any
	if f.Subject != nil && *f.Subject != "" {
		subject = *f.Subject
	}

	return b.
		WhereEquals("DocumentType", f.DocumentType).
		WhereContains("DocumentName", f.DocumentName).
		WhereEquals("DocumentYear", f.DocumentYear).
		WhereRange("DocumentYear", f.YearFrom, f.YearTo).
		WhereEquals("DocumentNumber", f.DocumentNumber).
		WhereContains("PresentedBy", f.PresentedBy).
		WhereEquals("ContentType", f.ContentType).
		WhereExists(subjectExistsSQL, subject)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("document_type"); v != "" {
		f.DocumentType = &v
	}

	if v := values.Get("document_name"); v != "" {
		f.DocumentName = &v
	}

	if v := values.Get("document_year"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.DocumentYear = &n
		}
	}

	f.YearFrom = intParam(values, "year_from")
	f.YearTo = intParam(values, "year_to")

	if v := values.Get("document_number"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.DocumentNumber = &n
		}
	}

	if v := values.Get("presented_by"); v != "" {
		f.PresentedBy = &v
	}

	if v := values.Get("content_type"); v != "" {
		f.ContentType = &v
	}

	if v := values.Get("subject"); v != "" {
		f.Subject = &v
	}

	return f
}

func intParam(values url.Values, key string) *int {
	n, err := strconv.Atoi(values.Get(key))
	if err != nil {
		return nil
	}
	return &n
}

func scanPrimary(s repository.Scanner) (Primary, error) {
	var p Primary
	var keyPoints []byte

	err := s.Scan(
		&p.ID,
		&p.Filename,
		&p.ContentType,
		&p.SizeBytes,
		&p.PageCount,
		&p.StorageKey,
		&p.CollectionName,
		&p.DocumentType,
		&p.DocumentName,
		&p.DocumentNumber,
		&p.DocumentYear,
		&p.PresentedBy,
		&p.PresentedAt,
		&p.Link,
		&p.Summary,
		&p.CentralTheme,
		&keyPoints,
		&p.RelevanceScore,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	if err := decodeKeyPoints(keyPoints, &p.Analysis); err != nil {
		return p, err
	}
	return p, nil
}

func scanSecondary(s repository.Scanner) (Secondary, error) {
	var sec Secondary
	var keyPoints []byte

	err := s.Scan(
		&sec.ID,
		&sec.Filename,
		&sec.ContentType,
		&sec.SizeBytes,
		&sec.PageCount,
		&sec.StorageKey,
		&sec.CollectionName,
		&sec.DocumentType,
		&sec.DocumentName,
		&sec.DocumentNumber,
		&sec.DocumentYear,
		&sec.PresentedBy,
		&sec.PresentedAt,
		&sec.Link,
		&sec.Summary,
		&sec.CentralTheme,
		&keyPoints,
		&sec.RelevanceScore,
		&sec.CreatedAt,
		&sec.UpdatedAt,
		&sec.PrimaryID,
		&sec.Role,
		&sec.PartyAffiliation,
	)
	if err != nil {
		return sec, err
	}

	if err := decodeKeyPoints(keyPoints, &sec.Analysis); err != nil {
		return sec, err
	}
	return sec, nil
}

func decodeKeyPoints(raw []byte, a *Analysis) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.KeyPoints); err != nil {
			return fmt.Errorf("unmarshal key_points: %w", err)
		}
	}
	if a.KeyPoints == nil {
		a.KeyPoints = workflow.KeyPoints{}
	}
	return nil
}
