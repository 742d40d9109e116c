// Package documents implements the regulatory document domain: primary
// documents (bills, resolutions) and the secondary documents attached to
// them (amendments, opinions). Uploads run through the analysis workflow and
// relevant documents are persisted to the record store, blob storage, and
// the vector index as one unit.
package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/workflow"
)

// SubjectRef is a vocabulary term attached to a document.
type SubjectRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Details is the descriptive metadata supplied with every upload.
type Details struct {
	DocumentType   string    `json:"document_type"`
	DocumentName   string    `json:"document_name"`
	DocumentNumber int       `json:"document_number"`
	DocumentYear   int       `json:"document_year"`
	PresentedBy    string    `json:"presented_by"`
	PresentedAt    time.Time `json:"presented_at"`
	Link           string    `json:"link"`
}

// File is the raw uploaded file.
type File struct {
	Data        []byte
	Filename    string
	ContentType string
	PageCount   *int
}

// Analysis holds the stored workflow output.
type Analysis struct {
	Summary        string             `json:"summary"`
	CentralTheme   string             `json:"central_theme"`
	KeyPoints      workflow.KeyPoints `json:"key_points"`
	RelevanceScore float64            `json:"relevance_score"`
	Subjects       []SubjectRef       `json:"subjects"`
}

// Primary is a top-level regulatory document.
type Primary struct {
	ID             uuid.UUID `json:"id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	SizeBytes      int64     `json:"size_bytes"`
	PageCount      *int      `json:"page_count"`
	StorageKey     string    `json:"storage_key"`
	CollectionName string    `json:"collection_name"`
	Details
	Analysis
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Secondary is a document attached to a primary document. It shares the
// primary's index collection.
type Secondary struct {
	ID               uuid.UUID `json:"id"`
	PrimaryID        uuid.UUID `json:"primary_id"`
	Filename         string    `json:"filename"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	PageCount        *int      `json:"page_count"`
	StorageKey       string    `json:"storage_key"`
	CollectionName   string    `json:"collection_name"`
	Role             string    `json:"role"`
	PartyAffiliation string    `json:"party_affiliation"`
	Details
	Analysis
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryDetail is a primary document with its secondaries.
type PrimaryDetail struct {
	Primary
	Secondaries []Secondary `json:"secondaries"`
}

// PrimaryCommand carries an upload of a new primary document.
type PrimaryCommand struct {
	File
	Details
}

// SecondaryCommand carries an upload of a document attached to PrimaryID.
type SecondaryCommand struct {
	File
	Details
	PrimaryID        uuid.UUID
	Role             string
	PartyAffiliation string
}

// Outcome reports the result of an upload. Irrelevant documents produce an
// Outcome with no DocumentID and nothing persisted.
type Outcome struct {
	DocumentID      *uuid.UUID         `json:"document_id,omitempty"`
	DocumentName    string             `json:"document_name"`
	PrimaryDocument string             `json:"primary_document,omitempty"`
	Status          workflow.Status    `json:"status"`
	Subjects        []string           `json:"subjects,omitempty"`
	CentralTheme    string             `json:"central_theme,omitempty"`
	KeyPoints       workflow.KeyPoints `json:"key_points,omitempty"`
	RelevanceScore  float64            `json:"relevance_score"`
	Reason          string             `json:"reason,omitempty"`
	ChunksIndexed   int                `json:"chunks_indexed,omitempty"`
	Message         string             `json:"message"`
}

// CollectionName derives the index collection for a primary document.
func CollectionName(documentType, documentName string) string {
	return documentType + "_" + documentName
}
