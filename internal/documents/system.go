package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// CreatePrimary analyzes an upload and, when relevant, persists it with
	// its blob and index entries. Irrelevant documents are reported in the
	// Outcome and not stored.
	CreatePrimary(ctx context.Context, cmd PrimaryCommand) (*Outcome, error)
	// CreateSecondary does the same for a document attached to an existing
	// primary. Returns ErrNotFound before any analysis if the primary is missing.
	CreateSecondary(ctx context.Context, cmd SecondaryCommand) (*Outcome, error)

	DeletePrimary(ctx context.Context, id uuid.UUID) error
	DeleteSecondary(ctx context.Context, id uuid.UUID) error

	ListPrimaries(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Primary], error)

	FindPrimary(ctx context.Context, id uuid.UUID) (*PrimaryDetail, error)
	FindSecondary(ctx context.Context, id uuid.UUID) (*Secondary, error)
	ParentSummary(ctx context.Context, id uuid.UUID) (string, error)

	// Search returns the k chunks of the primary's collection closest to q.
	Search(ctx context.Context, id uuid.UUID, q string, k int) ([]vectorindex.Match, error)
}

// Processor runs the analysis workflow. *workflow.Engine satisfies it.
type Processor interface {
	ProcessDocument(ctx context.Context, req workflow.Request) workflow.Result
}
