package subjects

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/pkg/pagination"
)

// System defines the public contract for vocabulary operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Subject], error)

	Find(ctx context.Context, id uuid.UUID) (*Subject, error)
	Create(ctx context.Context, cmd CreateCommand) (*Subject, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Vocabulary returns every subject name in alphabetical order.
	Vocabulary(ctx context.Context) ([]string, error)
}
