package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/pkg/pagination"
)

// System defines the public contract for prompt domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prompt], error)

	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd Command) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)

	// Instructions returns the active override for the stage, or the
	// built-in default when none is active.
	Instructions(ctx context.Context, stage Stage) (string, error)
	// Spec returns the stage's fixed output contract.
	Spec(ctx context.Context, stage Stage) (string, error)
}
