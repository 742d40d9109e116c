package api

import (
	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/infrastructure"
	"github.com/JaimeStill/regwatch/pkg/pagination"
)

// Runtime is the infrastructure view handed to API domain systems. The
// embedded Infrastructure is a shallow copy whose Logger is tagged with
// module=api, so the process-wide logger is left untouched.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime scopes infra to the API module.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
	}
}
