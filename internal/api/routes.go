package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/documents"
	"github.com/JaimeStill/regwatch/internal/prompts"
	"github.com/JaimeStill/regwatch/internal/subjects"
	"github.com/JaimeStill/regwatch/pkg/openapi"
	"github.com/JaimeStill/regwatch/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	groups := []routes.Group{
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Subjects.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
	}

	routes.Register(mux, groups...)

	specBytes, err := openapi.MarshalJSON(buildSpec(cfg, groups))
	if err != nil {
		return err
	}
	mux.HandleFunc("GET "+specPath, openapi.ServeSpec(specBytes))

	return nil
}

// Spec builds the API description without connecting to any backing
// service. Handlers are created unbound; only their route metadata is read.
func Spec(cfg *config.Config) *openapi.Spec {
	logger := slog.New(slog.DiscardHandler)

	return buildSpec(cfg, []routes.Group{
		documents.NewHandler(nil, logger, cfg.API.Pagination, cfg.API.MaxUploadSizeBytes()).Routes(),
		subjects.NewHandler(nil, logger, cfg.API.Pagination).Routes(),
		prompts.NewHandler(nil, logger, cfg.API.Pagination).Routes(),
		newStorageHandler(nil, logger).routes(),
	})
}

func buildSpec(cfg *config.Config, groups []routes.Group) *openapi.Spec {
	spec := openapi.NewSpec(cfg.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.OpenAPI.Description)
	spec.AddServer(cfg.OpenAPI.Server(cfg.API.BasePath))
	if cfg.Auth.Enabled {
		spec.RequireBearer(cfg.Auth.Issuer)
	}
	routes.Document(spec, groups...)
	return spec
}
