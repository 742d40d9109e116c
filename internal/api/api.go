// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/infrastructure"
	"github.com/JaimeStill/regwatch/pkg/middleware"
	"github.com/JaimeStill/regwatch/pkg/module"
)

// specPath is always reachable without a token.
const specPath = "/openapi.json"

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.RequestID(),
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
	)

	if cfg.Auth.Enabled {
		verifier, err := middleware.NewVerifier(context.Background(), &cfg.Auth)
		if err != nil {
			return nil, err
		}
		exempt := append([]string{specPath}, cfg.Auth.ExemptPaths...)
		m.Use(middleware.Auth(verifier, exempt, runtime.Logger))
	}

	return m, nil
}
