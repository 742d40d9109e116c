package main

import (
	"net/http"

	"github.com/JaimeStill/regwatch/internal/api"
	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/infrastructure"
	"github.com/JaimeStill/regwatch/pkg/handlers"
	"github.com/JaimeStill/regwatch/pkg/module"
)

// Modules are the prefixed HTTP modules mounted on the root router.
type Modules struct {
	API *module.Module
}

// NewModules builds every HTTP module served under the root router.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type healthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, healthStatus{Status: "ok", Version: version})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		body := healthStatus{Status: "ready", Checks: infra.Lifecycle.Status()}
		if !infra.Lifecycle.Ready() {
			body.Status = "not ready"
			handlers.RespondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, body)
	})

	return router
}
