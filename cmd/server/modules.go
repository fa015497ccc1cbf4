package main

import (
	"net/http"

	"github.com/JaimeStill/patentbot/internal/api"
	"github.com/JaimeStill/patentbot/internal/config"
	"github.com/JaimeStill/patentbot/internal/infrastructure"
	"github.com/JaimeStill/patentbot/pkg/handlers"
	"github.com/JaimeStill/patentbot/pkg/module"
)

type Modules struct {
	API *module.Module
}

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

// buildRouter serves the liveness and readiness probes beside the mounted
// modules. Readiness reports the startup failure once one has occurred.
func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		lc := infra.Lifecycle
		if lc.Ready() {
			handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}

		body := map[string]string{"status": "not ready"}
		if err := lc.Err(); err != nil {
			body["error"] = err.Error()
		}
		handlers.RespondJSON(w, http.StatusServiceUnavailable, body)
	})

	return router
}
