package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/patentbot/internal/cases"
	"github.com/JaimeStill/patentbot/internal/config"
	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/resolution"
	"github.com/JaimeStill/patentbot/pkg/openapi"
	"github.com/JaimeStill/patentbot/pkg/routes"
)

func groups(domain *Domain) []routes.Group {
	return []routes.Group{
		domain.Cases.Handler().Routes(),
		domain.Documents.Handler().Routes(),
		domain.Resolution.Handler().Routes(),
	}
}

// registerRoutes mounts the domain routes behind authentication and serves
// the OpenAPI document unauthenticated.
func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, runtime *Runtime) error {
	gs := groups(domain)

	spec, err := buildSpec(cfg, gs)
	if err != nil {
		return err
	}
	mux.Handle("GET /openapi.json", openapi.ServeSpec(spec))

	domainMux := http.NewServeMux()
	routes.Register(domainMux, gs...)
	mux.Handle("/", runtime.Auth.Middleware()(domainMux))

	return nil
}

func buildSpec(cfg *config.Config, gs []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.OpenAPI.Server(cfg.API.BasePath))

	spec.Components.AddSchemas(cases.Spec.Schemas)
	spec.Components.AddSchemas(documents.Spec.Schemas)
	spec.Components.AddSchemas(resolution.Spec.Schemas)

	routes.Describe(spec, "", gs...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
