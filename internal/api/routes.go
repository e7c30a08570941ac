package api

import (
	"net/http"

	"github.com/JaimeStill/docket/internal/records"
	"github.com/JaimeStill/docket/pkg/openapi"
	"github.com/JaimeStill/docket/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) error {
	spec := openapi.NewSpec("Docket API", runtime.Version)
	spec.AddServer(runtime.BasePath)
	spec.Components.AddSchemas(archiveSchemas)

	groups := []routes.Group{
		newArchiveHandler(runtime.Storage, runtime.Logger).routes(),
	}
	if domain.Records != nil {
		groups = append(groups, domain.Records.Handler().Routes())
		spec.Components.AddSchemas(records.Schemas())
	}

	if err := routes.Describe(spec, groups...); err != nil {
		return err
	}
	serveSpec, err := spec.Handler()
	if err != nil {
		return err
	}

	routes.Register(mux, groups...)
	mux.HandleFunc("GET /openapi.json", serveSpec)
	return nil
}
