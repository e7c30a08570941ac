// Package api assembles the HTTP API module over the archive tree and the
// archive ledger.
package api

import (
	"context"
	"net/http"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/pkg/middleware"
	"github.com/JaimeStill/docket/pkg/module"
)

// NewModule creates the API module with its handlers and middleware. When
// bearer auth is enabled the issuer is discovered before any route is served.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	var verifier middleware.Verifier
	if cfg.API.Auth.Enabled {
		v, err := middleware.NewVerifier(ctx, &cfg.API.Auth)
		if err != nil {
			return nil, err
		}
		verifier = v
	}
	return newModule(cfg, infra, verifier)
}

// NewModuleWithVerifier creates the API module with an explicit token
// verifier. A nil verifier serves without authentication.
func NewModuleWithVerifier(cfg *config.Config, infra *infrastructure.Infrastructure, verifier middleware.Verifier) (*module.Module, error) {
	return newModule(cfg, infra, verifier)
}

func newModule(cfg *config.Config, infra *infrastructure.Infrastructure, verifier middleware.Verifier) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	if verifier != nil {
		m.Use(middleware.Auth(verifier, runtime.Logger))
	}

	return m, nil
}
