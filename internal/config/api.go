package config

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/docket/pkg/middleware"
	"github.com/JaimeStill/docket/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "DOCKET_CORS_ENABLED",
	Origins:          "DOCKET_CORS_ORIGINS",
	AllowedMethods:   "DOCKET_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "DOCKET_CORS_ALLOWED_HEADERS",
	AllowCredentials: "DOCKET_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "DOCKET_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "DOCKET_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "DOCKET_PAGINATION_MAX_PAGE_SIZE",
}

var apiAuthEnv = &middleware.AuthEnv{
	Enabled:  "DOCKET_API_AUTH_ENABLED",
	Issuer:   "DOCKET_API_AUTH_ISSUER",
	Audience: "DOCKET_API_AUTH_AUDIENCE",
}

// APIConfig holds API routing, CORS, pagination, and bearer auth settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
	Auth       middleware.AuthConfig `toml:"auth"`
}

// Finalize resolves the base path and finalizes the nested configs. The
// base path must be a single segment because the API mounts as a module.
func (c *APIConfig) Finalize() error {
	c.BasePath = cmp.Or(os.Getenv("DOCKET_API_BASE_PATH"), c.BasePath, "/api")
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single segment like /api: %q", c.BasePath)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"cors", func() error { return c.CORS.Finalize(corsEnv) }},
		{"pagination", func() error { return c.Pagination.Finalize(paginationEnv) }},
		{"auth", func() error { return c.Auth.Finalize(apiAuthEnv) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Auth.Merge(&overlay.Auth)
}
