// Package routes declares handler endpoints as data and registers them on
// a ServeMux.
package routes

import (
	"net/http"

	"github.com/JaimeStill/docket/pkg/openapi"
)

// Route is one method and pattern, relative to its Group prefix. Doc, when
// set, is published in the API description.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Doc     *openapi.Operation
}

// Group shares a path prefix across routes.
type Group struct {
	Prefix string
	Routes []Route
}

func (g Group) path(r Route) string {
	return g.Prefix + r.Pattern
}

// Patterns returns the ServeMux patterns the group registers.
func (g Group) Patterns() []string {
	patterns := make([]string, len(g.Routes))
	for i, r := range g.Routes {
		patterns[i] = r.Method + " " + g.path(r)
	}
	return patterns
}

// Register adds every route of groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		for i, pattern := range g.Patterns() {
			mux.HandleFunc(pattern, g.Routes[i].Handler)
		}
	}
}

// Describe adds the documented routes of groups to spec.
func Describe(spec *openapi.Spec, groups ...Group) error {
	for _, g := range groups {
		for _, r := range g.Routes {
			if r.Doc == nil {
				continue
			}
			if err := spec.AddOperation(r.Method, g.path(r), r.Doc); err != nil {
				return err
			}
		}
	}
	return nil
}
