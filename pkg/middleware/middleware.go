// Package middleware holds the HTTP layers wrapped around every module:
// request logging, CORS, and bearer-token authentication.
package middleware

import "net/http"

// Func wraps a handler with additional behavior.
type Func = func(http.Handler) http.Handler

// System collects middleware in registration order. The first registered
// layer sees the request first.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
}

type chain []Func

// New returns an empty chain.
func New() System {
	return &chain{}
}

func (c *chain) Use(mw Func) {
	*c = append(*c, mw)
}

func (c *chain) Apply(handler http.Handler) http.Handler {
	layers := *c
	for i := range layers {
		handler = layers[len(layers)-1-i](handler)
	}
	return handler
}
