// Package module mounts self-contained HTTP handler trees under single-level
// path prefixes, each with its own middleware stack.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/docket/pkg/middleware"
)

var errPrefix = errors.New("module prefix must be a single segment such as /api")

// Module serves an inner handler under a prefix. The prefix is removed
// before the inner handler sees the request. The middleware chain is
// frozen on the first request.
type Module struct {
	prefix string
	inner  http.Handler
	chain  middleware.System

	build   sync.Once
	handler http.Handler
}

// New panics when prefix is not a single segment like "/api".
func New(prefix string, inner http.Handler) *Module {
	if prefix == "" || prefix[0] != '/' || strings.Count(prefix, "/") != 1 {
		panic(fmt.Errorf("%w: %q", errPrefix, prefix))
	}
	return &Module{prefix: prefix, inner: inner, chain: middleware.New()}
}

func (m *Module) Prefix() string { return m.prefix }

// Use appends mw to the module chain.
func (m *Module) Use(mw middleware.Func) { m.chain.Use(mw) }

func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.build.Do(func() { m.handler = m.chain.Apply(m.inner) })

	rest := strings.TrimPrefix(req.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	r := req.Clone(req.Context())
	u := *req.URL
	u.Path, u.RawPath = rest, ""
	r.URL = &u
	m.handler.ServeHTTP(w, r)
}
