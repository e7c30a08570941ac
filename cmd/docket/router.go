package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/module"
)

type probe struct {
	Status string `json:"status"`
}

// buildRouter serves liveness, readiness, and Prometheus metrics outside
// any module so they skip API auth.
func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, probe{"ok"})
	})
	router.HandleNative("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		status, body := http.StatusOK, probe{"ready"}
		if !infra.Lifecycle.Ready() {
			status, body = http.StatusServiceUnavailable, probe{"not ready"}
		}
		handlers.RespondJSON(w, status, body)
	})
	router.Handle("GET /metrics", promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{}))

	return router
}
