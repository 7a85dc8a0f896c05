// Package diag exposes an optional loopback diagnostics listener with
// health and Prometheus metrics endpoints.
package diag

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/conversational-console/internal/api"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
)

// NewServer builds the diagnostics HTTP server. The health endpoint
// also probes the backend so a single curl answers "is it me or them".
func NewServer(addr string, client *api.Client, log *logger.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		backend := "reachable"
		status := http.StatusOK
		if err := client.Health(ctx); err != nil {
			backend = "unreachable"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"status":"healthy","backend":"` + backend + `"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
