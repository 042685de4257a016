package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// newRouter mounts the engine on the paths the orchestrator calls.
func newRouter(engine http.Handler, version string) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	for _, path := range []string{"/", "/requestengine"} {
		r.Method(http.MethodGet, path, engine)
		r.Method(http.MethodPost, path, engine)
	}
	return r
}
