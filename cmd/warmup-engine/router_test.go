package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	warmup "github.com/edge-optimizer/warmup-engine"
)

func testRouter(t *testing.T) http.Handler {
	logger := zerolog.Nop()
	engine, err := warmup.CreateEngine(warmup.Config{Secret: "s", Logger: &logger})
	if err != nil {
		t.Fatalf("Error %+v", err)
	}
	return newRouter(engine, "test")
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Error %+v", err)
	}
	if w.Code != http.StatusOK || body["status"] != "ok" || body["version"] != "test" {
		t.Fatalf("Status %d, body %+v", w.Code, body)
	}
}

func TestEnginePaths(t *testing.T) {
	router := testRouter(t)
	for _, path := range []string{"/", "/requestengine"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"data":{}}`)))
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"error.reason":"missing_url"`) {
			t.Fatalf("%s: status %d, body %s", path, w.Code, w.Body.String())
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/requestengine", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Status is %d", w.Code)
	}
}
