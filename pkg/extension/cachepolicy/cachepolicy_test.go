package cachepolicy

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/edge-optimizer/warmup-engine/pkg/extension"
)

func analyze(t *testing.T, h http.Header) extension.Values {
	v, err := Analyze(context.Background(), extension.Input{TargetURL: "https://example.com/", Header: h})
	if err != nil {
		t.Fatalf("Error %+v", err)
	}
	return v
}

func TestCacheableResponse(t *testing.T) {
	v := analyze(t, http.Header{
		"Cache-Control": {"public, max-age=60, s-maxage=600"},
		"Age":           {"30"},
		"Etag":          {`"abc"`},
		"Vary":          {"Accept-Encoding"},
		"Cache-Status":  {"Origin; fwd=uri-miss; stored, Edge; hit; ttl=570"},
	})
	checks := map[string]interface{}{
		"cache_control_present": true,
		"cache_control_value":   "public, max-age=60, s-maxage=600",
		"public":                true,
		"private":               false,
		"no_store":              false,
		"max_age_s":             int64(60),
		"s_maxage_s":            int64(600),
		"freshness_lifetime_s":  int64(600),
		"age_s":                 int64(30),
		"etag_present":          true,
		"last_modified_present": false,
		"vary_value":            "Accept-Encoding",
		"cache_status_cache":    "Edge",
		"cache_status_hit":      true,
		"cache_status_ttl":      570,
	}
	for k, want := range checks {
		if v[k] != want {
			t.Fatalf("%s is %v (%T), expected %v", k, v[k], v[k], want)
		}
	}
	if _, ok := v["cache_status_fwd"]; ok {
		t.Fatal("cache_status_fwd should be absent for a hit")
	}
}

func TestNoCacheHeaders(t *testing.T) {
	v := analyze(t, http.Header{})
	if v["cache_control_present"] != false {
		t.Fatal("cache_control_present should be false")
	}
	for _, k := range []string{"cache_control_value", "max_age_s", "freshness_lifetime_s", "age_s", "cache_status_cache"} {
		if _, ok := v[k]; ok {
			t.Fatalf("%s should be absent", k)
		}
	}
}

func TestInvalidCacheStatus(t *testing.T) {
	_, err := Analyze(context.Background(), extension.Input{Header: http.Header{"Cache-Status": {"Edge; ttl=x"}}})
	if err == nil {
		t.Fatal("Expected error")
	}
}

func TestExpiresWithoutDateUsesReceiptTime(t *testing.T) {
	received := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	v, err := Analyze(context.Background(), extension.Input{
		Header:     http.Header{"Expires": {"Fri, 01 Mar 2024 13:00:00 GMT"}},
		ReceivedAt: received,
	})
	if err != nil {
		t.Fatalf("Error %+v", err)
	}
	if v["freshness_lifetime_s"] != int64(3600) {
		t.Fatalf("Lifetime is %v", v["freshness_lifetime_s"])
	}
}
