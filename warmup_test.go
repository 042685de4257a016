package warmup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/edge-optimizer/warmup-engine/pkg/token"
)

const testSecret = "test-secret"

func createTestEngine(t *testing.T, config Config) *Engine {
	logger := zerolog.Nop()
	config.Logger = &logger
	if config.Secret == "" {
		config.Secret = testSecret
	}
	config.Area = "test"
	config.NewExecutionID = func() string { return "exec-1" }
	e, err := CreateEngine(config)
	if err != nil {
		t.Fatalf("Could not create engine: %+v", err)
	}
	return e
}

func post(t *testing.T, e http.Handler, body string) (*http.Response, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, e, req)
}

func do(t *testing.T, e http.Handler, req *http.Request) (*http.Response, map[string]interface{}) {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	res := w.Result()
	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("Body is not JSON: %+v", err)
	}
	return res, result
}

func event(targetURL, tok string) string {
	return fmt.Sprintf(`{"data":{"targetUrl":%q,"token":%q,"requestNumber":7,"headers":{"Host":"evil","User-Agent":"warmer"}}}`, targetURL, tok)
}

func TestMissingURL(t *testing.T) {
	e := createTestEngine(t, Config{})
	res, result := post(t, e, `{"data":{"token":"abc"}}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("Status is %d", res.StatusCode)
	}
	if result["error.reason"] != "missing_url" || result["error.message"] != "Target URL is missing." {
		t.Fatalf("Result is %+v", result)
	}
	if result["headers.general.status-message"] != "MISSING_URL" {
		t.Fatalf("Status message is %v", result["headers.general.status-message"])
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json;charset=utf-8" {
		t.Fatalf("Content-Type is %s", ct)
	}
	if cc := res.Header.Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control is %s", cc)
	}
}

func TestTokenChecks(t *testing.T) {
	e := createTestEngine(t, Config{})
	target := "https://example.com/"
	res, result := post(t, e, event(target, ""))
	if res.StatusCode != http.StatusUnauthorized || result["error.reason"] != "missing_token" {
		t.Fatalf("Status %d, result %+v", res.StatusCode, result)
	}
	res, result = post(t, e, event(target, token.Calc(target, "wrong")))
	if res.StatusCode != http.StatusUnauthorized || result["error.reason"] != "invalid_token" {
		t.Fatalf("Status %d, result %+v", res.StatusCode, result)
	}
	if result["eo.meta.http-request-number"] != 7.0 {
		t.Fatalf("Request number is %v", result["eo.meta.http-request-number"])
	}
}

func TestMissingSecret(t *testing.T) {
	e := createTestEngine(t, Config{})
	e.secret = ""
	res, result := post(t, e, event("https://example.com/", "abc"))
	if res.StatusCode != http.StatusInternalServerError || result["error.reason"] != "missing_secret" {
		t.Fatalf("Status %d, result %+v", res.StatusCode, result)
	}
	if result["error.message"] != "Environment variable EO_REQUEST_SECRET is not configured." {
		t.Fatalf("Message is %v", result["error.message"])
	}
}

func TestRequestException(t *testing.T) {
	origin := httptest.NewServer(http.NotFoundHandler())
	target := origin.URL + "/gone"
	origin.Close()

	e := createTestEngine(t, Config{})
	res, result := post(t, e, event(target, token.Calc(target, testSecret)))
	if res.StatusCode != StatusRequestException {
		t.Fatalf("Status is %d", res.StatusCode)
	}
	if result["error.reason"] != "request_exception" || result["error.message"] != "HTTP request to origin failed." {
		t.Fatalf("Result is %+v", result)
	}
	if detail, _ := result["error.detail"].(string); !strings.Contains(detail, "connect") {
		t.Fatalf("Detail is %v", result["error.detail"])
	}
	if result["headers.general.request-url"] != target {
		t.Fatalf("URL is %v", result["headers.general.request-url"])
	}
	if _, ok := result["headers.request-headers.user-agent"]; !ok {
		t.Fatal("Request headers should be reported on the error path")
	}
}

func TestSuccess(t *testing.T) {
	var received http.Header
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.Header().Set("CF-Ray", "abc-NRT")
		w.Header().Set("CF-Cache-Status", "MISS")
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte("body{}"))
	}))
	defer origin.Close()

	target := origin.URL + "/style.css"
	frozen := time.Unix(1700000000, 0)
	e := createTestEngine(t, Config{Now: func() time.Time { return frozen }})
	body := fmt.Sprintf(`[{"targetUrl":%q,"token":%q,"urltype":"asset","requestUUID":"u-1","requestRoundId":1699999999}]`,
		target, token.Calc(target, testSecret))
	res, result := post(t, e, body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Status is %d: %+v", res.StatusCode, result)
	}
	if received.Get("X-Eo-Re") != "go" {
		t.Fatalf("Marker header is '%s'", received.Get("X-Eo-Re"))
	}
	checks := map[string]interface{}{
		"headers.general.status-code":             200.0,
		"headers.general.status-message":          "OK",
		"eo.meta.http-request-number":             "None",
		"eo.meta.http-request-uuid":               "u-1",
		"eo.meta.http-request-round-id":           1699999999.0,
		"eo.meta.urltype":                         "asset",
		"eo.meta.re-area":                         "test",
		"eo.meta.execution-id":                    "exec-1",
		"eo.meta.http-protocol-version":           "HTTP/1.1",
		"eo.meta.tls-version":                     "unknown: not_https",
		"eo.meta.cdn-header-name":                 "cf-ray",
		"eo.meta.cdn-cache-status":                "MISS",
		"eo.meta.duration-ms":                     0.0,
		"eo.meta.actual-content-length":           6.0,
		"eo.meta.redirect-count":                  0.0,
		"eo.security.is_https":                    false,
		"eo.performance.resource_urltype":         "asset",
		"eo.performance.resource_extension":       "css",
		"eo.performance.resource_category":        "css",
		"eo.performance.content_size_bytes":       6.0,
		"headers.request-headers.x-eo-re":         "go",
		"headers.response-headers.content-type":   "text/css",
		"headers.response-headers.content-length": "6",
	}
	for k, want := range checks {
		if result[k] != want {
			t.Fatalf("%s is %v, expected %v", k, result[k], want)
		}
	}
	if _, ok := result["error.reason"]; ok {
		t.Fatal("Success result has an error")
	}
}

func TestRedirectCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/old", http.RedirectHandler("/new", http.StatusMovedPermanently))
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	origin := httptest.NewServer(mux)
	defer origin.Close()

	target := origin.URL + "/old"
	e := createTestEngine(t, Config{})
	_, result := post(t, e, event(target, token.Calc(target, testSecret)))
	if result["eo.meta.redirect-count"] != 1.0 || result["headers.general.status-code"] != 200.0 {
		t.Fatalf("Result is %+v", result)
	}
}

func TestTLSVersion(t *testing.T) {
	origin := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=60")
	}))
	defer origin.Close()

	target := origin.URL + "/"
	e := createTestEngine(t, Config{Client: origin.Client()})
	_, result := post(t, e, event(target, token.Calc(target, testSecret)))
	if v, _ := result["eo.meta.tls-version"].(string); !strings.HasPrefix(v, "TLSv1.") {
		t.Fatalf("TLS version is %v", result["eo.meta.tls-version"])
	}
	if result["eo.security.is_https"] != true || result["eo.security.hsts_value"] != "max-age=60" {
		t.Fatalf("Result is %+v", result)
	}
}

func TestGetQuery(t *testing.T) {
	var received http.Header
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
	}))
	defer origin.Close()

	target := origin.URL + "/"
	q := url.Values{}
	q.Set("targetUrl", target)
	q.Set("tokenCalculatedByN8n", token.Calc(target, testSecret))
	q.Set("httpRequestNumber", "42")
	req := httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil)
	req.Header.Set("Accept-Language", "ja")
	req.Header.Set("HttpRequestNumber", "42")

	e := createTestEngine(t, Config{})
	res, result := do(t, e, req)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Status is %d: %+v", res.StatusCode, result)
	}
	if result["eo.meta.http-request-number"] != "42" {
		t.Fatalf("Request number is %v", result["eo.meta.http-request-number"])
	}
	if received.Get("Accept-Language") != "ja" || received.Get("Httprequestnumber") != "" {
		t.Fatalf("Forwarded headers are %+v", received)
	}
}

func TestEventShapes(t *testing.T) {
	e := createTestEngine(t, Config{})
	cases := []struct {
		body   string
		status int
		reason string
	}{
		{`[]`, http.StatusBadRequest, "empty_event_list"},
		{`not json`, http.StatusBadRequest, "invalid_event_type"},
		{`"just a string"`, http.StatusBadRequest, "invalid_event_type"},
		{`{"data":null}`, http.StatusBadRequest, "invalid_event_type"},
		{`{"targetUrl":"https://example.com/"}`, http.StatusUnauthorized, "missing_token"},
		{`[{"data":{"targetUrl":"https://example.com/"}}]`, http.StatusUnauthorized, "missing_token"},
	}
	for _, c := range cases {
		res, result := post(t, e, c.body)
		if res.StatusCode != c.status || result["error.reason"] != c.reason {
			t.Fatalf("Body %s: status %d, reason %v", c.body, res.StatusCode, result["error.reason"])
		}
	}
}

func TestEmptyGetIsMissingURL(t *testing.T) {
	e := createTestEngine(t, Config{})
	res, result := do(t, e, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.StatusCode != http.StatusBadRequest || result["error.reason"] != "missing_url" {
		t.Fatalf("Status %d, result %+v", res.StatusCode, result)
	}
}

func TestErrorPathOmitsUnmeasuredValues(t *testing.T) {
	extensions, err := DefaultExtensions()
	if err != nil {
		t.Fatalf("Error %+v", err)
	}
	if extensions, err = extensions.Enabled(map[string]bool{"measure": true}); err != nil {
		t.Fatalf("Error %+v", err)
	}
	e := createTestEngine(t, Config{Extensions: extensions})
	_, result := post(t, e, `{"data":{"token":"abc"}}`)
	if _, ok := result["eo.measure.duration-ms"]; !ok {
		t.Fatalf("Duration is missing: %+v", result)
	}
	for _, k := range []string{
		"eo.meta.ttfb-ms",
		"eo.measure.ttfb-ms",
		"eo.measure.actual-content-length",
		"eo.performance.ttfb_ms",
		"eo.performance.content_size_bytes",
		"eo.performance.resource_category",
	} {
		if v, ok := result[k]; ok {
			t.Fatalf("%s is %v on the error path", k, v)
		}
	}
}

func TestFetchTimeout(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer origin.Close()

	target := origin.URL + "/slow"
	e := createTestEngine(t, Config{FetchTimeout: 50 * time.Millisecond})
	res, result := post(t, e, event(target, token.Calc(target, testSecret)))
	if res.StatusCode != StatusRequestException || result["error.reason"] != "request_exception" {
		t.Fatalf("Status %d, result %+v", res.StatusCode, result)
	}
	if detail, _ := result["error.detail"].(string); !strings.Contains(detail, "Timeout") {
		t.Fatalf("Detail is %v", result["error.detail"])
	}
}

func TestRedirectLimit(t *testing.T) {
	origin := httptest.NewServer(http.RedirectHandler("/loop", http.StatusFound))
	defer origin.Close()

	target := origin.URL + "/loop"
	e := createTestEngine(t, Config{MaxRedirects: 2})
	res, result := post(t, e, event(target, token.Calc(target, testSecret)))
	if res.StatusCode != StatusRequestException || result["error.reason"] != "request_exception" {
		t.Fatalf("Status %d, result %+v", res.StatusCode, result)
	}
	if detail, _ := result["error.detail"].(string); !strings.Contains(detail, "stopped after 2 redirects") {
		t.Fatalf("Detail is %v", result["error.detail"])
	}
}

func TestInboundCancelReleasesFetch(t *testing.T) {
	arrived := make(chan struct{})
	released := make(chan struct{})
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-r.Context().Done()
		close(released)
	}))
	defer origin.Close()

	target := origin.URL + "/hang"
	e := createTestEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-arrived
		cancel()
	}()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(event(target, token.Calc(target, testSecret)))).WithContext(ctx)
	res, result := do(t, e, req)
	if res.StatusCode != StatusRequestException {
		t.Fatalf("Status %d, result %+v", res.StatusCode, result)
	}
	if detail, _ := result["error.detail"].(string); !strings.Contains(detail, "context canceled") {
		t.Fatalf("Detail is %v", result["error.detail"])
	}
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("Origin request was not released")
	}
}
