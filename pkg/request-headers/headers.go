// Package reqheaders prepares caller-supplied headers for the outbound warmup request.
package reqheaders

import (
	"net/http"
	"strings"
)

const (
	// MarkerName is the header attached to every warmup request,
	// so that WAF rules at the target can let the request through.
	MarkerName = "x-eo-re"
	// DefaultMarkerValue identifies this engine implementation.
	DefaultMarkerValue = "go"
)

// ignored holds lowercased names that are never forwarded.
// The request number sometimes leaks into the header map of the orchestrator.
var ignored = map[string]struct{}{
	"host":              {},
	"httprequestnumber": {},
	"requestnumber":     {},
}

// Normalize turns arbitrary decoded input into the headers used for the warmup request.
// Entries with non-string values and ignored names are dropped.
// The marker header is always set, overwriting any caller value.
// Input that is not a header mapping results in just the marker header.
func Normalize(input interface{}, markerValue string) map[string]string {
	headers := make(map[string]string)
	switch in := input.(type) {
	case map[string]interface{}:
		for name, value := range in {
			if s, ok := value.(string); ok {
				add(headers, name, s)
			}
		}
	case map[string]string:
		for name, value := range in {
			add(headers, name, value)
		}
	case http.Header:
		for name, value := range FromHTTP(in) {
			add(headers, name, value)
		}
	}
	// remove any differently-cased caller marker, then set ours
	for name := range headers {
		if strings.EqualFold(name, MarkerName) {
			delete(headers, name)
		}
	}
	headers[MarkerName] = markerValue
	return headers
}

// FromHTTP flattens inbound request headers, joining repeated fields with ", ".
func FromHTTP(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for name, values := range h {
		m[name] = strings.Join(values, ", ")
	}
	return m
}

func add(headers map[string]string, name, value string) {
	if _, skip := ignored[strings.ToLower(name)]; skip {
		return
	}
	headers[name] = value
}
