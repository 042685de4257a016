// Package security reports which security-relevant response headers a
// target sends. The report is informational only.
package security

import (
	"context"
	"strings"

	"github.com/edge-optimizer/warmup-engine/pkg/extension"
)

const (
	Name   = "security"
	Prefix = "eo.security."
)

// headers maps response header names to output key stems.
var headers = []struct {
	header string
	key    string
}{
	{"Strict-Transport-Security", "hsts"},
	{"Content-Security-Policy", "csp"},
	{"X-Content-Type-Options", "x_content_type_options"},
	{"X-Frame-Options", "x_frame_options"},
	{"X-Xss-Protection", "x_xss_protection"},
	{"Referrer-Policy", "referrer_policy"},
}

// Binding registers the analyzer, enabled by default.
func Binding() extension.Binding {
	return extension.Binding{
		Name:             Name,
		Prefix:           Prefix,
		Analyzer:         Analyze,
		EnabledByDefault: true,
	}
}

// Analyze emits is_https plus <key>_present for every known header and
// <key>_value when the header has a non-empty value.
func Analyze(ctx context.Context, in extension.Input) (extension.Values, error) {
	v := extension.Values{
		"is_https": strings.HasPrefix(in.TargetURL, "https://"),
	}
	for _, h := range headers {
		report(v, h.key, in.Header.Values(h.header))
	}
	// Feature-Policy is the former name of Permissions-Policy
	policy := in.Header.Values("Permissions-Policy")
	if len(policy) == 0 {
		policy = in.Header.Values("Feature-Policy")
	}
	report(v, "permissions_policy", policy)
	return v, nil
}

func report(v extension.Values, key string, values []string) {
	v[key+"_present"] = len(values) > 0
	if value := strings.Join(values, ", "); value != "" {
		v[key+"_value"] = value
	}
}
