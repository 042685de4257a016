// Package cachepolicy reports how shared caches will treat the fetched
// response, based on its Cache-Control, Age, Expires and Cache-Status fields.
package cachepolicy

import (
	"context"
	"fmt"
	"strings"

	"github.com/edge-optimizer/warmup-engine/pkg/extension"
	"github.com/edge-optimizer/warmup-engine/rfc9111"
	"github.com/edge-optimizer/warmup-engine/rfc9211"
)

const (
	Name   = "cache"
	Prefix = "eo.cache."
)

// Binding registers the analyzer, disabled unless turned on in config.
func Binding() extension.Binding {
	return extension.Binding{
		Name:     Name,
		Prefix:   Prefix,
		Analyzer: Analyze,
	}
}

func Analyze(ctx context.Context, in extension.Input) (extension.Values, error) {
	h := in.Header
	f := rfc9111.Describe(h, in.ReceivedAt)
	cc := f.CacheControl

	v := extension.Values{
		"cache_control_present": len(h.Values("Cache-Control")) > 0,
		"public":                cc.HasDirective("public"),
		"private":               cc.HasDirective("private"),
		"no_store":              cc.HasDirective("no-store"),
		"no_cache":              cc.HasDirective("no-cache"),
		"etag_present":          h.Get("ETag") != "",
		"last_modified_present": h.Get("Last-Modified") != "",
	}
	if value := strings.Join(h.Values("Cache-Control"), ", "); value != "" {
		v["cache_control_value"] = value
	}
	if d, ok := cc.MaxAge(); ok {
		v["max_age_s"] = int64(d.Seconds())
	}
	if d, ok := cc.SMaxAge(); ok {
		v["s_maxage_s"] = int64(d.Seconds())
	}
	if f.HasLifetime {
		v["freshness_lifetime_s"] = int64(f.Lifetime.Seconds())
	}
	if f.HasAge {
		v["age_s"] = int64(f.Age.Seconds())
	}
	if vary := rfc9111.GetListHeader(h, "Vary"); len(vary) > 0 {
		v["vary_value"] = strings.Join(vary, ", ")
	}

	entries, err := rfc9211.Parse(h.Values(rfc9211.FieldName))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rfc9211.FieldName, err)
	}
	if len(entries) > 0 {
		// the last member is the cache closest to the client
		last := entries[len(entries)-1]
		v["cache_status_cache"] = last.Cache
		v["cache_status_hit"] = last.Hit
		if last.Fwd != "" {
			v["cache_status_fwd"] = string(last.Fwd)
		}
		if last.HasTTL {
			v["cache_status_ttl"] = last.TTL
		}
	}
	return v, nil
}
