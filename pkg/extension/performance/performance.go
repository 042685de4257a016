// Package performance summarizes what a warmup fetch tells about delivery:
// the resource classification, timing, content size and encoding, the
// caching validators and the detected CDN.
package performance

import (
	"context"
	"math"
	"mime"
	"strings"

	cdndetect "github.com/edge-optimizer/warmup-engine/pkg/cdn-detect"
	"github.com/edge-optimizer/warmup-engine/pkg/extension"
	headerseq "github.com/edge-optimizer/warmup-engine/pkg/header-seq"
)

const (
	Name   = "performance"
	Prefix = "eo.performance."
)

// Binding registers the analyzer, enabled by default.
func Binding() extension.Binding {
	return extension.Binding{
		Name:             Name,
		Prefix:           Prefix,
		Analyzer:         Analyze,
		EnabledByDefault: true,
	}
}

// response headers copied verbatim when present
var headerKeys = []struct {
	header string
	key    string
}{
	{"Content-Length", "content_length_header"},
	{"Content-Encoding", "content_encoding"},
	{"Cache-Control", "cache_control"},
	{"Etag", "etag"},
	{"Last-Modified", "last_modified"},
}

// Analyze never fails. Values that are unknown, like the timing on the
// error path, are left out.
func Analyze(ctx context.Context, in extension.Input) (extension.Values, error) {
	v := extension.Values{"redirect_count": in.Metrics.RedirectCount}

	res := in.Resource
	if res.URLType != nil {
		v["resource_urltype"] = *res.URLType
	}
	if res.Extension != nil {
		v["resource_extension"] = *res.Extension
	}
	if res.Category != nil {
		v["resource_category"] = *res.Category
	}

	if in.Metrics.TTFBMS != nil {
		v["ttfb_ms"] = math.Round(*in.Metrics.TTFBMS*100) / 100
	}
	if in.Metrics.BodyBytes != nil {
		v["content_size_bytes"] = *in.Metrics.BodyBytes
	}

	for _, h := range headerKeys {
		if value := in.Header.Get(h.header); value != "" {
			v[h.key] = value
		}
	}
	if charset := htmlCharset(in.Header.Get("Content-Type")); charset != "" {
		v["html_encoding"] = charset
	}

	cdn := cdndetect.Detect(headerseq.HTTP(in.Header))
	if cdn.HeaderName != nil {
		v["cdn_header_name"] = *cdn.HeaderName
	}
	if cdn.CacheStatus != nil {
		v["cdn_cache_status"] = *cdn.CacheStatus
	}
	return v, nil
}

// htmlCharset returns the lowercased charset parameter of an HTML content type.
func htmlCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "text/html" {
		return ""
	}
	return strings.ToLower(params["charset"])
}
