package flatresult

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	cdndetect "github.com/edge-optimizer/warmup-engine/pkg/cdn-detect"
	"github.com/edge-optimizer/warmup-engine/pkg/extension"
	headerseq "github.com/edge-optimizer/warmup-engine/pkg/header-seq"
	resourcetype "github.com/edge-optimizer/warmup-engine/pkg/resource-type"
)

const (
	// ProtocolUnavailable is reported for protocol and TLS version whenever
	// the outbound connection was not observed, e.g. on the error path.
	ProtocolUnavailable = "unavailable: outbound connection info was not observed"
	// NotHTTPS is the TLS version of a plain http target.
	NotHTTPS = "unknown: not_https"

	RequestMethod = "GET"
)

// Key prefixes of the header sections.
const (
	RequestHeaderPrefix  = "headers.request-headers."
	ResponseHeaderPrefix = "headers.response-headers."
	contentLengthKey     = ResponseHeaderPrefix + "content-length"
)

// Params holds everything known about one invocation.
// Nil pointers and empty strings are left out of the document, except
// where noted.
type Params struct {
	StatusCode    int
	StatusMessage string
	TargetURL     string

	RequestNumber  interface{}
	RequestUUID    *string
	RequestRoundID *float64
	// Resource is reported as eo.meta.urltype and handed to the extensions.
	Resource *resourcetype.Info

	Area        string
	ExecutionID string
	Start       time.Time
	End         time.Time

	// Protocol and TLSVersion fall back to ProtocolUnavailable when empty.
	Protocol   string
	TLSVersion string

	DurationMS    *float64
	TTFBMS        *float64
	BodyBytes     *int64
	RedirectCount int

	RequestHeaders  map[string]string
	ResponseHeaders http.Header

	Error *ErrorInfo
}

// ErrorInfo is merged into the document last, under "error.".
type ErrorInfo struct {
	Reason  string
	Message string
	Detail  string
}

// Builder turns Params into a Result using an injected extension registry.
type Builder struct {
	extensions *extension.Registry
}

// NewBuilder accepts a nil registry, in which case no extension runs.
func NewBuilder(extensions *extension.Registry) *Builder {
	return &Builder{extensions: extensions}
}

// Build assembles the document in its fixed section order.
// Extension failures are logged to the context logger and reported inline.
func (b *Builder) Build(ctx context.Context, p Params) *Result {
	r := New()
	respHeaders := p.ResponseHeaders
	if respHeaders == nil {
		respHeaders = http.Header{}
	}

	// general
	r.Set("headers.general.status-code", p.StatusCode)
	r.Set("headers.general.status-message", p.StatusMessage)
	r.Set("headers.general.request-url", p.TargetURL)
	r.Set("headers.general.http-request-method", RequestMethod)

	// identification
	if p.RequestNumber != nil {
		r.Set("eo.meta.http-request-number", p.RequestNumber)
	}
	if p.RequestUUID != nil {
		r.Set("eo.meta.http-request-uuid", *p.RequestUUID)
	}
	if p.RequestRoundID != nil {
		r.Set("eo.meta.http-request-round-id", *p.RequestRoundID)
	}
	var resource resourcetype.Info
	if p.Resource != nil {
		resource = *p.Resource
	}
	if resource.URLType != nil {
		r.Set("eo.meta.urltype", *resource.URLType)
	}

	// environment and timestamps
	r.Set("eo.meta.re-area", p.Area)
	if p.ExecutionID != "" {
		r.Set("eo.meta.execution-id", p.ExecutionID)
	}
	if !p.Start.IsZero() {
		r.Set("eo.meta.request-start-timestamp", unixSeconds(p.Start))
	}
	if !p.End.IsZero() {
		r.Set("eo.meta.request-end-timestamp", unixSeconds(p.End))
	}

	// protocol
	r.Set("eo.meta.http-protocol-version", orUnavailable(p.Protocol))
	r.Set("eo.meta.tls-version", orUnavailable(p.TLSVersion))

	// CDN
	cdn := cdndetect.Detect(headerseq.HTTP(respHeaders))
	if cdn.HeaderName != nil {
		r.Set("eo.meta.cdn-header-name", *cdn.HeaderName)
		r.Set("eo.meta.cdn-header-value", *cdn.HeaderValue)
	}
	if cdn.CacheStatus != nil {
		r.Set("eo.meta.cdn-cache-status", *cdn.CacheStatus)
	}

	// measurements
	metrics := extension.Metrics{
		DurationMS:    p.DurationMS,
		TTFBMS:        p.TTFBMS,
		BodyBytes:     p.BodyBytes,
		RedirectCount: p.RedirectCount,
	}
	if p.DurationMS != nil {
		r.Set("eo.meta.duration-ms", Round2(*p.DurationMS))
	}
	if p.TTFBMS != nil {
		r.Set("eo.meta.ttfb-ms", Round2(*p.TTFBMS))
	}
	if p.BodyBytes != nil {
		r.Set("eo.meta.actual-content-length", *p.BodyBytes)
	}
	r.Set("eo.meta.redirect-count", p.RedirectCount)

	// extensions
	if b.extensions != nil {
		in := extension.Input{
			TargetURL:  p.TargetURL,
			Resource:   resource,
			Header:     respHeaders,
			ReceivedAt: p.End,
			Metrics:    metrics,
		}
		for _, out := range b.extensions.Run(ctx, in) {
			prefix := out.Binding.Prefix
			if out.Err != nil {
				zerolog.Ctx(ctx).Warn().Err(out.Err).Str("extension", out.Binding.Name).Msg("Extension failed")
				r.Set(prefix+"error", out.Err.Error())
				continue
			}
			for _, key := range out.Keys() {
				r.Set(prefix+key, out.Values[key])
			}
		}
	}

	// request headers, then response headers, sorted by lowercased name
	for _, pair := range headerseq.Map(p.RequestHeaders).Pairs() {
		r.Set(RequestHeaderPrefix+strings.ToLower(pair.Name), pair.Value)
	}
	for _, pair := range headerseq.HTTP(respHeaders).Pairs() {
		r.Set(ResponseHeaderPrefix+strings.ToLower(pair.Name), pair.Value)
	}

	// content-length backfill
	if p.BodyBytes != nil {
		if v, ok := r.Get(contentLengthKey); !ok || v == "" {
			r.Set(contentLengthKey, strconv.FormatInt(*p.BodyBytes, 10))
		}
	}

	if p.Error != nil {
		r.Set("error.reason", p.Error.Reason)
		r.Set("error.message", p.Error.Message)
		if p.Error.Detail != "" {
			r.Set("error.detail", p.Error.Detail)
		}
	}
	return r
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func orUnavailable(s string) string {
	if s == "" {
		return ProtocolUnavailable
	}
	return s
}
