// Package cdndetect infers which CDN served a response, and its cache
// status, from the response headers.
package cdndetect

import (
	"strings"

	headerseq "github.com/edge-optimizer/warmup-engine/pkg/header-seq"
)

// Result fields are nil when nothing was detected.
type Result struct {
	HeaderName  *string
	HeaderValue *string
	CacheStatus *string
}

// Detect runs the default rules and fallbacks.
func Detect(headers headerseq.Source) Result {
	return DetectWith(headers, Rules, Fallbacks)
}

// DetectWith matches the first rule whose header is present, then applies
// every triggered fallback in order.
func DetectWith(headers headerseq.Source, rules []Rule, fallbacks []Fallback) Result {
	lower := headerseq.Lower(headers)
	var res Result

	for _, rule := range rules {
		if value, ok := lower[rule.Detect]; ok {
			res.HeaderName = str(rule.Detect)
			res.HeaderValue = str(value)
			if status, ok := lower[rule.Status]; ok {
				res.CacheStatus = str(status)
			}
			break
		}
	}

	for _, fb := range fallbacks {
		value, present := lower[fb.Field]
		if !present {
			continue
		}
		if fb.Contains != "" && !strings.Contains(strings.ToLower(value), fb.Contains) {
			continue
		}
		res.HeaderName = str(fb.Field)
		res.HeaderValue = str(value)
		for _, name := range fb.StatusHeaders {
			if status, ok := lower[name]; ok {
				if status != "" || !fb.NonEmptyStatus {
					res.CacheStatus = str(status)
				}
				break
			}
		}
	}
	return res
}

func str(s string) *string {
	return &s
}
