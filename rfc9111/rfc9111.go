// Package rfc9111 implements the parts of HTTP Caching (RFC 9111) needed
// to describe how a fetched response will be treated by shared caches.
//
// Section headings and quotes from the RFC are marked with "§".
// Functions take plain response headers, since the engine inspects
// responses it has already fetched and never stores them.
package rfc9111

import (
	"net/http"
	"time"
)

// Freshness summarizes the caching-relevant fields of a response.
type Freshness struct {
	CacheControl CacheControl
	// Lifetime is the freshness lifetime for a shared cache.
	// HasLifetime is false when no explicit expiration time is present.
	Lifetime    time.Duration
	HasLifetime bool
	// Age is the value of the Age field; HasAge is false when absent or invalid.
	Age    time.Duration
	HasAge bool
}

// Describe evaluates the response headers the way a shared cache would,
// for a response received at the given time.
func Describe(header http.Header, received time.Time) Freshness {
	cc := ParseCacheControl(header.Values("Cache-Control"))
	f := Freshness{CacheControl: cc}
	f.Lifetime, f.HasLifetime = freshnessLifetime(cc, header, received)
	f.Age, f.HasAge = Age(header)
	return f
}
