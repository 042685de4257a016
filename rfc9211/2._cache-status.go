// Package rfc9211 parses the Cache-Status HTTP response field (RFC 9211).
package rfc9211

import (
	"fmt"
	"strconv"
	"strings"
)

// §  2.  The Cache-Status HTTP Response Header Field
// §
// §     The Cache-Status HTTP response header field indicates caches'
// §     handling of the request corresponding to the response it occurs
// §     within.
// §
// §     Its value is a List:
// §
// §     Cache-Status   = sf-list
// §
// §     Each member of the list represents a cache that has handled the
// §     request.  The first member of the list represents the cache closest
// §     to the origin server, and the last member of the list represents the
// §     cache closest to the user (possibly including the user agent's cache
// §     itself, if it appends a value).
const FieldName = "Cache-Status"

// FwdReason is the value of the fwd parameter.
type FwdReason string

const (
	// The cache was configured to not handle this request.
	FwdReasonBypass FwdReason = "bypass"
	// The request method's semantics require the request to be forwarded.
	FwdReasonMethod FwdReason = "method"
	// The cache did not contain any responses that matched the request URI.
	FwdReasonUriMiss FwdReason = "uri-miss"
	// A response matched the URI, but not the request's header fields and stored Vary.
	FwdReasonVaryMiss FwdReason = "vary-miss"
	// No usable response (uri-miss and vary-miss not distinguished).
	FwdReasonMiss FwdReason = "miss"
	// A fresh response was found, but the request's semantics did not allow its use.
	FwdReasonRequest FwdReason = "request"
	// The selected response was stale.
	FwdReasonStale FwdReason = "stale"
	// The selected partial response did not contain all of the requested ranges.
	FwdReasonPartial FwdReason = "partial"
)

// Entry is one member of the Cache-Status list.
type Entry struct {
	// Cache identifies the cache, as a String or Token.
	Cache string
	// §  2.1.  The hit Parameter
	Hit bool
	// §  2.2.  The fwd Parameter
	Fwd FwdReason
	// §  2.3.  The fwd-status Parameter; zero when absent.
	FwdStatus int
	// §  2.4.  The ttl Parameter, in seconds; HasTTL is false when absent.
	TTL    int
	HasTTL bool
	// §  2.5.  The stored Parameter
	Stored bool
	// §  2.6.  The collapsed Parameter
	Collapsed bool
	// §  2.7.  The key Parameter
	Key string
	// §  2.8.  The detail Parameter
	Detail string
}

// Status renders the entry the way it would appear in a report:
// "hit", "fwd=<reason>" or "" when neither parameter was sent.
func (e Entry) Status() string {
	switch {
	case e.Hit:
		return "hit"
	case e.Fwd != "":
		return "fwd=" + string(e.Fwd)
	}
	return ""
}

// Parse parses all Cache-Status field lines into their list members,
// first member closest to the origin.
// Unknown parameters are ignored.
func Parse(values []string) ([]Entry, error) {
	var entries []Entry
	for _, value := range values {
		for _, member := range split(value, ',') {
			if member == "" {
				continue
			}
			entry, err := parseMember(member)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func parseMember(member string) (Entry, error) {
	parts := split(member, ';')
	var e Entry
	e.Cache = unquote(parts[0])
	if e.Cache == "" {
		return e, fmt.Errorf("cache-status member %q has no cache identifier", member)
	}
	for _, param := range parts[1:] {
		kv := strings.SplitN(param, "=", 2)
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		var val string
		hasVal := len(kv) > 1
		if hasVal {
			val = strings.TrimSpace(kv[1])
		}
		switch key {
		case "hit":
			e.Hit = boolParam(val, hasVal)
		case "stored":
			e.Stored = boolParam(val, hasVal)
		case "collapsed":
			e.Collapsed = boolParam(val, hasVal)
		case "fwd":
			e.Fwd = FwdReason(unquote(val))
		case "fwd-status":
			n, err := strconv.Atoi(val)
			if err != nil {
				return e, fmt.Errorf("invalid fwd-status %q: %w", val, err)
			}
			e.FwdStatus = n
		case "ttl":
			n, err := strconv.Atoi(val)
			if err != nil {
				return e, fmt.Errorf("invalid ttl %q: %w", val, err)
			}
			e.TTL, e.HasTTL = n, true
		case "key":
			e.Key = unquote(val)
		case "detail":
			e.Detail = unquote(val)
		}
	}
	return e, nil
}

// boolParam follows structured field Booleans: a bare key is true, "?0" false.
func boolParam(val string, hasVal bool) bool {
	return !hasVal || val != "?0"
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
		return strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}

// split splits on sep outside of quoted strings and trims each part.
func split(s string, sep byte) []string {
	var parts []string
	var quoted, escaped bool
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case quoted && c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == sep && !quoted:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
