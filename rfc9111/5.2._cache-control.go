package rfc9111

import (
	"strings"
	"time"
)

// §  5.2. Cache-Control
// §
// §  Cache directives are identified by a token, to
// §  be compared case-insensitively, and have an optional argument that can use both
// §  token and quoted-string syntax.
// §
// §    Cache-Control   = #cache-directive
// §
// §    cache-directive = token [ "=" ( token / quoted-string ) ]

// CacheControl holds the parsed directives of one or more Cache-Control fields.
type CacheControl struct {
	directives map[string]string
	order      []string
}

func (c CacheControl) Get(directive string) (string, bool) {
	val, ok := c.directives[strings.ToLower(directive)]
	return val, ok
}

func (c CacheControl) HasDirective(directive string) bool {
	_, ok := c.Get(directive)
	return ok
}

// Directives returns the directive names in the order they first appeared.
func (c CacheControl) Directives() []string {
	return append([]string(nil), c.order...)
}

// Empty reports whether no directive was found.
func (c CacheControl) Empty() bool {
	return len(c.order) == 0
}

// ParseCacheControl takes Cache-Control field values as a slice of strings
// and returns an instance of `CacheControl`.
// When a directive is repeated, the first occurrence wins.
func ParseCacheControl(headers []string) CacheControl {
	c := CacheControl{directives: make(map[string]string)}
	for _, header := range headers {
		for _, directive := range splitList(header) {
			parts := strings.SplitN(directive, "=", 2)
			name := strings.ToLower(strings.TrimSpace(parts[0]))
			if name == "" {
				continue
			}
			var arg string
			if len(parts) > 1 {
				arg = strings.Trim(strings.TrimSpace(parts[1]), "\"")
			}
			if _, seen := c.directives[name]; seen {
				continue
			}
			c.directives[name] = arg
			c.order = append(c.order, name)
		}
	}
	return c
}

// splitList splits a "#" list on commas outside of quoted strings.
func splitList(value string) []string {
	var members []string
	var quoted bool
	start := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				members = append(members, strings.TrimSpace(value[start:i]))
				start = i + 1
			}
		}
	}
	members = append(members, strings.TrimSpace(value[start:]))
	return members
}

// MaxAge returns "max-age" as a duration, along with a boolean indicating
// whether the "max-age" directive was present with a valid argument.
//
// §  5.2.2.1. max-age
// §
// §  The max-age response directive indicates that the response is to be considered
// §  stale after its age is greater than the specified number of seconds.
func (c CacheControl) MaxAge() (time.Duration, bool) {
	return c.getDeltaSeconds("max-age")
}

// §  5.2.2.10.  s-maxage
// §
// §     The "s-maxage" response directive indicates that, for a shared
// §     cache, the maximum age specified by this directive overrides the
// §     maximum age specified by either the max-age directive or the Expires
// §     header field.
func (c CacheControl) SMaxAge() (time.Duration, bool) {
	return c.getDeltaSeconds("s-maxage")
}

// getDeltaSeconds returns the "delta-seconds" as `time.Duration`,
// as well as a boolean indicating whether the directive was set.
//
// Examples:
// directive    -> 0,  false
// directive=0  -> 0,  true
// directive=60 -> 60, true
func (c CacheControl) getDeltaSeconds(directive string) (time.Duration, bool) {
	if secondsStr, ok := c.Get(directive); ok {
		return deltaSeconds(secondsStr)
	}
	return 0, false
}
