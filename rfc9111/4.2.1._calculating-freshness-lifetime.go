package rfc9111

import (
	"net/http"
	"time"
)

// §  4.2.1.  Calculating Freshness Lifetime
// §
// §     A cache can calculate the freshness lifetime (denoted as
// §     freshness_lifetime) of a response by evaluating the following rules
// §     and using the first match:
//
// received is when the response arrived, used in place of a missing Date.
func freshnessLifetime(cc CacheControl, header http.Header, received time.Time) (time.Duration, bool) {
	// §     *  If the cache is shared and the s-maxage response directive
	// §        (Section 5.2.2.10) is present, use its value, or
	if val, ok := cc.SMaxAge(); ok {
		return val, true
	}
	// §     *  If the max-age response directive (Section 5.2.2.1) is present,
	// §        use its value, or
	if val, ok := cc.MaxAge(); ok {
		return val, true
	}
	// §     *  If the Expires response header field (Section 5.3) is present, use
	// §        its value minus the value of the Date response header field
	// §        (using the time the message was received if it is not present,
	// §        as per Section 6.6.1 of [HTTP]), or
	if exp, ok := expires(header); ok {
		if exp.IsZero() {
			// invalid Expires means already expired
			return 0, true
		}
		date, err := HttpDate(header.Get("Date"))
		if err != nil {
			// §  A recipient with a clock that receives a response with an
			// §  invalid Date header field value MAY replace that value with the
			// §  time that response was received.
			date = received
		}
		if lifetime := exp.Sub(date); lifetime > 0 {
			return lifetime, true
		}
		return 0, true
	}
	// §     *  Otherwise, no explicit expiration time is present in the response.
	return 0, false
}

// FreshnessLifetime returns the freshness lifetime for a shared cache,
// along with a boolean indicating whether an explicit expiration time was found.
// received stands in for a missing or invalid Date field.
func FreshnessLifetime(header http.Header, received time.Time) (time.Duration, bool) {
	return freshnessLifetime(ParseCacheControl(header.Values("Cache-Control")), header, received)
}
