package rfc9111

import (
	"net/http"
	"time"
)

// §  5.3.  Expires
// §
// §       Expires = HTTP-date
// §
// §     A cache recipient MUST interpret invalid date formats, especially the
// §     value "0", as representing a time in the past (i.e., "already
// §     expired").
//
// The returned boolean is false only when the field is absent.
// Invalid values are reported as the zero time.
func expires(header http.Header) (time.Time, bool) {
	values := header.Values("Expires")
	if len(values) == 0 {
		return time.Time{}, false
	}
	if exp, err := HttpDate(values[0]); err == nil {
		return exp, true
	}
	return time.Time{}, true
}
