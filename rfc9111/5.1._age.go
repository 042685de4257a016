package rfc9111

import (
	"net/http"
	"time"
)

// §  5.1.  Age
// §
// §       Age = delta-seconds
// §
// §     Although it is defined as a singleton header field, a cache
// §     encountering a message with a list-based Age field value SHOULD use
// §     the first member of the field value, discarding subsequent ones.
// §
// §     If the field value (after discarding additional members, as per
// §     above) is invalid (e.g., it contains something other than a non-
// §     negative integer), a cache SHOULD ignore the field.
func Age(header http.Header) (time.Duration, bool) {
	members := GetListHeader(header, "Age")
	if len(members) == 0 {
		return 0, false
	}
	return deltaSeconds(members[0])
}
