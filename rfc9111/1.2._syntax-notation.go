package rfc9111

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// §  1.2.2. Delta Seconds
// §
// §      delta-seconds  = 1*DIGIT
// §
// §  If a cache receives a delta-seconds value greater than the greatest
// §  integer it can represent, or if any of its subsequent calculations overflows,
// §  the cache MUST consider the value to be 2147483648 (2^31) or the greatest
// §  positive integer it can conveniently represent.
const maxDeltaSeconds = 2147483648

func deltaSeconds(secondsStr string) (time.Duration, bool) {
	secondsStr = strings.TrimSpace(secondsStr)
	if secondsStr == "" {
		return 0, false
	}
	for _, c := range secondsStr {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	seconds, err := strconv.ParseUint(secondsStr, 10, 64)
	if err != nil || seconds > maxDeltaSeconds {
		// only overflow can fail here, digits are checked above
		seconds = maxDeltaSeconds
	}
	return time.Second * time.Duration(seconds), true
}

// This section is from the HTTP specification (RFC9110), not the cache specification
//
// §  5.6.7.  Date/Time Formats
// §
// §       HTTP-date    = IMF-fixdate / obs-date
// §
// §     A recipient that parses a timestamp value in an HTTP field MUST
// §     accept all three HTTP-date formats.
func HttpDate(dateStr string) (time.Time, error) {
	str := strings.TrimSpace(dateStr)
	date, err := imfDate(str)
	if err == nil {
		return date, nil
	}
	if date, obsErr := obsDate(str); obsErr == nil {
		return date, nil
	}
	return time.Time{}, err
}

// §       IMF-fixdate  = day-name "," SP date1 SP time-of-day SP GMT
const imfDateLayout = "Mon, 02 Jan 2006 15:04:05 MST"

func imfDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(imfDateLayout, normalizeDateStr(dateStr))
	if err != nil {
		return date, err
	}
	if zone, _ := date.Zone(); zone != "GMT" {
		return time.Time{}, fmt.Errorf("date %q is not in GMT", dateStr)
	}
	return date, nil
}

// §       obs-date     = rfc850-date / asctime-date
func obsDate(dateStr string) (time.Time, error) {
	str := normalizeDateStr(dateStr)
	if date, err := time.Parse(time.RFC850, str); err == nil {
		return date, nil
	}
	return time.Parse(time.ANSIC, str)
}

// §     HTTP-date is case sensitive.  Note that Section 4.2 of [CACHING]
// §     relaxes this for cache recipients.
//
// Go layouts expect "GMT" and title-cased names, so the zone is upper-cased
// and the rest is left as sent.
func normalizeDateStr(dateStr string) string {
	if i := strings.LastIndex(dateStr, " "); i >= 0 && strings.EqualFold(dateStr[i+1:], "gmt") {
		return dateStr[:i+1] + "GMT"
	}
	return dateStr
}
