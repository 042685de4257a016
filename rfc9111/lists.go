package rfc9111

import "net/http"

// GetListHeader returns the members of a list-based field across all of its lines.
// Empty members are dropped, as recipients are required to ignore them
// (RFC 9110, Section 5.6.1).
func GetListHeader(header http.Header, field string) []string {
	list := make([]string, 0)
	for _, hdr := range header.Values(field) {
		for _, item := range splitList(hdr) {
			if item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}
