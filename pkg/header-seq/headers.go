package headerseq

import (
	"net/http"
	"sort"
	"strings"
)

// Pair is a single header field.
type Pair struct {
	Name  string
	Value string
}

// Source is anything that can produce an ordered sequence of header fields.
// Implementations must return the same sequence for the same input.
type Source interface {
	Pairs() []Pair
}

// HTTP adapts an http.Header.
// Multiple values of the same field are joined with ", ", which is how
// fetch-style header objects expose them.
type HTTP http.Header

func (h HTTP) Pairs() []Pair {
	pairs := make([]Pair, 0, len(h))
	for name, values := range h {
		pairs = append(pairs, Pair{name, strings.Join(values, ", ")})
	}
	sortPairs(pairs)
	return pairs
}

// Map adapts a plain name to value mapping.
type Map map[string]string

func (m Map) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m))
	for name, value := range m {
		pairs = append(pairs, Pair{name, value})
	}
	sortPairs(pairs)
	return pairs
}

// Lower returns the fields of src keyed by lowercased name.
// When two fields differ only by case, the one sorting last wins.
func Lower(src Source) map[string]string {
	if src == nil {
		return map[string]string{}
	}
	pairs := src.Pairs()
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[strings.ToLower(p.Name)] = p.Value
	}
	return m
}

// sorting on the lowercased name keeps output stable regardless of the
// canonicalization applied by the source
func sortPairs(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		li, lj := strings.ToLower(pairs[i].Name), strings.ToLower(pairs[j].Name)
		if li != lj {
			return li < lj
		}
		return pairs[i].Name < pairs[j].Name
	})
}
