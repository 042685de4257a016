// Package extension runs pluggable analyzers that add namespaced keys to
// the flat result.
package extension

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	resourcetype "github.com/edge-optimizer/warmup-engine/pkg/resource-type"
)

// Input is what every analyzer sees of a completed fetch.
type Input struct {
	TargetURL string
	// Resource is the classification of the target. Its fields are nil on
	// the error path.
	Resource resourcetype.Info
	Header   http.Header
	// ReceivedAt is when the response was complete; zero on the error path.
	ReceivedAt time.Time
	Metrics    Metrics
}

// Metrics are the measurements taken by the engine during the fetch.
// A nil field was not measured.
type Metrics struct {
	DurationMS    *float64
	TTFBMS        *float64
	BodyBytes     *int64
	RedirectCount int
}

// Values maps analyzer keys (without prefix) to scalar values.
type Values map[string]interface{}

// Analyzer must not modify its input.
type Analyzer func(ctx context.Context, in Input) (Values, error)

// Binding names an analyzer and the key prefix its output is emitted under.
type Binding struct {
	Name             string
	Prefix           string
	Analyzer         Analyzer
	EnabledByDefault bool
}

// Output is the result of running one binding.
// Exactly one of Values and Err is meaningful.
type Output struct {
	Binding Binding
	Values  Values
	Err     error
}

// Keys returns the output keys in sorted order.
func (o Output) Keys() []string {
	keys := make([]string, 0, len(o.Values))
	for k := range o.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type entry struct {
	binding Binding
	enabled bool
}

// Registry is an ordered, immutable set of bindings.
// It is safe for concurrent use.
type Registry struct {
	entries []entry
}

// NewRegistry builds a registry in the order given.
// A later binding with an already used name replaces the earlier one in place.
// Two different names sharing a prefix is an error.
func NewRegistry(bindings ...Binding) (*Registry, error) {
	r := &Registry{}
	index := make(map[string]int)
	prefixes := make(map[string]string)
	for _, b := range bindings {
		if b.Name == "" || b.Prefix == "" {
			return nil, fmt.Errorf("extension binding needs a name and a prefix: %+v", b)
		}
		if b.Analyzer == nil {
			return nil, fmt.Errorf("extension %q has no analyzer", b.Name)
		}
		if i, ok := index[b.Name]; ok {
			delete(prefixes, r.entries[i].binding.Prefix)
			r.entries[i] = entry{b, b.EnabledByDefault}
		} else {
			index[b.Name] = len(r.entries)
			r.entries = append(r.entries, entry{b, b.EnabledByDefault})
		}
		if other, ok := prefixes[b.Prefix]; ok && other != b.Name {
			return nil, fmt.Errorf("extensions %q and %q share prefix %q", other, b.Name, b.Prefix)
		}
		prefixes[b.Prefix] = b.Name
	}
	return r, nil
}

// Enabled derives a registry where each binding named in overrides is
// switched on or off; the rest keep their default.
// Naming an unknown extension is an error.
func (r *Registry) Enabled(overrides map[string]bool) (*Registry, error) {
	derived := &Registry{entries: make([]entry, len(r.entries))}
	copy(derived.entries, r.entries)
	for name, on := range overrides {
		found := false
		for i := range derived.entries {
			if derived.entries[i].binding.Name == name {
				derived.entries[i].enabled = on
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown extension %q", name)
		}
	}
	return derived, nil
}

// Active returns the names of the enabled bindings, in order.
func (r *Registry) Active() []string {
	var names []string
	for _, e := range r.entries {
		if e.enabled {
			names = append(names, e.binding.Name)
		}
	}
	return names
}

// Run invokes every enabled analyzer in registration order.
// A failing or panicking analyzer yields an Output with Err set and does
// not affect the others.
func (r *Registry) Run(ctx context.Context, in Input) []Output {
	var outputs []Output
	for _, e := range r.entries {
		if !e.enabled {
			continue
		}
		outputs = append(outputs, run(ctx, e.binding, in))
	}
	return outputs
}

func run(ctx context.Context, b Binding, in Input) (out Output) {
	out.Binding = b
	defer func() {
		if p := recover(); p != nil {
			out.Values = nil
			out.Err = fmt.Errorf("panic: %v", p)
		}
	}()
	values, err := b.Analyzer(ctx, in)
	if err != nil {
		out.Err = err
		return out
	}
	if values == nil {
		values = Values{}
	}
	out.Values = values
	return out
}
