// Package measure repeats the engine's timing measurements under their
// own namespace, for consumers that only read extension keys.
package measure

import (
	"context"
	"math"

	"github.com/edge-optimizer/warmup-engine/pkg/extension"
)

const (
	Name   = "measure"
	Prefix = "eo.measure."
)

func Binding() extension.Binding {
	return extension.Binding{
		Name:     Name,
		Prefix:   Prefix,
		Analyzer: Analyze,
	}
}

// Analyze emits only what was measured; on the error path that is the
// duration alone.
func Analyze(ctx context.Context, in extension.Input) (extension.Values, error) {
	m := in.Metrics
	v := extension.Values{}
	if m.DurationMS != nil {
		v["duration-ms"] = round2(*m.DurationMS)
	}
	if m.TTFBMS != nil {
		v["ttfb-ms"] = round2(*m.TTFBMS)
	}
	if m.BodyBytes != nil {
		v["actual-content-length"] = *m.BodyBytes
	}
	return v, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
