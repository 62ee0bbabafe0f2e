package model

import (
	"encoding/json"
	"math"
)

// Reasons a metric can be undefined. These mirror the degradation taxonomy:
// data-quality problems never raise, they mark the specific metric.
const (
	ReasonInsufficientData  = "insufficient data"
	ReasonUndefinedRatio    = "zero or missing denominator"
	ReasonMissingLineItem   = "line item unavailable"
	ReasonInvalidAssumption = "model precondition violated"
	ReasonMissingBenchmark  = "no benchmark supplied"
)

// Metric is a single computed value that is either defined or explicitly
// undefined with a reason. Undefined metrics never carry a numeric sentinel.
type Metric struct {
	Value   float64
	Defined bool
	Reason  string
}

// Defined wraps a concrete value.
func DefinedMetric(v float64) Metric { return Metric{Value: v, Defined: true} }

// Undefined marks a metric unavailable for the given reason.
func UndefinedMetric(reason string) Metric { return Metric{Reason: reason} }

// MetricFrom marks the metric undefined when the value is NaN or infinite,
// which is how the calculators signal warm-up or empty-window results.
func MetricFrom(v float64, reason string) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return UndefinedMetric(reason)
	}
	return DefinedMetric(v)
}

// Or returns the value when defined, otherwise the fallback.
func (m Metric) Or(fallback float64) float64 {
	if m.Defined {
		return m.Value
	}
	return fallback
}

// MarshalJSON renders a defined metric as its bare number and an undefined
// one as an object naming the reason, keeping reports self-describing.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.Defined {
		return json.Marshal(m.Value)
	}
	return json.Marshal(struct {
		Undefined bool   `json:"undefined"`
		Reason    string `json:"reason,omitempty"`
	}{true, m.Reason})
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*m = DefinedMetric(v)
		return nil
	}
	var u struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*m = UndefinedMetric(u.Reason)
	return nil
}

// MetricSummary is the flat metric-name → value mapping each analyzer
// produces once per run. It is ephemeral output, never mutated after the
// analyzer returns it.
type MetricSummary map[string]Metric

// Set stores a metric under the given name.
func (s MetricSummary) Set(name string, m Metric) { s[name] = m }

// Get returns the metric, or an undefined placeholder when absent.
func (s MetricSummary) Get(name string) Metric {
	if m, ok := s[name]; ok {
		return m
	}
	return UndefinedMetric(ReasonInsufficientData)
}
