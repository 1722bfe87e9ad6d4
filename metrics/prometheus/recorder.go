// Package prometheus exports destination operation metrics through
// client_golang. Counter and histogram names from core are translated to
// Prometheus names by replacing dots with underscores.
package prometheus

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-destinations/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Labels carried by every series. Tags outside this set are dropped.
var labelNames = []string{"operation", "status", "destination", "proxy_type", "upstream_stage"}

// DurationBuckets are milliseconds.
var DurationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

type Recorder struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewRecorder registers series on registerer, or on the default registerer
// when nil.
func NewRecorder(registerer prometheus.Registerer) *Recorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Recorder{
		registerer: registerer,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	vec := r.counter(metricName(name))
	if vec == nil {
		return
	}
	vec.With(labelValues(tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	vec := r.histogram(metricName(name))
	if vec == nil {
		return
	}
	vec.With(labelValues(tags)).Observe(value)
}

func (r *Recorder) counter(name string) *prometheus.CounterVec {
	if name == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.counters[name]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "Destination operations by outcome.",
	}, labelNames)
	if err := r.registerer.Register(vec); err != nil {
		existing, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil
		}
		registered, ok := existing.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil
		}
		vec = registered
	}
	r.counters[name] = vec
	return vec
}

func (r *Recorder) histogram(name string) *prometheus.HistogramVec {
	if name == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.histograms[name]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    "Destination operation latency.",
		Buckets: DurationBuckets,
	}, labelNames)
	if err := r.registerer.Register(vec); err != nil {
		existing, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil
		}
		registered, ok := existing.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil
		}
		vec = registered
	}
	r.histograms[name] = vec
	return vec
}

func labelValues(tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(labelNames))
	for _, name := range labelNames {
		labels[name] = tags[name]
	}
	return labels
}

func metricName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

var _ core.MetricsRecorder = (*Recorder)(nil)
