package core

import "context"

// NopMetricsRecorder is used when no recorder is configured.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// Field keys promoted to metric tags when an operation carries them.
var metricTagKeys = [...]string{"destination", "proxy_type", "upstream_stage"}

func operationMetricNames(operation string) (total string, duration string) {
	prefix := "destinations." + operation
	return prefix + ".total", prefix + ".duration_ms"
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for key, value := range tags {
		out[key] = value
	}
	return out
}

var _ MetricsRecorder = NopMetricsRecorder{}
