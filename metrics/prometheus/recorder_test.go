package prometheus

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecorder_ExportsCountersAndHistograms(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewRecorder(registry)
	ctx := context.Background()
	tags := map[string]string{
		"operation":   "run",
		"status":      "success",
		"destination": "orders",
		"ignored":     "x",
	}

	recorder.IncCounter(ctx, "destinations.run.total", 1, tags)
	recorder.IncCounter(ctx, "destinations.run.total", 2, tags)
	recorder.ObserveHistogram(ctx, "destinations.run.duration_ms", 42, tags)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, family := range families {
		found[family.GetName()] = true
		switch family.GetName() {
		case "destinations_run_total":
			metrics := family.GetMetric()
			if len(metrics) != 1 {
				t.Fatalf("expected one counter series, got %d", len(metrics))
			}
			if got := metrics[0].GetCounter().GetValue(); got != 3 {
				t.Fatalf("expected counter 3, got %v", got)
			}
			labels := map[string]string{}
			for _, pair := range metrics[0].GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["destination"] != "orders" || labels["status"] != "success" {
				t.Fatalf("unexpected labels %#v", labels)
			}
			if _, ok := labels["ignored"]; ok {
				t.Fatalf("expected unknown tag to be dropped")
			}
		case "destinations_run_duration_ms":
			metrics := family.GetMetric()
			if len(metrics) != 1 || metrics[0].GetHistogram().GetSampleCount() != 1 {
				t.Fatalf("expected one histogram sample")
			}
		}
	}
	if !found["destinations_run_total"] || !found["destinations_run_duration_ms"] {
		t.Fatalf("expected both metric families, got %#v", found)
	}
}

func TestRecorder_ReusesCollectorsAcrossRecorders(t *testing.T) {
	registry := prometheus.NewRegistry()
	ctx := context.Background()
	tags := map[string]string{"operation": "connect", "status": "failure"}

	NewRecorder(registry).IncCounter(ctx, "destinations.connect.total", 1, tags)
	NewRecorder(registry).IncCounter(ctx, "destinations.connect.total", 1, tags)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "destinations_connect_total" {
			continue
		}
		if got := family.GetMetric()[0].GetCounter().GetValue(); got != 2 {
			t.Fatalf("expected shared counter value 2, got %v", got)
		}
		return
	}
	t.Fatalf("expected destinations_connect_total family")
}

func TestMetricName(t *testing.T) {
	cases := map[string]string{
		"destinations.run.total": "destinations_run_total",
		" 9lives-x ":             "_9lives_x",
		"":                       "",
	}
	for input, want := range cases {
		if got := metricName(input); got != want {
			t.Fatalf("metricName(%q) = %q, want %q", input, got, want)
		}
	}
}
