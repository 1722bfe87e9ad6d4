package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// operationOutcome is one finished connect or run call.
type operationOutcome struct {
	operation string
	elapsed   time.Duration
	err       error
	fields    map[string]any
}

func newOperationOutcome(operation string, startedAt time.Time, err error, fields map[string]any) operationOutcome {
	operation = strings.Join(strings.FieldsFunc(strings.ToLower(operation), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
	if operation == "" {
		operation = "unknown"
	}
	return operationOutcome{
		operation: operation,
		elapsed:   time.Since(startedAt),
		err:       err,
		fields:    fields,
	}
}

func (o operationOutcome) failed() bool { return o.err != nil }

func (o operationOutcome) status() string {
	if o.failed() {
		return "failure"
	}
	return "success"
}

func (o operationOutcome) message() string {
	if o.failed() {
		return o.operation + " failed"
	}
	return o.operation + " succeeded"
}

func (o operationOutcome) logFields() map[string]any {
	fields := cloneFields(o.fields)
	fields["event_type"] = o.operation
	fields["status"] = o.status()
	fields["duration_ms"] = o.elapsed.Milliseconds()
	if o.failed() {
		fields["error"] = o.err.Error()
		if stage := UpstreamStage(o.err); stage != "" {
			fields["upstream_stage"] = stage
		}
	}
	return fields
}

func (o operationOutcome) tags(fields map[string]any) map[string]string {
	tags := map[string]string{
		"operation": o.operation,
		"status":    o.status(),
	}
	for _, key := range metricTagKeys {
		value, ok := fields[key]
		if !ok || value == nil {
			continue
		}
		if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
			tags[key] = text
		}
	}
	return tags
}

// observe logs the outcome and records its counter and duration histogram.
func (s *Service) observe(ctx context.Context, outcome operationOutcome) {
	if s == nil {
		return
	}
	fields := outcome.logFields()
	if s.metricsRecorder != nil {
		total, duration := operationMetricNames(outcome.operation)
		tags := outcome.tags(fields)
		s.metricsRecorder.IncCounter(ctx, total, 1, copyTags(tags))
		s.metricsRecorder.ObserveHistogram(ctx, duration, float64(outcome.elapsed.Milliseconds()), copyTags(tags))
	}
	writeLog(ctx, s.logger, outcome.failed(), outcome.message(), fields)
}

// writeLog emits message at error level when failed, info otherwise. Fields
// go through WithFields when the logger supports it and as sorted key/value
// args either way.
func writeLog(ctx context.Context, logger Logger, failed bool, message string, fields map[string]any) {
	if logger == nil {
		return
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	if failed {
		logger.Error(message, args...)
		return
	}
	logger.Info(message, args...)
}

func cloneFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
