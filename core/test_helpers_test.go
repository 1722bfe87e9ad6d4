package core

import (
	"context"
	"sync"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) snapshot() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type staticCatalog map[string]DestinationConfig

func (c staticCatalog) Destination(name string) (DestinationConfig, bool) {
	entry, ok := c[name]
	return entry, ok
}

type stubStore struct {
	payload DestinationPayload
	err     error
	keys    []string
	log     *callLog
}

func (s *stubStore) Lookup(_ context.Context, storeKey string) (DestinationPayload, error) {
	s.keys = append(s.keys, storeKey)
	s.log.add("store")
	if s.err != nil {
		return DestinationPayload{}, s.err
	}
	return s.payload, nil
}

type stubConnectivity struct {
	context   ConnectivityContext
	err       error
	locations []string
	log       *callLog
}

func (s *stubConnectivity) Context(_ context.Context, locationID string) (ConnectivityContext, error) {
	s.locations = append(s.locations, locationID)
	s.log.add("connectivity")
	if s.err != nil {
		return ConnectivityContext{}, s.err
	}
	return s.context, nil
}

type recordingTransport struct {
	mu       sync.Mutex
	response TransportResponse
	err      error
	requests []EffectiveRequestConfig
	log      *callLog
}

func (t *recordingTransport) Send(_ context.Context, cfg EffectiveRequestConfig) (TransportResponse, error) {
	t.mu.Lock()
	t.requests = append(t.requests, cfg)
	t.mu.Unlock()
	t.log.add("transport")
	if t.err != nil {
		return TransportResponse{}, t.err
	}
	return t.response, nil
}

func (t *recordingTransport) sent() []EffectiveRequestConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]EffectiveRequestConfig(nil), t.requests...)
}

type recordingSink struct {
	requests  int
	responses int
	failures  []error
}

func (s *recordingSink) Request(context.Context, EffectiveRequestConfig) { s.requests++ }

func (s *recordingSink) Response(context.Context, EffectiveRequestConfig, ResponseBody) {
	s.responses++
}

func (s *recordingSink) Failure(_ context.Context, _ EffectiveRequestConfig, err error) {
	s.failures = append(s.failures, err)
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func hasLog(records []capturedLog, level string, msg string) bool {
	for _, record := range records {
		if record.level == level && record.msg == msg {
			return true
		}
	}
	return false
}

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: copyTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: copyTags(tags)})
}

func hasCounter(counters []capturedCounter, name string, status string) bool {
	for _, counter := range counters {
		if counter.name == name && counter.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasHistogram(histograms []capturedHistogram, name string, status string) bool {
	for _, histogram := range histograms {
		if histogram.name == name && histogram.tags["status"] == status {
			return true
		}
	}
	return false
}

func internetRecord(url string) CredentialRecord {
	return CredentialRecord{
		Name:               "svc",
		URL:                url,
		AuthenticationType: AuthenticationNone,
	}
}
