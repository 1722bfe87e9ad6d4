package core

import "context"

// LoggerDiagnosticSink writes debug output to a logger at info level so it is
// visible without lowering the global log level.
type LoggerDiagnosticSink struct {
	Logger Logger
}

func NewLoggerDiagnosticSink(logger Logger) *LoggerDiagnosticSink {
	return &LoggerDiagnosticSink{Logger: logger}
}

func (s *LoggerDiagnosticSink) Request(ctx context.Context, cfg EffectiveRequestConfig) {
	s.write(ctx, "info", "destination request", map[string]any{"request": cfg.Fields()})
}

func (s *LoggerDiagnosticSink) Response(ctx context.Context, cfg EffectiveRequestConfig, body ResponseBody) {
	s.write(ctx, "info", "destination response", map[string]any{
		"base_url": cfg.BaseURL,
		"path":     cfg.Path,
		"body":     redactSensitiveValue(body.Value()),
	})
}

func (s *LoggerDiagnosticSink) Failure(ctx context.Context, cfg EffectiveRequestConfig, err error) {
	fields := map[string]any{
		"base_url": cfg.BaseURL,
		"path":     cfg.Path,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if payload, ok := UpstreamPayload(err); ok {
		fields["response_body"] = redactSensitiveValue(payload)
	}
	s.write(ctx, "error", "destination request failed", fields)
}

func (s *LoggerDiagnosticSink) write(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil {
		return
	}
	writeLog(ctx, s.Logger, level == "error", message, fields)
}

var _ DiagnosticSink = (*LoggerDiagnosticSink)(nil)
