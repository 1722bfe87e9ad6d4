package main

import (
	"context"
	"io"

	"github.com/goliatone/go-destinations/core"
	"github.com/sirupsen/logrus"
)

// cliLogger adapts a logrus entry to core.FieldsLogger. Trailing key/value
// args become logrus fields.
type cliLogger struct {
	entry *logrus.Entry
}

// newCLILogger logs warnings and errors to w; verbose enables everything down
// to trace.
func newCLILogger(w io.Writer, verbose bool) *cliLogger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	base.SetLevel(logrus.WarnLevel)
	if verbose {
		base.SetLevel(logrus.TraceLevel)
	}
	return &cliLogger{entry: logrus.NewEntry(base)}
}

func (l *cliLogger) Trace(msg string, args ...any) { l.log(logrus.TraceLevel, msg, args) }
func (l *cliLogger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args) }
func (l *cliLogger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args) }
func (l *cliLogger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args) }
func (l *cliLogger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args) }

// Fatal logs at fatal level without exiting; the CLI owns its exit code.
func (l *cliLogger) Fatal(msg string, args ...any) { l.log(logrus.FatalLevel, msg, args) }

func (l *cliLogger) WithContext(ctx context.Context) core.Logger {
	if ctx == nil {
		return l
	}
	return &cliLogger{entry: l.entry.WithContext(ctx)}
}

func (l *cliLogger) WithFields(fields map[string]any) core.Logger {
	return &cliLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *cliLogger) log(level logrus.Level, msg string, args []any) {
	entry := l.entry
	if len(args) > 1 {
		fields := make(logrus.Fields, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			if key, ok := args[i].(string); ok {
				fields[key] = args[i+1]
			}
		}
		entry = entry.WithFields(fields)
	}
	entry.Log(level, msg)
}

var _ core.FieldsLogger = (*cliLogger)(nil)
