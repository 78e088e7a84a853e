// Package logging provides the structured logger used across dagflow's
// components, built on charmbracelet/log and correlated via context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// Logger is the structured logging contract every scheduler component
// depends on. Implementations must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type correlationIDKey struct{}

// WithCorrelationID attaches a correlation id to ctx so downstream log
// entries can be tied back to one CLI invocation.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID extracts the correlation id from ctx, or "" if absent.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Options configures the charmbracelet/log-backed adapter.
type Options struct {
	Writer       io.Writer
	Level        string
	ReportCaller bool
	Component    string
}

type logger struct {
	base      *cblog.Logger
	fields    []interface{}
	component string
}

// New builds a Logger. An empty Level defaults to info.
func New(opts Options) (Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	base := cblog.NewWithOptions(writer, cblog.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    opts.ReportCaller,
	})

	return &logger{base: base, component: opts.Component}, nil
}

func (l *logger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.DebugLevel, msg, fields...)
}

func (l *logger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.InfoLevel, msg, fields...)
}

func (l *logger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.WarnLevel, msg, fields...)
}

func (l *logger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.ErrorLevel, msg, fields...)
}

func (l *logger) With(fields ...interface{}) Logger {
	next := make([]interface{}, len(l.fields)+len(fields))
	copy(next, l.fields)
	copy(next[len(l.fields):], fields)
	return &logger{base: l.base, fields: next, component: l.component}
}

func (l *logger) log(ctx context.Context, level cblog.Level, msg string, fields ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	payload := make([]interface{}, 0, len(l.fields)+len(fields)+4)
	payload = append(payload, l.fields...)
	payload = append(payload, fields...)
	if l.component != "" {
		payload = append(payload, "component", l.component)
	}
	if id := GetCorrelationID(ctx); id != "" {
		payload = append(payload, "correlation_id", id)
	}

	switch level {
	case cblog.DebugLevel:
		l.base.Debug(msg, payload...)
	case cblog.WarnLevel:
		l.base.Warn(msg, payload...)
	case cblog.ErrorLevel:
		l.base.Error(msg, payload...)
	default:
		l.base.Info(msg, payload...)
	}
}

// NoOp returns a Logger that discards everything; useful in tests.
func NoOp() Logger { return noop{} }

type noop struct{}

func (noop) Debug(context.Context, string, ...interface{}) {}
func (noop) Info(context.Context, string, ...interface{})  {}
func (noop) Warn(context.Context, string, ...interface{})  {}
func (noop) Error(context.Context, string, ...interface{}) {}
func (noop) With(...interface{}) Logger                    { return noop{} }
