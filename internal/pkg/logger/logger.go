// Package logger configures the process wide logrus logger and carries
// request scoped fields through a context.Context.
package logger

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Init sets formatter and level. Production emits JSON lines.
func Init(env, level string) {
	if env == "production" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// Base exposes the underlying logger for libraries that want a writer or printf logger.
func Base() *logrus.Logger {
	return base
}

// WithFields returns a child context whose logger carries the given fields.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, ctxKey{}, GetLogger(ctx).WithFields(fields))
}

// WithRequestID tags every log line emitted for a request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithFields(ctx, logrus.Fields{"request_id": requestID})
}

// GetLogger returns the logger stored in ctx, or the base logger.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(base)
}
