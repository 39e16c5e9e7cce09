package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var global atomic.Pointer[zap.SugaredLogger]

// Until Init runs, log through a production logger so startup failures are visible.
func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	global.Store(l.Sugar())
}

// Init builds the process-wide logger. level is one of debug, info, warn, error.
func Init(level string, development bool) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return err
		}
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	global.Store(l.Sugar())
	return nil
}

// Set replaces the process-wide logger; tests use it with zaptest or zap.NewNop.
func Set(l *zap.Logger) {
	global.Store(l.Sugar())
}

// With returns a context whose log lines carry the given key/value pairs.
func With(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, fromContext(ctx).With(keysAndValues...))
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return global.Load()
}

func Sync() {
	_ = global.Load().Sync()
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Debugf(format, args...)
}

func Info(ctx context.Context, msg string) {
	fromContext(ctx).Info(msg)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Warnf(format, args...)
}

func Error(ctx context.Context, msg string) {
	fromContext(ctx).Error(msg)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Errorf(format, args...)
}

func Fatal(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Fatal(args...)
}

func Fatalf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Fatalf(format, args...)
}
