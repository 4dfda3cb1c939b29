// Package logging holds the process-wide zap logger. The shell writes it to
// a file so log lines never mix with the terminal; the callback server
// writes it to stdout.
package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey int

const (
	ctxLogger ctxKey = iota
	ctxRequestID
)

var global *zap.Logger

// Config selects the level, encoding and destination of the log.
type Config struct {
	Level      string // debug, info, warn, error; anything else means info
	Format     string // "console" for human-readable lines, otherwise JSON
	OutputPath string // stdout, stderr or a file path
}

// Init builds the global logger from cfg. The parent directory of a file
// output is created first.
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	switch out := cfg.OutputPath; out {
	case "":
	case "stdout", "stderr":
		zc.OutputPaths = []string{out}
		zc.ErrorOutputPaths = []string{out}
	default:
		if err := os.MkdirAll(filepath.Dir(out), 0700); err != nil {
			return err
		}
		zc.OutputPaths = []string{out}
		zc.ErrorOutputPaths = []string{out}
	}

	logger, err := zc.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}
	global = logger
	return nil
}

// Replace swaps the global logger, typically for a zaptest observer or
// zap.NewNop in tests.
func Replace(logger *zap.Logger) {
	global = logger
}

// Sync flushes buffered entries.
func Sync() error {
	if global == nil {
		return nil
	}
	return global.Sync()
}

// L returns the global logger, falling back to a production logger on
// stderr when Init was never called.
func L() *zap.Logger {
	if global == nil {
		global, _ = zap.NewProduction(zap.AddCallerSkip(1))
	}
	return global
}

// WithContext returns the logger stored in ctx, or the global one.
func WithContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxLogger).(*zap.Logger); ok {
		return l
	}
	return L()
}

// WithRequestID tags ctx and its logger with a request id. An empty id is
// replaced by a new UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	ctx = context.WithValue(ctx, ctxRequestID, id)
	return context.WithValue(ctx, ctxLogger, WithContext(ctx).With(zap.String("request_id", id)))
}

// GetRequestID returns the request id carried by ctx, if any.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// Field shorthands used across the shell.
func String(key, val string) zap.Field { return zap.String(key, val) }
func Err(err error) zap.Field { return zap.Error(err) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
