package log

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the logging surface the queue depends on. Implementations must be
// safe for concurrent use. The queue treats its logger as purely
// observational; log calls never affect delivery.
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Log
}

// Level controls the minimum severity a logger emits.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent Level = 0xFF
)

// Field is a structured log field. The constructors below cover everything
// the queue logs.
type Field = zapcore.Field

func Any(key string, val any) Field { return zap.Any(key, val) }

func Bool(key string, val bool) Field { return zap.Bool(key, val) }

func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

func Err(err error) Field { return zap.Error(err) }

func Int(key string, val int) Field { return zap.Int(key, val) }

func String(key, val string) Field { return zap.String(key, val) }

func Time(key string, val time.Time) Field { return zap.Time(key, val) }

func Uint64(key string, val uint64) Field { return zap.Uint64(key, val) }
