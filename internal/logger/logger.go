// Package logger provides the zap-backed implementation of the
// contracts.Logger interface used across the toolkit.
package logger

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// ZapLogger implements contracts.Logger on top of go.uber.org/zap.
type ZapLogger struct {
	logger *zap.Logger
	level  atomic.Int32
}

// NewZapLogger creates a production-configured zap logger.
func NewZapLogger() contracts.Logger {
	z, _ := zap.NewProduction()
	l := &ZapLogger{logger: z}
	l.level.Store(int32(contracts.InfoLevel))
	return l
}

// NewNop returns a logger that discards everything. Useful as a default for
// components whose callers did not supply a logger.
func NewNop() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

// Debug logs a message at the DEBUG level.
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(contracts.DebugLevel, msg, fields)
}

// Info logs a message at the INFO level.
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(contracts.InfoLevel, msg, fields)
}

// Warn logs a message at the WARN level.
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(contracts.WarnLevel, msg, fields)
}

// Error logs a message at the ERROR level.
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(contracts.ErrorLevel, msg, fields)
}

// Field returns a new field builder.
func (z *ZapLogger) Field() contracts.Field {
	return zapField{}
}

// SetLevel sets the minimum level that will be emitted.
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.Store(int32(level))
}

func (z *ZapLogger) log(level contracts.LogLevel, msg string, fields []contracts.Field) {
	if level < contracts.LogLevel(z.level.Load()) {
		return
	}

	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if field, ok := f.(zapField); ok {
			zf = append(zf, field.fields...)
		}
	}

	switch level {
	case contracts.DebugLevel:
		z.logger.Debug(msg, zf...)
	case contracts.InfoLevel:
		z.logger.Info(msg, zf...)
	case contracts.WarnLevel:
		z.logger.Warn(msg, zf...)
	case contracts.ErrorLevel:
		z.logger.Error(msg, zf...)
	}
}

// zapField accumulates typed zap fields behind the chainable
// contracts.Field builder.
type zapField struct {
	fields []zapcore.Field
}

func (f zapField) with(field zapcore.Field) contracts.Field {
	return zapField{fields: append(f.fields[:len(f.fields):len(f.fields)], field)}
}

func (f zapField) Bool(key string, val bool) contracts.Field {
	return f.with(zap.Bool(key, val))
}

func (f zapField) Int(key string, val int) contracts.Field {
	return f.with(zap.Int(key, val))
}

func (f zapField) Float64(key string, val float64) contracts.Field {
	return f.with(zap.Float64(key, val))
}

func (f zapField) String(key string, val string) contracts.Field {
	return f.with(zap.String(key, val))
}

func (f zapField) Duration(key string, val time.Duration) contracts.Field {
	return f.with(zap.Duration(key, val))
}

func (f zapField) Error(key string, val error) contracts.Field {
	return f.with(zap.Error(val))
}
