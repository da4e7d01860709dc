package otel

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"

	"github.com/bravo68web/testuser/pkg/logger"
)

// ZapCore forwards zap entries to an OTEL logger
type ZapCore struct {
	zapcore.LevelEnabler
	provider *Provider
	fields   []zapcore.Field
}

// NewZapCore creates a core that emits through provider
func NewZapCore(provider *Provider, level zapcore.LevelEnabler) *ZapCore {
	return &ZapCore{LevelEnabler: level, provider: provider}
}

// NewLogger returns a logger that writes to the console core and to provider
func NewLogger(cfg *logger.Config, provider *Provider) *logger.Logger {
	level := logger.ParseLevel(cfg.Level)
	core := zapcore.NewTee(logger.CreateConsoleCore(cfg, level), NewZapCore(provider, level))
	return logger.NewWithCore(cfg, core, provider)
}

func (c *ZapCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &ZapCore{LevelEnabler: c.LevelEnabler, provider: c.provider, fields: merged}
}

func (c *ZapCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *ZapCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var record log.Record
	record.SetTimestamp(entry.Time)
	record.SetSeverity(severity(entry.Level))
	record.SetSeverityText(entry.Level.String())
	record.SetBody(log.StringValue(entry.Message))

	attrs := make([]log.KeyValue, 0, len(c.fields)+len(fields)+2)
	if entry.Caller.Defined {
		attrs = append(attrs, log.String("caller", entry.Caller.TrimmedPath()))
	}
	if entry.Stack != "" {
		attrs = append(attrs, log.String("stacktrace", entry.Stack))
	}
	for _, group := range [][]zapcore.Field{c.fields, fields} {
		for _, f := range group {
			if kv, ok := toAttribute(f); ok {
				attrs = append(attrs, kv)
			}
		}
	}
	record.AddAttributes(attrs...)

	c.provider.Logger().Emit(context.Background(), record)
	return nil
}

func (c *ZapCore) Sync() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return c.provider.ForceFlush(ctx)
}

func severity(level zapcore.Level) log.Severity {
	switch level {
	case zapcore.DebugLevel:
		return log.SeverityDebug
	case zapcore.InfoLevel:
		return log.SeverityInfo
	case zapcore.WarnLevel:
		return log.SeverityWarn
	case zapcore.ErrorLevel, zapcore.DPanicLevel:
		return log.SeverityError
	case zapcore.PanicLevel, zapcore.FatalLevel:
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}

func toAttribute(f zapcore.Field) (log.KeyValue, bool) {
	switch f.Type {
	case zapcore.BoolType:
		return log.Bool(f.Key, f.Integer == 1), true
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return log.Int64(f.Key, f.Integer), true
	case zapcore.Float64Type:
		return log.Float64(f.Key, math.Float64frombits(uint64(f.Integer))), true
	case zapcore.Float32Type:
		return log.Float64(f.Key, float64(math.Float32frombits(uint32(f.Integer)))), true
	case zapcore.StringType:
		return log.String(f.Key, f.String), true
	case zapcore.DurationType:
		return log.String(f.Key, time.Duration(f.Integer).String()), true
	case zapcore.TimeFullType:
		if t, ok := f.Interface.(time.Time); ok {
			return log.String(f.Key, t.Format(time.RFC3339Nano)), true
		}
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return log.String(f.Key, err.Error()), true
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok {
			return log.String(f.Key, s.String()), true
		}
	case zapcore.SkipType, zapcore.NamespaceType:
		return log.KeyValue{}, false
	default:
		if f.Interface != nil {
			return log.String(f.Key, fmt.Sprintf("%v", f.Interface)), true
		}
	}
	return log.KeyValue{}, false
}

var _ zapcore.Core = (*ZapCore)(nil)
