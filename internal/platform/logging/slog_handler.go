package logging

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Slog returns a *slog.Logger that writes through the zap core, so every
// component keeps the slog API while output stays on one sink.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.New(slogHandler{zap: zap.NewNop()})
	}
	return slog.New(slogHandler{zap: l.Zap()})
}

type slogHandler struct {
	zap    *zap.Logger
	groups []string
}

func (h slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.zap.Core().Enabled(zapLevel(level))
}

func (h slogHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := make([]zap.Field, 0, record.NumAttrs()+2)
	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, attrToField(h.groups, attr)...)
		return true
	})
	fields = append(fields, traceFields(ctx)...)

	if ce := h.zap.Check(zapLevel(record.Level), record.Message); ce != nil {
		ce.Time = record.Time
		ce.Write(fields...)
	}
	return nil
}

func (h slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]zap.Field, 0, len(attrs))
	for _, attr := range attrs {
		fields = append(fields, attrToField(h.groups, attr)...)
	}
	return slogHandler{zap: h.zap.With(fields...), groups: h.groups}
}

func (h slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return slogHandler{zap: h.zap, groups: groups}
}

func attrToField(groups []string, attr slog.Attr) []zap.Field {
	if attr.Equal(slog.Attr{}) {
		return nil
	}

	key := attr.Key
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}

	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		out := make([]zap.Field, 0, len(value.Group()))
		for _, member := range value.Group() {
			nested := append(groups, attr.Key)
			out = append(out, attrToField(nested, member)...)
		}
		return out
	}

	if err, ok := value.Any().(error); ok {
		return []zap.Field{zap.NamedError(key, err)}
	}
	return []zap.Field{zap.Any(key, value.Any())}
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
