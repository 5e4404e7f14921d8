package logger

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
)

// NewSlogHandler returns a slog.Handler that forwards records to l.
// If l is nil, it returns nil.
func NewSlogHandler(l *Logger) slog.Handler {
	if l == nil {
		return nil
	}
	return &slogAdapter{log: l}
}

// NewStdLogger returns a *log.Logger that writes through l at the given
// level. It is meant for APIs such as http.Server.ErrorLog.
func NewStdLogger(l *Logger, level slog.Level) *log.Logger {
	return slog.NewLogLogger(NewSlogHandler(l), level)
}

type slogAdapter struct {
	log    *Logger
	groups []string
	// attrs holds "key=value" pairs from WithAttrs, already qualified with
	// the groups that were open at the time.
	attrs []string
}

func (h *slogAdapter) Enabled(_ context.Context, level slog.Level) bool {
	current := h.log.GetLevel()
	return current != LevelNone && slogLevelToLoggerLevel(level) >= current
}

func (h *slogAdapter) Handle(_ context.Context, record slog.Record) error {
	parts := append([]string(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		parts = appendAttr(parts, attr, h.groups)
		return true
	})

	message := strings.TrimRight(record.Message, "\n")
	if attrText := strings.Join(parts, " "); attrText != "" {
		if message != "" {
			message += " " + attrText
		} else {
			message = attrText
		}
	}

	h.log.log(slogLevelToLoggerLevel(record.Level), "%s", message)
	return nil
}

func (h *slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		next.attrs = appendAttr(next.attrs, attr, h.groups)
	}
	return next
}

func (h *slogAdapter) WithGroup(name string) slog.Handler {
	next := h.clone()
	if name != "" {
		next.groups = append(next.groups, name)
	}
	return next
}

func (h *slogAdapter) clone() *slogAdapter {
	return &slogAdapter{
		log:    h.log,
		groups: append([]string(nil), h.groups...),
		attrs:  append([]string(nil), h.attrs...),
	}
}

func slogLevelToLoggerLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

func appendAttr(parts []string, attr slog.Attr, prefix []string) []string {
	if attr.Equal(slog.Attr{}) {
		return parts
	}

	key := attr.Key
	if key == "" {
		key = "attr"
	}
	path := append(append([]string(nil), prefix...), key)

	if attr.Value.Kind() == slog.KindGroup {
		for _, nested := range attr.Value.Group() {
			parts = appendAttr(parts, nested, path)
		}
		return parts
	}

	return append(parts, fmt.Sprintf("%s=%v", strings.Join(path, "."), attr.Value))
}
