package logger

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const textTimeFormat = "2006-01-02 15:04:05.000"

// textHandler writes one human readable line per record:
//
//	2024-01-02 15:04:05.000 INFO  gc cycle complete victim=3 migrated=12
//
// Groups are flattened into dotted keys.
type textHandler struct {
	opts     *slog.HandlerOptions
	w        io.Writer
	mu       *sync.Mutex
	prefix   []byte // pre-rendered WithAttrs output
	group    string // dotted group path, including trailing dot
	useColor bool
}

func newTextHandler(w io.Writer, opts *slog.HandlerOptions, useColor bool) *textHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &textHandler{opts: opts, w: w, mu: &sync.Mutex{}, useColor: useColor}
}

func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return l >= minLevel
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = r.Time.AppendFormat(buf, textTimeFormat)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	buf = append(buf, h.prefix...)

	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.group, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *textHandler) appendLevel(buf []byte, l slog.Level) []byte {
	name := levelName(l)
	if !h.useColor {
		return append(buf, padLevel(name)...)
	}

	color := colorRed
	switch name {
	case "DEBUG":
		color = colorGray
	case "INFO":
		color = colorGreen
	case "WARN":
		color = colorYellow
	}
	buf = append(buf, color...)
	buf = append(buf, padLevel(name)...)
	return append(buf, colorReset...)
}

func padLevel(name string) string {
	if len(name) < 5 {
		return name + strings.Repeat(" ", 5-len(name))
	}
	return name
}

func (h *textHandler) appendAttr(buf []byte, group string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := group
		if a.Key != "" {
			sub += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, sub, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	if h.useColor {
		buf = append(buf, colorCyan...)
	}
	buf = append(buf, group...)
	buf = append(buf, a.Key...)
	if h.useColor {
		buf = append(buf, colorReset...)
	}
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendString(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', 3, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			return appendString(buf, err.Error())
		}
		return appendString(buf, v.String())
	}
}

// appendString quotes values that would otherwise break key=value parsing.
func appendString(buf []byte, s string) []byte {
	if s == "" || strings.ContainsAny(s, " =\"\n\t") {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.prefix = append([]byte(nil), h.prefix...)
	for _, a := range attrs {
		clone.prefix = h.appendAttr(clone.prefix, h.group, a)
	}
	return &clone
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}
