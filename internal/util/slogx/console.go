package slogx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"

	"sideout/internal/util/style"
)

type ConsoleHandlerOptions struct {
	Level slog.Level
}

// ConsoleHandler writes compact single-line log records, with ANSI colors
// when stderr is a terminal and NO_COLOR is unset.
type ConsoleHandler struct {
	o     ConsoleHandlerOptions
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
	group string
}

func NewConsoleHandler(o ConsoleHandlerOptions) *ConsoleHandler {
	return &ConsoleHandler{
		o:  o,
		mu: &sync.Mutex{},
		w:  colorable.NewColorableStderr(),
	}
}

func NewConsoleLogger(o ConsoleHandlerOptions) *slog.Logger {
	return slog.New(NewConsoleHandler(o))
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.o.Level
}

func levelStyle(level slog.Level) []int {
	switch {
	case level >= slog.LevelError:
		return []int{1, 31}
	case level >= slog.LevelWarn:
		return []int{1, 33}
	case level >= slog.LevelInfo:
		return []int{1, 32}
	default:
		return []int{1, 34}
	}
}

func (h *ConsoleHandler) appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := a.Key
		if group != "" {
			sub = group + "." + sub
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, sub, ga)
		}
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	_ = b.WriteByte(' ')
	_, _ = b.WriteString(style.WithSE(key+"=", 2))
	_, _ = b.WriteString(fmt.Sprintf("%v", a.Value.Any()))
}

func (h *ConsoleHandler) Handle(_ context.Context, rec slog.Record) error {
	var b strings.Builder
	_, _ = b.WriteString(style.WithSE(rec.Time.Format(time.DateTime), 2))
	_ = b.WriteByte(' ')
	_, _ = b.WriteString(style.WithSE(rec.Level.String(), levelStyle(rec.Level)...))
	_ = b.WriteByte(' ')
	_, _ = b.WriteString(rec.Message)
	for _, a := range h.attrs {
		h.appendAttr(&b, h.group, a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, h.group, a)
		return true
	})
	_ = b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := *h
	res.attrs = append(res.attrs[:len(res.attrs):len(res.attrs)], attrs...)
	return &res
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	res := *h
	if res.group == "" {
		res.group = name
	} else {
		res.group += "." + name
	}
	return &res
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Default builds the logger used by the binaries: colored console output
// on a terminal, plain text otherwise.
func Default(level slog.Level) *slog.Logger {
	if style.IsStderrTTY() {
		return NewConsoleLogger(ConsoleHandlerOptions{Level: level})
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
