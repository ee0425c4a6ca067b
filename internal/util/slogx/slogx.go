package slogx

import (
	"context"
	"log/slog"
)

// discardHandler backports https://go-review.googlesource.com/c/go/+/547956
// until a discarding handler lands in the standard library.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// DiscardLogger returns a logger that drops every record. Tests and
// components with optional logging use it instead of a nil check.
func DiscardLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func Err(err error) slog.Attr {
	return slog.String("err", err.Error())
}
