// Package logging provides a slog handler that picks up request scoped attributes from the context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

type contextKey struct{}

// ContextHandler adds the attributes stored with [WithAttrs] to every record before delegating.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{handler: h}
}

// New returns a text logger on w wrapped in a ContextHandler.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
	})))
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(Attrs(ctx)...)
	if err := h.handler.Handle(ctx, r); err != nil {
		return fmt.Errorf("handle log record: %w", err)
	}
	return nil
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// WithAttrs returns a child context whose log records handled by [ContextHandler] carry attr.
func WithAttrs(ctx context.Context, attr ...slog.Attr) context.Context {
	// Clip so that sibling contexts never share a backing array.
	existing := slices.Clip(Attrs(ctx))
	return context.WithValue(ctx, contextKey{}, append(existing, attr...))
}

// Attrs returns the attributes stored in ctx.
func Attrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(contextKey{}).([]slog.Attr)
	return attrs
}
