// Package logger provides a colorized slog.Handler tuned for interactive use:
// warnings and errors stand out, and log lines about graph persistence are
// highlighted so they're easy to follow during ingestion runs.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	debugColor    = color.New(color.FgHiBlack)
	infoColor     = color.New(color.FgWhite)
	persistColor  = color.New(color.FgGreen)
	warnColor     = color.New(color.FgYellow)
	errorColor    = color.New(color.FgRed, color.Bold)
	attrColor     = color.New(color.FgCyan)
	persistMarker = []string{"persist", "persisted", "persisting"}
)

// Handler is a slog.Handler that colorizes output by level, with an extra
// highlight for log lines describing node/edge persistence.
type Handler struct {
	out   io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

// NewHandler creates a colorized slog.Handler writing to w at the given level.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{out: w, level: level}
}

// NewDefaultLogger returns a *slog.Logger backed by a colorized Handler
// writing to stderr at the given level.
func NewDefaultLogger(level slog.Leveler) *slog.Logger {
	return slog.New(NewHandler(os.Stderr, level))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	c := colorFor(record.Level, record.Message)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] %s", record.Time.Format("15:04:05.000"), record.Level.String(), record.Message)

	for _, attr := range h.attrs {
		fmt.Fprintf(&sb, " %s", attrColor.Sprintf("%s=%v", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(&sb, " %s", attrColor.Sprintf("%s=%v", attr.Key, attr.Value))
		return true
	})

	_, err := fmt.Fprintln(h.out, c.Sprint(sb.String()))
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{out: h.out, level: h.level, attrs: merged}
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	// Groups aren't rendered distinctly; attributes still print flat.
	return h
}

func colorFor(level slog.Level, message string) *color.Color {
	switch {
	case level >= slog.LevelError:
		return errorColor
	case level >= slog.LevelWarn:
		return warnColor
	case level >= slog.LevelInfo:
		lower := strings.ToLower(message)
		for _, marker := range persistMarker {
			if strings.Contains(lower, marker) {
				return persistColor
			}
		}
		return infoColor
	default:
		return debugColor
	}
}
