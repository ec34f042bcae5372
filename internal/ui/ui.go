// Package ui prints colored status lines to stderr. Stdout is reserved for
// command output and, in server mode, the protocol stream.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

type UI struct {
	w     io.Writer
	out   *termenv.Output
	color bool
}

type contextKey struct{}

// New creates a UI on stderr. colorMode can be "never", "always" or "auto";
// NO_COLOR disables color in every mode.
func New(colorMode string) *UI {
	return NewWithWriter(os.Stderr, colorMode)
}

// NewWithWriter creates a UI that writes to w.
func NewWithWriter(w io.Writer, colorMode string) *UI {
	out := termenv.NewOutput(w)
	var color bool

	switch colorMode {
	case "never":
		color = false
	case "always":
		color = true
	default: // auto
		color = out.ColorProfile() != termenv.Ascii
	}

	if os.Getenv("NO_COLOR") != "" {
		color = false
	}

	return &UI{w: w, out: out, color: color}
}

// ValidColorMode reports whether mode is accepted by New.
func ValidColorMode(mode string) bool {
	switch mode {
	case "auto", "always", "never":
		return true
	}
	return false
}

// Success prints a message in green.
func (u *UI) Success(msg string) {
	u.println(msg, "2")
}

// Error prints a message in red.
func (u *UI) Error(msg string) {
	u.println(msg, "1")
}

// Warning prints a message in yellow.
func (u *UI) Warning(msg string) {
	u.println(msg, "3")
}

// Info prints a message without color.
func (u *UI) Info(msg string) {
	fmt.Fprintln(u.w, msg)
}

// Hint prints a suggestion, faint when color is on.
func (u *UI) Hint(msg string) {
	if u.color {
		fmt.Fprintln(u.w, u.out.String(msg).Faint())
		return
	}
	fmt.Fprintln(u.w, msg)
}

func (u *UI) println(msg, color string) {
	if u.color {
		fmt.Fprintln(u.w, u.out.String(msg).Foreground(u.out.Color(color)))
		return
	}
	fmt.Fprintln(u.w, msg)
}

// WithUI stores the UI in the context.
func WithUI(ctx context.Context, u *UI) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext retrieves the UI from the context.
// If no UI is found in the context, returns New("auto").
func FromContext(ctx context.Context) *UI {
	if u, ok := ctx.Value(contextKey{}).(*UI); ok {
		return u
	}
	return New("auto")
}
