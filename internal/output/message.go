package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ColorMode controls ANSI coloring of text output.
type ColorMode string

// Color modes.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses a color setting. Unknown values yield ColorAuto.
func ParseColorMode(s string) ColorMode {
	switch ColorMode(strings.ToLower(strings.TrimSpace(s))) {
	case ColorAlways:
		return ColorAlways
	case ColorNever:
		return ColorNever
	default:
		return ColorAuto
	}
}

// Style colors status words in text output.
type Style struct {
	enabled bool
	success *color.Color
	warn    *color.Color
	err     *color.Color
	muted   *color.Color
	bold    *color.Color
}

// NewStyle returns a style for w. ColorAuto colors only terminals.
func NewStyle(mode ColorMode, w io.Writer) *Style {
	enabled := mode == ColorAlways || (mode == ColorAuto && IsTerminal(w))

	s := &Style{
		enabled: enabled,
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		err:     color.New(color.FgRed, color.Bold),
		muted:   color.New(color.Faint),
		bold:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{s.success, s.warn, s.err, s.muted, s.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// Enabled reports whether the style emits ANSI sequences.
func (s *Style) Enabled() bool {
	return s.enabled
}

// Success colors v green.
func (s *Style) Success(v string) string { return s.success.Sprint(v) }

// Warn colors v yellow.
func (s *Style) Warn(v string) string { return s.warn.Sprint(v) }

// Error colors v bold red.
func (s *Style) Error(v string) string { return s.err.Sprint(v) }

// Muted renders v faint.
func (s *Style) Muted(v string) string { return s.muted.Sprint(v) }

// Bold renders v bold.
func (s *Style) Bold(v string) string { return s.bold.Sprint(v) }

// Status colors a balance or diagnosis status word.
func (s *Style) Status(status string) string {
	switch status {
	case "funded", "ok", "confirmed":
		return s.Success(status)
	case "empty", "pending":
		return s.Warn(status)
	case "error", "failed", "mismatch":
		return s.Error(status)
	default:
		return status
	}
}

// Successf writes a success line to the status writer.
func (f *Formatter) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(f.errOut, f.style.Success("✓")+" "+fmt.Sprintf(format, args...))
}

// Infof writes an informational line to the status writer.
func (f *Formatter) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(f.errOut, fmt.Sprintf(format, args...))
}

// Warnf writes a warning line to the status writer.
func (f *Formatter) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(f.errOut, f.style.Warn("warning:")+" "+fmt.Sprintf(format, args...))
}
