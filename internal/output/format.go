// Package output renders command results as human-readable text or as
// JSON for scripts, and renders errors with their code, details and
// suggestion.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format represents the output format.
type Format string

// Output format constants.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// Formatter writes command results in a single resolved format.
type Formatter struct {
	format Format
	out    io.Writer
	errOut io.Writer
	style  *Style
}

// NewFormatter creates a formatter writing results to out and status
// messages to errOut. FormatAuto is resolved against out.
func NewFormatter(format Format, out, errOut io.Writer, style *Style) *Formatter {
	if errOut == nil {
		errOut = os.Stderr
	}
	if style == nil {
		style = NewStyle(ColorNever, nil)
	}
	return &Formatter{
		format: DetectFormat(out, format),
		out:    out,
		errOut: errOut,
		style:  style,
	}
}

// Format returns the resolved output format, never FormatAuto.
func (f *Formatter) Format() Format {
	return f.format
}

// Writer returns the result writer.
func (f *Formatter) Writer() io.Writer {
	return f.out
}

// Style returns the text styling in use.
func (f *Formatter) Style() *Style {
	return f.style
}

// IsJSON returns true if the formatter outputs JSON.
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// Emit writes v as indented JSON in JSON mode, and otherwise calls text
// to render it.
func (f *Formatter) Emit(v any, text func(w io.Writer) error) error {
	if f.IsJSON() {
		return f.JSON(v)
	}
	if text == nil {
		return f.Text(v)
	}
	return text(f.out)
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	encoder := json.NewEncoder(f.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Text writes v on its own line.
func (f *Formatter) Text(v any) error {
	switch val := v.(type) {
	case string:
		_, err := fmt.Fprintln(f.out, val)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.out, val.String())
		return err
	default:
		_, err := fmt.Fprintf(f.out, "%v\n", val)
		return err
	}
}

// Printf writes formatted text to the result writer.
func (f *Formatter) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(f.out, format, args...)
	return err
}

// DetectFormat determines the appropriate format based on context.
// Returns JSON for non-TTY output, text for TTY, unless explicitly overridden.
func DetectFormat(w io.Writer, explicit Format) Format {
	if explicit == FormatText || explicit == FormatJSON {
		return explicit
	}
	if IsTerminal(w) {
		return FormatText
	}
	return FormatJSON
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}

// ParseFormat parses a format string. Unknown values yield FormatAuto.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatAuto
	}
}
