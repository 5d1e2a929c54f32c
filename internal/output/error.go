package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// NewErrorDetail flattens err into its reportable fields.
func NewErrorDetail(err error) ErrorDetail {
	var le *looperr.LoopError
	if !errors.As(err, &le) {
		return ErrorDetail{
			Code:     "GENERAL_ERROR",
			Message:  err.Error(),
			ExitCode: looperr.ExitGeneral,
		}
	}

	detail := ErrorDetail{
		Code:       le.Code,
		Message:    le.Message,
		Details:    le.Details,
		Suggestion: le.Suggestion,
		ExitCode:   le.ExitCode,
	}
	if le.Cause != nil {
		detail.Cause = le.Cause.Error()
	}
	return detail
}

// FormatError writes err to w. It writes nothing for a nil error.
func FormatError(w io.Writer, err error, format Format, style *Style) error {
	if err == nil {
		return nil
	}
	if style == nil {
		style = NewStyle(ColorNever, nil)
	}

	detail := NewErrorDetail(err)
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ErrorOutput{Error: detail})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", style.Error("Error:"), detail.Message)

	if len(detail.Details) > 0 {
		keys := make([]string, 0, len(detail.Details))
		for k := range detail.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, detail.Details[k])
		}
	}

	if detail.Cause != "" {
		fmt.Fprintf(&sb, "\nCause: %s\n", style.Muted(detail.Cause))
	}

	if detail.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", detail.Suggestion)
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}
