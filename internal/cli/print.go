package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/loopfi/loopchain/internal/config"
)

// defaultCommandTimeout bounds a whole command. Each RPC call inside it is
// bounded separately by rpc.timeout.
const defaultCommandTimeout = 2 * time.Minute

// out is a helper for CLI output that ignores write errors.
func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}

// shortAddress abbreviates a 0x address for tables.
func shortAddress(address string) string {
	if len(address) < 14 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

func chainIDLabel(id int64) string {
	return "(chain " + strconv.FormatInt(id, 10) + ")"
}

// displayURL hides the secret parts of an RPC URL.
func displayURL(raw string) string {
	return config.RedactURL(raw)
}
