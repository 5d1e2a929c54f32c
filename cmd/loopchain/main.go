// Package main is the entry point for the loopchain CLI.
package main

import (
	"os"

	"github.com/loopfi/loopchain/internal/cli"
)

// Set via -ldflags at release build time.
//
//nolint:gochecknoglobals // Build metadata injected by the linker
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetBuildInfo(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
