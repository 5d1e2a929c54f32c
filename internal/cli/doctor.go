package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/output"
	"github.com/loopfi/loopchain/internal/service/setup"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var doctorRequireReady bool

// doctorCmd reports what is missing before loopchain can sign on each network.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local setup and list next steps",
	Long: `Inspect the local setup without touching the network: whether the config
file exists, which dotenv files were read, and for every network which
credential it names and whether the variables or key file behind it are
present. Values are never printed, only whether they are set.

The report ends with the next steps for a working deployment environment,
such as where to fund a testnet account. Run networks check afterwards to
test the RPC endpoints themselves.`,
	Example: `  loopchain doctor
  loopchain doctor --env-file contracts/.env
  loopchain doctor --require-ready -o json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	doctorCmd.GroupID = groupConfig
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorRequireReady, "require-ready", false, "exit with an error when the default network cannot sign")
}

func runDoctor(_ *cobra.Command, _ []string) error {
	cc := newCommandContext()

	report := setup.Inspect(setup.Options{
		Config:     cc.Config,
		ConfigPath: cfgPath,
		Env:        cc.Env,
		Logger:     cc.Logger,
	})

	if err := cc.Formatter.Emit(report, func(w io.Writer) error {
		return writeSetupReport(w, cc.Formatter.Style(), report)
	}); err != nil {
		return err
	}

	if doctorRequireReady && !report.DefaultNetworkReady() {
		return looperr.WithDetails(looperr.ErrNoCredential, map[string]string{
			"network": report.DefaultNetwork,
		})
	}
	return nil
}

func writeSetupReport(w io.Writer, style *output.Style, report *setup.Report) error {
	configState := style.Success("found")
	if !report.ConfigExists {
		configState = style.Warn("missing, using defaults")
	}
	envFiles := style.Muted("none")
	if len(report.EnvFiles) > 0 {
		envFiles = strings.Join(report.EnvFiles, ", ")
	}
	out(w, "Config:     %s (%s)\n", report.ConfigFile, configState)
	out(w, "Env files:  %s\n\n", envFiles)

	table := output.NewTable("", "NETWORK", "CHAIN ID", "CREDENTIAL", "VARIABLES", "READY").AlignRight(2)
	for _, n := range report.Networks {
		marker := ""
		if n.Default {
			marker = "*"
		}
		var vars []string
		for _, v := range n.Variables {
			state := "unset"
			if v.Set {
				state = "set"
			}
			vars = append(vars, v.Name+"="+state)
		}
		if n.KeyFile != "" {
			state := "missing"
			if n.KeyFileExists {
				state = "found"
			}
			vars = append(vars, "key_file="+state)
		}
		ready := style.Warn("no")
		if n.Ready {
			ready = style.Success("yes")
		}
		table.AddRow(marker, n.Name, strconv.FormatInt(n.ChainID, 10), string(n.Credential), strings.Join(vars, " "), ready)
	}
	if err := table.Render(w); err != nil {
		return err
	}

	for _, n := range report.Networks {
		if n.ExplorerURL != "" || n.FaucetURL != "" {
			line := "  " + n.Name + ":"
			if n.ExplorerURL != "" {
				line += " explorer " + n.ExplorerURL
			}
			if n.FaucetURL != "" {
				line += " faucet " + n.FaucetURL
			}
			outln(w, style.Muted(line))
		}
	}

	out(w, "\nNext steps:\n")
	for i, step := range report.NextSteps {
		out(w, "  %d. %s\n", i+1, step)
	}
	return nil
}
