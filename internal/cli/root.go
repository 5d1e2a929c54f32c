// Package cli implements the loopchain command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and released by run once the command returns.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/metrics"
	"github.com/loopfi/loopchain/internal/output"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// Command group identifiers.
const (
	groupAccount = "account"
	groupChain   = "chain"
	groupConfig  = "config"
)

var (
	// Global flags
	homeDir      string
	configFile   string
	envFiles     []string
	networkName  string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	cfgPath   string
	env       *config.Env
	logger    *config.Logger
	formatter *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loopchain",
	Short: "Chain client and operator CLI for LoopFi savings goals",
	Long: `loopchain talks to the EVM networks LoopFi deploys to (a local Hardhat
node, Celo Alfajores, Celo Sepolia and Celo mainnet).

It resolves the deployer account from the configured credential, checks
native and cUSD balances, checks RPC endpoints, sends transfers and signs
messages. Every failure is reported with a stable error code and exit code.`,
	Example: `  loopchain balance
  loopchain balance --all --tokens
  loopchain networks check
  loopchain send --network alfajores --to 0x... --amount 0.5 --token cUSD --wait`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	prepareHelp()
	err := run()
	if err != nil {
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format(), formatter.Style())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText, nil)
		}
		return err
	}
	return nil
}

// run executes the root command and releases global state whether or not
// the command succeeded.
func run() error {
	defer cleanup()
	return rootCmd.Execute()
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return looperr.ExitCode(err)
}

// initGlobals reads the environment once, then loads and validates the
// configuration and builds the logger and formatter.
func initGlobals(cmd *cobra.Command) error {
	var err error
	env, err = config.LoadEnvironment(envFiles...)
	if err != nil {
		return err
	}

	home := homeDir
	if home == "" {
		home = env.Home
	}
	if home == "" {
		home = config.DefaultHome()
	}

	cfgPath = configFile
	if cfgPath == "" {
		cfgPath = config.Path(home)
	}
	cfg, err = config.LoadOrDefaults(cfgPath)
	if err != nil {
		return err
	}
	cfg.Home = home
	config.ApplyEnvironment(cfg, env)

	// Command-line flags win over the environment
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}

	if err = cfg.Validate(); err != nil {
		return err
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), config.LogPath(cfg))
	if err != nil {
		logger = config.NullLogger()
	}

	stdout := cmd.OutOrStdout()
	style := output.NewStyle(output.ParseColorMode(cfg.Output.Color), stdout)
	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), stdout, cmd.ErrOrStderr(), style)

	logger.Debug("config loaded from %s, default network %s", cfgPath, cfg.DefaultNetwork)
	return nil
}

// cleanup prints the verbose RPC summary and closes the log file once.
func cleanup() {
	if cfg != nil && cfg.Output.Verbose && formatter != nil {
		formatter.Infof("%s", metrics.Global.Summary())
		for _, line := range metrics.Global.Breakdown() {
			formatter.Infof("  %s", line)
		}
	}
	if logger != nil {
		_ = logger.Close()
		logger = nil
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupAccount, Title: "Accounts & Balances:"},
		&cobra.Group{ID: groupChain, Title: "Networks & Transactions:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)
	rootCmd.SetCompletionCommandGroupID(groupConfig)

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "loopchain data directory (default: ~/.loopchain)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: <home>/config.yaml)")
	rootCmd.PersistentFlags().StringArrayVar(&envFiles, "env-file", nil, "dotenv file to load, repeatable (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", "", "network to use (default: default_network from config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
