package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loopfi/loopchain/internal/config"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and modify the loopchain configuration file.

The file never holds secrets: credentials are configured by naming the
environment variables or key file they are read from.`,
}

// configInitCmd writes the default configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.loopchain/config.yaml, or at the
path given with --config.

An existing file is not overwritten unless --force is given.`,
	Example: `  loopchain config init
  loopchain config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd prints the effective configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Print the effective configuration: defaults, overlaid by the config file,
overlaid by the environment and flags. RPC URLs are shown without path or
query.`,
	Example: `  loopchain config show
  loopchain config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd reads one configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long:  `Get a configuration value by its dot-separated path.`,
	Example: `  loopchain config get default_network
  loopchain config get rpc.timeout
  loopchain config get networks.alfajores.rpc_url`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd writes one configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its dot-separated path. The file is
validated and written immediately.`,
	Example: `  loopchain config set default_network alfajores
  loopchain config set rpc.max_attempts 3
  loopchain config set networks.hardhat.rpc_url http://127.0.0.1:8545`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = groupConfig
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	cc := newCommandContext()

	if _, err := os.Stat(cfgPath); err == nil && !configForce {
		return looperr.WithSuggestion(
			looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{"path": cfgPath, "reason": "file exists"}),
			"use --force to overwrite it",
		)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	defaults := config.Defaults()
	defaults.Home = cc.Config.Home
	if err := config.Save(defaults, cfgPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	cc.Formatter.Successf("configuration initialized at %s", cfgPath)
	return cc.Formatter.Emit(map[string]string{"path": cfgPath}, func(w io.Writer) error {
		outln(w, "Edit this file to configure:")
		outln(w, "  - default_network: network used when --network is not given")
		outln(w, "  - networks.<name>.rpc_url: RPC endpoint of each network")
		outln(w, "  - networks.<name>.credential: variables or key file holding the deployer key")
		outln(w, "  - rpc.timeout, rpc.max_attempts: per-call timeout and retries")
		return nil
	})
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cc := newCommandContext()

	shown := redactedConfig(cc.Config)
	data, err := yaml.Marshal(shown)
	if err != nil {
		return err
	}

	if cc.Formatter.IsJSON() {
		var tree map[string]any
		if err = yaml.Unmarshal(data, &tree); err != nil {
			return err
		}
		return cc.Formatter.JSON(tree)
	}

	_, err = cc.Formatter.Writer().Write(data)
	return err
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cc := newCommandContext()

	value, err := getConfigValue(cc.Config, args[0])
	if err != nil {
		return err
	}
	return cc.Formatter.Emit(map[string]string{"path": args[0], "value": value}, func(w io.Writer) error {
		outln(w, value)
		return nil
	})
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cc := newCommandContext()
	path, value := args[0], args[1]

	// Edit the file as written, without environment or flag overrides.
	current, err := config.LoadOrDefaults(cfgPath)
	if err != nil {
		return err
	}
	if err = setConfigValue(current, path, value); err != nil {
		return err
	}
	if err = current.Validate(); err != nil {
		return err
	}
	if err = config.Save(current, cfgPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	cc.Formatter.Successf("set %s = %s", path, value)
	return nil
}

// redactedConfig returns a copy of c safe to print.
func redactedConfig(c *config.Config) *config.Config {
	shown := *c
	shown.Networks = make(map[string]config.Network, len(c.Networks))
	for name, n := range c.Networks {
		n.RPCURL = displayURL(n.RPCURL)
		shown.Networks[name] = n
	}
	return &shown
}

func unknownConfigKey(path string) error {
	return looperr.WithSuggestion(
		looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{"path": path, "reason": "unknown configuration key"}),
		"run 'loopchain config show' to list the available keys",
	)
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	parts := strings.Split(path, ".")

	switch {
	case len(parts) == 1 && parts[0] == "home":
		return c.Home, nil
	case len(parts) == 1 && parts[0] == "default_network":
		return c.DefaultNetwork, nil
	case len(parts) == 2:
		switch parts[0] + "." + parts[1] {
		case "output.default_format":
			return c.Output.DefaultFormat, nil
		case "output.color":
			return c.Output.Color, nil
		case "output.verbose":
			return strconv.FormatBool(c.Output.Verbose), nil
		case "logging.level":
			return c.Logging.Level, nil
		case "logging.file":
			return c.Logging.File, nil
		case "rpc.timeout":
			return c.RPC.Timeout.String(), nil
		case "rpc.max_attempts":
			return strconv.Itoa(c.RPC.MaxAttempts), nil
		case "rpc.rate_limit":
			return strconv.FormatFloat(c.RPC.RateLimit, 'f', -1, 64), nil
		case "rpc.burst":
			return strconv.Itoa(c.RPC.Burst), nil
		}
	case len(parts) == 3 && parts[0] == "networks":
		n, err := c.Lookup(parts[1])
		if err != nil {
			return "", err
		}
		return getNetworkValue(n, parts[2], path)
	}
	return "", unknownConfigKey(path)
}

func getNetworkValue(n config.Network, key, path string) (string, error) {
	switch key {
	case "rpc_url":
		return n.RPCURL, nil
	case "chain_id":
		return strconv.FormatInt(n.ChainID, 10), nil
	case "symbol":
		return n.Symbol, nil
	case "decimals":
		return strconv.Itoa(n.Decimals), nil
	case "faucet_url":
		return n.FaucetURL, nil
	case "explorer_url":
		return n.ExplorerURL, nil
	default:
		return "", unknownConfigKey(path)
	}
}

// setConfigValue sets a value in the config using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	parts := strings.Split(path, ".")

	switch {
	case len(parts) == 1 && parts[0] == "default_network":
		c.DefaultNetwork = strings.ToLower(value)
		return nil
	case len(parts) == 2:
		return setSectionValue(c, parts[0]+"."+parts[1], value)
	case len(parts) == 3 && parts[0] == "networks":
		name := strings.ToLower(parts[1])
		n, ok := c.Networks[name]
		if !ok {
			_, err := c.Lookup(name)
			return err
		}
		if err := setNetworkValue(&n, parts[2], value, path); err != nil {
			return err
		}
		c.Networks[name] = n
		return nil
	}
	return unknownConfigKey(path)
}

func setSectionValue(c *config.Config, path, value string) error {
	var err error
	switch path {
	case "output.default_format":
		err = oneOf(value, "text", "json", "auto")
		c.Output.DefaultFormat = value
	case "output.color":
		err = oneOf(value, "auto", "always", "never")
		c.Output.Color = value
	case "output.verbose":
		c.Output.Verbose, err = strconv.ParseBool(value)
	case "logging.level":
		err = oneOf(value, "off", "error", "info", "debug")
		c.Logging.Level = value
	case "logging.file":
		c.Logging.File = value
	case "rpc.timeout":
		c.RPC.Timeout, err = time.ParseDuration(value)
	case "rpc.max_attempts":
		c.RPC.MaxAttempts, err = strconv.Atoi(value)
	case "rpc.rate_limit":
		c.RPC.RateLimit, err = strconv.ParseFloat(value, 64)
	case "rpc.burst":
		c.RPC.Burst, err = strconv.Atoi(value)
	default:
		return unknownConfigKey(path)
	}
	if err != nil {
		return invalidConfigValue(path, value, err)
	}
	return nil
}

func setNetworkValue(n *config.Network, key, value, path string) error {
	var err error
	switch key {
	case "rpc_url":
		n.RPCURL = config.SanitizeURL(value)
	case "chain_id":
		n.ChainID, err = strconv.ParseInt(value, 10, 64)
	case "symbol":
		n.Symbol = value
	case "decimals":
		n.Decimals, err = strconv.Atoi(value)
	case "faucet_url":
		n.FaucetURL = value
	case "explorer_url":
		n.ExplorerURL = value
	default:
		return unknownConfigKey(path)
	}
	if err != nil {
		return invalidConfigValue(path, value, err)
	}
	return nil
}

func oneOf(value string, valid ...string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(valid, ", ")) //nolint:err113 // wrapped by invalidConfigValue
}

func invalidConfigValue(path, value string, err error) error {
	return looperr.WithDetails(looperr.WithCause(looperr.ErrConfigInvalid, err), map[string]string{
		"field": path,
		"value": value,
	})
}
