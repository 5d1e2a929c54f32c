// Package config provides configuration management for loopchain.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/loopfi/loopchain/internal/fileutil"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// maxDecimals bounds token precision; 10^77 is the largest power of ten below 2^256.
const maxDecimals = 77

// Config represents the application configuration.
type Config struct {
	Version        int                `yaml:"version"`
	Home           string             `yaml:"home"`
	DefaultNetwork string             `yaml:"default_network"`
	Networks       map[string]Network `yaml:"networks"`
	RPC            RPCConfig          `yaml:"rpc"`
	Solidity       SolidityConfig     `yaml:"solidity"`
	Security       SecurityConfig     `yaml:"security"`
	Output         OutputConfig       `yaml:"output"`
	Logging        LoggingConfig      `yaml:"logging"`
}

// Network is one entry of the named-network table.
type Network struct {
	Name        string        `yaml:"-"`
	ChainID     int64         `yaml:"chain_id"`
	RPCURL      string        `yaml:"rpc_url"`
	Symbol      string        `yaml:"symbol"`
	Decimals    int           `yaml:"decimals"`
	FaucetURL   string        `yaml:"faucet_url,omitempty"`
	ExplorerURL string        `yaml:"explorer_url,omitempty"`
	Credential  CredentialRef `yaml:"credential"`
	Tokens      []Token       `yaml:"tokens,omitempty"`
}

// Token defines an ERC-20 token tracked on a network.
type Token struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// CredentialRef points at where a network's signing key lives. It holds
// names of environment variables and file paths only, never key material,
// so a Config is always safe to print.
type CredentialRef struct {
	PrivateKeyEnv string `yaml:"private_key_env,omitempty"`
	MnemonicEnv   string `yaml:"mnemonic_env,omitempty"`
	MnemonicIndex uint32 `yaml:"mnemonic_index,omitempty"`
	KeyFile       string `yaml:"key_file,omitempty"`
	PassphraseEnv string `yaml:"passphrase_env,omitempty"`
}

// IsZero reports whether the reference names no credential source at all.
func (r CredentialRef) IsZero() bool {
	return r.PrivateKeyEnv == "" && r.MnemonicEnv == "" && r.KeyFile == ""
}

// RPCConfig defines JSON-RPC client behavior shared by every network.
type RPCConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RateLimit   float64       `yaml:"rate_limit"`
	Burst       int           `yaml:"burst"`
}

// SolidityConfig records the contract compiler settings of the project.
// It is descriptive only; loopchain never invokes a compiler.
type SolidityConfig struct {
	Compilers []CompilerConfig `yaml:"compilers"`
}

// CompilerConfig is one solc version with its settings.
type CompilerConfig struct {
	Version   string          `yaml:"version"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	ViaIR     bool            `yaml:"via_ir"`
}

// OptimizerConfig defines solc optimizer settings.
type OptimizerConfig struct {
	Enabled bool `yaml:"enabled"`
	Runs    int  `yaml:"runs"`
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	MemoryLock bool `yaml:"memory_lock"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file, merged over Defaults.
// A network entry present in the file replaces the default entry of the same name.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, looperr.WithDetails(looperr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, looperr.WithCause(looperr.ErrConfigInvalid, err)
	}
	cfg.normalize()

	return cfg, nil
}

// LoadOrDefaults loads path when it exists and falls back to Defaults otherwise.
func LoadOrDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, looperr.ErrConfigNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// LogPath returns the log file for cfg: logging.file when set, otherwise
// loopchain.log under the home directory.
func LogPath(cfg *Config) string {
	if cfg.Logging.File != "" {
		return ExpandHome(cfg.Logging.File)
	}
	return filepath.Join(ExpandHome(cfg.Home), "loopchain.log")
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default loopchain home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loopchain"
	}
	return filepath.Join(home, ".loopchain")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// normalize fills derived fields after decoding.
func (c *Config) normalize() {
	networks := make(map[string]Network, len(c.Networks))
	for name, n := range c.Networks {
		name = strings.ToLower(strings.TrimSpace(name))
		n.Name = name
		networks[name] = n
	}
	c.Networks = networks
	c.DefaultNetwork = strings.ToLower(strings.TrimSpace(c.DefaultNetwork))
	if c.RPC.MaxAttempts < 1 {
		c.RPC.MaxAttempts = 1
	}
}

// NetworkNames returns the configured network identifiers in sorted order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named network. Unknown names fail with
// ErrNetworkNotFound carrying the closest configured name as a suggestion.
func (c *Config) Lookup(name string) (Network, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if n, ok := c.Networks[name]; ok {
		n.Name = name
		return n, nil
	}

	err := looperr.WithDetails(looperr.ErrNetworkNotFound, map[string]string{"network": name})
	if suggestion := c.closestNetwork(name); suggestion != "" {
		return Network{}, looperr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", suggestion))
	}
	return Network{}, looperr.WithSuggestion(err,
		"configured networks: "+strings.Join(c.NetworkNames(), ", "))
}

// Active returns the network selected by override, or the default network
// when override is empty.
func (c *Config) Active(override string) (Network, error) {
	if override != "" {
		return c.Lookup(override)
	}
	return c.Lookup(c.DefaultNetwork)
}

func (c *Config) closestNetwork(name string) string {
	best := ""
	bestDist := 3 // suggestions further away than two edits are noise
	for _, candidate := range c.NetworkNames() {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// Token resolves a token by symbol (case-insensitive) or contract address.
func (n Network) Token(ref string) (Token, error) {
	for _, t := range n.Tokens {
		if strings.EqualFold(t.Symbol, ref) || strings.EqualFold(t.Address, ref) {
			return t, nil
		}
	}
	return Token{}, looperr.WithDetails(looperr.ErrTokenNotFound, map[string]string{
		"network": n.Name,
		"token":   ref,
	})
}

// Validate checks the configuration for values no client can work with.
func (c *Config) Validate() error {
	if len(c.Networks) == 0 {
		return invalid("networks", "at least one network is required")
	}
	if _, ok := c.Networks[c.DefaultNetwork]; !ok {
		return invalid("default_network", fmt.Sprintf("%q is not a configured network", c.DefaultNetwork))
	}

	seen := make(map[int64]string, len(c.Networks))
	for _, name := range c.NetworkNames() {
		n := c.Networks[name]
		if err := n.validate(name); err != nil {
			return err
		}
		if other, dup := seen[n.ChainID]; dup {
			return invalid("networks."+name+".chain_id",
				fmt.Sprintf("chain id %d already used by %s", n.ChainID, other))
		}
		seen[n.ChainID] = name
	}

	switch c.Output.DefaultFormat {
	case "", "auto", "text", "json":
	default:
		return invalid("output.default_format", c.Output.DefaultFormat)
	}

	if c.RPC.Timeout < 0 {
		return invalid("rpc.timeout", "must not be negative")
	}
	return nil
}

func (n Network) validate(name string) error {
	field := "networks." + name
	if n.RPCURL == "" {
		return invalid(field+".rpc_url", "required")
	}
	u, err := url.Parse(n.RPCURL)
	if err != nil || u.Host == "" {
		return invalid(field+".rpc_url", n.RPCURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return invalid(field+".rpc_url", "unsupported scheme "+u.Scheme)
	}
	if n.ChainID <= 0 {
		return invalid(field+".chain_id", "must be positive")
	}
	if n.Decimals < 0 || n.Decimals > maxDecimals {
		return invalid(field+".decimals", fmt.Sprintf("%d out of range", n.Decimals))
	}
	for i, t := range n.Tokens {
		tf := fmt.Sprintf("%s.tokens[%d]", field, i)
		if t.Symbol == "" {
			return invalid(tf+".symbol", "required")
		}
		if !common.IsHexAddress(t.Address) {
			return invalid(tf+".address", t.Address)
		}
		if t.Decimals < 0 || t.Decimals > maxDecimals {
			return invalid(tf+".decimals", fmt.Sprintf("%d out of range", t.Decimals))
		}
	}
	return nil
}

func invalid(field, reason string) error {
	return looperr.WithDetails(looperr.ErrConfigInvalid, map[string]string{
		"field":  field,
		"reason": reason,
	})
}
