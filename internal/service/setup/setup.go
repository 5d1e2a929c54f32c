// Package setup reports how far an operator is from a working deployment
// environment: the config file, the dotenv files that were read, the
// credential each network names and whether it can be loaded, and what to
// do next. Secret values never enter the report; only whether they are set.
package setup

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/credential"
)

// Variable purposes.
const (
	PurposePrivateKey = "private key"
	PurposeMnemonic   = "mnemonic"
	PurposePassphrase = "key file passphrase"
)

// Options holds the inputs of an inspection.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Env        *config.Env
	// Exists reports whether a file exists. Defaults to os.Stat.
	Exists func(path string) bool
	Logger *config.Logger
}

// Variable is one environment variable a network credential names.
type Variable struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	Set     bool   `json:"set"`
}

// Network is the setup state of one network.
type Network struct {
	Name          string          `json:"name"`
	ChainID       int64           `json:"chain_id"`
	RPCURL        string          `json:"rpc_url"`
	ExplorerURL   string          `json:"explorer_url,omitempty"`
	FaucetURL     string          `json:"faucet_url,omitempty"`
	Default       bool            `json:"default"`
	Credential    credential.Kind `json:"credential"`
	Variables     []Variable      `json:"variables,omitempty"`
	KeyFile       string          `json:"key_file,omitempty"`
	KeyFileExists bool            `json:"key_file_exists,omitempty"`
	// Ready is true when a signing credential would load without prompting
	// for anything but a key file passphrase.
	Ready bool `json:"ready"`
}

// Report is the result of Inspect.
type Report struct {
	ConfigFile     string    `json:"config_file"`
	ConfigExists   bool      `json:"config_exists"`
	EnvFiles       []string  `json:"env_files"`
	DefaultNetwork string    `json:"default_network"`
	Networks       []Network `json:"networks"`
	NextSteps      []string  `json:"next_steps"`
}

// DefaultNetworkReady reports whether the default network can sign.
func (r *Report) DefaultNetworkReady() bool {
	for _, n := range r.Networks {
		if n.Default {
			return n.Ready
		}
	}
	return false
}

// Inspect builds a setup report. It makes no network calls and never
// decrypts key files.
func Inspect(opts Options) *Report {
	exists := opts.Exists
	if exists == nil {
		exists = fileExists
	}
	logger := opts.Logger
	if logger == nil {
		logger = config.NullLogger()
	}

	cfg := opts.Config
	report := &Report{
		ConfigFile:     opts.ConfigPath,
		ConfigExists:   opts.ConfigPath != "" && exists(opts.ConfigPath),
		EnvFiles:       []string{},
		DefaultNetwork: cfg.DefaultNetwork,
	}
	if opts.Env != nil && len(opts.Env.Files) > 0 {
		report.EnvFiles = append(report.EnvFiles, opts.Env.Files...)
	}

	for _, name := range cfg.NetworkNames() {
		n := inspectNetwork(name, cfg.Networks[name], opts.Env, exists)
		n.Default = name == cfg.DefaultNetwork
		report.Networks = append(report.Networks, n)
		logger.Debug("setup %s: credential %s ready=%t", name, n.Credential, n.Ready)
	}

	report.NextSteps = nextSteps(report)
	return report
}

func inspectNetwork(name string, n config.Network, env *config.Env, exists func(string) bool) Network {
	out := Network{
		Name:        name,
		ChainID:     n.ChainID,
		RPCURL:      config.RedactURL(n.RPCURL),
		ExplorerURL: n.ExplorerURL,
		FaucetURL:   n.FaucetURL,
	}

	ref := n.Credential
	for _, v := range []struct{ name, purpose string }{
		{ref.PrivateKeyEnv, PurposePrivateKey},
		{ref.MnemonicEnv, PurposeMnemonic},
		{ref.PassphraseEnv, PurposePassphrase},
	} {
		if v.name == "" {
			continue
		}
		value, _ := env.Lookup(v.name)
		out.Variables = append(out.Variables, Variable{
			Name:    v.name,
			Purpose: v.purpose,
			Set:     strings.TrimSpace(value) != "",
		})
	}

	src := config.ResolveCredential(ref, env.Lookup)
	out.Credential = src.Kind()
	if ref.KeyFile != "" {
		out.KeyFile = src.KeyFile
		out.KeyFileExists = exists(src.KeyFile)
	}

	switch out.Credential {
	case credential.KindPrivateKey, credential.KindMnemonic:
		out.Ready = true
	case credential.KindKeyFile:
		out.Ready = out.KeyFileExists
	}
	return out
}

// nextSteps turns the gaps in report into instructions, most blocking first.
func nextSteps(report *Report) []string {
	var steps []string
	if !report.ConfigExists {
		steps = append(steps, "Run `loopchain config init` to write "+orDefault(report.ConfigFile, "the config file"))
	}

	// Unset variables, each listed once with every network that needs it.
	needed := make(map[string][]string)
	var order []string
	var sealed []string
	for _, n := range report.Networks {
		if n.Ready {
			continue
		}
		if n.KeyFile != "" && !n.KeyFileExists {
			sealed = append(sealed, "Seal a key file for "+n.Name+" with `loopchain account seal --network "+n.Name+" --out "+n.KeyFile+"`")
		}
		for _, v := range n.Variables {
			if v.Set || v.Purpose == PurposePassphrase {
				continue
			}
			if _, ok := needed[v.Name]; !ok {
				order = append(order, v.Name)
			}
			needed[v.Name] = append(needed[v.Name], n.Name)
		}
	}
	sort.Strings(order)
	if len(order) > 0 && len(report.EnvFiles) == 0 {
		steps = append(steps, "Create "+config.DefaultEnvFile+" in the working directory (or pass --env-file) and keep it out of version control")
	}
	for _, name := range order {
		steps = append(steps, "Set "+name+" to sign on "+strings.Join(needed[name], ", "))
	}
	steps = append(steps, sealed...)

	for _, n := range report.Networks {
		if n.Default && n.Credential == credential.KindNone && len(n.Variables) == 0 && n.KeyFile == "" {
			steps = append(steps, "Name a credential for "+n.Name+" in the config: networks."+n.Name+".credential.private_key_env, mnemonic_env or key_file")
		}
		if n.Default && n.Ready && n.FaucetURL != "" {
			steps = append(steps, "Request testnet funds for the address `loopchain account` prints at "+n.FaucetURL)
		}
	}

	steps = append(steps, "Run `loopchain networks check` to confirm every RPC endpoint answers with the configured chain id")
	return steps
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
