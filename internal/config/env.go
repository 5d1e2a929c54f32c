package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/loopfi/loopchain/internal/credential"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// Environment variable names.
const (
	EnvHome         = "LOOPCHAIN_HOME"
	EnvNetwork      = "LOOPCHAIN_NETWORK"
	EnvOutputFormat = "LOOPCHAIN_OUTPUT_FORMAT"
	EnvVerbose      = "LOOPCHAIN_VERBOSE"
	EnvLogLevel     = "LOOPCHAIN_LOG_LEVEL"
	EnvRPCTimeout   = "LOOPCHAIN_RPC_TIMEOUT"
	EnvMaxAttempts  = "LOOPCHAIN_RPC_MAX_ATTEMPTS"
	EnvSepoliaRPC   = "SEPOLIA_RPC_URL"
	EnvNoColor      = "NO_COLOR"
)

// DefaultEnvFile is read when no explicit env file is given. Its absence is not an error.
const DefaultEnvFile = ".env"

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// MapLookup returns a LookupFunc backed by a map.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Env is a snapshot of the process environment, taken once at startup.
// Everything below the CLI reads configuration from here, never from os.Getenv.
type Env struct {
	Home          string        `env:"LOOPCHAIN_HOME"`
	Network       string        `env:"LOOPCHAIN_NETWORK"`
	OutputFormat  string        `env:"LOOPCHAIN_OUTPUT_FORMAT"`
	Verbose       string        `env:"LOOPCHAIN_VERBOSE"`
	LogLevel      string        `env:"LOOPCHAIN_LOG_LEVEL"`
	RPCTimeout    time.Duration `env:"LOOPCHAIN_RPC_TIMEOUT"`
	MaxAttempts   int           `env:"LOOPCHAIN_RPC_MAX_ATTEMPTS"`
	SepoliaRPCURL string        `env:"SEPOLIA_RPC_URL"`
	NoColor       bool

	// Files lists the dotenv files that were read, in load order.
	Files []string

	lookup LookupFunc
}

// NewEnv returns an Env whose secret lookups go through lookup.
// The typed fields are left for the caller to fill.
func NewEnv(lookup LookupFunc) *Env {
	e := &Env{lookup: lookup}
	_, e.NoColor = e.Lookup(EnvNoColor)
	return e
}

// Lookup resolves an arbitrary variable, such as the one a CredentialRef names.
func (e *Env) Lookup(key string) (string, bool) {
	if e == nil || e.lookup == nil || key == "" {
		return "", false
	}
	return e.lookup(key)
}

// LoadEnvironment reads env files into the process environment and decodes
// the result. Variables already set in the process win over file values.
// With no files, DefaultEnvFile is tried and silently skipped when missing.
func LoadEnvironment(files ...string) (*Env, error) {
	var loaded []string
	if len(files) == 0 {
		err := godotenv.Load(DefaultEnvFile)
		switch {
		case err == nil:
			loaded = []string{DefaultEnvFile}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	} else {
		if err := godotenv.Load(files...); err != nil {
			return nil, err
		}
		loaded = files
	}

	env := NewEnv(os.LookupEnv)
	env.Files = loaded
	if err := envdecode.Decode(env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, looperr.WithCause(looperr.ErrConfigInvalid, err)
	}
	return env, nil
}

// ApplyEnvironment applies environment overrides to the configuration.
func ApplyEnvironment(cfg *Config, env *Env) {
	if env == nil {
		return
	}

	if env.Home != "" {
		cfg.Home = env.Home
	}

	if env.Network != "" {
		cfg.DefaultNetwork = strings.ToLower(strings.TrimSpace(env.Network))
	}

	if env.SepoliaRPCURL != "" {
		if n, ok := cfg.Networks[NetworkSepolia]; ok {
			n.RPCURL = SanitizeURL(env.SepoliaRPCURL)
			cfg.Networks[NetworkSepolia] = n
		}
	}

	if env.OutputFormat != "" {
		cfg.Output.DefaultFormat = strings.ToLower(env.OutputFormat)
	}

	if env.Verbose != "" {
		cfg.Output.Verbose = parseBool(env.Verbose)
	}

	if env.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(env.LogLevel)
	}

	if env.RPCTimeout > 0 {
		cfg.RPC.Timeout = env.RPCTimeout
	}

	if env.MaxAttempts > 0 {
		cfg.RPC.MaxAttempts = env.MaxAttempts
	}

	// NO_COLOR disables colored output
	if env.NoColor {
		cfg.Output.Color = "never"
	}
}

// ResolveCredential turns a reference into a credential source by reading
// the variables it names. Unset variables leave the matching field empty,
// so a network with nothing set resolves to an empty (read-only) source.
func ResolveCredential(ref CredentialRef, lookup LookupFunc) credential.Source {
	get := func(key string) string {
		if key == "" || lookup == nil {
			return ""
		}
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	src := credential.Source{
		PrivateKey:    get(ref.PrivateKeyEnv),
		Mnemonic:      get(ref.MnemonicEnv),
		MnemonicIndex: ref.MnemonicIndex,
	}
	if ref.KeyFile != "" {
		src.KeyFile = ExpandHome(ref.KeyFile)
		src.Passphrase = get(ref.PassphraseEnv)
	}
	return src
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL trims whitespace and copy-paste artifacts such as quotes from an RPC URL.
func SanitizeURL(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"'<>`)
}
