package config

import "time"

// Default network identifiers.
const (
	NetworkHardhat   = "hardhat"
	NetworkAlfajores = "alfajores"
	NetworkSepolia   = "sepolia"
	NetworkCelo      = "celo"
)

// DefaultPrivateKeyEnv is the environment variable every default network reads its key from.
const DefaultPrivateKeyEnv = "PRIVATE_KEY" // #nosec G101 -- variable name, not a credential

// DefaultPassphraseEnv holds the passphrase of an age-encrypted key file.
const DefaultPassphraseEnv = "LOOPCHAIN_KEY_PASSPHRASE" // #nosec G101 -- variable name, not a credential

// CeloFaucetURL is where testnet accounts are funded.
const CeloFaucetURL = "https://faucet.celo.org"

// cUSD stable token contracts.
const (
	AlfajoresCUSDAddress = "0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1"
	CeloCUSDAddress      = "0x765DE816845861e75A25fCA122bb6898B8B1282a"
)

// DefaultRPCTimeout bounds every individual RPC call.
const DefaultRPCTimeout = 15 * time.Second

func defaultCredential() CredentialRef {
	return CredentialRef{
		PrivateKeyEnv: DefaultPrivateKeyEnv,
		PassphraseEnv: DefaultPassphraseEnv,
	}
}

// DefaultNetworks returns the built-in network table.
func DefaultNetworks() map[string]Network {
	return map[string]Network{
		NetworkHardhat: {
			Name:       NetworkHardhat,
			ChainID:    1337,
			RPCURL:     "http://127.0.0.1:8545",
			Symbol:     "ETH",
			Decimals:   18,
			Credential: defaultCredential(),
		},
		NetworkAlfajores: {
			Name:        NetworkAlfajores,
			ChainID:     44787,
			RPCURL:      "https://alfajores-forno.celo-testnet.org",
			Symbol:      "CELO",
			Decimals:    18,
			FaucetURL:   CeloFaucetURL,
			ExplorerURL: "https://alfajores.celoscan.io",
			Credential:  defaultCredential(),
			Tokens: []Token{
				{Symbol: "cUSD", Address: AlfajoresCUSDAddress, Decimals: 18},
			},
		},
		NetworkSepolia: {
			Name:        NetworkSepolia,
			ChainID:     11142220,
			RPCURL:      "https://forno.celo-sepolia.celo-testnet.org",
			Symbol:      "CELO",
			Decimals:    18,
			FaucetURL:   CeloFaucetURL,
			ExplorerURL: "https://celo-sepolia.blockscout.com",
			Credential:  defaultCredential(),
		},
		NetworkCelo: {
			Name:        NetworkCelo,
			ChainID:     42220,
			RPCURL:      "https://forno.celo.org",
			Symbol:      "CELO",
			Decimals:    18,
			ExplorerURL: "https://celoscan.io",
			Credential:  defaultCredential(),
			Tokens: []Token{
				{Symbol: "cUSD", Address: CeloCUSDAddress, Decimals: 18},
			},
		},
	}
}

// DefaultCompilers mirrors the contract project's solc settings.
func DefaultCompilers() []CompilerConfig {
	return []CompilerConfig{
		{Version: "0.8.19", Optimizer: OptimizerConfig{Enabled: true, Runs: 200}, ViaIR: true},
		{Version: "0.8.20", Optimizer: OptimizerConfig{Enabled: true, Runs: 200}, ViaIR: true},
	}
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version:        1,
		Home:           "~/.loopchain",
		DefaultNetwork: NetworkAlfajores,
		Networks:       DefaultNetworks(),
		RPC: RPCConfig{
			Timeout:     DefaultRPCTimeout,
			MaxAttempts: 1,
			RateLimit:   10,
			Burst:       5,
		},
		Solidity: SolidityConfig{
			Compilers: DefaultCompilers(),
		},
		Security: SecurityConfig{
			MemoryLock: true,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
		},
	}
}
