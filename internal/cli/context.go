package cli

import (
	"github.com/loopfi/loopchain/internal/chain/evm"
	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/credential"
	"github.com/loopfi/loopchain/internal/output"
	"github.com/loopfi/loopchain/internal/service/balance"
	"github.com/loopfi/loopchain/internal/service/network"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Env       *config.Env
	Logger    *config.Logger
	Formatter *output.Formatter
	Network   string
}

// newCommandContext captures the globals initialized by initGlobals.
func newCommandContext() *CommandContext {
	return &CommandContext{
		Config:    cfg,
		Env:       env,
		Logger:    logger,
		Formatter: formatter,
		Network:   networkName,
	}
}

// ActiveNetwork returns the network selected with --network, or the
// configured default.
func (c *CommandContext) ActiveNetwork() (config.Network, error) {
	return c.Config.Active(c.Network)
}

// Credential resolves the signing key of n. It returns nil, nil when the
// network has no credential configured.
func (c *CommandContext) Credential(n config.Network) (*credential.Key, error) {
	return credential.Resolve(config.ResolveCredential(n.Credential, c.Env.Lookup))
}

// OpenClient resolves the credential of n and opens a client bound to it.
// Closing the client also destroys the key.
func (c *CommandContext) OpenClient(n config.Network) (*Client, error) {
	key, err := c.Credential(n)
	if err != nil {
		return nil, err
	}

	opts := evm.OptionsFromConfig(c.Config.RPC)
	opts.Logger = c.Logger

	client, err := evm.NewClient(n, key, opts)
	if err != nil {
		if key != nil {
			key.Destroy()
		}
		return nil, err
	}
	return &Client{Client: client, key: key}, nil
}

// BalanceFactory opens clients for the balance service.
func (c *CommandContext) BalanceFactory() balance.ClientFactory {
	return balance.ClientFactoryFunc(func(n config.Network) (balance.Client, error) {
		return c.OpenClient(n)
	})
}

// DiagnoseFactory opens clients for the network diagnostics service.
func (c *CommandContext) DiagnoseFactory() network.ClientFactory {
	return func(n config.Network) (network.Client, error) {
		return c.OpenClient(n)
	}
}

// Client is an evm.Client that owns its signing key.
type Client struct {
	*evm.Client

	key *credential.Key
}

// Close closes the connection and wipes the key from memory.
func (c *Client) Close() {
	c.Client.Close()
	if c.key != nil {
		c.key.Destroy()
	}
}
