package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/loopfi/loopchain/internal/chain"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// ResolveActiveAccount returns the account the client signs for. It makes
// no network call and fails with ErrNoCredential when no key is configured.
func (c *Client) ResolveActiveAccount() (*chain.Account, error) {
	if c.signer == nil {
		return nil, looperr.WithDetails(looperr.ErrNoCredential, map[string]string{
			"network": c.network.Name,
		})
	}
	return &chain.Account{
		Address: c.signer.Address().Hex(),
		Network: c.network.Name,
		ChainID: c.network.ChainID,
	}, nil
}

// GetBalance returns the native-unit balance of address at the latest block.
// It needs no credential.
func (c *Client) GetBalance(ctx context.Context, address string) (*chain.BalanceResult, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	addr := common.HexToAddress(address)
	raw, err := call(ctx, c, "eth_getBalance", func(ctx context.Context, ec *ethclient.Client) (*big.Int, error) {
		return ec.BalanceAt(ctx, addr, nil)
	})
	if err != nil {
		return nil, looperr.Wrap(err, "getting balance on %s", c.network.Name)
	}

	return chain.NewBalanceResult(addr.Hex(), raw, c.network.Symbol, c.network.Decimals), nil
}

// GetActiveBalance returns the balance of the active account.
func (c *Client) GetActiveBalance(ctx context.Context) (*chain.BalanceResult, error) {
	account, err := c.ResolveActiveAccount()
	if err != nil {
		return nil, err
	}
	return c.GetBalance(ctx, account.Address)
}
