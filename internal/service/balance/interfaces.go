package balance

import (
	"context"

	"github.com/loopfi/loopchain/internal/chain"
	"github.com/loopfi/loopchain/internal/config"
)

// Client is the chain access the balance service needs.
// Satisfied by *evm.Client.
type Client interface {
	chain.Reader
	chain.AccountResolver
	GetTokenBalance(ctx context.Context, address string, token config.Token) (*chain.BalanceResult, error)
	Close()
}

// ClientFactory opens a client bound to network. The service closes every
// client it opens.
type ClientFactory interface {
	Open(network config.Network) (Client, error)
}

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc func(network config.Network) (Client, error)

// Open implements ClientFactory.
func (f ClientFactoryFunc) Open(network config.Network) (Client, error) {
	return f(network)
}
