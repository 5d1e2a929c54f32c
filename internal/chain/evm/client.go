// Package evm provides the chain client for EVM-compatible networks
// (Hardhat, Celo and its testnets) on top of go-ethereum's ethclient.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/loopfi/loopchain/internal/chain"
	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/credential"
	"github.com/loopfi/loopchain/internal/metrics"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// ErrRPCURLRequired indicates the network has no RPC URL.
//
//nolint:gochecknoglobals // Sentinel error
var ErrRPCURLRequired = &looperr.LoopError{
	Code:     "RPC_URL_REQUIRED",
	Message:  "RPC URL is required",
	ExitCode: looperr.ExitInput,
}

// Default client settings.
const (
	DefaultTimeout      = config.DefaultRPCTimeout
	DefaultPollInterval = 2 * time.Second
)

// Options contains optional configuration for the client.
type Options struct {
	// Timeout bounds each individual RPC call.
	Timeout time.Duration
	// Retry controls re-attempts of calls that failed to reach the node.
	Retry chain.RetryConfig
	// Limiter throttles calls per RPC URL. Nil disables throttling.
	Limiter *chain.RateLimiter
	// HTTPClient overrides the HTTP client of the underlying RPC connection.
	HTTPClient *http.Client
	// PollInterval is the receipt polling period used by Send with WaitReceipt.
	PollInterval time.Duration
	// Metrics receives one sample per RPC call. Defaults to metrics.Global.
	Metrics *metrics.Metrics
	// Logger receives debug lines per RPC call. Defaults to a null logger.
	Logger *config.Logger
}

// OptionsFromConfig builds client options from the rpc section of the config.
func OptionsFromConfig(cfg config.RPCConfig) *Options {
	retry := chain.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	return &Options{
		Timeout: cfg.Timeout,
		Retry:   retry,
		Limiter: chain.NewRateLimiter(cfg.RateLimit, cfg.Burst),
	}
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Retry.MaxAttempts < 1 {
		out.Retry = chain.DefaultRetryConfig()
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.Metrics == nil {
		out.Metrics = metrics.Global
	}
	if out.Logger == nil {
		out.Logger = config.NullLogger()
	}
	return out
}

// Compile-time interface checks
var (
	_ chain.Reader            = (*Client)(nil)
	_ chain.TransactionSender = (*Client)(nil)
	_ chain.MessageSigner     = (*Client)(nil)
)

// Client is bound to exactly one network. Without a signer it serves
// read-only operations; Send and SignMessage fail with ErrNoCredential.
// All read paths are safe for concurrent use.
type Client struct {
	network config.Network
	signer  *credential.Key
	opts    Options

	mu        sync.Mutex
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a client for network. signer may be nil.
// No connection is made until the first call.
func NewClient(network config.Network, signer *credential.Key, opts *Options) (*Client, error) {
	if network.RPCURL == "" {
		return nil, looperr.WithDetails(ErrRPCURLRequired, map[string]string{"network": network.Name})
	}
	return &Client{
		network: network,
		signer:  signer,
		opts:    opts.withDefaults(),
	}, nil
}

// Network returns the network the client is bound to.
func (c *Client) Network() config.Network {
	return c.network
}

// HasCredential reports whether the client can sign.
func (c *Client) HasCredential() bool {
	return c.signer != nil
}

// Close closes the RPC connection. The client reconnects on next use.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
		c.ethClient = nil
	}
}

// connect establishes the RPC connection if not already connected.
func (c *Client) connect(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ethClient != nil {
		return c.ethClient, nil
	}

	var dialOpts []rpc.ClientOption
	if c.opts.HTTPClient != nil {
		dialOpts = append(dialOpts, rpc.WithHTTPClient(c.opts.HTTPClient))
	}

	rpcClient, err := rpc.DialOptions(ctx, c.network.RPCURL, dialOpts...)
	if err != nil {
		return nil, looperr.WithCause(looperr.ErrNetworkUnreachable, redact(err))
	}

	c.rpcClient = rpcClient
	c.ethClient = ethclient.NewClient(rpcClient)
	return c.ethClient, nil
}

// call runs one JSON-RPC operation with rate limiting, a per-attempt
// timeout, retry, error classification and metrics.
func call[T any](ctx context.Context, c *Client, method string, fn func(ctx context.Context, ec *ethclient.Client) (T, error)) (T, error) {
	return chain.RetryWithConfig(ctx, c.opts.Retry, func() (T, error) {
		return attempt(ctx, c, method, fn)
	})
}

// attempt runs fn exactly once. Operations that must not be repeated, such
// as broadcasting a signed transaction, use it directly instead of call.
func attempt[T any](ctx context.Context, c *Client, method string, fn func(ctx context.Context, ec *ethclient.Client) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx, c.network.RPCURL); err != nil {
			return zero, err
		}
	}

	ec, err := c.connect(ctx)
	if err != nil {
		return zero, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(callCtx, ec)
	elapsed := time.Since(start)
	err = classify(redact(err))

	c.opts.Metrics.RecordRPCCall(c.network.Name, method, elapsed, err)
	if err != nil {
		c.opts.Logger.Debug("rpc %s %s failed after %s: %v", c.network.Name, method, elapsed, err)
		return zero, err
	}
	c.opts.Logger.Debug("rpc %s %s ok in %s", c.network.Name, method, elapsed)
	return result, nil
}

// redactedError hides URLs in the text of err; errors.Is and errors.As still
// see err.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// redact strips API keys from RPC URLs quoted in err; net/http puts the
// full request URL in transport errors.
func redact(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	shown := config.RedactURLs(msg)
	if shown == msg {
		return err
	}
	return &redactedError{msg: shown, err: err}
}

// classify maps a go-ethereum error onto the loopchain taxonomy: the node
// never answered (ErrNetworkUnreachable) versus the node answered with an
// error (ErrRPC). Caller cancellation passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var le *looperr.LoopError
	if errors.As(err, &le) || errors.Is(err, context.Canceled) {
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return looperr.WithDetails(looperr.WithCause(looperr.ErrRPC, err), map[string]string{
			"rpc_code": fmt.Sprintf("%d", rpcErr.ErrorCode()),
		})
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return looperr.WithDetails(looperr.WithCause(looperr.ErrNetworkUnreachable, err), map[string]string{
			"http_status": fmt.Sprintf("%d", httpErr.StatusCode),
		})
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return looperr.WithCause(looperr.ErrNetworkUnreachable, err)
	}

	// The node answered with something that is not a valid response.
	return looperr.WithCause(looperr.ErrRPC, err)
}

// RemoteChainID asks the node for its chain id.
func (c *Client) RemoteChainID(ctx context.Context) (*big.Int, error) {
	return call(ctx, c, "eth_chainId", func(ctx context.Context, ec *ethclient.Client) (*big.Int, error) {
		return ec.ChainID(ctx)
	})
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return call(ctx, c, "eth_blockNumber", func(ctx context.Context, ec *ethclient.Client) (uint64, error) {
		return ec.BlockNumber(ctx)
	})
}

// VerifyChainID fails with ErrChainIDMismatch when the node serves a
// different chain than the network is configured for.
func (c *Client) VerifyChainID(ctx context.Context) error {
	remote, err := c.RemoteChainID(ctx)
	if err != nil {
		return err
	}
	if remote.Cmp(big.NewInt(c.network.ChainID)) != 0 {
		return looperr.WithDetails(looperr.ErrChainIDMismatch, map[string]string{
			"network":    c.network.Name,
			"configured": fmt.Sprintf("%d", c.network.ChainID),
			"remote":     remote.String(),
		})
	}
	return nil
}

// FormatBalance renders a native-unit amount of this network.
func (c *Client) FormatBalance(raw *big.Int) string {
	return chain.FormatBalance(raw, c.network.Decimals)
}

// IsZero reports whether raw is zero.
func (c *Client) IsZero(raw *big.Int) bool {
	return chain.IsZero(raw)
}
