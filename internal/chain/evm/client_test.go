package evm_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/loopfi/loopchain/internal/chain"
	"github.com/loopfi/loopchain/internal/chain/evm"
	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/credential"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("creates client without connecting", func(t *testing.T) {
		t.Parallel()
		client, err := evm.NewClient(hardhatNetwork("http://127.0.0.1:1"), nil, nil)
		require.NoError(t, err)
		assert.False(t, client.HasCredential())
		assert.Equal(t, config.NetworkHardhat, client.Network().Name)
	})

	t.Run("returns error for empty URL", func(t *testing.T) {
		t.Parallel()
		_, err := evm.NewClient(hardhatNetwork(""), nil, nil)
		require.ErrorIs(t, err, evm.ErrRPCURLRequired)
		assert.Equal(t, looperr.ExitInput, looperr.ExitCode(err))
	})
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	opts := evm.OptionsFromConfig(config.RPCConfig{Timeout: 3 * time.Second, MaxAttempts: 4, RateLimit: 2, Burst: 1})
	assert.Equal(t, 3*time.Second, opts.Timeout)
	assert.Equal(t, 4, opts.Retry.MaxAttempts)
	require.NotNil(t, opts.Limiter)

	defaults := evm.OptionsFromConfig(config.RPCConfig{})
	assert.Equal(t, 1, defaults.Retry.MaxAttempts)
}

func TestResolveActiveAccount(t *testing.T) {
	t.Parallel()

	t.Run("without credential", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, "http://127.0.0.1:1", false, nil)

		_, err := client.ResolveActiveAccount()
		require.ErrorIs(t, err, looperr.ErrNoCredential)
		assert.Equal(t, looperr.ExitAuth, looperr.ExitCode(err))
	})

	t.Run("with private key", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, "http://127.0.0.1:1", true, nil)

		account, err := client.ResolveActiveAccount()
		require.NoError(t, err)
		assert.Equal(t, devAddress0, account.Address)
		assert.Equal(t, config.NetworkHardhat, account.Network)
		assert.Equal(t, int64(1337), account.ChainID)
	})

	t.Run("with mnemonic index", func(t *testing.T) {
		t.Parallel()
		key, err := credential.FromMnemonic(devMnemonic, 1)
		require.NoError(t, err)
		defer key.Destroy()

		client, err := evm.NewClient(hardhatNetwork("http://127.0.0.1:1"), key, testOptions())
		require.NoError(t, err)

		account, err := client.ResolveActiveAccount()
		require.NoError(t, err)
		assert.Equal(t, devAddress1, account.Address)
	})
}

func TestGetBalance(t *testing.T) {
	t.Parallel()

	t.Run("returns exact balance", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{
			"eth_getBalance": func(params []any) (any, *rpcError) {
				assert.Equal(t, "latest", params[1])
				return "0x14d1120d7b160000", nil // 1.5 * 10^18
			},
		})
		client := newTestClient(t, node.URL, false, nil)

		balance, err := client.GetBalance(context.Background(), devAddress1)
		require.NoError(t, err)
		assert.Equal(t, "1.5", balance.Formatted)
		assert.Equal(t, "1500000000000000000", balance.RawString())
		assert.Equal(t, "ETH", balance.Symbol)
		assert.Equal(t, 18, balance.Decimals)
		assert.Equal(t, devAddress1, balance.Address)
		assert.False(t, balance.IsZero())
	})

	t.Run("zero balance", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{"eth_getBalance": result("0x0")})
		client := newTestClient(t, node.URL, false, nil)

		balance, err := client.GetBalance(context.Background(), devAddress0)
		require.NoError(t, err)
		assert.Equal(t, "0", balance.Formatted)
		assert.True(t, balance.IsZero())
		assert.True(t, client.IsZero(balance.Raw))
	})

	t.Run("works without credential", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{"eth_getBalance": result(oneEtherHex)})
		client := newTestClient(t, node.URL, false, nil)

		_, err := client.ResolveActiveAccount()
		require.ErrorIs(t, err, looperr.ErrNoCredential)

		balance, err := client.GetBalance(context.Background(), devAddress0)
		require.NoError(t, err)
		assert.Equal(t, "1", balance.Formatted)
	})

	t.Run("rejects invalid address without calling node", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{})
		client := newTestClient(t, node.URL, false, nil)

		_, err := client.GetBalance(context.Background(), "0x1234")
		require.ErrorIs(t, err, looperr.ErrInvalidAddress)
		assert.Equal(t, looperr.ExitInput, looperr.ExitCode(err))
		assert.Zero(t, node.count("eth_getBalance"))
	})

	t.Run("active balance", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{"eth_getBalance": result(oneEtherHex)})
		client := newTestClient(t, node.URL, true, nil)

		balance, err := client.GetActiveBalance(context.Background())
		require.NoError(t, err)
		assert.Equal(t, devAddress0, balance.Address)
		assert.Equal(t, "1", balance.Formatted)
	})
}

func TestGetBalance_Concurrent(t *testing.T) {
	t.Parallel()

	// Every address holds as many wei as its own numeric value, so crossed
	// responses show up as wrong balances.
	node := newFakeNode(t, map[string]rpcHandler{
		"eth_getBalance": func(params []any) (any, *rpcError) {
			addr, _ := params[0].(string)
			return hexutil.EncodeBig(common.HexToAddress(addr).Big()), nil
		},
	})
	opts := testOptions()
	client := newTestClient(t, node.URL, false, opts)

	const workers = 32
	var g errgroup.Group
	for i := 1; i <= workers; i++ {
		g.Go(func() error {
			addr := common.BigToAddress(big.NewInt(int64(i)))
			balance, err := client.GetBalance(context.Background(), addr.Hex())
			if err != nil {
				return err
			}
			if balance.Raw.Int64() != int64(i) || balance.Address != addr.Hex() {
				return assert.AnError
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, workers, node.count("eth_getBalance"))
	assert.Equal(t, int64(workers), opts.Metrics.RPCCallsTotal())
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("HTTP failure is unreachable", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, false, nil)

		_, err := client.GetBalance(context.Background(), devAddress0)
		require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
		assert.Equal(t, looperr.ExitNetwork, looperr.ExitCode(err))
	})

	t.Run("closed server is unreachable", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()
		client := newTestClient(t, url, false, nil)

		_, err := client.GetBalance(context.Background(), devAddress0)
		require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
	})

	t.Run("timeout is unreachable", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		opts := testOptions()
		opts.Timeout = 50 * time.Millisecond
		client := newTestClient(t, server.URL, false, opts)

		_, err := client.GetBalance(context.Background(), devAddress0)
		require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
	})

	t.Run("JSON-RPC error is an RPC error", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{
			"eth_getBalance": func([]any) (any, *rpcError) {
				return nil, &rpcError{Code: -32000, Message: "header not found"}
			},
		})
		client := newTestClient(t, node.URL, false, nil)

		_, err := client.GetBalance(context.Background(), devAddress0)
		require.ErrorIs(t, err, looperr.ErrRPC)
		require.NotErrorIs(t, err, looperr.ErrNetworkUnreachable)

		var le *looperr.LoopError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "-32000", le.Details["rpc_code"])
	})

	t.Run("canceled context is not reclassified", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{"eth_getBalance": result(oneEtherHex)})
		client := newTestClient(t, node.URL, false, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.GetBalance(ctx, devAddress0)
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, looperr.ErrNetworkUnreachable)
	})
}

func TestErrorsHideRPCSecrets(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := newTestClient(t, server.URL+"/v3/secret-api-key", false, nil)

	_, err := client.GetBalance(context.Background(), devAddress0)
	require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
	assert.NotContains(t, err.Error(), "secret-api-key")
	assert.Contains(t, err.Error(), server.URL+"/…")

	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr, "the transport error stays in the chain")
}

func TestRetry(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var req map[string]any
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req["id"],
			"result":  oneEtherHex,
		}))
	}))
	defer server.Close()

	opts := testOptions()
	opts.Retry = chain.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	client := newTestClient(t, server.URL, false, opts)

	balance, err := client.GetBalance(context.Background(), devAddress0)
	require.NoError(t, err)
	assert.Equal(t, "1", balance.Formatted)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRPCErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	node := newFakeNode(t, map[string]rpcHandler{
		"eth_getBalance": func([]any) (any, *rpcError) {
			return nil, &rpcError{Code: -32602, Message: "invalid params"}
		},
	})
	opts := testOptions()
	opts.Retry = chain.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	client := newTestClient(t, node.URL, false, opts)

	_, err := client.GetBalance(context.Background(), devAddress0)
	require.ErrorIs(t, err, looperr.ErrRPC)
	assert.Equal(t, 1, node.count("eth_getBalance"))
}

func TestMetricsRecorded(t *testing.T) {
	t.Parallel()

	node := newFakeNode(t, map[string]rpcHandler{"eth_getBalance": result(oneEtherHex)})
	opts := testOptions()
	client := newTestClient(t, node.URL, false, opts)

	_, err := client.GetBalance(context.Background(), devAddress0)
	require.NoError(t, err)
	_, err = client.GetBalance(context.Background(), "0x0000000000000000000000000000000000000000")
	require.NoError(t, err)

	assert.Equal(t, int64(2), opts.Metrics.RPCCallsTotal())
	assert.Equal(t, int64(0), opts.Metrics.RPCErrorsTotal())
}

func TestVerifyChainID(t *testing.T) {
	t.Parallel()

	t.Run("matching", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{"eth_chainId": result(hardhatID)})
		client := newTestClient(t, node.URL, false, nil)
		require.NoError(t, client.VerifyChainID(context.Background()))
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()
		node := newFakeNode(t, map[string]rpcHandler{"eth_chainId": result("0xaef3")}) // 44787
		client := newTestClient(t, node.URL, false, nil)

		err := client.VerifyChainID(context.Background())
		require.ErrorIs(t, err, looperr.ErrChainIDMismatch)

		var le *looperr.LoopError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "1337", le.Details["configured"])
		assert.Equal(t, "44787", le.Details["remote"])
	})
}

func TestBlockNumber(t *testing.T) {
	t.Parallel()

	node := newFakeNode(t, map[string]rpcHandler{"eth_blockNumber": result("0x10")})
	client := newTestClient(t, node.URL, false, nil)

	n, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)
}

func TestClientFormatBalance(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:1", false, nil)
	raw, ok := new(big.Int).SetString("123456789000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "123.456789", client.FormatBalance(raw))
	assert.Equal(t, "0", client.FormatBalance(nil))
}
