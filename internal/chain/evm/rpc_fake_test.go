package evm_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopfi/loopchain/internal/chain"
	"github.com/loopfi/loopchain/internal/chain/evm"
	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/credential"
	"github.com/loopfi/loopchain/internal/metrics"
)

const (
	devMnemonic = "test test test test test test test test test test test junk"
	devKey      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	devAddress1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	oneEtherHex = "0xde0b6b3a7640000" // 10^18
	hardhatID   = "0x539"             // 1337
)

// rpcError is a JSON-RPC error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcHandler answers one JSON-RPC method. Returning a non-nil *rpcError
// sends an error response instead of a result.
type rpcHandler func(params []any) (any, *rpcError)

// fakeNode is a minimal JSON-RPC node backed by httptest.
type fakeNode struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
}

func newFakeNode(t *testing.T, handlers map[string]rpcHandler) *fakeNode {
	t.Helper()

	node := &fakeNode{handlers: handlers, calls: make(map[string]int)}
	node.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params []any           `json:"params"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}

		node.mu.Lock()
		node.calls[req.Method]++
		handler, ok := node.handlers[req.Method]
		node.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if !ok {
			resp["error"] = rpcError{Code: -32601, Message: "method not found: " + req.Method}
		} else if result, rpcErr := handler(req.Params); rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(node.Close)
	return node
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// result returns a handler that always answers with v.
func result(v any) rpcHandler {
	return func([]any) (any, *rpcError) { return v, nil }
}

// hardhatNetwork returns the hardhat network pointed at url.
func hardhatNetwork(url string) config.Network {
	network := config.DefaultNetworks()[config.NetworkHardhat]
	network.Name = config.NetworkHardhat
	network.RPCURL = url
	return network
}

// testOptions returns fast client options with a private metrics registry.
func testOptions() *evm.Options {
	return &evm.Options{
		Timeout:      2 * time.Second,
		Retry:        chain.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		PollInterval: 10 * time.Millisecond,
		Metrics:      metrics.New(),
	}
}

// newTestClient builds a client for node, signing with the dev key when signed is true.
func newTestClient(t *testing.T, url string, signed bool, opts *evm.Options) *evm.Client {
	t.Helper()

	var key *credential.Key
	if signed {
		var err error
		key, err = credential.FromHex(devKey)
		require.NoError(t, err)
		t.Cleanup(key.Destroy)
	}
	if opts == nil {
		opts = testOptions()
	}

	client, err := evm.NewClient(hardhatNetwork(url), key, opts)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}
