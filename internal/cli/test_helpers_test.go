package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	devKey      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	devAddress1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	testKeyEnv        = "LOOPCHAIN_TEST_KEY"
	testPassphraseEnv = "LOOPCHAIN_TEST_PASSPHRASE"
	testTokenAddress  = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

	oneAndAHalfEther = "0x14d1120d7b160000" // 1.5 * 10^18
)

// testNode is a minimal JSON-RPC node serving a Hardhat-like chain.
type testNode struct {
	*httptest.Server

	mu       sync.Mutex
	chainID  string
	balances map[string]string // lowercase address -> hex wei
	token    string            // hex balanceOf result
	calls    map[string]int
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()

	node := &testNode{
		chainID:  "0x539",
		balances: map[string]string{strings.ToLower(devAddress0): oneAndAHalfEther},
		token:    "0x" + fmt.Sprintf("%064x", 2500000),
		calls:    make(map[string]int),
	}
	node.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params []any           `json:"params"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := node.answer(req.Method, req.Params); ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(node.Close)
	return node
}

func (n *testNode) answer(method string, params []any) (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[method]++

	switch method {
	case "eth_chainId":
		return n.chainID, true
	case "eth_blockNumber":
		return "0x10", true
	case "eth_getBalance":
		address, _ := params[0].(string)
		if balance, ok := n.balances[strings.ToLower(address)]; ok {
			return balance, true
		}
		return "0x0", true
	case "eth_call":
		return n.token, true
	case "eth_getTransactionCount":
		return "0x0", true
	case "eth_gasPrice":
		return "0x3b9aca00", true
	case "eth_estimateGas":
		return "0x5208", true
	case "eth_sendRawTransaction":
		return "0x" + strings.Repeat("ab", 32), true
	default:
		return nil, false
	}
}

func (n *testNode) setChainID(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chainID = id
}

func (n *testNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// deadURL returns the URL of a server that is already closed.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

// testEnv prepares a home directory whose config points hardhat at rpcURL
// and every other default network at deadURL. It returns the home path.
func testEnv(t *testing.T, rpcURL, deadURL string) string {
	t.Helper()

	home := t.TempDir()
	data := fmt.Sprintf(`default_network: hardhat
networks:
  hardhat:
    chain_id: 1337
    rpc_url: %[1]s
    symbol: ETH
    decimals: 18
    credential:
      private_key_env: %[3]s
      passphrase_env: %[4]s
    tokens:
      - symbol: TST
        address: "%[5]s"
        decimals: 6
  alfajores:
    chain_id: 44787
    rpc_url: %[2]s
    symbol: CELO
    decimals: 18
    faucet_url: https://faucet.celo.org
  sepolia:
    chain_id: 11142220
    rpc_url: %[2]s
    symbol: CELO
    decimals: 18
  celo:
    chain_id: 42220
    rpc_url: %[2]s
    symbol: CELO
    decimals: 18
rpc:
  timeout: 2s
  max_attempts: 1
output:
  color: never
logging:
  level: "off"
`, rpcURL, deadURL, testKeyEnv, testPassphraseEnv, testTokenAddress)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(data), 0o600))

	t.Setenv("LOOPCHAIN_HOME", home)
	t.Setenv("LOOPCHAIN_NETWORK", "")
	t.Setenv("LOOPCHAIN_OUTPUT_FORMAT", "")
	t.Setenv(testKeyEnv, "")
	t.Setenv(testPassphraseEnv, "")
	return home
}

// resetCLI restores flag values and global state between command runs.
func resetCLI() {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
		for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					_ = sv.Replace(nil)
				} else {
					_ = f.Value.Set(f.DefValue)
				}
				f.Changed = false
			})
		}
	})
	cfg, cfgPath, env, logger, formatter = nil, "", nil, nil, nil
}

// runCLI executes the root command with args and returns what it wrote to
// stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCLI()
	t.Cleanup(resetCLI)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := run()
	return stdout.String(), stderr.String(), err
}

// decodeJSON unmarshals command output into v.
func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

// withMockPassphrase replaces the passphrase prompt and restores it on cleanup.
func withMockPassphrase(t *testing.T, passphrase string, err error) {
	t.Helper()
	orig := promptNewPassphraseFn
	t.Cleanup(func() { promptNewPassphraseFn = orig })
	promptNewPassphraseFn = func() ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(passphrase), nil
	}
}
