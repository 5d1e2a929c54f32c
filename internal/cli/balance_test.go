package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopfi/loopchain/internal/service/balance"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

func TestBalance_ActiveAccount(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))
	t.Setenv(testKeyEnv, "0x"+devKey)

	stdout, _, err := runCLI(t, "balance", "-o", "json")
	require.NoError(t, err)

	var report balance.Report
	decodeJSON(t, stdout, &report)
	assert.Equal(t, "hardhat", report.Network)
	assert.Equal(t, int64(1337), report.ChainID)
	assert.Equal(t, devAddress0, report.Address)
	assert.Equal(t, balance.StatusFunded, report.Status)
	require.NotNil(t, report.Balance)
	assert.Equal(t, "1.5", report.Balance.Formatted)
	assert.Equal(t, "ETH", report.Balance.Symbol)
}

func TestBalance_Text(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	stdout, _, err := runCLI(t, "balance", devAddress0, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hardhat (chain 1337)")
	assert.Contains(t, stdout, "Address: "+devAddress0)
	assert.Contains(t, stdout, "Balance: 1.5 ETH")
	assert.Contains(t, stdout, "Status:  funded")
}

func TestBalance_NoCredential(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	_, _, err := runCLI(t, "balance", "-o", "json")
	require.ErrorIs(t, err, looperr.ErrNoCredential)
	assert.Equal(t, looperr.ExitAuth, ExitCode(err))
	assert.Zero(t, node.count("eth_getBalance"), "no network call without a credential")
}

func TestBalance_ExplicitAddressWithoutCredential(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	stdout, _, err := runCLI(t, "balance", devAddress1, "-o", "json")
	require.NoError(t, err)

	var report balance.Report
	decodeJSON(t, stdout, &report)
	assert.Equal(t, balance.StatusEmpty, report.Status)
	assert.Equal(t, "0", report.Balance.Formatted)
}

func TestBalance_RequireFunds(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	_, _, err := runCLI(t, "balance", devAddress1, "--require-funds", "-o", "json")
	require.ErrorIs(t, err, looperr.ErrInsufficientFunds)
	assert.Equal(t, looperr.ExitInsufficient, ExitCode(err))

	_, _, err = runCLI(t, "balance", devAddress0, "--require-funds", "-o", "json")
	require.NoError(t, err)
}

func TestBalance_InvalidAddress(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	_, _, err := runCLI(t, "balance", "0x1234", "-o", "json")
	require.ErrorIs(t, err, looperr.ErrInvalidAddress)
	assert.Equal(t, looperr.ExitInput, ExitCode(err))
}

func TestBalance_Unreachable(t *testing.T) {
	testEnv(t, deadURL(t), deadURL(t))

	_, _, err := runCLI(t, "balance", devAddress0, "-o", "json")
	require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
	assert.Equal(t, looperr.ExitNetwork, ExitCode(err))
}

func TestBalance_UnknownNetwork(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	_, _, err := runCLI(t, "balance", devAddress0, "--network", "hardhta")
	require.ErrorIs(t, err, looperr.ErrNetworkNotFound)

	var loopErr *looperr.LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Contains(t, loopErr.Suggestion, `"hardhat"`)
}

func TestBalance_Tokens(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	stdout, _, err := runCLI(t, "balance", devAddress0, "--tokens", "-o", "json")
	require.NoError(t, err)

	var report balance.Report
	decodeJSON(t, stdout, &report)
	require.Len(t, report.Tokens, 1)
	assert.Equal(t, "TST", report.Tokens[0].Symbol)
	assert.Equal(t, "2.5", report.Tokens[0].Formatted)
	assert.Equal(t, 1, node.count("eth_call"))
}

func TestBalance_AllPartialOutage(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	stdout, _, err := runCLI(t, "balance", devAddress0, "--all", "-o", "json")
	require.NoError(t, err, "one reachable network is enough")

	var resp BalanceAllResponse
	decodeJSON(t, stdout, &resp)
	require.Len(t, resp.Reports, 4)
	assert.Equal(t, []string{"alfajores", "celo", "hardhat", "sepolia"}, []string{
		resp.Reports[0].Network, resp.Reports[1].Network, resp.Reports[2].Network, resp.Reports[3].Network,
	})
	assert.Equal(t, balance.StatusFunded, resp.Reports[2].Status)
	assert.Equal(t, balance.StatusError, resp.Reports[0].Status)
	assert.NotEmpty(t, resp.Reports[0].Error)
	assert.Equal(t, balance.Summary{Funded: 1, Failed: 3}, resp.Summary)
}

func TestBalance_AllText(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	stdout, _, err := runCLI(t, "balance", devAddress0, "--all", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NETWORK")
	assert.Contains(t, stdout, "0xf39F…2266")
	assert.Contains(t, stdout, "1 funded, 0 empty, 3 failed")
}

func TestBalance_AllFailed(t *testing.T) {
	dead := deadURL(t)
	testEnv(t, dead, dead)

	_, _, err := runCLI(t, "balance", devAddress0, "--all", "-o", "json")
	require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
}
