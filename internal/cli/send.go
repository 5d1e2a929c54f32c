package cli

import (
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/chain"
	"github.com/loopfi/loopchain/internal/chain/evm"
	"github.com/loopfi/loopchain/internal/config"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	sendTo       string
	sendAmount   string
	sendToken    string
	sendWait     bool
	sendGasLimit uint64
	sendTimeout  time.Duration
)

// sendCmd transfers native coin or an ERC-20 token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send native coin or a token",
	Long: `Transfer the native coin, or a configured ERC-20 token, from the active
account.

The amount is a decimal in whole units (1.5 means 1.5 CELO, or 1.5 cUSD
with --token cUSD) and may not carry more fractional digits than the asset
has decimals. Before signing, the node's chain id is checked against the
configuration and the balance must cover amount plus fee.`,
	Example: `  loopchain send --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 --amount 1.5
  loopchain send --network alfajores --to 0x... --amount 10 --token cUSD --wait`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	sendCmd.GroupID = groupChain
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address (required)")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in whole units, e.g. 1.5 (required)")
	sendCmd.Flags().StringVar(&sendToken, "token", "", "token symbol or contract address (default: native coin)")
	sendCmd.Flags().BoolVar(&sendWait, "wait", false, "wait for the transaction to be mined")
	sendCmd.Flags().Uint64Var(&sendGasLimit, "gas-limit", 0, "gas limit override (default: estimated)")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", defaultCommandTimeout, "give up after this long")

	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}

func runSend(cmd *cobra.Command, _ []string) error {
	cc := newCommandContext()

	n, err := cc.ActiveNetwork()
	if err != nil {
		return err
	}

	decimals := n.Decimals
	if sendToken != "" {
		token, tokenErr := n.Token(sendToken)
		if tokenErr != nil {
			return tokenErr
		}
		decimals = token.Decimals
	}

	amount, err := chain.ParseBalance(sendAmount, decimals)
	if err != nil {
		return err
	}

	client, err := cc.OpenClient(n)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := contextWithTimeout(cmd, sendTimeout)
	defer cancel()

	result, err := client.Send(ctx, chain.SendRequest{
		To:          sendTo,
		Amount:      amount,
		Token:       sendToken,
		GasLimit:    sendGasLimit,
		WaitReceipt: sendWait,
	})
	if result == nil {
		return err
	}

	// A broadcast transaction is reported even when waiting for it failed.
	if emitErr := emitSendResult(cc, n, result); emitErr != nil {
		return emitErr
	}
	if err != nil {
		return err
	}

	if result.Status == evm.StatusFailed {
		return looperr.WithDetails(looperr.ErrTxRejected, map[string]string{
			"hash":   result.Hash,
			"reason": "reverted",
			"block":  strconv.FormatUint(result.Block, 10),
		})
	}
	return nil
}

func emitSendResult(cc *CommandContext, n config.Network, result *chain.TransactionResult) error {
	return cc.Formatter.Emit(result, func(w io.Writer) error {
		style := cc.Formatter.Style()
		out(w, "Sent %s %s to %s\n", result.Amount, result.Symbol, result.To)
		out(w, "  Hash:   %s\n", result.Hash)
		out(w, "  From:   %s\n", result.From)
		out(w, "  Nonce:  %d\n", result.Nonce)
		out(w, "  Fee:    %s %s\n", result.Fee, n.Symbol)
		out(w, "  Status: %s\n", style.Status(result.Status))
		if result.Block > 0 {
			out(w, "  Block:  %d\n", result.Block)
		}
		if n.ExplorerURL != "" {
			out(w, "  %s\n", style.Muted(n.ExplorerURL+"/tx/"+result.Hash))
		}
		return nil
	})
}
