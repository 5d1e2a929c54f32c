package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/loopfi/loopchain/internal/chain"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// Fallback gas limits used when the node cannot estimate.
const (
	GasLimitNativeTransfer uint64 = 21000
	GasLimitERC20Transfer  uint64 = 65000
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// txPlan is a fully priced transaction ready to be signed.
type txPlan struct {
	from     common.Address
	to       common.Address // contract address for token transfers
	value    *big.Int
	data     []byte
	nonce    uint64
	gasLimit uint64
	gasPrice *big.Int
	chainID  *big.Int
}

func (p *txPlan) fee() *big.Int {
	return new(big.Int).Mul(p.gasPrice, new(big.Int).SetUint64(p.gasLimit))
}

// Send builds, signs, and broadcasts a transfer from the active account.
// With req.Token set it transfers that ERC-20 token instead of the native unit.
//
//nolint:gocognit,gocyclo // Transaction building involves multiple steps
func (c *Client) Send(ctx context.Context, req chain.SendRequest) (*chain.TransactionResult, error) {
	account, err := c.ResolveActiveAccount()
	if err != nil {
		return nil, err
	}

	if err = ValidateAddress(req.To); err != nil {
		return nil, looperr.WithDetails(err, map[string]string{
			"field":   "to",
			"address": req.To,
		})
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, looperr.WithDetails(looperr.ErrInvalidAmount, map[string]string{
			"reason": "amount must be greater than zero",
		})
	}

	symbol := c.network.Symbol
	decimals := c.network.Decimals
	plan := &txPlan{
		from:    common.HexToAddress(account.Address),
		to:      common.HexToAddress(req.To),
		value:   req.Amount,
		chainID: big.NewInt(c.network.ChainID),
	}
	if req.Token != "" {
		token, tokenErr := c.network.Token(req.Token)
		if tokenErr != nil {
			return nil, tokenErr
		}
		if err = ValidateAddress(token.Address); err != nil {
			return nil, err
		}
		symbol = token.Symbol
		decimals = token.Decimals
		plan.to = common.HexToAddress(token.Address)
		plan.value = new(big.Int)
		plan.data = BuildERC20TransferData(common.HexToAddress(req.To), req.Amount)
	}

	// Signing for the wrong chain would produce a transaction the node rejects
	// or, worse, one that is valid elsewhere.
	if err = c.VerifyChainID(ctx); err != nil {
		return nil, err
	}

	if err = c.priceTransaction(ctx, plan, req.GasLimit); err != nil {
		return nil, err
	}

	if err = c.checkFunds(ctx, plan, req); err != nil {
		return nil, err
	}

	signed, err := c.signTransaction(plan)
	if err != nil {
		return nil, err
	}

	hash := signed.Hash().Hex()
	if err = c.broadcast(ctx, signed); err != nil {
		return nil, err
	}

	c.opts.Logger.Info("sent %s %s on %s: %s", chain.FormatBalance(req.Amount, decimals), symbol, c.network.Name, hash)

	result := &chain.TransactionResult{
		Hash:     hash,
		From:     plan.from.Hex(),
		To:       common.HexToAddress(req.To).Hex(),
		Amount:   chain.FormatBalance(req.Amount, decimals),
		Symbol:   symbol,
		Fee:      chain.FormatBalance(plan.fee(), c.network.Decimals),
		Nonce:    plan.nonce,
		GasLimit: plan.gasLimit,
		GasPrice: plan.gasPrice.String(),
		Status:   StatusPending,
	}
	if req.Token != "" {
		result.Token = plan.to.Hex()
	}

	if req.WaitReceipt {
		receipt, waitErr := c.WaitForReceipt(ctx, signed.Hash())
		if waitErr != nil {
			// The transaction is already on the wire; the caller still gets its hash.
			return result, looperr.WithDetails(waitErr, map[string]string{
				"hash":   hash,
				"status": StatusPending,
			})
		}
		result.Block = receipt.BlockNumber.Uint64()
		result.Status = StatusConfirmed
		if receipt.Status != types.ReceiptStatusSuccessful {
			result.Status = StatusFailed
		}
		if receipt.GasUsed > 0 {
			result.Fee = chain.FormatBalance(new(big.Int).Mul(plan.gasPrice, new(big.Int).SetUint64(receipt.GasUsed)), c.network.Decimals)
		}
	}

	return result, nil
}

// broadcast submits signed exactly once; a signed transaction is never
// re-sent. When the node already holds it, or the attempt timed out after the
// node accepted it, the broadcast counts as done.
func (c *Client) broadcast(ctx context.Context, signed *types.Transaction) error {
	_, err := attempt(ctx, c, "eth_sendRawTransaction", func(ctx context.Context, ec *ethclient.Client) (struct{}, error) {
		return struct{}{}, ec.SendTransaction(ctx, signed)
	})
	if err == nil || isAlreadyKnown(err) {
		return nil
	}

	details := map[string]string{"hash": signed.Hash().Hex()}
	if errors.Is(err, looperr.ErrRPC) {
		return looperr.WithDetails(looperr.WithCause(looperr.ErrTxRejected, err), details)
	}
	if errors.Is(err, looperr.ErrNetworkUnreachable) && c.knowsTransaction(ctx, signed.Hash()) {
		c.opts.Logger.Debug("broadcast of %s timed out but the node holds it", signed.Hash().Hex())
		return nil
	}
	return looperr.WithDetails(looperr.Wrap(err, "broadcasting transaction"), details)
}

// knowsTransaction reports whether the node has hash in its pool or chain.
func (c *Client) knowsTransaction(ctx context.Context, hash common.Hash) bool {
	found, err := call(ctx, c, "eth_getTransactionByHash", func(ctx context.Context, ec *ethclient.Client) (bool, error) {
		_, _, txErr := ec.TransactionByHash(ctx, hash)
		if errors.Is(txErr, ethereum.NotFound) {
			return false, nil
		}
		return txErr == nil, txErr
	})
	return err == nil && found
}

// isAlreadyKnown matches the node errors for a transaction it already holds.
func isAlreadyKnown(err error) bool {
	if !errors.Is(err, looperr.ErrRPC) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") ||
		strings.Contains(msg, "known transaction") ||
		strings.Contains(msg, "already imported")
}

// priceTransaction fills in nonce, gas price and gas limit.
func (c *Client) priceTransaction(ctx context.Context, plan *txPlan, gasLimit uint64) error {
	nonce, err := call(ctx, c, "eth_getTransactionCount", func(ctx context.Context, ec *ethclient.Client) (uint64, error) {
		return ec.PendingNonceAt(ctx, plan.from)
	})
	if err != nil {
		return looperr.Wrap(err, "getting nonce")
	}
	plan.nonce = nonce

	gasPrice, err := call(ctx, c, "eth_gasPrice", func(ctx context.Context, ec *ethclient.Client) (*big.Int, error) {
		return ec.SuggestGasPrice(ctx)
	})
	if err != nil {
		return looperr.Wrap(err, "getting gas price")
	}
	plan.gasPrice = gasPrice

	if gasLimit > 0 {
		plan.gasLimit = gasLimit
		return nil
	}

	to := plan.to
	msg := ethereum.CallMsg{From: plan.from, To: &to, Value: plan.value, Data: plan.data}
	estimate, err := call(ctx, c, "eth_estimateGas", func(ctx context.Context, ec *ethclient.Client) (uint64, error) {
		return ec.EstimateGas(ctx, msg)
	})
	switch {
	case err == nil:
		plan.gasLimit = estimate
	case errors.Is(err, looperr.ErrNetworkUnreachable):
		return looperr.Wrap(err, "estimating gas")
	case plan.data != nil:
		plan.gasLimit = GasLimitERC20Transfer
	default:
		plan.gasLimit = GasLimitNativeTransfer
	}
	return nil
}

// checkFunds fails with ErrInsufficientFunds when the sender cannot cover
// the value (or token amount) plus the fee.
func (c *Client) checkFunds(ctx context.Context, plan *txPlan, req chain.SendRequest) error {
	native, err := c.GetBalance(ctx, plan.from.Hex())
	if err != nil {
		return err
	}

	fee := plan.fee()
	needNative := new(big.Int).Add(plan.value, fee)
	if native.Raw.Cmp(needNative) < 0 {
		return looperr.WithDetails(looperr.ErrInsufficientFunds, map[string]string{
			"required":  chain.FormatBalance(needNative, c.network.Decimals) + " " + c.network.Symbol,
			"available": native.Formatted + " " + c.network.Symbol,
		})
	}

	if req.Token == "" {
		return nil
	}

	token, err := c.network.Token(req.Token)
	if err != nil {
		return err
	}
	held, err := c.GetTokenBalance(ctx, plan.from.Hex(), token)
	if err != nil {
		return err
	}
	if held.Raw.Cmp(req.Amount) < 0 {
		return looperr.WithDetails(looperr.ErrInsufficientFunds, map[string]string{
			"required":  chain.FormatBalance(req.Amount, token.Decimals) + " " + token.Symbol,
			"available": held.Formatted + " " + token.Symbol,
		})
	}
	return nil
}

// signTransaction signs plan as an EIP-155 legacy transaction.
func (c *Client) signTransaction(plan *txPlan) (*types.Transaction, error) {
	to := plan.to
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    plan.nonce,
		To:       &to,
		Value:    plan.value,
		Gas:      plan.gasLimit,
		GasPrice: plan.gasPrice,
		Data:     plan.data,
	})

	var signed *types.Transaction
	err := c.signer.WithPrivateKey(func(priv *ecdsa.PrivateKey) error {
		var signErr error
		signed, signErr = types.SignTx(tx, types.NewEIP155Signer(plan.chainID), priv)
		return signErr
	})
	if err != nil {
		return nil, looperr.Wrap(err, "signing transaction")
	}
	return signed, nil
}

// WaitForReceipt polls for the receipt of hash until it is mined or ctx ends.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := call(ctx, c, "eth_getTransactionReceipt", func(ctx context.Context, ec *ethclient.Client) (*types.Receipt, error) {
			r, rErr := ec.TransactionReceipt(ctx, hash)
			if errors.Is(rErr, ethereum.NotFound) {
				return nil, nil
			}
			return r, rErr
		})
		if err != nil {
			return nil, looperr.Wrap(err, "waiting for receipt")
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, looperr.Wrap(ctx.Err(), "waiting for receipt")
		case <-ticker.C:
		}
	}
}
