package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/loopfi/loopchain/internal/chain"
	"github.com/loopfi/loopchain/internal/config"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// ERC-20 function selectors.
//
//nolint:gochecknoglobals // ERC-20 constants
var (
	// keccak256("balanceOf(address)")[0:4]
	erc20BalanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}
	// keccak256("transfer(address,uint256)")[0:4]
	erc20TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}
)

// BuildERC20BalanceOfData builds the call data for balanceOf(owner).
func BuildERC20BalanceOfData(owner common.Address) []byte {
	data := make([]byte, 36) // 4 + 32
	copy(data[:4], erc20BalanceOfSelector)
	copy(data[16:36], owner.Bytes())
	return data
}

// BuildERC20TransferData builds the call data for transfer(to, amount).
func BuildERC20TransferData(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 68) // 4 + 32 + 32
	copy(data[:4], erc20TransferSelector)
	copy(data[16:36], to.Bytes())
	amount.FillBytes(data[36:68])
	return data
}

// GetTokenBalance returns the ERC-20 balance of address for token.
func (c *Client) GetTokenBalance(ctx context.Context, address string, token config.Token) (*chain.BalanceResult, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if err := ValidateAddress(token.Address); err != nil {
		return nil, looperr.WithDetails(err, map[string]string{
			"token":   token.Symbol,
			"address": token.Address,
		})
	}

	owner := common.HexToAddress(address)
	contract := common.HexToAddress(token.Address)
	msg := ethereum.CallMsg{To: &contract, Data: BuildERC20BalanceOfData(owner)}

	result, err := call(ctx, c, "eth_call", func(ctx context.Context, ec *ethclient.Client) ([]byte, error) {
		return ec.CallContract(ctx, msg, nil)
	})
	if err != nil {
		return nil, looperr.Wrap(err, "getting %s balance on %s", token.Symbol, c.network.Name)
	}

	// A contract-less address answers with empty data.
	if len(result) < 32 {
		return nil, looperr.WithDetails(looperr.ErrRPC, map[string]string{
			"token":  token.Symbol,
			"reason": "balanceOf returned no data; is the token deployed on this network?",
		})
	}

	raw := new(big.Int).SetBytes(result[:32])
	res := chain.NewBalanceResult(owner.Hex(), raw, token.Symbol, token.Decimals)
	res.Token = contract.Hex()
	return res, nil
}
