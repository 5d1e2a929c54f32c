// Package chain provides ledger interface definitions and common utilities
// shared by every chain client: exact amount formatting, retry, and rate limiting.
package chain

import (
	"context"
	"math/big"
)

// NativeDecimals is the canonical decimal precision of EVM native units (wei).
const NativeDecimals = 18

// BalanceResult is a balance normalized into a stable unit representation.
// Formatted is always the lossless decimal rendering of Raw.
type BalanceResult struct {
	Address   string   `json:"address"`
	Raw       *big.Int `json:"-"`
	Formatted string   `json:"formatted"`
	Symbol    string   `json:"symbol"`
	Decimals  int      `json:"decimals"`
	Token     string   `json:"token,omitempty"` // contract address; empty for the native unit
}

// NewBalanceResult builds a BalanceResult from a raw smallest-unit amount.
func NewBalanceResult(address string, raw *big.Int, symbol string, decimals int) *BalanceResult {
	if raw == nil {
		raw = new(big.Int)
	}
	return &BalanceResult{
		Address:   address,
		Raw:       raw,
		Formatted: FormatBalance(raw, decimals),
		Symbol:    symbol,
		Decimals:  decimals,
	}
}

// RawString returns the smallest-unit amount as a base-10 string.
func (b *BalanceResult) RawString() string {
	if b == nil || b.Raw == nil {
		return "0"
	}
	return b.Raw.String()
}

// IsZero reports whether the balance is exactly zero.
func (b *BalanceResult) IsZero() bool {
	return b == nil || IsZero(b.Raw)
}

// BalanceReader provides balance querying capabilities.
type BalanceReader interface {
	// GetBalance retrieves the native-unit balance for an address.
	GetBalance(ctx context.Context, address string) (*BalanceResult, error)
}

// AddressValidator provides address validation.
type AddressValidator interface {
	// ValidateAddress checks if an address is valid for this chain.
	ValidateAddress(address string) error
}

// Reader combines read-only chain operations.
type Reader interface {
	BalanceReader
	AddressValidator
}

// Account is a handle bound to the single address a client signs for.
type Account struct {
	Address string `json:"address"`
	Network string `json:"network"`
	ChainID int64  `json:"chain_id"`
}

// AccountResolver resolves the signing account of a client.
type AccountResolver interface {
	// ResolveActiveAccount fails with ErrNoCredential when no key is configured.
	ResolveActiveAccount() (*Account, error)
}

// SendRequest contains parameters for sending a transaction.
type SendRequest struct {
	To          string   // Recipient address
	Amount      *big.Int // Value in smallest units
	Token       string   // ERC-20 contract address, empty for native transfers
	GasLimit    uint64   // Optional gas limit override
	WaitReceipt bool     // Block until the transaction is mined
}

// TransactionResult contains the outcome of a broadcast transaction.
type TransactionResult struct {
	Hash     string `json:"hash"`
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Symbol   string `json:"symbol"`
	Token    string `json:"token,omitempty"`
	Fee      string `json:"fee"`
	Nonce    uint64 `json:"nonce"`
	GasLimit uint64 `json:"gas_limit"`
	GasPrice string `json:"gas_price"`
	Status   string `json:"status"` // "pending", "confirmed" or "failed"
	Block    uint64 `json:"block,omitempty"`
}

// TransactionSender builds, signs, and broadcasts transactions.
type TransactionSender interface {
	AccountResolver

	// Send requires a signing credential.
	Send(ctx context.Context, req SendRequest) (*TransactionResult, error)
}

// MessageSigner signs arbitrary messages with the active account.
type MessageSigner interface {
	AccountResolver

	// SignMessage returns a 0x-prefixed personal_sign signature.
	SignMessage(message []byte) (string, error)
}
