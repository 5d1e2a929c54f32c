package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// IsValidAddress checks if the address is a valid EVM address format.
// This validates the format (40 hex chars with 0x prefix) but does not validate checksum.
func IsValidAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// ToChecksumAddress converts an address to EIP-55 checksum format.
// If the input is invalid, it returns the original input unchanged.
func ToChecksumAddress(address string) string {
	if !IsValidAddress(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}

// ValidateAddress checks the address format and, for mixed-case input, its
// EIP-55 checksum. All-lowercase and all-uppercase addresses carry no
// checksum and are accepted. Every failure matches ErrInvalidAddress; a
// checksum failure additionally matches ErrInvalidChecksum.
func ValidateAddress(address string) error {
	if !IsValidAddress(address) {
		return looperr.WithDetails(looperr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}

	body := address[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}

	mixed, err := common.NewMixedcaseAddressFromString(address)
	if err != nil {
		return looperr.WithDetails(looperr.WithCause(looperr.ErrInvalidAddress, err), map[string]string{
			"address": address,
		})
	}
	if !mixed.ValidChecksum() {
		checksumErr := looperr.WithDetails(looperr.ErrInvalidChecksum, map[string]string{
			"expected": mixed.Address().Hex(),
		})
		return looperr.WithDetails(looperr.WithCause(looperr.ErrInvalidAddress, checksumErr), map[string]string{
			"address": address,
		})
	}

	return nil
}

// NormalizeAddress validates an address and converts it to checksum format.
func NormalizeAddress(address string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	return ToChecksumAddress(address), nil
}

// ValidateAddress implements chain.AddressValidator.
func (c *Client) ValidateAddress(address string) error {
	return ValidateAddress(address)
}
