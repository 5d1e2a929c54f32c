package evm

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// signatureLen is the length of an [R || S || V] signature.
const signatureLen = 65

// SignMessage signs message with the personal_sign (EIP-191) prefix and
// returns the 0x-prefixed signature with V in {27, 28}.
func (c *Client) SignMessage(message []byte) (string, error) {
	if _, err := c.ResolveActiveAccount(); err != nil {
		return "", err
	}

	sig, err := c.signer.Sign(accounts.TextHash(message))
	if err != nil {
		return "", looperr.Wrap(err, "signing message")
	}
	sig[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(sig), nil
}

// RecoverSigner returns the address that produced a personal_sign signature
// over message.
func RecoverSigner(message []byte, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != signatureLen {
		return common.Address{}, looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{
			"reason": "signature must be 65 bytes of 0x-prefixed hex",
		})
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return common.Address{}, looperr.WithCause(looperr.ErrInvalidInput, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
