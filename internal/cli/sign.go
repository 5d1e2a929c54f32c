package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/chain/evm"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// signCmd signs a message with the active account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with the active account",
	Long: `Sign a message with the personal_sign (EIP-191) prefix, the same way
wallets sign login challenges. The signature is 0x-prefixed with V in {27, 28}.`,
	Example: `  loopchain sign "login nonce 4821"
  loopchain sign --network alfajores "hello" -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

// verifyCmd recovers the signer of a message.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var verifyCmd = &cobra.Command{
	Use:   "verify <message> <signature> [address]",
	Short: "Recover the signer of a signed message",
	Long: `Recover the address that produced a personal_sign signature. When an
address is given, fail unless it matches the recovered signer.`,
	Example: `  loopchain verify "hello" 0x5b...1c
  loopchain verify "hello" 0x5b...1c 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runVerify,
}

// SignResponse is the JSON shape of sign and verify.
type SignResponse struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	signCmd.GroupID = groupAccount
	verifyCmd.GroupID = groupAccount
	rootCmd.AddCommand(signCmd, verifyCmd)
}

func runSign(_ *cobra.Command, args []string) error {
	cc := newCommandContext()

	n, err := cc.ActiveNetwork()
	if err != nil {
		return err
	}
	client, err := cc.OpenClient(n)
	if err != nil {
		return err
	}
	defer client.Close()

	account, err := client.ResolveActiveAccount()
	if err != nil {
		return err
	}
	signature, err := client.SignMessage([]byte(args[0]))
	if err != nil {
		return err
	}

	resp := SignResponse{Address: account.Address, Message: args[0], Signature: signature}
	return cc.Formatter.Emit(resp, func(w io.Writer) error {
		outln(w, signature)
		return nil
	})
}

func runVerify(_ *cobra.Command, args []string) error {
	cc := newCommandContext()

	signer, err := evm.RecoverSigner([]byte(args[0]), args[1])
	if err != nil {
		return err
	}

	if len(args) == 3 {
		expected, normErr := evm.NormalizeAddress(args[2])
		if normErr != nil {
			return normErr
		}
		if !strings.EqualFold(expected, signer.Hex()) {
			return looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{
				"reason":    "signature does not match address",
				"expected":  expected,
				"recovered": signer.Hex(),
			})
		}
	}

	resp := SignResponse{Address: signer.Hex(), Message: args[0], Signature: args[1]}
	return cc.Formatter.Emit(resp, func(w io.Writer) error {
		outln(w, signer.Hex())
		return nil
	})
}
