package cli

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/credential"
	"github.com/loopfi/loopchain/internal/output"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// accountQR renders the address as a QR code.
	accountQR bool
	// sealOut is the key file to write.
	sealOut string
	// sealForce overwrites an existing key file.
	sealForce bool
)

// accountCmd shows the active account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the active account",
	Long: `Show the address the configured credential of a network signs for.

The credential is read from the environment variables the network names
(PRIVATE_KEY by default), a BIP-39 mnemonic, or an age-encrypted key file.
Without a credential the command fails with NO_CREDENTIAL.`,
	Example: `  loopchain account
  loopchain account --network alfajores --qr`,
	Args: cobra.NoArgs,
	RunE: runAccount,
}

// accountSealCmd writes the resolved credential to an encrypted key file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountSealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt the active credential into a key file",
	Long: `Encrypt the private key of the active credential into an age key file
so it no longer has to live in plain text in the environment.

The passphrase is read from the variable the network's passphrase_env names
(LOOPCHAIN_KEY_PASSPHRASE by default) or prompted for with hidden input.
Point the network's credential.key_file at the new file afterwards.`,
	Example: `  PRIVATE_KEY=0x... loopchain account seal --out ~/.loopchain/deployer.age
  loopchain account seal --network celo --out celo.age --force`,
	Args: cobra.NoArgs,
	RunE: runAccountSeal,
}

// SealResponse is the JSON shape of account seal.
type SealResponse struct {
	Network string `json:"network"`
	Address string `json:"address"`
	KeyFile string `json:"key_file"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	accountCmd.GroupID = groupAccount
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountSealCmd)

	accountCmd.Flags().BoolVar(&accountQR, "qr", false, "render the address as a QR code")

	accountSealCmd.Flags().StringVar(&sealOut, "out", "", "key file to write (required)")
	accountSealCmd.Flags().BoolVar(&sealForce, "force", false, "overwrite an existing key file")
	_ = accountSealCmd.MarkFlagRequired("out")
}

func runAccount(_ *cobra.Command, _ []string) error {
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

	return cc.Formatter.Emit(account, func(w io.Writer) error {
		out(w, "%s %s\n", account.Address, cc.Formatter.Style().Muted(n.Name+" "+chainIDLabel(account.ChainID)))
		if accountQR {
			outln(w)
			output.RenderAddressQR(w, account.Address, true)
		}
		return nil
	})
}

func runAccountSeal(_ *cobra.Command, _ []string) error {
	cc := newCommandContext()

	n, err := cc.ActiveNetwork()
	if err != nil {
		return err
	}

	path := config.ExpandHome(sealOut)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	switch {
	case exists && !sealForce:
		return looperr.WithSuggestion(
			looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{"key_file": path, "reason": "file exists"}),
			"use --force to overwrite it",
		)
	case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
		return statErr
	}

	key, err := cc.Credential(n)
	if err != nil {
		return err
	}
	if key == nil {
		return looperr.WithDetails(looperr.ErrNoCredential, map[string]string{"network": n.Name})
	}
	defer key.Destroy()

	passphrase, err := sealPassphrase(cc.Env, n.Credential)
	if err != nil {
		return err
	}
	defer zeroBytes(passphrase)

	seal := credential.SealKeyFile
	if exists {
		seal = credential.ResealKeyFile
	}
	if err = seal(path, key, string(passphrase)); err != nil {
		return err
	}
	cc.Logger.Info("sealed %s key for %s into %s", n.Name, key.Address().Hex(), path)

	resp := SealResponse{Network: n.Name, Address: key.Address().Hex(), KeyFile: path}
	return cc.Formatter.Emit(resp, func(w io.Writer) error {
		cc.Formatter.Successf("key for %s written to %s", resp.Address, path)
		out(w, "Set networks.%s.credential.key_file to %s and unset the plain-text variable.\n", n.Name, path)
		return nil
	})
}

// sealPassphrase takes the passphrase from the environment, or prompts for
// a new one.
func sealPassphrase(e *config.Env, ref config.CredentialRef) ([]byte, error) {
	name := ref.PassphraseEnv
	if name == "" {
		name = config.DefaultPassphraseEnv
	}
	if v, ok := e.Lookup(name); ok && v != "" {
		return []byte(v), nil
	}
	return promptNewPassphraseFn()
}
