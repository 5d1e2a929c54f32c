package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/loopfi/loopchain/internal/config"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// minPassphraseLen is the shortest passphrase accepted for a new key file.
const minPassphraseLen = 8

// Prompt functions are variables so tests can replace them.
//
//nolint:gochecknoglobals // Test seams for interactive input
var (
	promptPasswordFn      = promptPassword
	promptNewPassphraseFn = promptNewPassphrase
)

// promptPassword prompts for a secret with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term
	if !term.IsTerminal(fd) {
		return nil, looperr.WithSuggestion(
			looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{"reason": "stdin is not a terminal"}),
			"set "+config.DefaultPassphraseEnv+" instead",
		)
	}

	out(os.Stderr, "%s", prompt)
	password, err := term.ReadPassword(fd)
	outln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassphrase prompts for a key file passphrase with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassphrase() ([]byte, error) {
	passphrase, err := promptPasswordFn("Enter key file passphrase: ")
	if err != nil {
		return nil, err
	}

	if len(passphrase) < minPassphraseLen {
		zeroBytes(passphrase)
		return nil, looperr.WithSuggestion(
			looperr.ErrInvalidInput,
			fmt.Sprintf("passphrase must be at least %d characters", minPassphraseLen),
		)
	}

	confirm, err := promptPasswordFn("Confirm passphrase: ")
	if err != nil {
		zeroBytes(passphrase)
		return nil, err
	}
	defer zeroBytes(confirm)

	if string(passphrase) != string(confirm) {
		zeroBytes(passphrase)
		return nil, looperr.WithSuggestion(looperr.ErrInvalidInput, "passphrases do not match")
	}
	return passphrase, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
