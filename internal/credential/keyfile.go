package credential

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"filippo.io/age"

	"github.com/loopfi/loopchain/internal/fileutil"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// encrypt encrypts plaintext using age with a passphrase-based recipient.
func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decrypt decrypts ciphertext using age with a passphrase-based identity.
func decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, err
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, err
	}

	return io.ReadAll(r)
}

// FromKeyFile loads an age scrypt-encrypted key file holding a hex private key.
func FromKeyFile(path, passphrase string) (*Key, error) {
	if passphrase == "" {
		return nil, looperr.WithSuggestion(
			looperr.WithDetails(looperr.ErrInvalidCredential, map[string]string{
				"key_file": path,
				"reason":   "passphrase not set",
			}),
			"export the variable named by the network's passphrase_env (LOOPCHAIN_KEY_PASSPHRASE by default)",
		)
	}

	// #nosec G304 -- key file path comes from the operator's config
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		details := map[string]string{"key_file": path}
		if errors.Is(err, fs.ErrNotExist) {
			details["reason"] = "file not found"
		}
		return nil, looperr.WithDetails(looperr.WithCause(looperr.ErrInvalidCredential, err), details)
	}

	plaintext, err := decrypt(ciphertext, passphrase)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, looperr.WithDetails(looperr.ErrDecryptionFailed, map[string]string{"key_file": path})
		}
		return nil, looperr.WithCause(looperr.ErrDecryptionFailed, err)
	}
	defer zero(plaintext)

	key, err := FromHex(string(bytes.TrimSpace(plaintext)))
	if err != nil {
		return nil, err
	}
	key.kind = KindKeyFile
	return key, nil
}

// SealKeyFile writes key to path as an age scrypt-encrypted file readable
// only by the owner. An existing file is never overwritten.
func SealKeyFile(path string, key *Key, passphrase string) error {
	return seal(path, key, passphrase, fileutil.WriteNew)
}

// ResealKeyFile is SealKeyFile for an existing file: the old file is
// replaced atomically once the new ciphertext is on disk.
func ResealKeyFile(path string, key *Key, passphrase string) error {
	return seal(path, key, passphrase, fileutil.WriteAtomic)
}

func seal(path string, key *Key, passphrase string, write func(string, []byte, os.FileMode) error) error {
	if key == nil {
		return looperr.ErrNoCredential
	}
	if passphrase == "" {
		return looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{"reason": "passphrase required"})
	}

	plaintext, err := key.hexSecret()
	if err != nil {
		return err
	}
	defer zero(plaintext)

	ciphertext, err := encrypt(plaintext, passphrase)
	if err != nil {
		return err
	}

	if err = write(path, ciphertext, 0o600); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return looperr.WithDetails(looperr.ErrInvalidInput, map[string]string{
				"path":   path,
				"reason": "file already exists",
			})
		}
		return err
	}
	return nil
}
