// Package credential resolves the signing key of a network from the
// sources an operator can configure: a raw hex private key, a BIP-39
// mnemonic, or an age-encrypted key file. Key material is held in locked
// memory and zeroed on Destroy.
package credential

import (
	"crypto/ecdsa"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// privateKeyLen is the length of a secp256k1 private key in bytes.
const privateKeyLen = 32

// Kind names the source a key was loaded from.
type Kind string

// Credential kinds.
const (
	KindNone       Kind = "none"
	KindPrivateKey Kind = "private_key"
	KindMnemonic   Kind = "mnemonic"
	KindKeyFile    Kind = "key_file"
)

// Source holds resolved credential inputs. At most one of PrivateKey,
// Mnemonic and KeyFile is used, in that order of precedence.
type Source struct {
	PrivateKey    string
	Mnemonic      string
	MnemonicIndex uint32
	KeyFile       string
	Passphrase    string
}

// IsEmpty reports whether the source carries no credential at all.
func (s Source) IsEmpty() bool {
	return s.PrivateKey == "" && s.Mnemonic == "" && s.KeyFile == ""
}

// Kind returns the kind of credential Resolve would load.
func (s Source) Kind() Kind {
	switch {
	case s.PrivateKey != "":
		return KindPrivateKey
	case s.Mnemonic != "":
		return KindMnemonic
	case s.KeyFile != "":
		return KindKeyFile
	default:
		return KindNone
	}
}

// Resolve loads the key described by src. An empty source yields a nil
// key and no error: the caller runs read-only.
func Resolve(src Source) (*Key, error) {
	switch src.Kind() {
	case KindPrivateKey:
		return FromHex(src.PrivateKey)
	case KindMnemonic:
		return FromMnemonic(src.Mnemonic, src.MnemonicIndex)
	case KindKeyFile:
		return FromKeyFile(src.KeyFile, src.Passphrase)
	default:
		return nil, nil //nolint:nilnil // absence of a credential is not an error
	}
}

// Key is a secp256k1 signing key held in locked memory.
type Key struct {
	mu      sync.Mutex
	secret  *SecureBytes
	address common.Address
	kind    Kind
}

// newKey takes ownership of raw and zeroes it.
func newKey(raw []byte, kind Kind) (*Key, error) {
	if len(raw) > privateKeyLen {
		zero(raw)
		return nil, looperr.WithDetails(looperr.ErrInvalidCredential, map[string]string{
			"reason": "private key longer than 32 bytes",
		})
	}

	secret := NewSecureBytes(privateKeyLen)
	copy(secret.Bytes()[privateKeyLen-len(raw):], raw)
	zero(raw)

	priv, err := crypto.ToECDSA(secret.Bytes())
	if err != nil {
		secret.Destroy()
		return nil, looperr.WithCause(looperr.ErrInvalidCredential, err)
	}

	return &Key{
		secret:  secret,
		address: crypto.PubkeyToAddress(priv.PublicKey),
		kind:    kind,
	}, nil
}

// FromHex loads a raw hex private key, with or without a 0x prefix.
func FromHex(s string) (*Key, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*privateKeyLen {
		return nil, looperr.WithDetails(looperr.ErrInvalidCredential, map[string]string{
			"reason": "private key must be 64 hex characters",
		})
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		// The decode error quotes the offending byte; keep it out of the message.
		return nil, looperr.WithDetails(looperr.ErrInvalidCredential, map[string]string{
			"reason": "private key is not valid hex",
		})
	}
	return newKey(raw, KindPrivateKey)
}

// Address returns the account address derived from the key.
func (k *Key) Address() common.Address {
	return k.address
}

// Kind returns where the key was loaded from.
func (k *Key) Kind() Kind {
	return k.kind
}

// IsLocked reports whether the key bytes are mlocked.
func (k *Key) IsLocked() bool {
	return k.secret != nil && k.secret.IsLocked()
}

// WithPrivateKey calls fn with the ECDSA form of the key. fn must not
// retain the key beyond the call.
func (k *Key) WithPrivateKey(fn func(priv *ecdsa.PrivateKey) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.secret == nil || k.secret.Len() == 0 {
		return looperr.WithDetails(looperr.ErrInvalidCredential, map[string]string{
			"reason": "key has been destroyed",
		})
	}

	priv, err := crypto.ToECDSA(k.secret.Bytes())
	if err != nil {
		return looperr.WithCause(looperr.ErrInvalidCredential, err)
	}
	defer priv.D.SetInt64(0)

	return fn(priv)
}

// Sign produces a 65-byte [R || S || V] signature over a 32-byte digest, V in {0, 1}.
func (k *Key) Sign(digest []byte) ([]byte, error) {
	var sig []byte
	err := k.WithPrivateKey(func(priv *ecdsa.PrivateKey) error {
		var signErr error
		sig, signErr = crypto.Sign(digest, priv)
		return signErr
	})
	return sig, err
}

// Destroy zeroes the key material. The key is unusable afterwards.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.secret != nil {
		k.secret.Destroy()
	}
}

// hexSecret returns a copy of the key as lowercase hex without prefix.
func (k *Key) hexSecret() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.secret == nil || k.secret.Len() == 0 {
		return nil, looperr.WithDetails(looperr.ErrInvalidCredential, map[string]string{
			"reason": "key has been destroyed",
		})
	}
	out := make([]byte, hex.EncodedLen(privateKeyLen))
	hex.Encode(out, k.secret.Bytes())
	return out, nil
}
