package credential

import (
	"fmt"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// MaxTypoDistance is the largest edit distance for which a word suggestion is offered.
const MaxTypoDistance = 2

// DerivationPath returns the BIP-44 Ethereum path for account index i.
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}

// FromMnemonic derives the key at m/44'/60'/0'/0/index from a BIP-39 mnemonic
// with an empty passphrase, the same path Hardhat and MetaMask use.
func FromMnemonic(mnemonic string, index uint32) (*Key, error) {
	mnemonic = NormalizeMnemonic(mnemonic)

	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, invalidMnemonic(mnemonic)
	}

	seed := bip39.NewSeed(mnemonic, "")
	defer zero(seed)

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, looperr.WithCause(looperr.ErrInvalidCredential, err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		index,
	}
	for _, child := range path {
		next, err := key.NewChildKey(child)
		zero(key.Key)
		if err != nil {
			return nil, looperr.WithCause(looperr.ErrInvalidCredential, err)
		}
		key = next
	}

	raw := make([]byte, len(key.Key))
	copy(raw, key.Key)
	zero(key.Key)

	return newKey(raw, KindMnemonic)
}

// NormalizeMnemonic lowercases the phrase and collapses whitespace.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// TypoInfo describes a word of a mnemonic that is not in the BIP-39 list.
type TypoInfo struct {
	// Index is the zero-based position of the word.
	Index int
	// Suggestion is the closest BIP-39 word, or empty if none is close enough.
	Suggestion string
}

// DetectTypos returns the positions of words missing from the BIP-39 list.
func DetectTypos(mnemonic string) []TypoInfo {
	var typos []TypoInfo
	for i, word := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if _, ok := bip39.GetWordIndex(word); ok {
			continue
		}
		typos = append(typos, TypoInfo{Index: i, Suggestion: SuggestWord(word)})
	}
	return typos
}

// SuggestWord finds the closest BIP-39 word to the input using Levenshtein distance.
// Returns empty string if no word is within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	minDist := math.MaxInt
	var suggestion string
	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// invalidMnemonic reports why a mnemonic was rejected without echoing it.
func invalidMnemonic(mnemonic string) error {
	words := strings.Fields(mnemonic)
	details := map[string]string{"words": fmt.Sprintf("%d", len(words))}

	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		details["reason"] = "mnemonic must have 12, 15, 18, 21 or 24 words"
		return looperr.WithDetails(looperr.ErrInvalidCredential, details)
	}

	typos := DetectTypos(mnemonic)
	if len(typos) == 0 {
		details["reason"] = "mnemonic checksum mismatch"
		return looperr.WithDetails(looperr.ErrInvalidCredential, details)
	}

	details["reason"] = "words not in the BIP-39 list"
	hints := make([]string, 0, len(typos))
	for _, typo := range typos {
		hint := fmt.Sprintf("word %d", typo.Index+1)
		if typo.Suggestion != "" {
			hint += fmt.Sprintf(" (did you mean %q?)", typo.Suggestion)
		}
		hints = append(hints, hint)
	}
	return looperr.WithSuggestion(
		looperr.WithDetails(looperr.ErrInvalidCredential, details),
		"check "+strings.Join(hints, ", "),
	)
}
