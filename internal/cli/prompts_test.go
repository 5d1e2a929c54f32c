package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// withMockPassword feeds answers to promptPasswordFn in order.
func withMockPassword(t *testing.T, answers ...string) {
	t.Helper()
	orig := promptPasswordFn
	t.Cleanup(func() { promptPasswordFn = orig })

	i := 0
	promptPasswordFn = func(_ string) ([]byte, error) {
		require.Less(t, i, len(answers), "unexpected prompt")
		answer := answers[i]
		i++
		return []byte(answer), nil
	}
}

func TestPromptNewPassphrase_Success(t *testing.T) {
	withMockPassword(t, "correct horse", "correct horse")

	got, err := promptNewPassphrase()
	require.NoError(t, err)
	assert.Equal(t, []byte("correct horse"), got)
}

func TestPromptNewPassphrase_TooShort(t *testing.T) {
	withMockPassword(t, "short")

	_, err := promptNewPassphrase()
	require.ErrorIs(t, err, looperr.ErrInvalidInput)

	var loopErr *looperr.LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Contains(t, loopErr.Suggestion, "at least 8 characters")
}

func TestPromptNewPassphrase_Mismatch(t *testing.T) {
	withMockPassword(t, "correct horse", "battery staple")

	_, err := promptNewPassphrase()
	require.ErrorIs(t, err, looperr.ErrInvalidInput)

	var loopErr *looperr.LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, "passphrases do not match", loopErr.Suggestion)
}

func TestPromptNewPassphrase_ReadError(t *testing.T) {
	orig := promptPasswordFn
	t.Cleanup(func() { promptPasswordFn = orig })

	readErr := errors.New("terminal error") //nolint:err113 // test error
	promptPasswordFn = func(_ string) ([]byte, error) { return nil, readErr }

	_, err := promptNewPassphrase()
	require.ErrorIs(t, err, readErr)
}

func TestZeroBytes(t *testing.T) {
	t.Parallel()

	b := []byte("secret")
	zeroBytes(b)
	assert.Equal(t, make([]byte, 6), b)
}
