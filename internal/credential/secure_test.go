package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopfi/loopchain/internal/credential"
)

func TestSecureBytes_Creation(t *testing.T) {
	t.Parallel()
	sb := credential.NewSecureBytes(32)
	defer sb.Destroy()

	assert.NotNil(t, sb.Bytes())
	assert.Equal(t, 32, sb.Len())
}

func TestSecureBytes_FromSliceZeroesSource(t *testing.T) {
	t.Parallel()

	src := []byte{1, 2, 3, 4}
	sb := credential.SecureBytesFromSlice(src)
	defer sb.Destroy()

	assert.Equal(t, []byte{1, 2, 3, 4}, sb.Bytes())
	assert.Equal(t, []byte{0, 0, 0, 0}, src)
}

func TestSecureBytes_Destroy(t *testing.T) {
	t.Parallel()
	sb := credential.NewSecureBytes(32)

	data := sb.Bytes()
	for i := range data {
		data[i] = byte(i + 1)
	}

	sb.Destroy()
	assert.Nil(t, sb.Bytes())
	assert.Equal(t, 0, sb.Len())
	assert.False(t, sb.IsLocked())
	for _, b := range data {
		assert.Equal(t, byte(0), b)
	}

	// Should not panic on double destroy
	sb.Destroy()
}

func TestSecureBytes_ZeroSize(t *testing.T) {
	t.Parallel()
	sb := credential.NewSecureBytes(0)
	defer sb.Destroy()

	assert.Equal(t, 0, sb.Len())
	assert.False(t, sb.IsLocked())
}
