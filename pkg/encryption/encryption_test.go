package encryption

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()

	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	c, err := New(key)
	require.NoError(t, err)

	return c
}

func TestNew_RejectsWrongKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := New(make([]byte, n))
		assert.ErrorIs(t, err, ErrInvalidKey, "key length %d", n)
	}
}

func TestNewFromHex(t *testing.T) {
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	c, err := NewFromHex(hex.EncodeToString(key))
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = NewFromHex("not-hex")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewFromHex(hex.EncodeToString(key[:16]))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, s := range []string{"", "x", "a-token-value", strings.Repeat("long", 512), "unicode π τ"} {
		blob, err := c.Encrypt(s)
		require.NoError(t, err)

		got, err := c.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestEncrypt_IsNonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := c.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecrypt_RejectsMalformedBlobs(t *testing.T) {
	c := newTestCipher(t)

	for _, blob := range []string{"", "abc", "aa:bb", "aa:bb:cc:dd", "zz:zz:zz"} {
		_, err := c.Decrypt(blob)
		assert.ErrorIs(t, err, ErrDecryptionFailed, "blob %q", blob)
	}
}

func TestDecrypt_RejectsTamperedBlob(t *testing.T) {
	c := newTestCipher(t)

	blob, err := c.Encrypt("secret-token")
	require.NoError(t, err)

	parts := strings.Split(blob, ":")
	require.Len(t, parts, 3)

	// Flip one byte in every segment in turn.
	for i := range parts {
		raw, err := hex.DecodeString(parts[i])
		require.NoError(t, err)

		flipped := bytes.Clone(raw)
		flipped[0] ^= 0xff

		tampered := make([]string, 3)
		copy(tampered, parts)
		tampered[i] = hex.EncodeToString(flipped)

		_, err = c.Decrypt(strings.Join(tampered, ":"))
		assert.ErrorIs(t, err, ErrDecryptionFailed, "segment %d", i)
	}
}

func TestDecrypt_RejectsWrongKey(t *testing.T) {
	a := newTestCipher(t)
	b := newTestCipher(t)

	blob, err := a.Encrypt("secret")
	require.NoError(t, err)

	_, err = b.Decrypt(blob)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
