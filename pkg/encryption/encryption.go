// Package encryption provides AES-256-GCM encryption for secrets at rest.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeySize is the required key length in bytes (256 bits).
const KeySize = 32

var (
	// ErrInvalidKey is returned when the supplied key is not exactly 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be exactly 32 bytes")

	// ErrDecryptionFailed is returned when a blob is malformed, was encrypted
	// under a different key, or fails integrity verification.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Cipher encrypts and decrypts opaque secret strings. It holds no mutable
// state and is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a raw 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidKey, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead}, nil
}

// NewFromHex creates a Cipher from a 64-character hex-encoded key.
func NewFromHex(keyHex string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(keyHex))
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid hex", ErrInvalidKey)
	}

	return New(key)
}

// Encrypt encrypts plaintext and returns a blob in the form
// ivHex:authTagHex:ciphertextHex. A fresh random nonce is generated on every
// call, so encrypting the same plaintext twice yields different blobs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the auth tag to the ciphertext.
	tagStart := len(sealed) - c.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Blobs that do not split into exactly three
// colon-delimited hex segments are rejected before any cryptographic work.
func (c *Cipher) Decrypt(blob string) (string, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 segments, got %d", ErrDecryptionFailed, len(parts))
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", fmt.Errorf("%w: invalid nonce", ErrDecryptionFailed)
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != c.aead.Overhead() {
		return "", fmt.Errorf("%w: invalid auth tag", ErrDecryptionFailed)
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext", ErrDecryptionFailed)
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
