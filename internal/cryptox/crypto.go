// Package cryptox implements the authenticated encryption used for document
// content at rest. AES-256-GCM, random nonce per call, nonce prepended to
// the ciphertext so every blob is independently decryptable.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/avolkov/docvault/internal/common"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// Cipher performs whole-buffer encrypt/decrypt with a single process-wide
// key. It is immutable after construction and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher constructs a Cipher from a KeySize-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrorInvalidInput, KeySize, len(key))
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

// Encrypt seals plaintext with a fresh random nonce. The result is
// nonce || ciphertext || tag; repeated calls on the same input produce
// different output.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a buffer produced by Encrypt. Input shorter than a nonce
// (including empty input) fails with common.ErrorInvalidInput; a failed
// authentication tag check fails with common.ErrorCiphertextInvalid so
// callers can tell tampering apart from plain I/O errors.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	if len(data) <= c.aead.NonceSize() {
		return nil, common.ErrorInvalidInput
	}

	nonce, ciphertext := data[:c.aead.NonceSize()], data[c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrorCiphertextInvalid
	}

	return plaintext, nil
}
