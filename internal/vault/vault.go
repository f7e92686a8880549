package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrDecryptFailed indicates the ciphertext was sealed under a different key
// or has been corrupted.
var ErrDecryptFailed = errors.New("vault: decryption failed")

// Vault performs reversible encryption of custodial ledger secrets using
// AES-256-GCM. The key is derived from a configured passphrase with argon2id,
// so the same passphrase and salt always open previously sealed material.
type Vault struct {
	aead cipher.AEAD
}

// New derives the sealing key from the passphrase and salt and prepares the
// AEAD cipher.
func New(passphrase, salt string) (*Vault, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("vault: passphrase is required")
	}

	key := argon2.IDKey([]byte(passphrase), []byte(salt), 1, 64*1024, 4, 32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: init gcm: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Seal encrypts the plaintext secret. The random nonce is prepended to the
// ciphertext so Open needs no extra bookkeeping.
func (v *Vault) Seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("vault: nonce: %w", err)
	}

	return v.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Open decrypts material produced by Seal. It fails with ErrDecryptFailed if
// the ciphertext was sealed under a different key.
func (v *Vault) Open(sealed []byte) (string, error) {
	if len(sealed) < v.aead.NonceSize() {
		return "", ErrDecryptFailed
	}

	nonce, ciphertext := sealed[:v.aead.NonceSize()], sealed[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plaintext), nil
}
