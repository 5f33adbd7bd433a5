package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// Vault performs reversible encryption of user passwords.  The product
// requires that support staff can look up a member's current password; the
// vault stores AES-256-GCM ciphertext instead of plaintext so that a
// database dump alone reveals nothing.  Decryption happens only on the
// admin reveal endpoint and every call is audit-logged by the handler.
type Vault struct {
	aead cipher.AEAD
}

// ErrVaultCiphertext is returned when a stored ciphertext cannot be
// decoded or fails authentication.
var ErrVaultCiphertext = errors.New("vault: invalid ciphertext")

// NewVault builds a Vault from a hex-encoded 32-byte key.
func NewVault(hexKey string) (*Vault, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("vault: key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("vault: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals a plaintext password.  The output is
// base64(nonce || ciphertext) and safe to store in a VARCHAR column.
func (v *Vault) Encrypt(plain string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.  Tampered or truncated input returns
// ErrVaultCiphertext.
func (v *Vault) Decrypt(enc string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", ErrVaultCiphertext
	}
	ns := v.aead.NonceSize()
	if len(sealed) < ns {
		return "", ErrVaultCiphertext
	}
	plain, err := v.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", ErrVaultCiphertext
	}
	return string(plain), nil
}
