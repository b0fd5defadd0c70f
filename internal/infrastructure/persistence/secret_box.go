package persistence

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrSealedValueInvalid is returned when a stored secret cannot be opened
var ErrSealedValueInvalid = errors.New("persistence: sealed value invalid")

// SecretBox seals credential secrets at rest with nacl/secretbox. The stored
// form is base64(nonce || box).
type SecretBox struct {
	key *[32]byte
}

// NewSecretBox creates a SecretBox using a 32-byte key
func NewSecretBox(key *[32]byte) (*SecretBox, error) {
	if key == nil {
		return nil, errors.New("persistence: secret key is required")
	}
	return &SecretBox{key: key}, nil
}

// Seal encrypts plaintext with a fresh random nonce. Empty input stays empty.
func (b *SecretBox) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("persistence: read nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal
func (b *SecretBox) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrSealedValueInvalid
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, b.key)
	if !ok {
		return "", ErrSealedValueInvalid
	}
	return string(plain), nil
}
