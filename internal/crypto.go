package internal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// KeySize is the number of secret bytes used as the AES-256 key.
const KeySize = 32

var (
	ErrShortKey    = errors.New("encryption key must be at least 32 bytes")
	ErrShortCipher = errors.New("cipher too short")
)

// Encrypt seals plaintext with AES-GCM. The random nonce is prepended to the output.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens data produced by Encrypt.
func Decrypt(data, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonceSize := aesgcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrShortCipher
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) < KeySize {
		return nil, ErrShortKey
	}
	block, err := aes.NewCipher(key[:KeySize])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
