// Package secret encrypts saved database passwords with AES-CBC.
//
// Ciphertext is base64 (standard encoding) of the PKCS#7 padded block
// output. The key and IV are static and come from configuration, so equal
// plaintexts produce equal ciphertexts. This only keeps passwords out of
// plain sight in the local store.
package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

type Cipher struct {
	block cipher.Block
	iv    []byte
}

// New accepts a 16, 24 or 32 byte key and a 16 byte IV.
func New(key, iv string) (*Cipher, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("invalid aes key: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("invalid aes iv: want %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &Cipher{block: block, iv: []byte(iv)}, nil
}

// Encrypt returns "" for "".
func (c *Cipher) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	data := pad([]byte(plain))
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, data)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt returns "" for "".
func (c *Cipher) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid ciphertext length %d", len(data))
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, data)

	plain, err := unpad(out)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
