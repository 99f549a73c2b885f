package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"golang.org/x/crypto/argon2"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

// Blob layout before base64: magic || salt || nonce || ciphertext+tag.
const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var magic = []byte("sds1")

// deriveKey derives the AES-256 key from the password with Argon2id.
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keySize)
}

// Encrypt seals the credential record under password.
// The returned blob is base64 text terminated by a newline.
func Encrypt(password string, record s3types.Credentials) ([]byte, error) {
	plaintext, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	raw := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	raw = append(raw, magic...)
	raw = append(raw, salt...)
	raw = append(raw, nonce...)
	raw = gcm.Seal(raw, nonce, plaintext, magic)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw))+1)
	base64.StdEncoding.Encode(out, raw)
	out[len(out)-1] = '\n'
	return out, nil
}

// Decrypt opens a blob produced by Encrypt.
// Any failure (wrong password, corruption, truncation) returns ErrInvalidPassword.
func Decrypt(password string, blob []byte) (s3types.Credentials, error) {
	var record s3types.Credentials

	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(blob)))
	if err != nil {
		return record, errors.ErrInvalidPassword
	}

	header := len(magic) + saltSize + nonceSize
	if len(raw) < header || !bytes.Equal(raw[:len(magic)], magic) {
		return record, errors.ErrInvalidPassword
	}

	salt := raw[len(magic) : len(magic)+saltSize]
	nonce := raw[len(magic)+saltSize : header]

	gcm, err := newGCM(deriveKey(password, salt))
	if err != nil {
		return record, err
	}

	plaintext, err := gcm.Open(nil, nonce, raw[header:], magic)
	if err != nil {
		return record, errors.ErrInvalidPassword
	}

	if err := json.Unmarshal(plaintext, &record); err != nil {
		return s3types.Credentials{}, errors.ErrInvalidPassword
	}
	return record, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
