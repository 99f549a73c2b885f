package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	records := []s3types.Credentials{
		{AccessKey: "AKIAEXAMPLE", SecretKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY"},
		{AccessKey: "ключ", SecretKey: "секрет \"quoted\" \\ slash"},
		{},
	}
	passwords := []string{"hunter2", "", "pässwörd with spaces"}

	for _, record := range records {
		for _, password := range passwords {
			blob, err := Encrypt(password, record)
			require.NoError(t, err)

			got, err := Decrypt(password, blob)
			require.NoError(t, err)
			assert.Equal(t, record, got)
		}
	}
}

func TestEncrypt_TextSafe(t *testing.T) {
	blob, err := Encrypt("pw", s3types.Credentials{AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)

	assert.Equal(t, byte('\n'), blob[len(blob)-1])
	_, err = base64.StdEncoding.DecodeString(string(blob[:len(blob)-1]))
	assert.NoError(t, err)
}

func TestEncrypt_FreshSaltPerCall(t *testing.T) {
	record := s3types.Credentials{AccessKey: "a", SecretKey: "b"}
	first, err := Encrypt("pw", record)
	require.NoError(t, err)
	second, err := Encrypt("pw", record)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecrypt_InvalidPassword(t *testing.T) {
	blob, err := Encrypt("correct horse", s3types.Credentials{AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(string(blob[:len(blob)-1]))
	require.NoError(t, err)

	flipped := append([]byte(nil), raw...)
	flipped[len(flipped)-1] ^= 0xff

	tests := []struct {
		name     string
		password string
		blob     []byte
	}{
		{"wrong password", "battery staple", blob},
		{"empty password", "", blob},
		{"truncated", "correct horse", blob[:len(blob)/2]},
		{"corrupted ciphertext", "correct horse", []byte(base64.StdEncoding.EncodeToString(flipped))},
		{"header only", "correct horse", []byte(base64.StdEncoding.EncodeToString(raw[:20]))},
		{"not base64", "correct horse", []byte("%%% not a vault %%%")},
		{"plain json", "correct horse", []byte(`{"key":"a","secret":"b"}`)},
		{"empty file", "correct horse", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decrypt(tt.password, tt.blob)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidPassword)
			assert.Equal(t, s3types.Credentials{}, got)
		})
	}
}
