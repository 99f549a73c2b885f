package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "bucket and key",
			err:  NewObjectError("putObject", "bucket", "host/a.txt", base),
			want: "s3.putObject bucket/host/a.txt: boom",
		},
		{
			name: "bucket only",
			err:  NewError("validateBucketName", base).WithBucket("bucket"),
			want: "s3.validateBucketName bucket bucket: boom",
		},
		{
			name: "key only",
			err:  NewError("validateObjectKey", base).WithKey("k"),
			want: "s3.validateObjectKey object k: boom",
		},
		{
			name: "operation only",
			err:  NewError("vault.load", base),
			want: "vault.load: boom",
		},
		{
			name: "vault sentinel",
			err:  NewError("vault.load", ErrInvalidPassword),
			want: "vault.load: invalid password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := NewObjectError("headObject", "b", "k", ErrObjectNotFound).WithMessage("lookup")
	wrapped := fmt.Errorf("detect: %w", err)

	assert.True(t, IsObjectNotFound(wrapped))
	assert.False(t, IsAccessDenied(wrapped))

	var target *Error
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "headObject", target.Op)
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, IsInvalidInput(ErrInvalidBucketName))
	assert.True(t, IsInvalidInput(fmt.Errorf("x: %w", ErrInvalidObjectKey)))
	assert.True(t, IsInvalidInput(ErrInvalidInput))
	assert.False(t, IsInvalidInput(ErrInvalidPassword))
}

func TestIsInvalidPassword(t *testing.T) {
	assert.True(t, IsInvalidPassword(NewError("vault.load", ErrInvalidPassword)))
	assert.False(t, IsInvalidPassword(ErrUserDeclined))
	assert.True(t, IsUserDeclined(fmt.Errorf("confirm: %w", ErrUserDeclined)))
}
