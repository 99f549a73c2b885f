package remote

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/internal/testutil"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

func TestClient_HeadMetadata(t *testing.T) {
	store := testutil.NewMemoryS3()
	store.Seed("bucket", "host/a.txt", []byte("a"), map[string]string{
		s3types.MetaFingerprint:  "abc",
		s3types.MetaUploaderInfo: "host (linux 6.1)",
	})
	store.Seed("bucket", "host/bare.txt", []byte("b"), nil)

	client := NewWithAPI(store)
	ctx := context.Background()

	meta, err := client.HeadMetadata(ctx, "bucket", "host/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", meta.ContentFingerprint)
	assert.Equal(t, "host (linux 6.1)", meta.UploaderInfo)

	meta, err = client.HeadMetadata(ctx, "bucket", "host/bare.txt")
	require.NoError(t, err)
	assert.Empty(t, meta.ContentFingerprint)

	_, err = client.HeadMetadata(ctx, "bucket", "host/missing.txt")
	assert.True(t, errors.IsObjectNotFound(err))
}

func TestClient_HeadMetadataErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
		wantDenied   bool
	}{
		{
			name:         "generic not found code",
			err:          &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"},
			wantNotFound: true,
		},
		{
			name:       "access denied",
			err:        &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"},
			wantDenied: true,
		},
		{
			name: "network",
			err:  stderrors.New("connection reset by peer"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewWithAPI(&testutil.MockS3Client{
				HeadObjectFunc: func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
					return nil, tt.err
				},
			})

			_, err := client.HeadMetadata(context.Background(), "bucket", "key")
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, errors.IsObjectNotFound(err))
			assert.Equal(t, tt.wantDenied, errors.IsAccessDenied(err))

			var opErr *errors.Error
			require.True(t, stderrors.As(err, &opErr))
			assert.Equal(t, "headObject", opErr.Op)
			assert.Equal(t, "bucket", opErr.Bucket)
			assert.Equal(t, "key", opErr.Key)
		})
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), s3types.Credentials{AccessKey: "only"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNew_AppliesOptions(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	client, err := New(context.Background(),
		s3types.Credentials{AccessKey: "AKIA", SecretKey: "secret"},
		WithRegion("eu-west-1"),
		WithEndpoint("http://localhost:9000"),
		WithForcePathStyle(true),
	)
	require.NoError(t, err)

	raw, ok := client.API().(*s3.Client)
	require.True(t, ok)
	opts := raw.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, aws.String("http://localhost:9000"), opts.BaseEndpoint)

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA", creds.AccessKeyID)
}
