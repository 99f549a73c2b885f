package detector

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/internal/remote"
	"github.com/input-output-hk/sync-dir-s3/internal/testutil"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

const (
	bucket   = "bucket"
	emptyMD5 = "d41d8cd98f00b204e9800998ecf8427e"
	helloMD5 = "5d41402abc4b2a76b9719d911017c592"
)

func setup(t *testing.T) (*Detector, *testutil.MemoryS3) {
	t.Helper()
	filesystem := fs.NewInMemoryFS()
	testutil.WriteFiles(t, filesystem, "/dir", map[string]string{
		"hello.txt": "hello",
		"empty.txt": "",
	})
	store := testutil.NewMemoryS3()
	return New(filesystem, remote.NewWithAPI(store), nil), store
}

func TestFingerprint(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()

	got, err := d.Fingerprint(ctx, "/dir/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, helloMD5, got)

	got, err = d.Fingerprint(ctx, "/dir/empty.txt")
	require.NoError(t, err)
	assert.Equal(t, emptyMD5, got)

	_, err = d.Fingerprint(ctx, "/dir/missing.txt")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		remote     *s3types.RemoteObjectMeta
		want       s3types.Classification
		wantReason string
	}{
		{"no remote object", nil, s3types.NeedsUpload, ReasonNewFile},
		{"remote without fingerprint", &s3types.RemoteObjectMeta{UploaderInfo: "x"}, s3types.NeedsUpload, ReasonNoFingerprint},
		{"different fingerprint", &s3types.RemoteObjectMeta{ContentFingerprint: emptyMD5}, s3types.NeedsUpload, ReasonModified},
		{"same fingerprint", &s3types.RemoteObjectMeta{ContentFingerprint: helloMD5}, s3types.Unchanged, ReasonUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Classify(helloMD5, tt.remote)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestDetect(t *testing.T) {
	d, store := setup(t)
	ctx := context.Background()
	store.Seed(bucket, "k/hello.txt", []byte("hello"), map[string]string{s3types.MetaFingerprint: helloMD5})
	store.Seed(bucket, "k/empty.txt", nil, map[string]string{s3types.MetaFingerprint: emptyMD5})

	t.Run("unchanged", func(t *testing.T) {
		p := d.Detect(ctx, bucket, s3types.FileEntry{LocalPath: "/dir/hello.txt", RemoteKey: "k/hello.txt"})
		require.NoError(t, p.Err)
		assert.Equal(t, s3types.Unchanged, p.Decision)
		assert.Equal(t, helloMD5, p.Fingerprint)
	})

	t.Run("zero byte file unchanged", func(t *testing.T) {
		p := d.Detect(ctx, bucket, s3types.FileEntry{LocalPath: "/dir/empty.txt", RemoteKey: "k/empty.txt"})
		require.NoError(t, p.Err)
		assert.Equal(t, s3types.Unchanged, p.Decision)
	})

	t.Run("never uploaded", func(t *testing.T) {
		p := d.Detect(ctx, bucket, s3types.FileEntry{LocalPath: "/dir/hello.txt", RemoteKey: "k/new.txt"})
		require.NoError(t, p.Err)
		assert.Equal(t, s3types.NeedsUpload, p.Decision)
		assert.Equal(t, ReasonNewFile, p.Reason)
	})

	t.Run("file vanished", func(t *testing.T) {
		p := d.Detect(ctx, bucket, s3types.FileEntry{LocalPath: "/dir/gone.txt", RemoteKey: "k/gone.txt"})
		require.Error(t, p.Err)
		assert.Equal(t, s3types.FailureIO, p.Kind)
	})
}

func TestDetect_RemoteError(t *testing.T) {
	filesystem := fs.NewInMemoryFS()
	testutil.WriteFiles(t, filesystem, "/dir", map[string]string{"a.txt": "a"})
	boom := stderrors.New("service unavailable")
	d := New(filesystem, remote.NewWithAPI(&testutil.MockS3Client{
		HeadObjectFunc: func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, boom
		},
	}), nil)

	p := d.Detect(context.Background(), bucket, s3types.FileEntry{LocalPath: "/dir/a.txt", RemoteKey: "a.txt"})
	assert.ErrorIs(t, p.Err, boom)
	assert.Equal(t, s3types.FailureRemote, p.Kind)
}

func TestDetect_Cancelled(t *testing.T) {
	d, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := d.Detect(ctx, bucket, s3types.FileEntry{LocalPath: "/dir/hello.txt", RemoteKey: "k"})
	assert.ErrorIs(t, p.Err, context.Canceled)
	assert.Equal(t, s3types.FailureCanceled, p.Kind)
}

func TestPlan_BoundedAndAligned(t *testing.T) {
	filesystem := fs.NewInMemoryFS()
	files := map[string]string{}
	var entries []s3types.FileEntry
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files[name+".txt"] = name
		entries = append(entries, s3types.FileEntry{LocalPath: "/dir/" + name + ".txt", RemoteKey: name})
	}
	testutil.WriteFiles(t, filesystem, "/dir", files)

	var inFlight, maxInFlight int64
	api := &testutil.MockS3Client{
		HeadObjectFunc: func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			n := atomic.AddInt64(&inFlight, 1)
			defer atomic.AddInt64(&inFlight, -1)
			for {
				m := atomic.LoadInt64(&maxInFlight)
				if n <= m || atomic.CompareAndSwapInt64(&maxInFlight, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return &s3.HeadObjectOutput{}, nil
		},
	}
	d := New(filesystem, remote.NewWithAPI(api), nil)

	planned := d.Plan(context.Background(), bucket, entries, 3)

	require.Len(t, planned, len(entries))
	for i, p := range planned {
		assert.Equal(t, entries[i], p.Entry)
		assert.NoError(t, p.Err)
		assert.Equal(t, s3types.NeedsUpload, p.Decision)
		assert.Equal(t, ReasonNoFingerprint, p.Reason)
	}
	assert.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(3))
}
