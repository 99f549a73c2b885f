package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/internal/testutil"
	"github.com/input-output-hk/sync-dir-s3/internal/upload"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

const bucket = "test-bucket"

func needsUpload(name string) s3types.PlannedEntry {
	return s3types.PlannedEntry{
		Entry:    s3types.FileEntry{LocalPath: "/dir/" + name, RemoteKey: "host/dir/" + name},
		Decision: s3types.NeedsUpload,
	}
}

func unchanged(name string) s3types.PlannedEntry {
	p := needsUpload(name)
	p.Decision = s3types.Unchanged
	return p
}

func setup(t *testing.T, files map[string]string) (*testutil.MemoryS3, *upload.Uploader) {
	t.Helper()
	filesystem := fs.NewInMemoryFS()
	testutil.WriteFiles(t, filesystem, "/dir", files)
	store := testutil.NewMemoryS3()
	return store, upload.New(store, filesystem, "host (linux)", nil)
}

func TestPipeline_Run(t *testing.T) {
	store, uploader := setup(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	})
	tracker := &testutil.MockProgressTracker{}

	p := New(uploader, 2).WithProgressTracker(tracker)
	result := p.Run(context.Background(), s3types.SyncTarget{Bucket: bucket}, []s3types.PlannedEntry{
		needsUpload("a.txt"),
		unchanged("b.txt"),
	})

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Unchanged)
	assert.Empty(t, result.Failures)
	assert.True(t, result.OK())
	assert.Equal(t, int64(len("alpha")), result.BytesUploaded)
	assert.Equal(t, []string{"host/dir/a.txt"}, store.PutKeys())

	assert.Len(t, tracker.Ticks(), 2)
	assert.Equal(t, 1, tracker.CountOutcome(s3types.OutcomeUpdated))
	assert.Equal(t, 1, tracker.CountOutcome(s3types.OutcomeUnchanged))
	assert.Equal(t, 1, tracker.CompleteCalls())
}

func TestPipeline_IsolatesFailures(t *testing.T) {
	store, uploader := setup(t, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
		"c.txt": "c",
	})
	store.PutErr = func(key string) error {
		if key == "host/dir/b.txt" {
			return stderrors.New("connection reset")
		}
		return nil
	}
	tracker := &testutil.MockProgressTracker{}

	result := New(uploader, 3).WithProgressTracker(tracker).Run(
		context.Background(),
		s3types.SyncTarget{Bucket: bucket},
		[]s3types.PlannedEntry{needsUpload("a.txt"), needsUpload("b.txt"), needsUpload("c.txt")},
	)

	assert.Equal(t, 2, result.Updated)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "/dir/b.txt", result.Failures[0].Entry.LocalPath)
	assert.Equal(t, s3types.FailureRemote, result.Failures[0].Kind)
	assert.False(t, result.OK())
	assert.Equal(t, 3, result.Total())
	assert.Len(t, tracker.Ticks(), 3)
	assert.Equal(t, 1, tracker.CountOutcome(s3types.OutcomeFailed))
}

func TestPipeline_DetectionFailuresBypassPool(t *testing.T) {
	store, uploader := setup(t, map[string]string{"a.txt": "a"})

	broken := needsUpload("gone.txt")
	broken.Err = stderrors.New("permission denied")
	broken.Kind = s3types.FailureIO

	result := New(uploader, 1).Run(context.Background(), s3types.SyncTarget{Bucket: bucket},
		[]s3types.PlannedEntry{broken, needsUpload("a.txt")})

	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, s3types.FailureIO, result.Failures[0].Kind)
	assert.Equal(t, []string{"host/dir/a.txt"}, store.PutKeys())
}

func TestPipeline_RespectsConcurrencyLimit(t *testing.T) {
	files := make(map[string]string)
	var planned []s3types.PlannedEntry
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("f%02d.txt", i)
		files[name] = name
		planned = append(planned, needsUpload(name))
	}
	store, uploader := setup(t, files)
	store.PutDelay = 20 * time.Millisecond

	result := New(uploader, 3).Run(context.Background(), s3types.SyncTarget{Bucket: bucket}, planned)

	assert.Equal(t, 12, result.Updated)
	assert.LessOrEqual(t, store.MaxInFlight(), 3)
	assert.Greater(t, store.MaxInFlight(), 0)
}

func TestPipeline_CanceledContext(t *testing.T) {
	store, uploader := setup(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tracker := &testutil.MockProgressTracker{}

	result := New(uploader, 1).WithProgressTracker(tracker).Run(ctx, s3types.SyncTarget{Bucket: bucket},
		[]s3types.PlannedEntry{needsUpload("a.txt"), needsUpload("b.txt"), unchanged("c.txt")})

	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Unchanged)
	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.Equal(t, s3types.FailureCanceled, f.Kind)
	}
	assert.Empty(t, store.PutKeys())
	assert.Len(t, tracker.Ticks(), 3)
	assert.Equal(t, 1, tracker.CompleteCalls())
}

func TestPipeline_Empty(t *testing.T) {
	_, uploader := setup(t, nil)
	tracker := &testutil.MockProgressTracker{}

	result := New(uploader, 4).WithProgressTracker(tracker).Run(context.Background(), s3types.SyncTarget{Bucket: bucket}, nil)

	assert.Equal(t, 0, result.Total())
	assert.Empty(t, tracker.Ticks())
	assert.Equal(t, 1, tracker.CompleteCalls())
}

func TestValidateConcurrency(t *testing.T) {
	assert.NoError(t, ValidateConcurrency(1))
	assert.NoError(t, ValidateConcurrency(MaxConcurrency))
	assert.Error(t, ValidateConcurrency(0))
	assert.Error(t, ValidateConcurrency(MaxConcurrency+1))

	p := New(nil, 0)
	assert.NoError(t, p.ValidateConcurrency())
	stats := p.Stats()
	assert.Equal(t, DefaultConcurrency, stats.MaxConcurrency)
	assert.Equal(t, 0, stats.CurrentConcurrency)
	assert.Equal(t, DefaultConcurrency, stats.AvailableSlots)
}
