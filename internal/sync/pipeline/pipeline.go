// Package pipeline runs the uploads of a sync with bounded concurrency.
//
// Unchanged files and files whose detection failed never enter the worker
// pool; they are accounted for directly. Every entry produces exactly one
// progress tick and exactly one outcome in the returned SyncResult.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/input-output-hk/sync-dir-s3/internal/upload"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

const (
	// DefaultConcurrency is used when a non-positive limit is given.
	DefaultConcurrency = 5

	// MaxConcurrency is the highest accepted limit.
	MaxConcurrency = 100
)

// Uploader uploads one planned file and reports the bytes sent.
type Uploader interface {
	Upload(ctx context.Context, target s3types.SyncTarget, planned s3types.PlannedEntry) (int64, error)
}

// Pipeline executes uploads with a concurrency cap.
type Pipeline struct {
	uploader Uploader

	// Concurrency control
	maxConcurrency int
	semaphore      chan struct{}

	progress s3types.ProgressTracker
	logger   *slog.Logger
}

// New creates a pipeline allowing at most maxConcurrency uploads in flight.
func New(uploader Uploader, maxConcurrency int) *Pipeline {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}

	return &Pipeline{
		uploader:       uploader,
		maxConcurrency: maxConcurrency,
		semaphore:      make(chan struct{}, maxConcurrency),
		logger:         slog.Default(),
	}
}

// WithProgressTracker sets the progress tracker for the pipeline.
func (p *Pipeline) WithProgressTracker(tracker s3types.ProgressTracker) *Pipeline {
	p.progress = tracker
	return p
}

// WithLogger sets the logger for the pipeline.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// result aggregates outcomes from concurrent workers.
type result struct {
	mu            sync.Mutex
	updated       int
	unchanged     int
	failures      []s3types.SyncFailure
	bytesUploaded int64
}

func (r *result) addUpdated(bytes int64) {
	atomic.AddInt64(&r.bytesUploaded, bytes)
	r.mu.Lock()
	r.updated++
	r.mu.Unlock()
}

func (r *result) addUnchanged() {
	r.mu.Lock()
	r.unchanged++
	r.mu.Unlock()
}

func (r *result) addFailure(entry s3types.FileEntry, kind s3types.FailureKind, err error) {
	r.mu.Lock()
	r.failures = append(r.failures, s3types.SyncFailure{Entry: entry, Kind: kind, Err: err})
	r.mu.Unlock()
}

// Run uploads every NeedsUpload entry and returns once all of them have settled.
// A failing file never cancels its siblings.
func (p *Pipeline) Run(ctx context.Context, target s3types.SyncTarget, planned []s3types.PlannedEntry) *s3types.SyncResult {
	startTime := time.Now()
	agg := &result{}
	var wg sync.WaitGroup

	for _, entry := range planned {
		switch {
		case entry.Err != nil:
			p.fail(agg, entry.Entry, entry.Kind, entry.Err)
			continue
		case entry.Decision == s3types.Unchanged:
			agg.addUnchanged()
			p.tick(entry.Entry, s3types.OutcomeUnchanged)
			continue
		}

		if err := ctx.Err(); err != nil {
			p.fail(agg, entry.Entry, s3types.FailureCanceled, fmt.Errorf("not started: %w", err))
			continue
		}

		// Acquire semaphore
		select {
		case p.semaphore <- struct{}{}:
		case <-ctx.Done():
			p.fail(agg, entry.Entry, s3types.FailureCanceled, fmt.Errorf("not started: %w", ctx.Err()))
			continue
		}

		wg.Add(1)
		go func(entry s3types.PlannedEntry) {
			defer func() {
				// Release semaphore
				<-p.semaphore
				wg.Done()
			}()

			n, err := p.uploader.Upload(ctx, target, entry)
			if err != nil {
				p.fail(agg, entry.Entry, upload.KindOf(err), err)
				return
			}

			agg.addUpdated(n)
			p.logger.Debug("uploaded file", "path", entry.Entry.LocalPath, "key", entry.Entry.RemoteKey, "reason", entry.Reason)
			p.tick(entry.Entry, s3types.OutcomeUpdated)
		}(entry)
	}

	// Wait for all uploads to settle before reporting
	wg.Wait()

	if p.progress != nil {
		p.progress.Complete()
	}

	sort.Slice(agg.failures, func(i, j int) bool {
		return agg.failures[i].Entry.LocalPath < agg.failures[j].Entry.LocalPath
	})

	return &s3types.SyncResult{
		Updated:       agg.updated,
		Unchanged:     agg.unchanged,
		Failures:      agg.failures,
		BytesUploaded: atomic.LoadInt64(&agg.bytesUploaded),
		Duration:      time.Since(startTime),
	}
}

func (p *Pipeline) fail(agg *result, entry s3types.FileEntry, kind s3types.FailureKind, err error) {
	agg.addFailure(entry, kind, err)
	p.logger.Debug("file failed", "path", entry.LocalPath, "key", entry.RemoteKey, "kind", kind, "error", err)
	p.tick(entry, s3types.OutcomeFailed)
}

func (p *Pipeline) tick(entry s3types.FileEntry, outcome s3types.Outcome) {
	if p.progress != nil {
		p.progress.Tick(entry, outcome)
	}
}

// ValidateConcurrency checks if the concurrency settings are valid.
func (p *Pipeline) ValidateConcurrency() error {
	return ValidateConcurrency(p.maxConcurrency)
}

// ValidateConcurrency checks a concurrency limit.
func ValidateConcurrency(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", limit)
	}
	if limit > MaxConcurrency {
		return fmt.Errorf("max concurrency too high: %d (recommended: <= %d)", limit, MaxConcurrency)
	}
	return nil
}

// Stats returns current execution statistics.
func (p *Pipeline) Stats() Stats {
	return Stats{
		MaxConcurrency:     p.maxConcurrency,
		CurrentConcurrency: len(p.semaphore),
		AvailableSlots:     cap(p.semaphore) - len(p.semaphore),
	}
}

// Stats contains statistics about the pipeline's current state.
type Stats struct {
	// MaxConcurrency is the maximum allowed concurrent uploads
	MaxConcurrency int

	// CurrentConcurrency is the current number of running uploads
	CurrentConcurrency int

	// AvailableSlots is the number of available concurrency slots
	AvailableSlots int
}
