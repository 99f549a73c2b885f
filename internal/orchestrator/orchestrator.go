// Package orchestrator drives one sync run from credential setup to the
// final report.
//
// A run moves through a fixed sequence of states. Every prompt happens
// before the first remote request, and declining a confirmation ends the run
// with no side effects.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/internal/progress"
	"github.com/input-output-hk/sync-dir-s3/internal/remote"
	"github.com/input-output-hk/sync-dir-s3/internal/sync/detector"
	"github.com/input-output-hk/sync-dir-s3/internal/sync/pipeline"
	"github.com/input-output-hk/sync-dir-s3/internal/upload"
	"github.com/input-output-hk/sync-dir-s3/internal/validation"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

// State is a step of a run.
type State string

const (
	StateEnumerating       State = "enumerating"
	StateAwaitCredentials  State = "await-credentials"
	StateAwaitBucket       State = "await-bucket"
	StateAwaitConfirmation State = "await-confirmation"
	StateExecuting         State = "executing"
	StateReporting         State = "reporting"
	StateDone              State = "done"
)

// Prompter asks the user questions.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	Secret(ctx context.Context, question string) (string, error)
	Confirm(ctx context.Context, question string) (bool, error)
}

// CredentialStore persists the credential record.
type CredentialStore interface {
	Exists() bool
	Path() string
	Load(password string) (s3types.Credentials, error)
	Save(ctx context.Context, password string, record s3types.Credentials) error
}

// Enumerator lists the candidate files of a run.
type Enumerator interface {
	Enumerate(ctx context.Context, root string, recursive bool) (*s3types.Listing, error)
}

// ClientFactory builds the remote client once credentials are known.
type ClientFactory func(ctx context.Context, creds s3types.Credentials) (*remote.Client, error)

// Options are the user choices of a run.
type Options struct {
	Dir         string
	Bucket      string
	Recursive   bool
	Quiet       bool
	Public      bool
	Yes         bool
	Password    string
	Concurrency int
}

// Dependencies are the collaborators of a run.
type Dependencies struct {
	Prompter     Prompter
	Vault        CredentialStore
	Enumerator   Enumerator
	NewClient    ClientFactory
	Filesystem   fs.Filesystem
	UploaderInfo string

	// NewProgress builds the tracker for a run of total files. Ignored in quiet mode.
	NewProgress func(total int) s3types.ProgressTracker

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Orchestrator runs a single sync.
type Orchestrator struct {
	opts  Options
	deps  Dependencies
	state State
}

// New creates an Orchestrator.
func New(opts Options, deps Dependencies) *Orchestrator {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.NewProgress == nil {
		out := deps.Stdout
		deps.NewProgress = func(total int) s3types.ProgressTracker {
			return progress.NewBar(out, total)
		}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = pipeline.DefaultConcurrency
	}

	return &Orchestrator{opts: opts, deps: deps, state: StateEnumerating}
}

// State returns the state the run reached.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) enter(state State) {
	o.deps.Logger.Debug("sync state", "from", o.state, "to", state)
	o.state = state
}

// Run performs the sync. It returns a nil result and a nil error when the user
// declines. A run with failed files returns its result together with an error
// matching errors.ErrSyncFailed. The run ends in StateDone on every path.
func (o *Orchestrator) Run(ctx context.Context) (*s3types.SyncResult, error) {
	defer o.enter(StateDone)

	result, err := o.run(ctx)
	if errors.IsUserDeclined(err) {
		o.deps.Logger.Debug("run declined")
		return nil, nil
	}
	return result, err
}

func (o *Orchestrator) run(ctx context.Context) (*s3types.SyncResult, error) {
	o.enter(StateEnumerating)
	listing, err := o.deps.Enumerator.Enumerate(ctx, o.opts.Dir, o.opts.Recursive)
	if err != nil {
		return nil, err
	}
	if len(listing.Entries) == 0 {
		if len(listing.Failures) == 0 {
			fmt.Fprintln(o.deps.Stdout, "There are no files to sync.")
			return &s3types.SyncResult{}, nil
		}
		o.enter(StateReporting)
		return o.finish(&s3types.SyncResult{Failures: listing.Failures})
	}

	o.enter(StateAwaitCredentials)
	creds, err := o.credentials(ctx)
	if err != nil {
		return nil, err
	}

	client, err := o.deps.NewClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	o.enter(StateAwaitBucket)
	target, err := o.target(ctx)
	if err != nil {
		return nil, err
	}

	o.enter(StateAwaitConfirmation)
	if err := o.confirm(ctx, target, len(listing.Entries)); err != nil {
		return nil, err
	}

	o.enter(StateExecuting)
	result := o.execute(ctx, client, target, listing)

	o.enter(StateReporting)
	return o.finish(result)
}

// finish prints the report and turns failed files into the run error.
func (o *Orchestrator) finish(result *s3types.SyncResult) (*s3types.SyncResult, error) {
	o.report(result)
	if !result.OK() {
		return result, fmt.Errorf("%w: %d of %d file(s) failed", errors.ErrSyncFailed, len(result.Failures), result.Total())
	}
	return result, nil
}

// credentials loads the vault, or asks for a new key pair and offers to save it.
func (o *Orchestrator) credentials(ctx context.Context) (s3types.Credentials, error) {
	p := o.deps.Prompter

	if o.deps.Vault.Exists() {
		password := o.opts.Password
		if password == "" {
			var err error
			if password, err = p.Secret(ctx, "Password:"); err != nil {
				return s3types.Credentials{}, err
			}
		}
		return o.deps.Vault.Load(password)
	}

	fmt.Fprintln(o.deps.Stdout, "\nCredentials could not be found.")
	fmt.Fprintln(o.deps.Stdout)

	key, err := p.Ask(ctx, "AWS Access Key:")
	if err != nil {
		return s3types.Credentials{}, err
	}
	secret, err := p.Secret(ctx, "AWS Secret Key:")
	if err != nil {
		return s3types.Credentials{}, err
	}
	creds := s3types.Credentials{AccessKey: key, SecretKey: secret}
	if !creds.Valid() {
		return s3types.Credentials{}, errors.NewError("credentials", errors.ErrInvalidInput).
			WithMessage("access key and secret key are required")
	}

	save, err := p.Confirm(ctx, fmt.Sprintf("Save credentials in: %s?", o.deps.Vault.Path()))
	if err != nil {
		return s3types.Credentials{}, err
	}
	if !save {
		o.deps.Logger.Debug("continuing without saving credentials")
		return creds, nil
	}

	fmt.Fprintln(o.deps.Stdout, "\nCredentials will be encrypted.")
	fmt.Fprintln(o.deps.Stdout)
	password, err := p.Secret(ctx, "Enter a password:")
	if err != nil {
		return s3types.Credentials{}, err
	}
	if password == "" {
		return s3types.Credentials{}, errors.NewError("credentials", errors.ErrInvalidInput).
			WithMessage("password must not be empty")
	}
	if err := o.deps.Vault.Save(ctx, password, creds); err != nil {
		return s3types.Credentials{}, err
	}
	return creds, nil
}

func (o *Orchestrator) target(ctx context.Context) (s3types.SyncTarget, error) {
	bucket := o.opts.Bucket
	if bucket == "" {
		var err error
		if bucket, err = o.deps.Prompter.Ask(ctx, "Bucket:"); err != nil {
			return s3types.SyncTarget{}, err
		}
	}
	if err := validation.ValidateBucketName(bucket); err != nil {
		return s3types.SyncTarget{}, err
	}
	return s3types.SyncTarget{Bucket: bucket, PublicRead: o.opts.Public}, nil
}

func (o *Orchestrator) confirm(ctx context.Context, target s3types.SyncTarget, count int) error {
	if o.opts.Yes {
		return nil
	}

	if target.PublicRead {
		ok, err := o.deps.Prompter.Confirm(ctx, "Are you sure you want these files to be public?")
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrUserDeclined
		}
	}

	ok, err := o.deps.Prompter.Confirm(ctx, fmt.Sprintf("Sync %d file(s)?", count))
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrUserDeclined
	}
	return nil
}

func (o *Orchestrator) execute(
	ctx context.Context,
	client *remote.Client,
	target s3types.SyncTarget,
	listing *s3types.Listing,
) *s3types.SyncResult {
	var tracker s3types.ProgressTracker = progress.Nop{}
	if !o.opts.Quiet {
		tracker = o.deps.NewProgress(listing.Total())
	}

	det := detector.New(o.deps.Filesystem, client, o.deps.Logger)
	planned := det.Plan(ctx, target.Bucket, listing.Entries, o.opts.Concurrency)
	for _, failure := range listing.Failures {
		planned = append(planned, s3types.PlannedEntry{Entry: failure.Entry, Err: failure.Err, Kind: failure.Kind})
	}

	uploader := upload.New(client.API(), o.deps.Filesystem, o.deps.UploaderInfo, o.deps.Logger)
	result := pipeline.New(uploader, o.opts.Concurrency).
		WithProgressTracker(tracker).
		WithLogger(o.deps.Logger).
		Run(ctx, target, planned)

	o.deps.Logger.Info("sync finished",
		"bucket", target.Bucket,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"failed", len(result.Failures),
		"uploaded", humanize.Bytes(uint64(result.BytesUploaded)),
		"duration", result.Duration,
	)
	return result
}
