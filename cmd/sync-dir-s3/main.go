package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/input-output-hk/sync-dir-s3/internal/config"
	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/internal/logging"
	"github.com/input-output-hk/sync-dir-s3/internal/orchestrator"
	"github.com/input-output-hk/sync-dir-s3/internal/prompt"
	"github.com/input-output-hk/sync-dir-s3/internal/remote"
	"github.com/input-output-hk/sync-dir-s3/internal/sync/enumerator"
	"github.com/input-output-hk/sync-dir-s3/internal/sysinfo"
	"github.com/input-output-hk/sync-dir-s3/internal/vault"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

var red = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   "sync-dir-s3 [dir]",
	Short: "Upload a directory to S3, skipping files whose content did not change",
	Long: `sync-dir-s3 uploads the files of a directory (the current one by default)
to an S3 bucket. Credentials are kept in a password protected file in your
home directory. Files whose content matches the uploaded copy are skipped.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.SortFlags = false
	defineFlags(flags)

	if err := bindFlags(v, flags); err != nil {
		panic(err)
	}
}

func defineFlags(flags *pflag.FlagSet) {
	flags.BoolP("yes", "y", false, "Answer yes to all questions")
	flags.BoolP("recursive", "r", false, "Sync subdirectories too")
	flags.BoolP("quiet", "q", false, "Suppress progress info")
	flags.Bool("public", false, "Make files public")
	flags.String("bucket", "", "Target bucket")
	flags.String("password", "", "Vault password")
	flags.IntP("concurrency", "c", config.DefaultConcurrency(), "Maximum concurrent requests")
	flags.String("region", "", "AWS region (default from the AWS config, then us-east-1)")
	flags.String("endpoint", "", "Custom S3 endpoint for S3-compatible services")
	flags.Bool("path-style", false, "Use path-style bucket addressing")
	flags.String("key-policy", enumerator.PolicyHost, "Object key policy: host or relative")
	flags.String("key-prefix", "", "Key prefix for the relative key policy")
	flags.StringSlice("exclude", nil, "Glob patterns to exclude (repeatable)")
	flags.String("vault", "", "Credential vault file (default $HOME/.sync-dir-s3)")
	flags.Int("max-retries", config.DefaultMaxRetries, "Maximum attempts per request")
	flags.Duration("timeout", config.DefaultTimeout, "HTTP timeout per request")
	flags.String("config", "", "Config file (default $XDG_CONFIG_HOME/sync-dir-s3/config.yaml)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
}

// bindFlags lets flags override the config file and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		config.KeyYes:         "yes",
		config.KeyRecursive:   "recursive",
		config.KeyQuiet:       "quiet",
		config.KeyPublic:      "public",
		config.KeyBucket:      "bucket",
		config.KeyPassword:    "password",
		config.KeyConcurrency: "concurrency",
		config.KeyRegion:      "region",
		config.KeyEndpoint:    "endpoint",
		config.KeyPathStyle:   "path-style",
		config.KeyKeyPolicy:   "key-policy",
		config.KeyKeyPrefix:   "key-prefix",
		config.KeyExclude:     "exclude",
		config.KeyVault:       "vault",
		config.KeyMaxRetries:  "max-retries",
		config.KeyTimeout:     "timeout",
		config.KeyVerbose:     "verbose",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		v.Set(config.KeyDir, args[0])
	}
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)
	if cfg.Path != "" {
		logger.Debug("using config file", "path", cfg.Path)
	}

	info := sysinfo.Detect(ctx)
	keys, err := enumerator.ParsePolicy(cfg.KeyPolicy, info.Hostname, cfg.KeyPrefix)
	if err != nil {
		return err
	}

	vaultOpts := []vault.Option{vault.WithLogger(logger)}
	if cfg.VaultPath != "" {
		vaultOpts = append(vaultOpts, vault.WithPath(cfg.VaultPath))
	}
	credentialVault, err := vault.New(vaultOpts...)
	if err != nil {
		return err
	}

	filesystem := fs.NewOSFS("/")
	enum := enumerator.New(filesystem, keys,
		enumerator.WithLogger(logger),
		enumerator.WithExclude(cfg.Exclude...),
		enumerator.WithSkipPaths(credentialVault.Path(), credentialVault.Path()+".lock"),
	)

	newClient := func(ctx context.Context, creds s3types.Credentials) (*remote.Client, error) {
		return remote.New(ctx, creds,
			remote.WithRegion(cfg.Region),
			remote.WithEndpoint(cfg.Endpoint),
			remote.WithForcePathStyle(cfg.PathStyle),
			remote.WithMaxRetries(cfg.MaxRetries),
			remote.WithTimeout(cfg.Timeout),
			remote.WithLogger(logger),
		)
	}

	o := orchestrator.New(orchestrator.Options{
		Dir:         cfg.Dir,
		Bucket:      cfg.Bucket,
		Recursive:   cfg.Recursive,
		Quiet:       cfg.Quiet,
		Public:      cfg.Public,
		Yes:         cfg.Yes,
		Password:    cfg.Password,
		Concurrency: cfg.Concurrency,
	}, orchestrator.Dependencies{
		Prompter:     prompt.NewTerminal(os.Stdin, os.Stdout),
		Vault:        credentialVault,
		Enumerator:   enum,
		NewClient:    newClient,
		Filesystem:   filesystem,
		UploaderInfo: info.String(),
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Logger:       logger,
	})

	_, err = o.Run(ctx)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red.Render("error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}
