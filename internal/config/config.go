// Package config resolves the settings of a sync run from defaults, an
// optional YAML file, SYNC_DIR_S3_* environment variables and flags.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/input-output-hk/sync-dir-s3/internal/sync/enumerator"
	"github.com/input-output-hk/sync-dir-s3/internal/sync/pipeline"
	"github.com/input-output-hk/sync-dir-s3/internal/validation"
)

// EnvPrefix is the prefix of environment overrides, e.g. SYNC_DIR_S3_BUCKET.
const EnvPrefix = "SYNC_DIR_S3"

const configFileName = "config"

// Defaults for the remote client.
const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 5 * time.Minute
)

// Keys shared by the config file, the environment and flag bindings.
const (
	KeyDir         = "dir"
	KeyBucket      = "bucket"
	KeyRecursive   = "recursive"
	KeyQuiet       = "quiet"
	KeyPublic      = "public"
	KeyYes         = "yes"
	KeyPassword    = "password"
	KeyConcurrency = "concurrency"
	KeyRegion      = "region"
	KeyEndpoint    = "endpoint"
	KeyPathStyle   = "path_style"
	KeyKeyPolicy   = "key_policy"
	KeyKeyPrefix   = "key_prefix"
	KeyExclude     = "exclude"
	KeyVault       = "vault"
	KeyVerbose     = "verbose"
	KeyMaxRetries  = "max_retries"
	KeyTimeout     = "timeout"
)

// Config is the resolved configuration of one run.
type Config struct {
	Path string // config file used, if any

	Dir         string
	Bucket      string
	Recursive   bool
	Quiet       bool
	Public      bool
	Yes         bool
	Password    string
	Concurrency int

	Region     string
	Endpoint   string
	PathStyle  bool
	MaxRetries int
	Timeout    time.Duration

	KeyPolicy string
	KeyPrefix string
	Exclude   []string
	VaultPath string
	Verbose   bool
}

// DefaultConcurrency is twice the CPU count, capped at 16.
func DefaultConcurrency() int {
	return min(2*runtime.NumCPU(), 16)
}

// DefaultConfigDir is $XDG_CONFIG_HOME/sync-dir-s3, usually ~/.config/sync-dir-s3.
var DefaultConfigDir = func() string {
	return filepath.Join(xdg.ConfigHome, "sync-dir-s3")
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDir, ".")
	v.SetDefault(KeyConcurrency, DefaultConcurrency())
	v.SetDefault(KeyKeyPolicy, enumerator.PolicyHost)
	v.SetDefault(KeyMaxRetries, DefaultMaxRetries)
	v.SetDefault(KeyTimeout, DefaultTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads configFile into v. Without a path the default location is
// tried and a missing file is not an error.
func ReadFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && (stderrors.As(err, &notFound) || stderrors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// FromViper builds a Config from the values resolved by v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Path:        v.ConfigFileUsed(),
		Dir:         v.GetString(KeyDir),
		Bucket:      v.GetString(KeyBucket),
		Recursive:   v.GetBool(KeyRecursive),
		Quiet:       v.GetBool(KeyQuiet),
		Public:      v.GetBool(KeyPublic),
		Yes:         v.GetBool(KeyYes),
		Password:    v.GetString(KeyPassword),
		Concurrency: v.GetInt(KeyConcurrency),
		Region:      v.GetString(KeyRegion),
		Endpoint:    v.GetString(KeyEndpoint),
		PathStyle:   v.GetBool(KeyPathStyle),
		MaxRetries:  v.GetInt(KeyMaxRetries),
		Timeout:     v.GetDuration(KeyTimeout),
		KeyPolicy:   v.GetString(KeyKeyPolicy),
		KeyPrefix:   v.GetString(KeyKeyPrefix),
		Exclude:     v.GetStringSlice(KeyExclude),
		VaultPath:   v.GetString(KeyVault),
		Verbose:     v.GetBool(KeyVerbose),
	}
}

// Load reads the optional config file and returns the validated Config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := ReadFile(v, configFile); err != nil {
		return nil, err
	}
	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that can be checked before any prompt.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if err := pipeline.ValidateConcurrency(c.Concurrency); err != nil {
		return fmt.Errorf("concurrency: %w", err)
	}
	switch c.KeyPolicy {
	case enumerator.PolicyHost, enumerator.PolicyRelative:
	default:
		return fmt.Errorf("unknown key policy %q (want %q or %q)",
			c.KeyPolicy, enumerator.PolicyHost, enumerator.PolicyRelative)
	}
	if c.Bucket != "" {
		if err := validation.ValidateBucketName(c.Bucket); err != nil {
			return err
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
