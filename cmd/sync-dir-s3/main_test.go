package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/sync-dir-s3/internal/config"
)

func TestFlagsOverrideConfig(t *testing.T) {
	t.Setenv("SYNC_DIR_S3_BUCKET", "from-env")
	t.Setenv("SYNC_DIR_S3_REGION", "eu-west-1")

	v := config.NewViper()
	flags := pflag.NewFlagSet("sync-dir-s3", pflag.ContinueOnError)
	defineFlags(flags)
	require.NoError(t, bindFlags(v, flags))

	require.NoError(t, flags.Parse([]string{
		"--bucket", "from-flag",
		"-r", "-q", "-y",
		"-c", "7",
		"--exclude", "*.tmp",
		"--exclude", ".git/",
		"--timeout", "10s",
	}))

	cfg := config.FromViper(v)
	assert.Equal(t, "from-flag", cfg.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Region, "unset flags fall back to the environment")
	assert.True(t, cfg.Recursive)
	assert.True(t, cfg.Quiet)
	assert.True(t, cfg.Yes)
	assert.False(t, cfg.Public)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, []string{"*.tmp", ".git/"}, cfg.Exclude)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, config.DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, "host", cfg.KeyPolicy)
}
