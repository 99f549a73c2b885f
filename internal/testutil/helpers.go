package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/sync-dir-s3/internal/fs"
)

// WriteFiles creates files (relative path to content) under root.
func WriteFiles(t *testing.T, filesystem fs.Filesystem, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, filesystem.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, filesystem.WriteFile(p, []byte(content), 0o644))
	}
}
