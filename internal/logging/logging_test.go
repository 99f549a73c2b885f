package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("default level hides debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, false)

		logger.Debug("hidden")
		logger.Info("also hidden")
		logger.Warn("shown", "key", "value")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "shown")
		assert.Contains(t, out, "key=value")
		assert.NotContains(t, out, "\x1b[", "non-terminal output must not be colored")
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, true).Debug("details")
		assert.Contains(t, buf.String(), "details")
	})
}
