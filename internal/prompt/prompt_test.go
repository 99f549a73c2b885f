package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Ask(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("  my-bucket \n"), &out)

	got, err := term.Ask(context.Background(), "Bucket:")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", got)
	assert.Equal(t, "Bucket: ", out.String())
}

func TestTerminal_AskPartialLineAtEOF(t *testing.T) {
	term := New(strings.NewReader("last"), io.Discard)

	got, err := term.Ask(context.Background(), "Bucket:")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = term.Ask(context.Background(), "Bucket:")
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerminal_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
		{"maybe\nyes\n", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			term := New(strings.NewReader(tt.input), io.Discard)
			got, err := term.Confirm(context.Background(), "Sync 2 file(s)?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminal_Secret(t *testing.T) {
	t.Run("plain reader", func(t *testing.T) {
		term := New(strings.NewReader("hunter2\n"), io.Discard)
		got, err := term.Secret(context.Background(), "Password:")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", got)
	})

	t.Run("hidden input", func(t *testing.T) {
		orig := readPassword
		t.Cleanup(func() { readPassword = orig })
		readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

		var out bytes.Buffer
		term := New(strings.NewReader(""), &out)
		term.hidden = true

		got, err := term.Secret(context.Background(), "Password:")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", got)
		assert.Equal(t, "Password: \n", out.String())
	})
}

func TestTerminal_ContextCanceled(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })
	term := New(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := term.Ask(ctx, "Bucket:")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
