// Package prompt asks the user questions on the terminal.
package prompt

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Terminal reads answers line by line. When attached to a TTY, secrets are
// read without echo.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	hidden bool
}

// NewTerminal prompts on out and reads from in. Hidden input is used only
// when in is a terminal.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	fd := int(in.Fd())
	return &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		fd:     fd,
		hidden: term.IsTerminal(fd),
	}
}

// New creates a Terminal over a plain reader. Secrets are read as normal lines.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
}

type answer struct {
	text string
	err  error
}

// await runs read and gives up when ctx is done. The read itself cannot be
// interrupted and finishes in the background.
func await(ctx context.Context, read func() (string, error)) (string, error) {
	ch := make(chan answer, 1)
	go func() {
		text, err := read()
		ch <- answer{text: text, err: err}
	}()

	select {
	case a := <-ch:
		return a.text, a.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if stderrors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask prints question and returns the trimmed answer.
func (t *Terminal) Ask(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprintf(t.out, "%s ", question); err != nil {
		return "", err
	}
	return await(ctx, t.readLine)
}

// Secret prints question and reads an answer without echo.
func (t *Terminal) Secret(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprintf(t.out, "%s ", question); err != nil {
		return "", err
	}
	if !t.hidden {
		return await(ctx, t.readLine)
	}

	return await(ctx, func() (string, error) {
		pw, err := readPassword(t.fd)
		fmt.Fprintln(t.out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	})
}

// Confirm asks a yes/no question. An empty answer or end of input means no.
// Anything other than y, yes, n or no asks again.
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		text, err := t.Ask(ctx, question+" [y/N]")
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				fmt.Fprintln(t.out)
				return false, nil
			}
			return false, err
		}

		switch strings.ToLower(text) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Please answer yes or no.")
	}
}
