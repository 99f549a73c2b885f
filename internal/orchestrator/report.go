package orchestrator

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/input-output-hk/sync-dir-s3/s3types"
)

var (
	red  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	gray = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// report prints the counts unless quiet. Failures are always printed.
func (o *Orchestrator) report(result *s3types.SyncResult) {
	if !o.opts.Quiet {
		fmt.Fprintf(o.deps.Stdout, "updated %d files\n", result.Updated)
		fmt.Fprintf(o.deps.Stdout, "%d files were unchanged\n", result.Unchanged)
	}

	for _, f := range result.Failures {
		fmt.Fprintf(o.deps.Stderr, "%s %s\n",
			red.Render(fmt.Sprintf("failed: %s:", f.Entry.LocalPath)),
			gray.Render(f.Err.Error()),
		)
	}
}
