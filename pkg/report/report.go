// Package report renders the suite's rollup summary as glamour-formatted
// markdown for terminal display.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/rv-nath/satyanaash/pkg/orchestrator"
)

// Render builds a markdown summary of the suite's counters and returns it
// styled for the terminal. On a renderer error (e.g. no usable terminal
// profile) the raw markdown is returned unstyled rather than failing the
// run — the summary is cosmetic, not load-bearing.
func Render(suiteName string, c orchestrator.Counters) string {
	md := markdown(suiteName, c)
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func markdown(suiteName string, c orchestrator.Counters) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", suiteName)
	fmt.Fprintf(&b, "| Total | Passed | Failed | Skipped |\n")
	fmt.Fprintf(&b, "|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n", c.Total, c.Passed, c.Failed, c.Skipped)
	return b.String()
}
