// Package style holds the color palette and named styles used for case
// result lines and verbose dumps, adapted from the richer TUI palette
// down to what a line-oriented test runner needs.
package style

import "github.com/charmbracelet/lipgloss"

var (
	DimColor     = lipgloss.Color("#6c6c6c")
	AccentColor  = lipgloss.Color("#7aa2f7")
	ErrorColor   = lipgloss.Color("#f7768e")
	SuccessColor = lipgloss.Color("#73daca")
	WarningColor = lipgloss.Color("#e0af68")
)

var (
	PassedStyle  = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	FailedStyle  = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	SkippedStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(DimColor)
	AccentStyle  = lipgloss.NewStyle().Foreground(AccentColor)
)

// ResultLine renders one case's terminal result line, e.g. "✅ PASSED".
func ResultLine(result string) string {
	switch result {
	case "Passed":
		return PassedStyle.Render("✅ PASSED")
	case "Failed":
		return FailedStyle.Render("❌ FAILED")
	case "Skipped":
		return SkippedStyle.Render("⚠️ SKIPPED")
	default:
		return result
	}
}
