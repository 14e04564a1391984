package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	removedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	addedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unchangedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// lineDiff compares original and converted line by line
func lineDiff(original, converted string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(original, converted)
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

// renderChanges shows every line of the conversion prefixed with +, - or two spaces
func renderChanges(original, converted string) string {
	var styled strings.Builder
	for _, diff := range lineDiff(original, converted) {
		prefix, style := "  ", unchangedStyle
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix, style = "- ", removedStyle
		case diffmatchpatch.DiffInsert:
			prefix, style = "+ ", addedStyle
		}
		for _, line := range splitLines(diff.Text) {
			styled.WriteString(style.Render(prefix + line))
			styled.WriteString("\n")
		}
	}
	return styled.String()
}

// changeSummary counts added and removed lines
func changeSummary(original, converted string) (added, removed int) {
	for _, diff := range lineDiff(original, converted) {
		n := len(splitLines(diff.Text))
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// splitLines splits text into lines without producing a trailing empty line
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
