package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/maximbilan/esmify/internal/display"
	"github.com/maximbilan/esmify/internal/session"
)

const version = "esmify v1.0.0"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("4"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("10")).
			Padding(0, 1)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

func (m Model) View() string {
	if m.mode == ModeHelp {
		return m.renderHelp()
	}

	width := m.width
	if width == 0 {
		width = 80
	}

	var s strings.Builder
	s.WriteString(m.renderHeader(width))
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", width))
	s.WriteString("\n")

	inputPane := m.renderInputPane()
	outputPane := m.renderOutputPane()
	if m.sideBySide() {
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, inputPane, " ", outputPane))
	} else {
		s.WriteString(inputPane)
		s.WriteString("\n")
		s.WriteString(outputPane)
	}
	s.WriteString("\n")

	if m.mode == ModePrompt {
		s.WriteString(m.pathInput.View())
		s.WriteString("\n")
	} else if m.session.Status() == session.Error {
		s.WriteString(m.renderErrorOverlay(width))
		s.WriteString("\n")
	} else if msg := m.session.ErrorMessage(); msg != "" {
		s.WriteString(errorStyle.Render("✗ " + msg))
		s.WriteString("\n")
	} else if m.notice != "" {
		s.WriteString(mutedStyle.Render(m.notice))
		s.WriteString("\n")
	}

	s.WriteString(m.renderFooter())
	return s.String()
}

func (m Model) renderHeader(width int) string {
	left := headerStyle.Render(version)
	status := m.statusLabel()
	if m.session.Status() == session.Loading {
		status = m.spinner.View() + " " + status
	}
	right := mutedStyle.Render(status)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left + "\n" + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) statusLabel() string {
	switch m.session.Status() {
	case session.Loading:
		return "Converting..."
	case session.Success:
		return "Migration Complete"
	case session.Error:
		return "Error Encountered"
	default:
		return "Waiting for input"
	}
}

func (m Model) renderInputPane() string {
	width, _ := m.paneSize()
	title := "Input: CommonJS"
	if name := m.session.Filename(); name != "" {
		title += " · " + name
	}
	stats := m.session.Stats()
	title = labelStyle.Render(title) + " " + mutedStyle.Render(statsLabel(stats.Lines, stats.Chars))

	body := m.input.View()
	if !m.editable {
		body = m.preview.View()
		title += " " + warnStyle.Render("(read-only preview)")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.paneBox(focusInput, width).Render(body))
}

func (m Model) renderOutputPane() string {
	width, _ := m.paneSize()
	title := labelStyle.Render("Output: ES Module")
	if output := m.session.Output(); output != "" {
		title += " " + mutedStyle.Render(statsLabel(strings.Count(output, "\n")+1, display.Length(output)))
	}
	if m.session.HeaderInjected() {
		title += " " + badgeStyle.Render("Header Injected")
	}
	if m.showChanges {
		title += " " + mutedStyle.Render("(changes)")
	} else if banner := m.session.Display().Banner(); banner != "" && m.session.Output() != "" {
		title += " " + warnStyle.Render(banner)
	}
	if m.session.Copied() {
		title += " " + badgeStyle.Render("Copied!")
	}

	body := m.output.View()
	if m.session.Status() == session.Loading {
		body = m.spinner.View() + " Analyzing dependencies & converting syntax..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.paneBox(focusOutput, width).Render(body))
}

func statsLabel(lines, chars int) string {
	return fmt.Sprintf("%s lines, %s chars", humanize.Comma(int64(lines)), humanize.Comma(int64(chars)))
}

func (m Model) paneBox(pane focus, width int) lipgloss.Style {
	border := lipgloss.Color("8")
	if m.focus == pane {
		border = lipgloss.Color("6")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width)
}

func (m Model) renderErrorOverlay(width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("9")).
		Padding(0, 1).
		Width(max(20, width-4))

	var content strings.Builder
	content.WriteString(errorStyle.Render("Conversion Interrupted"))
	content.WriteString("\n")
	content.WriteString(m.session.ErrorMessage())
	content.WriteString("\n")
	content.WriteString(mutedStyle.Render("Esc: Dismiss & Retry"))
	return box.Render(content.String())
}

func (m Model) renderFooter() string {
	shortcuts := []string{"Ctrl+R convert", "Ctrl+O load", "Tab focus", "F1 help", "Ctrl+C quit"}
	if m.session.Output() != "" {
		shortcuts = []string{"Ctrl+R convert", "Ctrl+Y copy", "Ctrl+W save", "Ctrl+D changes", "F1 help", "Ctrl+C quit"}
		if m.session.Display().Large() {
			shortcuts = slices.Insert(shortcuts, 4, "Ctrl+T highlight")
		}
	}
	return mutedStyle.Render(strings.Join(shortcuts, " • "))
}

func (m Model) renderHelp() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	helpStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("6")).
		Padding(1, 2).
		Width(width - 4).
		Height(height - 4)

	var content strings.Builder
	content.WriteString(labelStyle.Render("esmify - Keyboard Shortcuts"))
	content.WriteString("\n\n")

	content.WriteString(labelStyle.Render("Conversion:"))
	content.WriteString("\n")
	content.WriteString("  Ctrl+R    Convert the input to ES Modules\n")
	content.WriteString("  Ctrl+O    Load a .js, .ts, .txt or .json file\n")
	content.WriteString("  Ctrl+V    Paste from the clipboard\n")
	content.WriteString("  Ctrl+L    Clear the input\n")
	content.WriteString("  Esc       Dismiss an error\n\n")

	content.WriteString(labelStyle.Render("Output:"))
	content.WriteString("\n")
	content.WriteString("  Ctrl+Y    Copy the output\n")
	content.WriteString("  Ctrl+W    Save the output as a .js file\n")
	content.WriteString("  Ctrl+T    Toggle highlighting for large output\n")
	content.WriteString("  Ctrl+D    Toggle the changes view\n\n")

	content.WriteString(labelStyle.Render("Navigation:"))
	content.WriteString("\n")
	content.WriteString("  Tab       Switch between input and output\n")
	content.WriteString("  F1        Show this help\n")
	content.WriteString("  Ctrl+C    Quit\n")

	return helpStyle.Render(content.String())
}
