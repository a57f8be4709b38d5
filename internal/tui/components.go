package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fwrdcast/internal/model"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
// Width is used to guide truncation via helpers.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderMuted renders text in muted color (utility wrapper).
func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderHelp renders help/instructional text consistently.
func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderModal lays out a confirmation dialog.
func renderModal(width, height int, title, question, subject, note, help string) string {
	modalWidth := (width * 4) / 5
	if modalWidth < 20 {
		modalWidth = max(width-4, 15)
	}
	block := lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Center)
	rows := []string{
		ErrorMessageStyle.Render(title),
		"",
		block.Inherit(ModalTextStyle).Render(question),
		"",
		block.Inherit(ModalHighlightStyle).Render(truncateEnd(subject, modalWidth-4)),
	}
	if note != "" {
		rows = append(rows, "", block.Foreground(MutedColor).Render(note))
	}
	rows = append(rows, "", "", renderHelp(help))
	return renderCentered(width, height, lipgloss.JoinVertical(lipgloss.Center, rows...))
}

// renderPlayerBar draws the one-line now-playing strip. Unknown
// durations render as a bare position without a progress bar.
func renderPlayerBar(p *model.PlayerSession, title string, bar progress.Model, width int, failed bool) string {
	if p == nil {
		return ""
	}
	icon := "⏸"
	if p.Playing {
		icon = "▶"
	}
	if failed {
		icon = "✗"
	}

	clock := formatClock(p.Position())
	if p.Duration > 0 {
		clock += " / " + formatClock(p.Duration)
	}
	flags := []string{fmt.Sprintf("%gx", p.PlaybackRate)}
	if p.Loop {
		flags = append(flags, "⟲")
	}
	right := clock + "  " + strings.Join(flags, " ")

	titleWidth := width / 3
	left := fmt.Sprintf("%s %s", icon, truncateEnd(title, titleWidth))

	barWidth := width - lipgloss.Width(left) - lipgloss.Width(right) - 8
	middle := ""
	if p.Duration > 0 && barWidth >= 10 {
		bar.Width = barWidth
		middle = bar.ViewAs(p.Played)
	}

	line := strings.Join(nonEmpty(left, middle, right), "  ")
	return PlayerBarStyle.Width(width).Render(line)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
