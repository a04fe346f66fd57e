package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("14")  // cyan
	sender  = lipgloss.Color("10")  // green
	muted   = lipgloss.Color("245") // light gray
	cursor  = lipgloss.Color("11")  // yellow
	divider = lipgloss.Color("237")

	styleQuery  = lipgloss.NewStyle().Foreground(accent)
	stylePrompt = lipgloss.NewStyle().Foreground(accent).Bold(true)

	styleCursor = lipgloss.NewStyle().Foreground(cursor).Bold(true)
	styleSender = lipgloss.NewStyle().Foreground(sender).Bold(true)
	styleNotice = lipgloss.NewStyle().Foreground(muted).Italic(true)
	styleMuted  = lipgloss.NewStyle().Foreground(muted)

	styleEmpty = styleMuted.Align(lipgloss.Center, lipgloss.Center)

	// the message list and the conversation pane
	styleListPane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(divider)
	styleChatPane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent)

	styleModeBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(accent).
			Padding(0, 1)
	styleStatus = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)
)
