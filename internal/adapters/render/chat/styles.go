package chat

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	network   lipgloss.Style
	sender    lipgloss.Style
	recipient lipgloss.Style
	meta      lipgloss.Style
	quote     lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	summary   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		network:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		sender:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		recipient: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		quote:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
		summary:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
	}
}
