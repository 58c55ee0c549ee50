package transcript

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	body      lipgloss.Style
	pending   lipgloss.Style
	stopped   lipgloss.Style
	failed    lipgloss.Style
	upload    lipgloss.Style
	notice    lipgloss.Style
	empty     lipgloss.Style
	active    lipgloss.Style
	meta      lipgloss.Style
	section   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("120")),
		body:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		pending:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		stopped:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214")),
		failed:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		upload:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		notice:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		empty:     lipgloss.NewStyle().Faint(true),
		active:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		section:   lipgloss.NewStyle().MarginTop(1),
	}
}
