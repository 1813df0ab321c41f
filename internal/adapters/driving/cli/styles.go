package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles are rendered for a specific writer so colour is dropped when the
// writer is not a terminal.
type styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Label:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")).Width(12),
		Success: r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}

// row renders "label value" with an aligned label column.
func (s styles) row(label, value string) string {
	return "  " + s.Label.Render(label) + value
}
