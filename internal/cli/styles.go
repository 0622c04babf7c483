package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	prompt  lipgloss.Style
	keyword lipgloss.Style
	tag     lipgloss.Style
	option  lipgloss.Style
	warn    lipgloss.Style
}

// newStyles binds the palette to w so colors are dropped when w is not a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		prompt:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		keyword: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		tag:     r.NewStyle().Foreground(lipgloss.Color("13")),
		option:  r.NewStyle().Foreground(lipgloss.Color("14")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (s styles) options(opts []string) string {
	rendered := make([]string, 0, len(opts))
	for _, o := range opts {
		rendered = append(rendered, s.option.Render("["+o+"]"))
	}
	return strings.Join(rendered, " ")
}
