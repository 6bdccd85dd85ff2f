// Package theme turns the configured colors into lipgloss styles.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/strrl/chatdash/internal/config"
)

// Theme is the shared style set of the dashboard components
type Theme struct {
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Subtle    lipgloss.Color
	Highlight lipgloss.Color
	BadgeBg   lipgloss.Color

	ProportionPalette []lipgloss.Color
	CategoryPalette   []lipgloss.Color

	Header   lipgloss.Style
	Title    lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Active   lipgloss.Style
	Dim      lipgloss.Style
	Empty    lipgloss.Style
	Badge    lipgloss.Style
	Avatar   lipgloss.Style
	Border   lipgloss.Style
	Tooltip  lipgloss.Style
}

// New builds a theme from config
func New(cfg config.Config) Theme {
	t := Theme{
		Accent:    lipgloss.Color(cfg.Theme.Accent),
		Text:      lipgloss.Color(cfg.Theme.Text),
		Muted:     lipgloss.Color(cfg.Theme.Muted),
		Subtle:    lipgloss.Color(cfg.Theme.Subtle),
		Highlight: lipgloss.Color(cfg.Theme.Highlight),
		BadgeBg:   lipgloss.Color(cfg.Theme.Badge),

		ProportionPalette: toColors(cfg.Charts.ProportionColors),
		CategoryPalette:   toColors(cfg.Charts.CategoryColors),
	}

	t.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(t.Accent)
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	t.Item = lipgloss.NewStyle().Foreground(t.Text)
	t.Selected = lipgloss.NewStyle().Foreground(t.Highlight).Bold(true)
	t.Active = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(t.Accent).Bold(true)
	t.Dim = lipgloss.NewStyle().Foreground(t.Muted)
	t.Empty = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	t.Badge = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(t.BadgeBg).Bold(true).Padding(0, 1)
	t.Avatar = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(t.Subtle).Bold(true).Padding(0, 1)
	t.Border = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Subtle)
	t.Tooltip = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("236")).Padding(0, 1)

	return t
}

// Default is the theme of the built-in configuration
func Default() Theme {
	return New(config.Default())
}

func toColors(values []string) []lipgloss.Color {
	return lo.Map(values, func(v string, _ int) lipgloss.Color {
		return lipgloss.Color(v)
	})
}
