package sessionlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadingIndicator shows a spinner with a message
type LoadingIndicator struct {
	spinner      spinner.Model
	message      string
	messageStyle lipgloss.Style
}

// NewLoadingIndicator creates a new loading indicator
func NewLoadingIndicator(message string, spinnerColor, textColor lipgloss.Color) LoadingIndicator {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(spinnerColor)

	return LoadingIndicator{
		spinner:      s,
		message:      message,
		messageStyle: lipgloss.NewStyle().Foreground(textColor),
	}
}

// Tick starts the spinner animation
func (l LoadingIndicator) Tick() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its own tick messages
func (l LoadingIndicator) Update(msg tea.Msg) (LoadingIndicator, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// View renders the loading indicator
func (l LoadingIndicator) View() string {
	return fmt.Sprintf("%s %s", l.spinner.View(), l.messageStyle.Render(l.message))
}

// LoadingOverlay centers the indicator in a width x height box
func LoadingOverlay(width, height int, indicator LoadingIndicator) string {
	if width <= 0 || height <= 0 {
		return indicator.View()
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, indicator.View())
}
