package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/chatdash/internal/sessions"
	"github.com/strrl/chatdash/pkg/models"
)

// Message types for async operations and component callbacks
type (
	// SessionsLoadedMsg carries the result of the initial load
	SessionsLoadedMsg struct {
		Sessions []models.SessionSummary
		Error    error
	}

	// SessionsUpdatedMsg carries a reload pushed by the file watcher
	SessionsUpdatedMsg struct {
		Update sessions.Update
	}

	// updatesClosedMsg is sent once the watcher stops pushing
	updatesClosedMsg struct{}

	// SessionSelectedMsg is sent when a row of the list is activated
	SessionSelectedMsg struct {
		Session models.SessionSummary
	}

	// MenuActionMsg is sent when an account menu action runs
	MenuActionMsg struct {
		Item models.MenuItem
	}

	// MenuCloseRequestedMsg asks the dashboard to hide the account menu
	// opened by mount number Mount
	MenuCloseRequestedMsg struct {
		Mount int
	}
)

// loadSessionsCmd loads the data file asynchronously
func loadSessionsCmd(ctx context.Context, load sessions.LoadFunc, path string) tea.Cmd {
	return func() tea.Msg {
		list, err := load(ctx, path)
		return SessionsLoadedMsg{
			Sessions: list,
			Error:    err,
		}
	}
}

// waitForUpdateCmd blocks until the watcher pushes the next reload
func waitForUpdateCmd(updates <-chan sessions.Update) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return SessionsUpdatedMsg{Update: u}
	}
}

func selectSessionCmd(s models.SessionSummary) tea.Cmd {
	return func() tea.Msg {
		return SessionSelectedMsg{Session: s}
	}
}

func menuActionCmd(item models.MenuItem) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			return MenuActionMsg{Item: item}
		}
	}
}

func requestMenuCloseCmd(mount int) tea.Cmd {
	return func() tea.Msg {
		return MenuCloseRequestedMsg{Mount: mount}
	}
}
