// Package accountmenu is the dropdown of account actions.
//
// While mounted the menu listens on the pointer bus. A press outside both
// the menu and its anchor asks the parent to close it. A press inside the
// menu is consumed and activates the item under it.
package accountmenu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/chatdash/internal/pointer"
	"github.com/strrl/chatdash/internal/tui/region"
	"github.com/strrl/chatdash/internal/tui/theme"
	"github.com/strrl/chatdash/pkg/models"
)

// Item is one menu entry
type Item struct {
	ID          models.MenuItem
	Icon        string
	Title       string
	Description string
}

// Items is the fixed menu content, top to bottom
var Items = []Item{
	{ID: models.MenuProfile, Icon: "◉", Title: "Profile", Description: "View and edit your profile"},
	{ID: models.MenuChangePassword, Icon: "⚿", Title: "Change Password", Description: "Update your password"},
	{ID: models.MenuLogout, Icon: "⏻", Title: "Logout", Description: "Sign out of your account"},
}

// Actions run when an item is activated. Nil entries do nothing.
type Actions struct {
	Profile        func() tea.Cmd
	ChangePassword func() tea.Cmd
	Logout         func() tea.Cmd
}

func (a Actions) forItem(id models.MenuItem) func() tea.Cmd {
	switch id {
	case models.MenuProfile:
		return a.Profile
	case models.MenuChangePassword:
		return a.ChangePassword
	case models.MenuLogout:
		return a.Logout
	}
	return nil
}

// Options configure a menu
type Options struct {
	Bus     *pointer.Bus
	Regions region.Regions
	Theme   theme.Theme
	Actions Actions

	// OnRequestClose asks the parent to hide the menu. mount is the
	// Generation the request belongs to.
	OnRequestClose func(mount int) tea.Cmd

	// AnchorZone is the region of the control that toggles the menu.
	// Presses on it are left to the parent.
	AnchorZone string
	ZonePrefix string
}

// Model is the account menu. It is used by pointer because the bus handler
// refers back to it.
type Model struct {
	opts Options

	sub        *pointer.Subscription
	cursor     int
	requested  bool
	generation int
}

// New creates an unmounted menu
func New(opts Options) *Model {
	if opts.Regions == nil {
		opts.Regions = region.Static{}
	}
	if opts.Theme.CategoryPalette == nil {
		opts.Theme = theme.Default()
	}
	return &Model{opts: opts}
}

// Mount starts outside-press detection. Mounting twice keeps one
// subscription.
func (m *Model) Mount() {
	if m.sub != nil || m.opts.Bus == nil {
		return
	}
	m.requested = false
	m.cursor = 0
	m.generation++
	m.sub = m.opts.Bus.Subscribe(m.handlePointer)
}

// Unmount stops outside-press detection. It is safe to call when not
// mounted.
func (m *Model) Unmount() {
	if m.sub == nil {
		return
	}
	m.sub.Unsubscribe()
	m.sub = nil
}

// Mounted reports whether the menu is listening on the bus
func (m *Model) Mounted() bool {
	return m.sub != nil
}

// Generation counts mounts. Close requests made during an earlier mount
// carry an older value.
func (m *Model) Generation() int {
	return m.generation
}

// Cursor returns the highlighted item index
func (m *Model) Cursor() int {
	return m.cursor
}

// MenuZone is the region id of the whole menu
func (m *Model) MenuZone() string {
	return m.opts.ZonePrefix + "account-menu"
}

// ItemZone is the region id of one entry
func (m *Model) ItemZone(id models.MenuItem) string {
	return m.opts.ZonePrefix + "account-menu:" + id.String()
}

func (m *Model) handlePointer(ev *pointer.Event) tea.Cmd {
	msg := ev.Msg
	r := m.opts.Regions

	if r.InBounds(m.MenuZone(), msg) {
		ev.StopPropagation()
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		for i, it := range Items {
			if r.InBounds(m.ItemZone(it.ID), msg) {
				m.cursor = i
				return m.Activate(i)
			}
		}
		return nil
	}

	if m.opts.AnchorZone != "" && r.InBounds(m.opts.AnchorZone, msg) {
		return nil
	}

	return m.requestClose()
}

// Activate runs the action of item i and then requests close
func (m *Model) Activate(i int) tea.Cmd {
	if i < 0 || i >= len(Items) {
		return nil
	}
	var action tea.Cmd
	if fn := m.opts.Actions.forItem(Items[i].ID); fn != nil {
		action = fn()
	}
	closeCmd := m.requestClose()
	if action == nil {
		return closeCmd
	}
	if closeCmd == nil {
		return action
	}
	return tea.Sequence(action, closeCmd)
}

// requestClose calls OnRequestClose once per mount
func (m *Model) requestClose() tea.Cmd {
	if m.requested || m.opts.OnRequestClose == nil {
		return nil
	}
	m.requested = true
	return m.opts.OnRequestClose(m.generation)
}

// Update handles keyboard navigation
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(Items)) % len(Items)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(Items)
	case "enter":
		return m.Activate(m.cursor)
	case "esc":
		return m.requestClose()
	}
	return nil
}

func (m *Model) View() string {
	t := m.opts.Theme

	rows := make([]string, 0, len(Items))
	for i, it := range Items {
		title := t.Item.Render(it.Title)
		marker := "  "
		if i == m.cursor {
			title = t.Selected.Render(it.Title)
			marker = t.Selected.Render("▸ ")
		}
		row := marker + it.Icon + " " + title + "\n    " + t.Dim.Render(it.Description)
		rows = append(rows, m.opts.Regions.Mark(m.ItemZone(it.ID), row))
	}

	body := t.Title.Render("Account") + "\n" + strings.Join(rows, "\n")
	box := t.Border.Padding(0, 1).Render(lipgloss.NewStyle().Width(30).Render(body))
	return m.opts.Regions.Mark(m.MenuZone(), box)
}
