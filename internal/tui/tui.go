// Package tui is the chat dashboard: the session list on the left, the
// status and unread charts on the right and the account menu dropping from
// the header.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/chatdash/internal/config"
	"github.com/strrl/chatdash/internal/pointer"
	"github.com/strrl/chatdash/internal/sessions"
	"github.com/strrl/chatdash/internal/tui/accountmenu"
	"github.com/strrl/chatdash/internal/tui/charts"
	"github.com/strrl/chatdash/internal/tui/region"
	"github.com/strrl/chatdash/internal/tui/sessionlist"
	"github.com/strrl/chatdash/internal/tui/theme"
	"github.com/strrl/chatdash/pkg/models"
)

const (
	anchorZone = "account-anchor"
	statusZone = "chart:status"
	unreadZone = "chart:unread"

	anchorLabel  = "[ Account ▾ ]"
	minListWidth = 32

	// offset of the chart surface inside its box: border and padding
	// horizontally, border and title vertically
	chartInsetX = 2
	chartInsetY = 2
)

// Options configure the dashboard
type Options struct {
	DataFile string
	Load     sessions.LoadFunc
	// Updates, when set, feeds reloads from a file watcher
	Updates <-chan sessions.Update

	Theme    theme.Theme
	Logger   *slog.Logger
	Engine   charts.Engine
	Location *time.Location

	// Regions resolves mouse hits; nil uses bubblezone
	Regions region.Regions
}

type model struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	regions region.Regions
	zones   *region.Zones
	bus     *pointer.Bus

	list   sessionlist.Model
	status *charts.ProportionChart
	unread *charts.CategoricalChart
	menu   *accountmenu.Model

	menuOpen bool
	current  *models.SessionSummary
	sessions []models.SessionSummary
	notice   string
	err      error
	startCmd tea.Cmd

	width  int
	height int
	ready  bool
}

func initialModel(ctx context.Context, opts Options) model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Load == nil {
		opts.Load = sessions.NewLoader(opts.Logger)
	}
	if opts.Engine == nil {
		opts.Engine = charts.NewCanvasEngine()
	}
	if opts.Theme.CategoryPalette == nil {
		opts.Theme = theme.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	m := model{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		bus:    pointer.NewBus(),
	}

	m.regions = opts.Regions
	if m.regions == nil {
		m.zones = region.NewZones()
		m.regions = m.zones
	}

	m.list = sessionlist.New(sessionlist.Options{
		OnSelect: selectSessionCmd,
		Regions:  m.regions,
		Theme:    opts.Theme,
		Logger:   opts.Logger,
		Location: opts.Location,
	})
	m.startCmd = m.list.SetLoading(true)

	m.status = charts.NewProportionChart(opts.Engine, opts.Theme.ProportionPalette, opts.Logger)
	m.unread = charts.NewCategoricalChart(opts.Engine, opts.Theme.CategoryPalette, opts.Logger)

	m.menu = accountmenu.New(accountmenu.Options{
		Bus:     m.bus,
		Regions: m.regions,
		Theme:   opts.Theme,
		Actions: accountmenu.Actions{
			Profile:        menuActionCmd(models.MenuProfile),
			ChangePassword: menuActionCmd(models.MenuChangePassword),
			Logout:         menuActionCmd(models.MenuLogout),
		},
		OnRequestClose: requestMenuCloseCmd,
		AnchorZone:     anchorZone,
	})

	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.startCmd,
		loadSessionsCmd(m.ctx, m.opts.Load, m.opts.DataFile),
		waitForUpdateCmd(m.opts.Updates),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case SessionsLoadedMsg:
		m.list.SetLoading(false)
		if msg.Error != nil {
			m.err = msg.Error
			m.notice = fmt.Sprintf("Failed to load %s: %v", m.opts.DataFile, msg.Error)
			m.opts.Logger.Error("failed to load sessions", "path", m.opts.DataFile, "error", msg.Error)
			return m, nil
		}
		m.err = nil
		m.applySessions(msg.Sessions)
		m.opts.Logger.Info("loaded sessions", "path", m.opts.DataFile, "count", len(msg.Sessions))
		return m, nil

	case SessionsUpdatedMsg:
		if msg.Update.Err != nil {
			m.notice = fmt.Sprintf("Reload failed: %v", msg.Update.Err)
		} else {
			m.err = nil
			m.applySessions(msg.Update.Sessions)
			m.notice = fmt.Sprintf("Reloaded %d conversations", len(msg.Update.Sessions))
		}
		return m, waitForUpdateCmd(m.opts.Updates)

	case updatesClosedMsg:
		m.opts.Updates = nil
		return m, nil

	case SessionSelectedMsg:
		s := msg.Session
		m.current = &s
		m.list.SetCurrent(&s)
		m.notice = "Opened chat with " + s.DisplayName()
		return m, nil

	case MenuActionMsg:
		m.handleMenuAction(msg.Item)
		return m, nil

	case MenuCloseRequestedMsg:
		// a request from an earlier opening must not close a reopened menu
		if m.menu.Mounted() && msg.Mount == m.menu.Generation() {
			m.closeMenu()
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit
		case "f2":
			m.toggleMenu()
			return m, nil
		}
		if m.menuOpen {
			return m, m.menu.Update(msg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	cmd, stopped := m.bus.Publish(msg)
	if stopped {
		return m, cmd
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft &&
		m.regions.InBounds(anchorZone, msg) {
		m.toggleMenu()
		return m, cmd
	}

	if msg.Action == tea.MouseActionMotion {
		m.hoverChart(msg)
		return m, cmd
	}

	var listCmd tea.Cmd
	m.list, listCmd = m.list.Update(msg)
	return m, tea.Batch(cmd, listCmd)
}

func (m *model) hoverChart(msg tea.MouseMsg) {
	if x, y, ok := m.regions.Pos(statusZone, msg); ok {
		m.status.HoverAt(x-chartInsetX, y-chartInsetY)
	} else {
		m.status.ClearHover()
	}
	if x, y, ok := m.regions.Pos(unreadZone, msg); ok {
		m.unread.HoverAt(x-chartInsetX, y-chartInsetY)
	} else {
		m.unread.ClearHover()
	}
}

func (m *model) applySessions(list []models.SessionSummary) {
	m.sessions = list
	m.list.SetSessions(list)
	m.status.SetRecord(sessions.StatusBreakdown(list))
	m.unread.SetEntries(sessions.UnreadByParticipant(list, config.CategoryColorCount))

	if m.current == nil {
		return
	}
	for _, s := range list {
		if s.ID == m.current.ID {
			m.current = &s
			m.list.SetCurrent(&s)
			return
		}
	}
}

func (m *model) handleMenuAction(item models.MenuItem) {
	switch item {
	case models.MenuProfile:
		m.notice = "Profile"
	case models.MenuChangePassword:
		m.notice = "Change password"
	case models.MenuLogout:
		m.current = nil
		m.list.SetCurrent(nil)
		m.notice = "Logged out"
	}
	m.opts.Logger.Info("account menu action", "item", item.String())
}

func (m *model) toggleMenu() {
	if m.menuOpen {
		m.closeMenu()
		return
	}
	m.menuOpen = true
	m.menu.Mount()
	m.list.Blur()
}

func (m *model) closeMenu() {
	if !m.menuOpen {
		return
	}
	m.menuOpen = false
	m.menu.Unmount()
	m.list.Focus()
}

// shutdown releases chart handles and the bus subscription
func (m *model) shutdown() {
	m.status.Close()
	m.unread.Close()
	m.menu.Unmount()
	m.menuOpen = false
	m.cancel()
}

type layoutSizes struct {
	listWidth  int
	chartWidth int
	bodyHeight int
	statusH    int
	unreadH    int
}

func (m model) sizes() layoutSizes {
	var l layoutSizes
	l.bodyHeight = max(m.height-2, 0)
	l.listWidth = max(m.width*2/5, minListWidth)
	if l.listWidth > m.width-20 {
		l.listWidth = max(m.width-20, 0)
	}
	l.chartWidth = max(m.width-l.listWidth-1, 0)
	l.statusH = l.bodyHeight / 2
	l.unreadH = l.bodyHeight - l.statusH
	return l
}

func (m *model) layout() {
	l := m.sizes()
	m.list.SetSize(l.listWidth, l.bodyHeight)
	m.status.SetSize(max(l.chartWidth-2*chartInsetX, 0), max(l.statusH-chartInsetY-1, 0))
	m.unread.SetSize(max(l.chartWidth-2*chartInsetX, 0), max(l.unreadH-chartInsetY-1, 0))
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderBody(),
		m.renderFooter(),
	)
	if m.menuOpen {
		menu := m.menu.View()
		view = overlay(view, menu, max(m.width-lipgloss.Width(menu), 0), 1)
	}
	if m.zones != nil {
		return m.zones.Scan(view)
	}
	return view
}

func (m model) renderHeader() string {
	t := m.opts.Theme
	title := t.Header.Render(" Chat Dashboard ")
	if m.current != nil {
		title += " " + t.Dim.Render("with "+m.current.DisplayName())
	}

	anchorStyle := t.Item
	if m.menuOpen {
		anchorStyle = t.Selected
	}
	anchor := m.regions.Mark(anchorZone, anchorStyle.Render(anchorLabel))

	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(anchor), 1)
	return title + strings.Repeat(" ", gap) + anchor
}

func (m model) renderBody() string {
	l := m.sizes()

	left := lipgloss.NewStyle().
		Width(l.listWidth).
		Height(l.bodyHeight).
		MaxHeight(l.bodyHeight).
		Render(m.list.View())

	divider := strings.TrimSuffix(strings.Repeat("│\n", l.bodyHeight), "\n")
	dividerStyle := lipgloss.NewStyle().Foreground(m.opts.Theme.Subtle)

	right := lipgloss.JoinVertical(lipgloss.Left,
		m.regions.Mark(statusZone, m.chartBox("Status", m.status.Widget, l.chartWidth, l.statusH)),
		m.regions.Mark(unreadZone, m.chartBox("Unread by participant", m.unread.Widget, l.chartWidth, l.unreadH)),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, dividerStyle.Render(divider), right)
}

func (m model) chartBox(title string, w *charts.Widget, width, height int) string {
	t := m.opts.Theme
	if width < 2*chartInsetX || height < chartInsetY+1 {
		return ""
	}
	body := t.Title.Render(title) + "\n" + w.View()
	return t.Border.
		Padding(0, 1).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(body)
}

func (m model) renderFooter() string {
	t := m.opts.Theme
	if tip := m.status.Tooltip(); tip != "" {
		return t.Tooltip.Render(tip)
	}
	if tip := m.unread.Tooltip(); tip != "" {
		return t.Tooltip.Render(tip)
	}
	if m.notice != "" {
		return t.Dim.Render(m.notice)
	}
	info := "↑/↓: navigate • enter: open • type to search • f2: account • ctrl+c: quit"
	if m.menuOpen {
		info = "↑/↓: choose • enter: confirm • esc: close"
	}
	return t.Dim.Render(info)
}

// Run shows the dashboard until the user quits and returns the session that
// was open at the time.
func Run(ctx context.Context, opts Options) (*models.SessionSummary, error) {
	m := initialModel(ctx, opts)
	defer func() {
		if m.zones != nil {
			m.zones.Close()
		}
	}()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		m.shutdown()
		return nil, err
	}

	final := finalModel.(model)
	final.shutdown()
	return final.current, nil
}
