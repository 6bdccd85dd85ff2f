package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/strrl/chatdash/internal/sessions"
	"github.com/strrl/chatdash/internal/tui/charts"
	"github.com/strrl/chatdash/internal/tui/region"
	"github.com/strrl/chatdash/pkg/models"
)

func testSessions() []models.SessionSummary {
	return []models.SessionSummary{
		{
			ID:            "1",
			Participant:   models.Participant{Name: "Alice"},
			LatestMessage: &models.LatestMessage{Text: "hello", Timestamp: "2024-03-01T15:45:00Z"},
			UnreadCount:   3,
		},
		{
			ID:            "2",
			Participant:   models.Participant{Name: "Bob"},
			LatestMessage: &models.LatestMessage{Text: "done", Timestamp: "2024-03-01T09:00:00Z"},
		},
		{ID: "3", Participant: models.Participant{Name: "Carol"}},
	}
}

// testRegions places the anchor in the header and the menu below it
func testRegions() region.Static {
	return region.Static{
		anchorZone:                     {X0: 80, Y0: 0, X1: 99, Y1: 0},
		"account-menu":                 {X0: 66, Y0: 1, X1: 99, Y1: 12},
		"account-menu:profile":         {X0: 67, Y0: 3, X1: 98, Y1: 4},
		"account-menu:change-password": {X0: 67, Y0: 5, X1: 98, Y1: 6},
		"account-menu:logout":          {X0: 67, Y0: 7, X1: 98, Y1: 8},
		"session:2":                    {X0: 0, Y0: 20, X1: 39, Y1: 21},
		statusZone:                     {X0: 41, Y0: 1, X1: 99, Y1: 19},
	}
}

func newTestModel(t *testing.T, engine charts.Engine) model {
	t.Helper()
	return newTestModelWithRegions(t, engine, testRegions())
}

func newTestModelWithRegions(t *testing.T, engine charts.Engine, regions region.Static) model {
	t.Helper()
	opts := Options{
		DataFile: "test.jsonl",
		Load: func(context.Context, string) ([]models.SessionSummary, error) {
			return testSessions(), nil
		},
		Regions: regions,
		Engine:  engine,
	}
	return initialModel(context.Background(), opts)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: x, Y: y}
}

func loaded(t *testing.T, engine charts.Engine) model {
	t.Helper()
	m := newTestModel(t, engine)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, SessionsLoadedMsg{Sessions: testSessions()})
	return m
}

// TestModelInitialization tests the initial model setup
func TestModelInitialization(t *testing.T) {
	m := newTestModel(t, charts.NewCanvasEngine())

	if !m.list.Loading() {
		t.Error("List should start in the loading state")
	}
	if m.startCmd == nil {
		t.Error("Loading should start the spinner")
	}
	if m.menuOpen || m.bus.Len() != 0 {
		t.Error("Menu should start closed and unsubscribed")
	}
	if m.status.Ready() || m.unread.Ready() {
		t.Error("Charts should not be constructed before layout")
	}
	if m.Init() == nil {
		t.Error("Init should return commands")
	}
}

// TestLoadCommand tests the async load command
func TestLoadCommand(t *testing.T) {
	m := newTestModel(t, charts.NewCanvasEngine())

	msg := loadSessionsCmd(m.ctx, m.opts.Load, m.opts.DataFile)()
	got, ok := msg.(SessionsLoadedMsg)
	if !ok {
		t.Fatalf("Expected SessionsLoadedMsg, got %T", msg)
	}
	if len(got.Sessions) != 3 || got.Error != nil {
		t.Errorf("Unexpected load result: %+v", got)
	}
}

// TestSessionsLoaded tests that loaded sessions feed the list and both charts
func TestSessionsLoaded(t *testing.T) {
	engine := charts.NewCanvasEngine()
	m := loaded(t, engine)

	if m.list.Loading() {
		t.Error("Loading should be cleared")
	}
	if m.list.Count() != 3 {
		t.Errorf("Expected 3 sessions in the list, got %d", m.list.Count())
	}

	values := m.status.Spec().Values()
	if len(values) != 3 || values[0] != 1 || values[1] != 1 || values[2] != 1 {
		t.Errorf("Unexpected status values: %v", values)
	}

	labels := m.unread.Spec().Data.Labels
	if len(labels) != 1 || labels[0] != "Alice" {
		t.Errorf("Unexpected unread labels: %v", labels)
	}

	if engine.Live() != 2 {
		t.Errorf("Expected 2 live charts, got %d", engine.Live())
	}
}

// TestLoadError tests that a failed load is reported without rows
func TestLoadError(t *testing.T) {
	m := newTestModel(t, charts.NewCanvasEngine())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, SessionsLoadedMsg{Error: errors.New("disk on fire")})

	if m.err == nil {
		t.Error("Error should be kept")
	}
	if !strings.Contains(m.notice, "disk on fire") {
		t.Errorf("Notice should carry the error, got %q", m.notice)
	}
	if m.list.Loading() {
		t.Error("Loading should be cleared after an error")
	}
}

// TestSelection tests that the dashboard owns the current session
func TestSelection(t *testing.T) {
	m := loaded(t, charts.NewCanvasEngine())

	m, cmd := update(t, m, press(5, 20))
	if cmd == nil {
		t.Fatal("Row click should produce a selection command")
	}
	msg := cmd()
	if _, ok := msg.(SessionSelectedMsg); !ok {
		t.Fatalf("Expected SessionSelectedMsg, got %T", msg)
	}

	m, _ = update(t, m, msg)
	if m.current == nil || m.current.ID != "2" {
		t.Fatalf("Expected current session 2, got %+v", m.current)
	}

	// a reload keeps the current session by id
	m, _ = update(t, m, SessionsUpdatedMsg{Update: sessions.Update{Sessions: testSessions()}})
	if m.current == nil || m.current.ID != "2" {
		t.Error("Current session should survive a reload")
	}
}

// TestMenuToggle tests f2 and anchor clicks
func TestMenuToggle(t *testing.T) {
	m := loaded(t, charts.NewCanvasEngine())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	if !m.menuOpen || m.bus.Len() != 1 {
		t.Fatal("f2 should open and mount the menu")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	if m.menuOpen || m.bus.Len() != 0 {
		t.Fatal("f2 should close and unmount the menu")
	}

	m, _ = update(t, m, press(85, 0))
	if !m.menuOpen {
		t.Fatal("Anchor click should open the menu")
	}

	m, cmd := update(t, m, press(85, 0))
	if m.menuOpen {
		t.Error("Anchor click should close an open menu")
	}
	if cmd != nil {
		t.Error("Anchor click must not request close through the menu")
	}

	for i := 0; i < 5; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	}
	if m.bus.Len() != 0 {
		t.Errorf("Open/close cycles leaked %d subscribers", m.bus.Len())
	}
}

// TestOutsideClickClosesMenu tests dismissal by clicking elsewhere
func TestOutsideClickClosesMenu(t *testing.T) {
	m := loaded(t, charts.NewCanvasEngine())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})

	m, cmd := update(t, m, press(5, 35))
	if cmd == nil {
		t.Fatal("Outside click should request close")
	}
	msg := cmd()
	if _, ok := msg.(MenuCloseRequestedMsg); !ok {
		t.Fatalf("Expected MenuCloseRequestedMsg, got %T", msg)
	}

	m, _ = update(t, m, msg)
	if m.menuOpen || m.bus.Len() != 0 {
		t.Error("Menu should be closed and unmounted")
	}
}

// TestStaleCloseRequestKeepsReopenedMenu tests that a close request from an
// earlier opening is ignored
func TestStaleCloseRequestKeepsReopenedMenu(t *testing.T) {
	m := loaded(t, charts.NewCanvasEngine())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})

	m, cmd := update(t, m, press(5, 35))
	if cmd == nil {
		t.Fatal("Outside click should request close")
	}
	stale := cmd()

	// closed and reopened before the request is delivered
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})

	m, _ = update(t, m, stale)
	if !m.menuOpen || !m.menu.Mounted() {
		t.Fatal("Stale close request should not close the reopened menu")
	}

	m, _ = update(t, m, MenuCloseRequestedMsg{Mount: m.menu.Generation()})
	if m.menuOpen {
		t.Error("Current close request should close the menu")
	}
}

// TestInsideClickDoesNotReachList tests that menu clicks are consumed
func TestInsideClickDoesNotReachList(t *testing.T) {
	regions := testRegions()
	// a row hidden under the menu
	regions["session:1"] = region.Rect{X0: 60, Y0: 2, X1: 99, Y1: 2}

	m := newTestModelWithRegions(t, charts.NewCanvasEngine(), regions)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, SessionsLoadedMsg{Sessions: testSessions()})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})

	m, cmd := update(t, m, press(70, 2))
	if cmd != nil {
		t.Error("Click on the menu frame should produce no command")
	}
	if !m.menuOpen {
		t.Error("Click inside the menu must not close it")
	}
}

// TestMenuActions tests the handling of account actions
func TestMenuActions(t *testing.T) {
	m := loaded(t, charts.NewCanvasEngine())
	s := testSessions()[0]
	m, _ = update(t, m, SessionSelectedMsg{Session: s})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	m, cmd := update(t, m, press(70, 7))
	if cmd == nil {
		t.Fatal("Item click should run the action and request close")
	}

	m, _ = update(t, m, MenuActionMsg{Item: models.MenuLogout})
	if m.current != nil {
		t.Error("Logout should clear the current session")
	}
	if m.notice != "Logged out" {
		t.Errorf("Unexpected notice %q", m.notice)
	}
}

// TestKeysGoToMenuWhileOpen tests keyboard routing
func TestKeysGoToMenuWhileOpen(t *testing.T) {
	m := loaded(t, charts.NewCanvasEngine())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.menu.Cursor() != 1 {
		t.Errorf("Expected menu cursor 1, got %d", m.menu.Cursor())
	}
	if m.list.Cursor() != 0 {
		t.Error("List cursor should not move while the menu is open")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should request close")
	}
	m, _ = update(t, m, cmd())
	if m.menuOpen {
		t.Error("esc should close the menu")
	}
}

// TestWatcherUpdates tests the watcher command loop
func TestWatcherUpdates(t *testing.T) {
	updates := make(chan sessions.Update, 1)
	m := newTestModel(t, charts.NewCanvasEngine())
	m.opts.Updates = updates

	updates <- sessions.Update{Sessions: testSessions()[:1]}
	msg := waitForUpdateCmd(updates)()
	if _, ok := msg.(SessionsUpdatedMsg); !ok {
		t.Fatalf("Expected SessionsUpdatedMsg, got %T", msg)
	}

	m, cmd := update(t, m, msg)
	if m.list.Count() != 1 {
		t.Errorf("Expected 1 session after reload, got %d", m.list.Count())
	}
	if cmd == nil {
		t.Error("The wait command should be re-armed")
	}

	m, _ = update(t, m, SessionsUpdatedMsg{Update: sessions.Update{Err: errors.New("bad json")}})
	if m.list.Count() != 1 {
		t.Error("A failed reload should keep the previous list")
	}

	close(updates)
	if _, ok := waitForUpdateCmd(updates)().(updatesClosedMsg); !ok {
		t.Error("Closed channel should end the loop")
	}
	if waitForUpdateCmd(nil) != nil {
		t.Error("No watcher means no wait command")
	}
}

// TestShutdown tests that quitting releases every chart and subscription
func TestShutdown(t *testing.T) {
	engine := charts.NewCanvasEngine()
	m := loaded(t, engine)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected a quit command")
	}
	if engine.Live() != 0 {
		t.Errorf("Expected no live charts, got %d", engine.Live())
	}
	if m.bus.Len() != 0 {
		t.Error("Menu should be unmounted on shutdown")
	}
	if m.ctx.Err() == nil {
		t.Error("Context should be cancelled on shutdown")
	}
}

// TestView tests the rendered dashboard
func TestView(t *testing.T) {
	m := newTestModel(t, charts.NewCanvasEngine())
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("View before layout should show the placeholder")
	}

	m = loaded(t, charts.NewCanvasEngine())
	view := ansi.Strip(m.View())

	for _, want := range []string{"Chat Dashboard", anchorLabel, "Chats (3)", "Status", "Unread by participant", "Alice"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines > 40 {
		t.Errorf("View has %d lines, want at most 40", lines)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	view = ansi.Strip(m.View())
	if !strings.Contains(view, "Change Password") {
		t.Error("Open menu should be drawn over the dashboard")
	}
}

// TestChartHoverClearsOutside tests tooltips follow the pointer
func TestChartHoverClearsOutside(t *testing.T) {
	m := loaded(t, charts.NewCanvasEngine())

	m, _ = update(t, m, tea.MouseMsg{Action: tea.MouseActionMotion, X: 2, Y: 30})
	if m.status.Hovered() != -1 || m.unread.Hovered() != -1 {
		t.Error("Pointer outside the charts should clear hover")
	}
	if strings.Contains(ansi.Strip(m.renderFooter()), "(") {
		t.Error("No tooltip expected")
	}
}

// TestOverlay tests drawing one block over another
func TestOverlay(t *testing.T) {
	tests := []struct {
		bg, fg string
		x, y   int
		want   string
	}{
		{"aaaa\nbbbb", "XY", 1, 1, "aaaa\nbXYb"},
		{"aaaa", "XY", 0, 0, "XYaa"},
		{"aa", "XY", 4, 0, "aa  XY"},
		{"aaaa", "X\nY", 3, 0, "aaaX\n   Y"},
	}

	for _, tt := range tests {
		if got := overlay(tt.bg, tt.fg, tt.x, tt.y); got != tt.want {
			t.Errorf("overlay(%q, %q, %d, %d) = %q, want %q", tt.bg, tt.fg, tt.x, tt.y, got, tt.want)
		}
	}
}
