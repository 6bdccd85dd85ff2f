// Package sessionlist renders a searchable list of conversation summaries.
//
// The panel owns only its search text and keyboard cursor. The current
// session belongs to the caller, which is told about row activation through
// the SelectFunc and answers with SetCurrent.
package sessionlist

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/strrl/chatdash/internal/timefmt"
	"github.com/strrl/chatdash/internal/tui/region"
	"github.com/strrl/chatdash/internal/tui/theme"
	"github.com/strrl/chatdash/pkg/models"
)

const (
	PreviewLimit   = 30
	BadgeLimit     = 99
	NoMessagesText = "No messages yet"
	EmptyText      = "No conversations found"
	LoadingText    = "Loading conversations..."
	Placeholder    = "Search conversations..."

	headerHeight = 3
	rowHeight    = 3
)

// SelectFunc is called with the full summary of an activated row
type SelectFunc func(models.SessionSummary) tea.Cmd

// Options configure a panel
type Options struct {
	OnSelect   SelectFunc
	Regions    region.Regions
	Theme      theme.Theme
	Logger     *slog.Logger
	Location   *time.Location
	ZonePrefix string
}

// Model is the session list panel
type Model struct {
	opts Options

	sessions   []models.SessionSummary
	visible    []models.SessionSummary
	currentID  string
	hasCurrent bool
	loading    bool

	input   textinput.Model
	loader  LoadingIndicator
	cursor  int
	offset  int
	width   int
	height  int
	focused bool

	// bad timestamps already logged, keyed by session id and raw value
	reported map[string]struct{}
}

// New creates a panel with an empty, focused search input
func New(opts Options) Model {
	if opts.Regions == nil {
		opts.Regions = region.Static{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Theme.CategoryPalette == nil {
		opts.Theme = theme.Default()
	}

	ti := textinput.New()
	ti.Placeholder = Placeholder
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Focus()

	return Model{
		opts:     opts,
		input:    ti,
		loader:   NewLoadingIndicator(LoadingText, opts.Theme.Highlight, opts.Theme.Text),
		focused:  true,
		reported: make(map[string]struct{}),
	}
}

// Filter returns, in order, the sessions whose participant name contains
// query case-insensitively. Sessions without a name only survive an empty
// query.
func Filter(sessions []models.SessionSummary, query string) []models.SessionSummary {
	if query == "" {
		return append([]models.SessionSummary(nil), sessions...)
	}
	q := strings.ToLower(query)
	return lo.Filter(sessions, func(s models.SessionSummary, _ int) bool {
		return s.Participant.Name != "" && strings.Contains(strings.ToLower(s.Participant.Name), q)
	})
}

// Avatar is the uppercased first letter of the participant name, or "U"
func Avatar(s models.SessionSummary) string {
	if s.Participant.Name == "" {
		return "U"
	}
	r, _ := utf8.DecodeRuneInString(s.Participant.Name)
	return strings.ToUpper(string(r))
}

// Preview truncates the latest message to PreviewLimit characters
func Preview(s models.SessionSummary) string {
	if s.LatestMessage == nil {
		return NoMessagesText
	}
	runes := []rune(s.LatestMessage.Text)
	if len(runes) <= PreviewLimit {
		return s.LatestMessage.Text
	}
	return string(runes[:PreviewLimit]) + "..."
}

// Badge is the unread indicator text, empty when there is nothing unread
func Badge(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > BadgeLimit:
		return strconv.Itoa(BadgeLimit) + "+"
	default:
		return strconv.Itoa(unread)
	}
}

// SetSessions replaces the list; order is kept as given
func (m *Model) SetSessions(sessions []models.SessionSummary) {
	m.sessions = append([]models.SessionSummary(nil), sessions...)
	m.refilter()
}

// SetLoading toggles the loading state and starts the spinner when needed
func (m *Model) SetLoading(loading bool) tea.Cmd {
	wasLoading := m.loading
	m.loading = loading
	if loading && !wasLoading {
		return m.loader.Tick()
	}
	return nil
}

// SetCurrent marks the caller's current session; nil clears it
func (m *Model) SetCurrent(current *models.SessionSummary) {
	if current == nil {
		m.currentID, m.hasCurrent = "", false
		return
	}
	m.currentID, m.hasCurrent = current.ID, true
}

// SetQuery replaces the search text
func (m *Model) SetQuery(q string) {
	m.input.SetValue(q)
	m.refilter()
}

// SetSize sets the panel dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-lipgloss.Width(m.input.Prompt)-1, 0)
	m.clampCursor()
}

// Focus routes key input to the search box
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur stops the panel from taking key input
func (m *Model) Blur() {
	m.focused = false
	m.input.Blur()
}

func (m Model) Query() string                    { return m.input.Value() }
func (m Model) Count() int                       { return len(m.sessions) }
func (m Model) Loading() bool                    { return m.loading }
func (m Model) Cursor() int                      { return m.cursor }
func (m Model) Visible() []models.SessionSummary { return m.visible }

func (m *Model) refilter() {
	m.visible = Filter(m.sessions, m.input.Value())
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	page := m.pageSize()
	if page <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	if m.offset > max(len(m.visible)-page, 0) {
		m.offset = max(len(m.visible)-page, 0)
	}
}

// pageSize is the number of rows that fit; 0 means unbounded
func (m Model) pageSize() int {
	if m.height <= 0 {
		return 0
	}
	return max((m.height-headerHeight)/rowHeight, 1)
}

func (m Model) rowZone(s models.SessionSummary) string {
	return m.opts.ZonePrefix + "session:" + s.ID
}

func (m Model) window() (int, int) {
	page := m.pageSize()
	if page == 0 {
		return 0, len(m.visible)
	}
	return m.offset, min(m.offset+page, len(m.visible))
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || m.loading {
			return m, nil
		}
		from, to := m.window()
		for i := from; i < to; i++ {
			if m.opts.Regions.InBounds(m.rowZone(m.visible[i]), msg) {
				m.cursor = i
				return m, m.activate(i)
			}
		}
		return m, nil

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		switch msg.String() {
		case "up":
			m.cursor--
			m.clampCursor()
			return m, nil
		case "down":
			m.cursor++
			m.clampCursor()
			return m, nil
		case "pgup":
			m.cursor -= max(m.pageSize(), 1)
			m.clampCursor()
			return m, nil
		case "pgdown":
			m.cursor += max(m.pageSize(), 1)
			m.clampCursor()
			return m, nil
		case "enter":
			if m.loading {
				return m, nil
			}
			return m, m.activate(m.cursor)
		}
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.cursor = 0
		m.refilter()
	}
	return m, cmd
}

func (m Model) activate(i int) tea.Cmd {
	if i < 0 || i >= len(m.visible) || m.opts.OnSelect == nil {
		return nil
	}
	return m.opts.OnSelect(m.visible[i])
}

// timestamp formats the latest message time, logging each bad value once
func (m Model) timestamp(s models.SessionSummary) string {
	if s.LatestMessage == nil || s.LatestMessage.Timestamp == "" {
		return ""
	}
	out, err := timefmt.ShortIn(s.LatestMessage.Timestamp, m.opts.Location)
	if err != nil {
		key := s.ID + "\x00" + s.LatestMessage.Timestamp
		if _, seen := m.reported[key]; !seen {
			m.reported[key] = struct{}{}
			m.opts.Logger.Warn("unparseable message timestamp",
				"session", s.ID, "timestamp", s.LatestMessage.Timestamp, "error", err)
		}
		return ""
	}
	return out
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.renderHeader() + "\n")
	s.WriteString(m.input.View() + "\n")
	s.WriteString(m.opts.Theme.Dim.Render(strings.Repeat("─", max(m.width, 10))) + "\n")

	switch {
	case m.loading:
		s.WriteString(LoadingOverlay(m.width, max(m.height-headerHeight, 0), m.loader))
	case len(m.visible) == 0:
		s.WriteString(m.opts.Theme.Empty.Render(EmptyText))
	default:
		s.WriteString(m.renderRows())
	}

	return s.String()
}

func (m Model) renderHeader() string {
	count := m.opts.Theme.Dim.Render(fmt.Sprintf("(%d)", len(m.sessions)))
	return m.opts.Theme.Title.Render("Chats") + " " + count
}

func (m Model) renderRows() string {
	from, to := m.window()
	rows := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, m.opts.Regions.Mark(m.rowZone(m.visible[i]), m.renderRow(m.visible[i], i == m.cursor)))
	}
	return strings.Join(rows, "\n\n")
}

func (m Model) renderRow(sess models.SessionSummary, isCursor bool) string {
	t := m.opts.Theme

	cursor := "  "
	if isCursor {
		cursor = "> "
	}

	nameStyle := t.Item
	switch {
	case m.hasCurrent && sess.ID == m.currentID:
		nameStyle = t.Active
	case isCursor:
		nameStyle = t.Selected
	}

	left := cursor + t.Avatar.Render(Avatar(sess)) + " " + nameStyle.Render(sess.DisplayName())
	right := t.Dim.Render(m.timestamp(sess))
	line1 := spread(left, right, m.width)

	preview := t.Dim.Render(Preview(sess))
	if sess.LatestMessage == nil {
		preview = t.Empty.Render(Preview(sess))
	}
	badge := ""
	if b := Badge(sess.UnreadCount); b != "" {
		badge = t.Badge.Render(b)
	}
	line2 := spread("      "+preview, badge, m.width)

	return line1 + "\n" + line2
}

// spread places left and right on one line of the given width
func spread(left, right string, width int) string {
	if right == "" {
		return left
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
