package charts

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/chatdash/pkg/models"
)

// Widget owns at most one engine handle for one surface.
//
// The previous handle is always destroyed before a new one is constructed,
// and Close releases whatever is left.
type Widget struct {
	engine  Engine
	logger  *slog.Logger
	surface Surface

	spec    Spec
	hasSpec bool
	handle  Handle
	hovered int
	closed  bool
}

// NewWidget creates a widget with no surface yet
func NewWidget(engine Engine, logger *slog.Logger) *Widget {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Widget{engine: engine, logger: logger, hovered: -1}
}

// Render shows spec, rebuilding only when it differs from the current one
func (w *Widget) Render(spec Spec) {
	if w.closed {
		return
	}
	if w.hasSpec && w.handle != nil && w.spec.Equal(spec) {
		w.spec = spec
		return
	}
	w.spec = spec
	w.hasSpec = true
	w.rebuild()
}

// SetSize resizes the surface; a changed surface is redrawn
func (w *Widget) SetSize(width, height int) {
	s := Surface{Width: width, Height: height}
	if w.closed || s == w.surface {
		return
	}
	w.surface = s
	if w.hasSpec {
		w.rebuild()
	}
}

// Close releases the handle; later calls do nothing
func (w *Widget) Close() {
	if w.closed {
		return
	}
	w.release()
	w.closed = true
}

func (w *Widget) release() {
	if w.handle == nil {
		return
	}
	w.engine.Destroy(w.handle)
	w.handle = nil
	w.hovered = -1
}

func (w *Widget) rebuild() {
	w.release()
	if !w.surface.Attached() {
		return
	}
	h, err := w.engine.Construct(w.surface, w.spec)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrSurfaceTooSmall) {
			level = slog.LevelDebug
		}
		w.logger.Log(context.Background(), level, "failed to construct chart",
			"kind", w.spec.Kind.String(), "width", w.surface.Width, "height", w.surface.Height, "error", err)
		return
	}
	w.handle = h
}

// Ready reports whether a chart is currently constructed
func (w *Widget) Ready() bool {
	return w.handle != nil
}

// Spec returns the last spec given to Render
func (w *Widget) Spec() Spec {
	return w.spec
}

// View renders the chart, or blank space the size of the surface
func (w *Widget) View() string {
	if w.handle == nil {
		return lipgloss.NewStyle().Width(w.surface.Width).Height(w.surface.Height).Render("")
	}
	return w.handle.View()
}

// HoverAt updates the hovered index from widget-relative cell coordinates
func (w *Widget) HoverAt(x, y int) int {
	if w.handle == nil {
		w.hovered = -1
		return -1
	}
	w.hovered = w.handle.HitTest(x, y)
	return w.hovered
}

// ClearHover drops the hovered index
func (w *Widget) ClearHover() {
	w.hovered = -1
}

// Hovered returns the hovered index or -1
func (w *Widget) Hovered() int {
	return w.hovered
}

// Tooltip is the tooltip of the hovered index, or ""
func (w *Widget) Tooltip() string {
	return w.spec.Tooltip(w.hovered)
}

// ProportionChart is the status ring
type ProportionChart struct {
	*Widget
	palette []lipgloss.Color
}

// NewProportionChart creates a ring drawn with palette
func NewProportionChart(engine Engine, palette []lipgloss.Color, logger *slog.Logger) *ProportionChart {
	return &ProportionChart{Widget: NewWidget(engine, logger), palette: palette}
}

// SetRecord redraws the ring for r
func (c *ProportionChart) SetRecord(r models.ProportionRecord) {
	c.Render(ProportionSpec(r, c.palette))
}

// CategoricalChart is the per-category bar chart
type CategoricalChart struct {
	*Widget
	palette []lipgloss.Color
}

// NewCategoricalChart creates a bar chart drawn with palette
func NewCategoricalChart(engine Engine, palette []lipgloss.Color, logger *slog.Logger) *CategoricalChart {
	return &CategoricalChart{Widget: NewWidget(engine, logger), palette: palette}
}

// SetEntries redraws one bar per entry
func (c *CategoricalChart) SetEntries(entries []models.CategoryEntry) {
	c.Render(CategoricalSpec(entries, c.palette))
}
