package charts

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/charmbracelet/lipgloss"
)

var (
	// ErrSurfaceDetached is returned when the surface has no area yet
	ErrSurfaceDetached = errors.New("charts: drawing surface not attached")
	// ErrSurfaceTooSmall is returned when the chart cannot fit the surface
	ErrSurfaceTooSmall = errors.New("charts: drawing surface too small")
)

// Surface is the cell area a chart draws into
type Surface struct {
	Width  int
	Height int
}

// Attached reports whether the surface has been laid out
func (s Surface) Attached() bool {
	return s.Width > 0 && s.Height > 0
}

// Handle is a constructed chart
type Handle interface {
	View() string
	// HitTest returns the segment or bar index under cell (x, y), or -1
	HitTest(x, y int) int
}

// Engine constructs and destroys charts
type Engine interface {
	Construct(surface Surface, spec Spec) (Handle, error)
	Destroy(h Handle)
}

// CanvasEngine draws charts on an ntcharts canvas
type CanvasEngine struct {
	live int

	// Track is the color of empty ring cells and gridlines
	Track lipgloss.Color
	// LabelColor is the foreground of overlay labels
	LabelColor lipgloss.Color
}

// NewCanvasEngine creates an engine with the default track colors
func NewCanvasEngine() *CanvasEngine {
	return &CanvasEngine{
		Track:      lipgloss.Color("238"),
		LabelColor: lipgloss.Color("231"),
	}
}

// Live returns the number of handles constructed and not yet destroyed
func (e *CanvasEngine) Live() int {
	return e.live
}

func (e *CanvasEngine) Construct(surface Surface, spec Spec) (Handle, error) {
	if !surface.Attached() {
		return nil, ErrSurfaceDetached
	}

	legend := ""
	height := surface.Height
	if spec.Options.Legend {
		legend = renderLegend(spec, surface.Width)
		height -= lipgloss.Height(legend)
	}

	var (
		h   *canvasHandle
		err error
	)
	switch spec.Kind {
	case KindDoughnut:
		h, err = e.drawRing(surface.Width, height, spec)
	case KindBar:
		h, err = e.drawBars(surface.Width, height, spec)
	default:
		return nil, fmt.Errorf("charts: unsupported kind %v", spec.Kind)
	}
	if err != nil {
		return nil, err
	}

	h.legend = legend
	e.live++
	return h, nil
}

func (e *CanvasEngine) Destroy(h Handle) {
	ch, ok := h.(*canvasHandle)
	if !ok || ch.destroyed {
		return
	}
	ch.destroyed = true
	ch.canvas = canvas.Model{}
	ch.hit = nil
	e.live--
}

type canvasHandle struct {
	canvas    canvas.Model
	legend    string
	hit       func(x, y int) int
	destroyed bool
}

func (h *canvasHandle) View() string {
	if h.destroyed {
		return ""
	}
	if h.legend == "" {
		return h.canvas.View()
	}
	return h.canvas.View() + "\n" + h.legend
}

func (h *canvasHandle) HitTest(x, y int) int {
	if h.destroyed || h.hit == nil {
		return -1
	}
	return h.hit(x, y)
}

// ring geometry in cell units; a terminal cell is about twice as tall as wide
type ring struct {
	cx, cy float64
	outer  float64
	inner  float64
}

func newRing(w, h int, cutout float64) ring {
	cx := float64(w-1) / 2
	cy := float64(h-1) / 2
	outer := math.Min(cy, cx/2)
	return ring{cx: cx, cy: cy, outer: outer, inner: outer * cutout}
}

// polar returns the distance from the center and the clockwise angle from
// twelve o'clock in [0, 2π)
func (r ring) polar(x, y int) (float64, float64) {
	dx := (float64(x) - r.cx) / 2
	dy := float64(y) - r.cy
	angle := math.Atan2(dx, -dy)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return math.Hypot(dx, dy), angle
}

func (r ring) onRing(dist float64) bool {
	return dist <= r.outer+0.25 && dist >= r.inner-0.25
}

// segmentAt maps an angle onto the cumulative share of values
func segmentAt(angle float64, values []float64, total float64) int {
	frac := angle / (2 * math.Pi)
	var acc float64
	for i, v := range values {
		if v <= 0 {
			continue
		}
		acc += v / total
		if frac < acc {
			return i
		}
	}
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] > 0 {
			return i
		}
	}
	return -1
}

func (e *CanvasEngine) drawRing(w, h int, spec Spec) (*canvasHandle, error) {
	if w < 4 || h < 3 {
		return nil, ErrSurfaceTooSmall
	}

	c := canvas.New(w, h)
	geo := newRing(w, h, spec.Options.Cutout)
	values := spec.Values()
	colors := spec.Colors()

	var total float64
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}

	track := lipgloss.NewStyle().Foreground(e.Track)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dist, angle := geo.polar(x, y)
			if !geo.onRing(dist) {
				continue
			}
			p := canvas.Point{X: x, Y: y}
			if total <= 0 {
				c.SetRuneWithStyle(p, '░', track)
				continue
			}
			i := segmentAt(angle, values, total)
			c.SetRuneWithStyle(p, '█', lipgloss.NewStyle().Foreground(colorAt(colors, i)))
		}
	}

	if total > 0 {
		var start float64
		mids := make([]float64, len(values))
		for i, v := range values {
			share := math.Max(v, 0) / total
			mids[i] = (start + share/2) * 2 * math.Pi
			start += share
		}
		for _, l := range spec.OverlayLabels() {
			if l.Index < 0 || l.Index >= len(values) {
				continue
			}
			r := l.Radius * geo.outer
			px := geo.cx + 2*r*math.Sin(mids[l.Index])
			py := geo.cy - r*math.Cos(mids[l.Index])
			style := lipgloss.NewStyle().Bold(true).Foreground(e.LabelColor).Background(colorAt(colors, l.Index))
			writeCentered(&c, int(math.Round(px)), int(math.Round(py)), l.Text, style)
		}
	}

	hit := func(x, y int) int {
		if total <= 0 || x < 0 || y < 0 || x >= w || y >= h {
			return -1
		}
		dist, angle := geo.polar(x, y)
		if !geo.onRing(dist) {
			return -1
		}
		return segmentAt(angle, values, total)
	}

	return &canvasHandle{canvas: c, hit: hit}, nil
}

// bar layout: overlay row on top of the tallest bar, plot area, baseline,
// x labels
type barLayout struct {
	slot     int
	width    int
	plotTop  int
	baseline int
	labelRow int
}

func (l barLayout) span(i int) (int, int) {
	x0 := i*l.slot + (l.slot-l.width)/2
	return x0, x0 + l.width - 1
}

func (e *CanvasEngine) drawBars(w, h int, spec Spec) (*canvasHandle, error) {
	values := spec.Values()
	colors := spec.Colors()
	n := len(values)

	if h < 4 || (n > 0 && w < n) {
		return nil, ErrSurfaceTooSmall
	}

	c := canvas.New(w, h)
	layout := barLayout{plotTop: 1, baseline: h - 1}
	if spec.Options.X.Ticks {
		layout.baseline = h - 2
		layout.labelRow = h - 1
	}
	plotHeight := layout.baseline - layout.plotTop

	track := lipgloss.NewStyle().Foreground(e.Track)

	if n == 0 {
		for x := 0; x < w; x++ {
			c.SetRuneWithStyle(canvas.Point{X: x, Y: layout.baseline}, '─', track)
		}
		return &canvasHandle{canvas: c, hit: func(int, int) int { return -1 }}, nil
	}

	layout.slot = w / n
	// thickness is given in pixels; one cell is taken as ten
	layout.width = max(spec.Options.BarThickness/10, 1)
	if layout.slot > 1 {
		layout.width = min(layout.width, layout.slot-1)
	} else {
		layout.width = 1
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = math.Max(maxVal, v)
	}
	minVal := 0.0
	if !spec.Options.Y.BeginAtZero {
		minVal = maxVal
		for _, v := range values {
			minVal = math.Min(minVal, v)
		}
		if minVal == maxVal {
			minVal = 0
		}
	}

	if spec.Options.Y.Grid {
		for _, frac := range []float64{0.25, 0.5, 0.75, 1} {
			y := layout.baseline - int(math.Round(frac*float64(plotHeight)))
			for x := 0; x < w; x++ {
				c.SetRuneWithStyle(canvas.Point{X: x, Y: y}, '┈', track)
			}
		}
	}

	if spec.Options.X.Grid {
		for i := 1; i < n; i++ {
			x := i * layout.slot
			for y := 0; y < layout.baseline; y++ {
				c.SetRuneWithStyle(canvas.Point{X: x, Y: y}, '┊', track)
			}
		}
	}

	for x := 0; x < w; x++ {
		r := '─'
		if spec.Options.X.Grid && x > 0 && x%layout.slot == 0 && x/layout.slot < n {
			r = '┴'
		}
		c.SetRuneWithStyle(canvas.Point{X: x, Y: layout.baseline}, r, track)
	}

	tops := make([]int, n)
	for i, v := range values {
		tops[i] = layout.baseline
		if maxVal <= minVal || v <= minVal {
			continue
		}
		barH := int(math.Round((v - minVal) / (maxVal - minVal) * float64(plotHeight)))
		barH = min(max(barH, 1), plotHeight)
		tops[i] = layout.baseline - barH

		style := lipgloss.NewStyle().Foreground(colorAt(colors, i))
		x0, x1 := layout.span(i)
		for y := tops[i]; y < layout.baseline; y++ {
			for x := x0; x <= x1; x++ {
				c.SetRuneWithStyle(canvas.Point{X: x, Y: y}, '█', style)
			}
		}
	}

	if spec.Options.Y.Ticks && maxVal > 0 {
		writeAt(&c, 0, 0, formatValue(maxVal), track)
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(e.LabelColor)
	for _, l := range spec.OverlayLabels() {
		if l.Index < 0 || l.Index >= n {
			continue
		}
		x0, x1 := layout.span(l.Index)
		writeCentered(&c, (x0+x1+1)/2, max(tops[l.Index]-1, 0), l.Text, labelStyle)
	}

	if spec.Options.X.Ticks {
		tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		for i, label := range spec.Data.Labels {
			if i >= n {
				break
			}
			text := truncateRunes(label, max(layout.slot-1, 1))
			writeCentered(&c, i*layout.slot+layout.slot/2, layout.labelRow, text, tickStyle)
		}
	}

	hit := func(x, y int) int {
		if y < 0 || y > layout.baseline || x < 0 || x >= layout.slot*n {
			if !(spec.Options.X.Ticks && y == layout.labelRow) {
				return -1
			}
		}
		i := x / layout.slot
		if i < 0 || i >= n {
			return -1
		}
		if y == layout.labelRow && spec.Options.X.Ticks {
			return i
		}
		x0, x1 := layout.span(i)
		if x < x0 || x > x1 {
			return -1
		}
		return i
	}

	return &canvasHandle{canvas: c, hit: hit}, nil
}

func colorAt(colors []lipgloss.Color, i int) lipgloss.Color {
	if i < 0 || len(colors) == 0 {
		return lipgloss.Color("250")
	}
	return colors[i%len(colors)]
}

func writeAt(c *canvas.Model, x, y int, text string, style lipgloss.Style) {
	if y < 0 || y >= c.Height() {
		return
	}
	for i, r := range []rune(text) {
		px := x + i
		if px < 0 || px >= c.Width() {
			continue
		}
		c.SetRuneWithStyle(canvas.Point{X: px, Y: y}, r, style)
	}
}

func writeCentered(c *canvas.Model, cx, y int, text string, style lipgloss.Style) {
	writeAt(c, cx-len([]rune(text))/2, y, text, style)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}

func renderLegend(spec Spec, width int) string {
	colors := spec.Colors()
	items := make([]string, 0, len(spec.Data.Labels))
	for i, label := range spec.Data.Labels {
		swatch := lipgloss.NewStyle().Foreground(colorAt(colors, i)).Render("■")
		items = append(items, swatch+" "+label)
	}

	var lines []string
	line := ""
	for _, item := range items {
		candidate := item
		if line != "" {
			candidate = line + "  " + item
		}
		if line != "" && lipgloss.Width(candidate) > width {
			lines = append(lines, line)
			line = item
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
