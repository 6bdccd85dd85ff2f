// Package region maps mouse events onto named areas of a rendered view.
package region

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// Regions marks parts of a view and answers hit tests against them
type Regions interface {
	// Mark wraps v so that its on-screen bounds are known by id
	Mark(id, v string) string
	// InBounds reports whether msg falls inside region id
	InBounds(id string, msg tea.MouseMsg) bool
	// Pos returns msg relative to the top-left corner of region id
	Pos(id string, msg tea.MouseMsg) (x, y int, ok bool)
}

// Zones resolves regions with bubblezone markers. The final program view
// must go through Scan.
type Zones struct {
	manager *zone.Manager
}

// NewZones creates a zone manager
func NewZones() *Zones {
	return &Zones{manager: zone.New()}
}

func (z *Zones) Mark(id, v string) string {
	return z.manager.Mark(id, v)
}

func (z *Zones) InBounds(id string, msg tea.MouseMsg) bool {
	info := z.manager.Get(id)
	if info == nil || info.IsZero() {
		return false
	}
	return info.InBounds(msg)
}

func (z *Zones) Pos(id string, msg tea.MouseMsg) (int, int, bool) {
	if !z.InBounds(id, msg) {
		return -1, -1, false
	}
	x, y := z.manager.Get(id).Pos(msg)
	return x, y, true
}

// Scan strips markers from the final view and records zone bounds
func (z *Zones) Scan(v string) string {
	return z.manager.Scan(v)
}

// Close stops the zone worker
func (z *Zones) Close() {
	z.manager.Close()
}

// Rect is an inclusive cell rectangle
type Rect struct {
	X0, Y0, X1, Y1 int
}

func (r Rect) contains(x, y int) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Static resolves regions from fixed rectangles. It leaves views unchanged,
// which suits headless rendering.
type Static map[string]Rect

func (s Static) Mark(_, v string) string {
	return v
}

func (s Static) InBounds(id string, msg tea.MouseMsg) bool {
	r, ok := s[id]
	return ok && r.contains(msg.X, msg.Y)
}

func (s Static) Pos(id string, msg tea.MouseMsg) (int, int, bool) {
	r, ok := s[id]
	if !ok || !r.contains(msg.X, msg.Y) {
		return -1, -1, false
	}
	return msg.X - r.X0, msg.Y - r.Y0, true
}
