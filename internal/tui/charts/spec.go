// Package charts turns dashboard records into declarative chart specs and
// draws them through an Engine.
//
// A Spec carries everything the engine needs: the chart kind, labels and
// datasets, axis and tooltip options, and the label overlays drawn on top
// of the chart. The Widget owns the engine handle for one surface and
// enforces the construct/destroy discipline.
package charts

import (
	"reflect"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

// Kind selects how a spec is drawn
type Kind int

const (
	KindDoughnut Kind = iota
	KindBar
)

func (k Kind) String() string {
	switch k {
	case KindDoughnut:
		return "doughnut"
	case KindBar:
		return "bar"
	}
	return "unknown"
}

// Dataset is one series; Colors holds one color per value
type Dataset struct {
	Label  string
	Values []float64
	Colors []lipgloss.Color
}

// Data is the labelled input of a chart
type Data struct {
	Labels   []string
	Datasets []Dataset
}

// Axis options
type Axis struct {
	Ticks       bool
	Grid        bool
	BeginAtZero bool
}

// Options are the recognized chart options
type Options struct {
	Cutout       float64 // inner radius as a fraction of the outer radius
	BarThickness int     // nominal bar thickness in pixels
	X            Axis
	Y            Axis
	Legend       bool
	Tooltip      func(index int) string
}

// Label is one overlay text bound to a segment or bar
type Label struct {
	Index  int
	Text   string
	Radius float64 // fraction of the outer radius, ring charts only
}

// Overlay draws extra labels after the chart itself
type Overlay struct {
	Name   string
	Labels func(values []float64) []Label
}

// Spec is a complete chart description
type Spec struct {
	Kind     Kind
	Data     Data
	Options  Options
	Overlays []Overlay
}

// Values returns the first dataset
func (s Spec) Values() []float64 {
	if len(s.Data.Datasets) == 0 {
		return nil
	}
	return s.Data.Datasets[0].Values
}

// Colors returns the per-value colors of the first dataset
func (s Spec) Colors() []lipgloss.Color {
	if len(s.Data.Datasets) == 0 {
		return nil
	}
	return s.Data.Datasets[0].Colors
}

// OverlayLabels evaluates every overlay against the spec values
func (s Spec) OverlayLabels() []Label {
	values := s.Values()
	return lo.FlatMap(s.Overlays, func(o Overlay, _ int) []Label {
		if o.Labels == nil {
			return nil
		}
		return o.Labels(values)
	})
}

// Tooltip returns the tooltip text for index, or ""
func (s Spec) Tooltip(index int) string {
	if s.Options.Tooltip == nil || index < 0 || index >= len(s.Values()) {
		return ""
	}
	return s.Options.Tooltip(index)
}

// Equal compares specs by value. Functions are not comparable, so
// tooltips and overlays are compared by presence and name.
func (s Spec) Equal(o Spec) bool {
	if s.Kind != o.Kind || !reflect.DeepEqual(s.Data, o.Data) {
		return false
	}
	a, b := s.Options, o.Options
	if a.Cutout != b.Cutout || a.BarThickness != b.BarThickness || a.X != b.X || a.Y != b.Y || a.Legend != b.Legend {
		return false
	}
	if (a.Tooltip == nil) != (b.Tooltip == nil) {
		return false
	}
	overlayName := func(o Overlay, _ int) string { return o.Name }
	return reflect.DeepEqual(lo.Map(s.Overlays, overlayName), lo.Map(o.Overlays, overlayName))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
