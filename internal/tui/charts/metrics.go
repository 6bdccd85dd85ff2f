package charts

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/chatdash/pkg/models"
)

// ProportionLabels name the ring segments in record order
var ProportionLabels = []string{"On Hold", "In Progress", "Completed"}

const (
	// PercentLabelRadius places percentage labels inside the ring
	PercentLabelRadius = 0.85
	doughnutCutout     = 0.5

	MinBarThickness    = 20
	MaxBarThickness    = 80
	barThicknessBudget = 400
)

// Percentages returns value/sum*100 per value. ok is false when the sum is
// not positive, in which case no percentage is defined.
func Percentages(values []float64) (pcts []float64, ok bool) {
	var total float64
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return nil, false
	}
	pcts = make([]float64, len(values))
	for i, v := range values {
		pcts[i] = v / total * 100
	}
	return pcts, true
}

// PercentOverlay labels each non-empty segment with its rounded share
func PercentOverlay(radius float64) Overlay {
	return Overlay{
		Name: "percent-labels",
		Labels: func(values []float64) []Label {
			pcts, ok := Percentages(values)
			if !ok {
				return nil
			}
			var labels []Label
			for i, p := range pcts {
				if values[i] <= 0 {
					continue
				}
				labels = append(labels, Label{
					Index:  i,
					Text:   fmt.Sprintf("%d%%", int(math.Round(p))),
					Radius: radius,
				})
			}
			return labels
		},
	}
}

// CountOverlay labels each bar with a positive value with that value
func CountOverlay() Overlay {
	return Overlay{
		Name: "count-labels",
		Labels: func(values []float64) []Label {
			var labels []Label
			for i, v := range values {
				if v > 0 {
					labels = append(labels, Label{Index: i, Text: formatValue(v)})
				}
			}
			return labels
		},
	}
}

// ProportionSpec describes the status ring for r
func ProportionSpec(r models.ProportionRecord, palette []lipgloss.Color) Spec {
	values := r.Values()
	pcts, ok := Percentages(values)

	tooltip := func(i int) string {
		if !ok {
			return fmt.Sprintf("%s: %s", ProportionLabels[i], formatValue(values[i]))
		}
		return fmt.Sprintf("%s: %s (%.1f%%)", ProportionLabels[i], formatValue(values[i]), math.Round(pcts[i]*10)/10)
	}

	return Spec{
		Kind: KindDoughnut,
		Data: Data{
			Labels: append([]string(nil), ProportionLabels...),
			Datasets: []Dataset{{
				Label:  "Status",
				Values: values,
				Colors: paletteFor(len(values), palette),
			}},
		},
		Options: Options{
			Cutout:  doughnutCutout,
			Legend:  true,
			Tooltip: tooltip,
		},
		Overlays: []Overlay{PercentOverlay(PercentLabelRadius)},
	}
}

// BarThickness is 400/n clamped to [20, 80]
func BarThickness(n int) int {
	if n <= 0 {
		return MaxBarThickness
	}
	return min(max(barThicknessBudget/n, MinBarThickness), MaxBarThickness)
}

// CategoricalSpec describes one bar per entry, in order
func CategoricalSpec(entries []models.CategoryEntry, palette []lipgloss.Color) Spec {
	labels := make([]string, len(entries))
	values := make([]float64, len(entries))
	tooltips := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.Title
		values[i] = e.Count
		tooltips[i] = e.Tooltip
	}

	return Spec{
		Kind: KindBar,
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:  "Count",
				Values: values,
				Colors: paletteFor(len(values), palette),
			}},
		},
		Options: Options{
			BarThickness: BarThickness(len(entries)),
			X:            Axis{Ticks: true, Grid: true},
			Y:            Axis{Ticks: false, Grid: false, BeginAtZero: true},
			Tooltip: func(i int) string {
				return tooltips[i]
			},
		},
		Overlays: []Overlay{CountOverlay()},
	}
}

// paletteFor assigns palette[i mod len(palette)] to n values
func paletteFor(n int, palette []lipgloss.Color) []lipgloss.Color {
	if len(palette) == 0 {
		return nil
	}
	colors := make([]lipgloss.Color, n)
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}
