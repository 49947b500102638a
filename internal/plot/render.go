package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Metric display units, keyed by metric name.
var units = map[string]string{
	"cwnd":       "packets",
	"rtt":        "ms",
	"throughput": "Mbps",
	"packetloss": "%",
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noteStyle   = lipgloss.NewStyle().Faint(true).Italic(true)
)

// Chart renders one series as an ASCII line chart.
type Chart struct {
	Width  int // total terminal width budget
	Height int // plot rows, excluding labels
}

// Render draws the series, or a skip notice when it is not plottable.
func (c Chart) Render(s *Series) string {
	if c.Width <= 20 {
		c.Width = 72
	}
	if c.Height <= 0 {
		c.Height = 10
	}

	if !s.Plottable() {
		var why string
		switch {
		case s == nil:
			why = "file missing"
		case len(s.Points) == 0:
			why = "no samples"
		default:
			why = "fewer than two samples"
		}
		note := fmt.Sprintf("skipping %s.%s: %s", seriesProtocol(s), seriesMetric(s), why)
		return noteStyle.Render(wordwrap.String(note, c.Width)) + "\n"
	}

	cols := c.Width - 12 // y-axis label gutter
	grid := rasterize(s.Points, cols, c.Height)

	lo, hi := bounds(s.Points)
	var b strings.Builder
	for row := c.Height - 1; row >= 0; row-- {
		label := "          "
		switch row {
		case c.Height - 1:
			label = fmt.Sprintf("%9.3g ", hi)
		case 0:
			label = fmt.Sprintf("%9.3g ", lo)
		}
		b.WriteString(axisStyle.Render(label))
		for col := 0; col < cols; col++ {
			if grid[row][col] {
				b.WriteString("•")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axisStyle.Render(fmt.Sprintf("%9.3gs%*s%.3gs", s.Points[0].T, cols-6, "", s.Points[len(s.Points)-1].T)))

	title := fmt.Sprintf("%s.%s (%s)", s.Protocol, s.Metric, units[s.Metric])
	return titleStyle.Render(title) + "\n" + borderStyle.Render(b.String()) + "\n"
}

// rasterize buckets points into cols columns and marks one cell per
// column at the bucket's mean value.
func rasterize(pts []Point, cols, rows int) [][]bool {
	grid := make([][]bool, rows)
	for i := range grid {
		grid[i] = make([]bool, cols)
	}

	lo, hi := bounds(pts)
	span := hi - lo
	t0, t1 := pts[0].T, pts[len(pts)-1].T
	tspan := t1 - t0
	if tspan == 0 {
		tspan = 1
	}

	sums := make([]float64, cols)
	counts := make([]int, cols)
	for _, p := range pts {
		col := int((p.T - t0) / tspan * float64(cols-1))
		sums[col] += p.V
		counts[col]++
	}
	for col := 0; col < cols; col++ {
		if counts[col] == 0 {
			continue
		}
		v := sums[col] / float64(counts[col])
		row := 0
		if span > 0 {
			row = int((v - lo) / span * float64(rows-1))
		}
		grid[row][col] = true
	}
	return grid
}

func bounds(pts []Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		lo = math.Min(lo, p.V)
		hi = math.Max(hi, p.V)
	}
	return lo, hi
}

func seriesProtocol(s *Series) string {
	if s == nil {
		return "?"
	}
	return s.Protocol
}

func seriesMetric(s *Series) string {
	if s == nil {
		return "?"
	}
	return s.Metric
}
