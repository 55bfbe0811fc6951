package http

import (
	"strconv"
	"strings"

	"bankpro/internal/core"
)

const (
	chartWidth   = 600
	chartHeight  = 240
	chartPadding = 24
)

// ChartPoint is one vertex of the rendered line, in SVG coordinates.
type ChartPoint struct {
	X, Y  float64
	Label string
	Value string
}

// LineChart is the server-rendered income-vs-expense chart.
type LineChart struct {
	Width, Height int
	Points        []ChartPoint
	// Polyline is the points attribute of the SVG polyline.
	Polyline string
	// ZeroY is the y coordinate of the zero amount axis.
	ZeroY float64
}

func (c LineChart) Empty() bool { return len(c.Points) == 0 }

// buildLineChart scales series into the chart box. The y range always
// includes zero so income and expense sit on either side of the axis.
func buildLineChart(series []core.ChartPoint) LineChart {
	c := LineChart{Width: chartWidth, Height: chartHeight}
	if len(series) == 0 {
		c.ZeroY = chartHeight / 2
		return c
	}

	lo, hi := 0.0, 0.0
	values := make([]float64, len(series))
	for i, p := range series {
		v := p.Value.InexactFloat64()
		values[i] = v
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	plotW := float64(chartWidth - 2*chartPadding)
	plotH := float64(chartHeight - 2*chartPadding)
	y := func(v float64) float64 {
		return chartPadding + (hi-v)/(hi-lo)*plotH
	}

	step := 0.0
	if len(series) > 1 {
		step = plotW / float64(len(series)-1)
	}

	coords := make([]string, 0, len(series))
	for i, p := range series {
		pt := ChartPoint{
			X:     chartPadding + float64(i)*step,
			Y:     y(values[i]),
			Label: p.Label,
			Value: formatRupees(p.Value),
		}
		if len(series) == 1 {
			pt.X = chartWidth / 2
		}
		c.Points = append(c.Points, pt)
		coords = append(coords, fmtCoord(pt.X)+","+fmtCoord(pt.Y))
	}
	c.Polyline = strings.Join(coords, " ")
	c.ZeroY = y(0)
	return c
}

func fmtCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
