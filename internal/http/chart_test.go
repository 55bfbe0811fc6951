package http

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankpro/internal/core"
)

func TestBuildLineChart(t *testing.T) {
	series := []core.ChartPoint{
		{Label: "T1", Value: decimal.NewFromInt(100)},
		{Label: "T2", Value: decimal.NewFromInt(-100)},
		{Label: "T3", Value: decimal.NewFromInt(0)},
	}
	c := buildLineChart(series)

	require.Len(t, c.Points, 3)
	assert.Equal(t, 24.0, c.Points[0].X)
	assert.Equal(t, 576.0, c.Points[2].X)
	assert.Equal(t, 24.0, c.Points[0].Y, "max value at the top")
	assert.Equal(t, 216.0, c.Points[1].Y, "min value at the bottom")
	assert.Equal(t, 120.0, c.ZeroY)
	assert.Equal(t, "24.0,24.0 300.0,216.0 576.0,120.0", c.Polyline)
	assert.Equal(t, "-₹100.00", c.Points[1].Value)
}

func TestBuildLineChartEdgeCases(t *testing.T) {
	assert.True(t, buildLineChart(nil).Empty())

	c := buildLineChart([]core.ChartPoint{{Label: "T1", Value: decimal.Zero}})
	require.Len(t, c.Points, 1)
	assert.Equal(t, 300.0, c.Points[0].X)
}
