package http

import (
	"math"
	"strconv"
	"strings"

	"wealthflow/internal/core"
)

const (
	areaWidth   = 600.0
	areaHeight  = 240.0
	areaPadding = 12.0

	donutRadius = 70.0
	donutStroke = 22.0
)

type chartPoint struct {
	X, Y    float64
	Label   string
	Balance string
}

// areaChart is the SVG geometry of the running-balance chart.
type areaChart struct {
	Width, Height float64
	Line          string
	Area          string
	ZeroY         float64
	Points        []chartPoint
}

func (a areaChart) Empty() bool { return len(a.Points) == 0 }

// buildAreaChart plots the series left to right in the order given.
func buildAreaChart(series []core.BalancePoint) areaChart {
	chart := areaChart{Width: areaWidth, Height: areaHeight}
	if len(series) == 0 {
		return chart
	}

	lo, hi := 0.0, 0.0
	values := make([]float64, len(series))
	for i, p := range series {
		v := p.Balance.InexactFloat64()
		values[i] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	plotW := areaWidth - 2*areaPadding
	plotH := areaHeight - 2*areaPadding
	y := func(v float64) float64 {
		return round2(areaPadding + (hi-v)/(hi-lo)*plotH)
	}
	x := func(i int) float64 {
		if len(series) == 1 {
			return areaWidth / 2
		}
		return round2(areaPadding + float64(i)*plotW/float64(len(series)-1))
	}

	chart.ZeroY = y(0)
	var line strings.Builder
	for i, p := range series {
		pt := chartPoint{X: x(i), Y: y(values[i]), Label: p.Category, Balance: core.FormatMoney(p.Balance)}
		chart.Points = append(chart.Points, pt)
		if i == 0 {
			line.WriteString("M")
		} else {
			line.WriteString(" L")
		}
		line.WriteString(fmtFloat(pt.X) + "," + fmtFloat(pt.Y))
	}
	chart.Line = line.String()

	first, last := chart.Points[0], chart.Points[len(chart.Points)-1]
	chart.Area = chart.Line +
		" L" + fmtFloat(last.X) + "," + fmtFloat(chart.ZeroY) +
		" L" + fmtFloat(first.X) + "," + fmtFloat(chart.ZeroY) + " Z"
	return chart
}

type donutSlice struct {
	Name    string
	Value   string
	Color   string
	Percent string
	Dash    float64
	Gap     float64
	Offset  float64
}

// donutChart draws each category as a dashed stroke on one circle.
type donutChart struct {
	Radius float64
	Stroke float64
	Slices []donutSlice
}

func (d donutChart) Empty() bool { return len(d.Slices) == 0 }

func buildDonutChart(categories []core.CategoryTotal) donutChart {
	chart := donutChart{Radius: donutRadius, Stroke: donutStroke}

	total := 0.0
	for _, c := range categories {
		total += c.Value.InexactFloat64()
	}
	if total <= 0 {
		return chart
	}

	circumference := 2 * math.Pi * donutRadius
	acc := 0.0
	for i, c := range categories {
		frac := c.Value.InexactFloat64() / total
		dash := frac * circumference
		chart.Slices = append(chart.Slices, donutSlice{
			Name:    c.Name,
			Value:   core.FormatMoney(c.Value),
			Color:   core.Palette[i%len(core.Palette)],
			Percent: strconv.FormatFloat(frac*100, 'f', 1, 64),
			Dash:    round2(dash),
			Gap:     round2(circumference - dash),
			Offset:  round2(-acc),
		})
		acc += dash
	}
	return chart
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
