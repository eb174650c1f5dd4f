package http

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
)

func TestBuildAreaChart(t *testing.T) {
	chart := buildAreaChart([]core.BalancePoint{
		{Category: "Food", Balance: decimal.NewFromInt(-30)},
		{Category: "Salary", Balance: decimal.NewFromInt(70)},
	})

	if len(chart.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(chart.Points))
	}
	first, last := chart.Points[0], chart.Points[1]
	if first.X >= last.X {
		t.Errorf("points should run left to right: %v %v", first.X, last.X)
	}
	if first.Y <= last.Y {
		t.Errorf("a lower balance should sit lower on the chart: %v %v", first.Y, last.Y)
	}
	if first.Y != areaHeight-areaPadding || last.Y != areaPadding {
		t.Errorf("extremes should touch the padding, got %v and %v", first.Y, last.Y)
	}
	if !strings.HasPrefix(chart.Line, "M") || !strings.HasSuffix(chart.Area, "Z") {
		t.Errorf("unexpected paths %q %q", chart.Line, chart.Area)
	}
	if first.Label != "Food" || first.Balance != "-$30.00" {
		t.Errorf("unexpected first point %+v", first)
	}
}

func TestBuildAreaChartEdgeCases(t *testing.T) {
	if !buildAreaChart(nil).Empty() {
		t.Fatal("empty series should give an empty chart")
	}
	single := buildAreaChart([]core.BalancePoint{{Category: "Salary", Balance: decimal.NewFromInt(0)}})
	if len(single.Points) != 1 || single.Points[0].X != areaWidth/2 {
		t.Fatalf("single point should be centred: %+v", single.Points)
	}
}

func TestBuildDonutChart(t *testing.T) {
	categories := make([]core.CategoryTotal, 0, 6)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		categories = append(categories, core.CategoryTotal{Name: name, Value: decimal.NewFromInt(10)})
	}
	chart := buildDonutChart(categories)

	if len(chart.Slices) != 6 {
		t.Fatalf("expected 6 slices, got %d", len(chart.Slices))
	}
	if chart.Slices[0].Color != core.Palette[0] || chart.Slices[5].Color != core.Palette[0] {
		t.Errorf("colours should cycle by position: %s %s", chart.Slices[0].Color, chart.Slices[5].Color)
	}
	if chart.Slices[0].Offset != 0 || chart.Slices[1].Offset >= 0 {
		t.Errorf("offsets should accumulate: %v %v", chart.Slices[0].Offset, chart.Slices[1].Offset)
	}
	if chart.Slices[2].Percent != "16.7" {
		t.Errorf("unexpected percent %s", chart.Slices[2].Percent)
	}

	if !buildDonutChart(nil).Empty() {
		t.Error("no categories should give an empty donut")
	}
}

func TestFormatting(t *testing.T) {
	if got := formatPct(8.2); got != "8.2" {
		t.Errorf("formatPct(8.2) = %q", got)
	}
	if got := formatPct(0); got != "0" {
		t.Errorf("formatPct(0) = %q", got)
	}
	if got := sanitizeInput(" Fo\x00od \n"); got != "Food" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
