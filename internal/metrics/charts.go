package metrics

import (
	"fmt"
	"math"
	"strings"
)

// ChartPoint represents a single data point for SVG line/area charts.
type ChartPoint struct {
	X     float64 // SVG x coordinate
	Y     float64 // SVG y coordinate
	Value float64 // Original data value
	Label string  // Date label for tooltip
}

// ChartData holds pre-computed SVG chart data for rendering in templates.
type ChartData struct {
	Points   []ChartPoint
	PolyLine string // Pre-computed SVG polyline points string
	AreaPath string // Pre-computed SVG area path (for filled charts)
	MinValue float64
	MaxValue float64
	MinLabel string
	MaxLabel string
	YLabels  []ChartYLabel // Y-axis grid labels
	HasData  bool
}

// ChartYLabel is a horizontal grid line label.
type ChartYLabel struct {
	Y     float64
	Label string
}

// chartDimensions defines the SVG viewBox dimensions and padding.
const (
	chartWidth    = 600.0
	chartHeight   = 200.0
	chartPadLeft  = 50.0
	chartPadRight = 10.0
	chartPadTop   = 15.0
	chartPadBot   = 25.0
)

// LoadChart normalizes a training-load series into SVG coordinates for the
// templates' load chart.
func LoadChart(series []LoadPoint) *ChartData {
	dates := make([]string, len(series))
	values := make([]float64, len(series))
	for i, p := range series {
		dates[i] = p.Date.Format("02/01")
		values[i] = p.Load
	}
	return computeChartPoints(dates, values)
}

// computeChartPoints normalizes a series of (label, value) pairs into SVG
// coordinates within the chart dimensions. Points are ordered
// chronologically.
func computeChartPoints(labels []string, values []float64) *ChartData {
	if len(labels) == 0 || len(labels) != len(values) {
		return &ChartData{HasData: false}
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	// Add padding so points don't sit on the edge.
	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = maxVal * 0.1
		if valRange == 0 {
			valRange = 10
		}
		minVal -= valRange / 2
		maxVal += valRange / 2
	} else {
		minVal -= valRange * 0.05
		maxVal += valRange * 0.05
	}

	plotW := chartWidth - chartPadLeft - chartPadRight
	plotH := chartHeight - chartPadTop - chartPadBot

	points := make([]ChartPoint, len(labels))
	for i := range labels {
		var xFrac float64
		if len(labels) == 1 {
			xFrac = 0.5
		} else {
			xFrac = float64(i) / float64(len(labels)-1)
		}
		yFrac := 1.0 - (values[i]-minVal)/(maxVal-minVal)

		points[i] = ChartPoint{
			X:     chartPadLeft + xFrac*plotW,
			Y:     chartPadTop + yFrac*plotH,
			Value: values[i],
			Label: labels[i],
		}
	}

	var polyParts []string
	for _, p := range points {
		polyParts = append(polyParts, fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
	}
	polyLine := strings.Join(polyParts, " ")

	// Same line with the bottom closed, for area fills.
	bottomY := chartPadTop + plotH
	areaPath := fmt.Sprintf("M%.1f,%.1f ", points[0].X, bottomY)
	for _, p := range points {
		areaPath += fmt.Sprintf("L%.1f,%.1f ", p.X, p.Y)
	}
	areaPath += fmt.Sprintf("L%.1f,%.1f Z", points[len(points)-1].X, bottomY)

	return &ChartData{
		Points:   points,
		PolyLine: polyLine,
		AreaPath: areaPath,
		MinValue: minVal,
		MaxValue: maxVal,
		MinLabel: labels[0],
		MaxLabel: labels[len(labels)-1],
		YLabels:  niceYLabels(minVal, maxVal, 4),
		HasData:  true,
	}
}

// niceYLabels generates evenly-spaced y-axis labels with nice round numbers.
func niceYLabels(minVal, maxVal float64, count int) []ChartYLabel {
	if count <= 0 {
		count = 4
	}
	valRange := maxVal - minVal
	rawStep := valRange / float64(count)

	magnitude := math.Pow(10, math.Floor(math.Log10(rawStep)))
	normalized := rawStep / magnitude
	var niceStep float64
	switch {
	case normalized <= 1.5:
		niceStep = magnitude
	case normalized <= 3.5:
		niceStep = 2.5 * magnitude
	case normalized <= 7.5:
		niceStep = 5 * magnitude
	default:
		niceStep = 10 * magnitude
	}

	plotH := chartHeight - chartPadTop - chartPadBot
	var labels []ChartYLabel

	start := math.Ceil(minVal/niceStep) * niceStep
	for v := start; v <= maxVal; v += niceStep {
		yFrac := 1.0 - (v-minVal)/(maxVal-minVal)
		y := chartPadTop + yFrac*plotH
		labels = append(labels, ChartYLabel{
			Y:     y,
			Label: formatChartValue(v),
		})
	}

	return labels
}

// formatChartValue formats a number for y-axis display.
func formatChartValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// PieSegment is one pre-computed slice of the distribution pie.
type PieSegment struct {
	Category   string
	Value      float64
	Percentage float64
	Path       string // SVG arc path
}

const (
	pieCX = 100.0
	pieCY = 100.0
	pieR  = 90.0
)

// PieSegments converts a distribution into SVG arc paths, starting at
// twelve o'clock and proceeding clockwise. A single full-circle segment is
// drawn as two half arcs since an arc of 360° collapses in SVG.
func PieSegments(entries []DistributionEntry) []PieSegment {
	segments := make([]PieSegment, 0, len(entries))
	angle := -math.Pi / 2

	for _, e := range entries {
		sweep := e.Percentage / 100 * 2 * math.Pi
		seg := PieSegment{Category: e.Category, Value: e.Value, Percentage: e.Percentage}

		if e.Percentage >= 100 {
			seg.Path = fmt.Sprintf(
				"M%.1f,%.1f A%.1f,%.1f 0 1 1 %.1f,%.1f A%.1f,%.1f 0 1 1 %.1f,%.1f Z",
				pieCX, pieCY-pieR, pieR, pieR, pieCX, pieCY+pieR, pieR, pieR, pieCX, pieCY-pieR)
			segments = append(segments, seg)
			angle += sweep
			continue
		}

		x1 := pieCX + pieR*math.Cos(angle)
		y1 := pieCY + pieR*math.Sin(angle)
		x2 := pieCX + pieR*math.Cos(angle+sweep)
		y2 := pieCY + pieR*math.Sin(angle+sweep)
		largeArc := 0
		if sweep > math.Pi {
			largeArc = 1
		}
		seg.Path = fmt.Sprintf("M%.1f,%.1f L%.1f,%.1f A%.1f,%.1f 0 %d 1 %.1f,%.1f Z",
			pieCX, pieCY, x1, y1, pieR, pieR, largeArc, x2, y2)
		segments = append(segments, seg)
		angle += sweep
	}
	return segments
}
