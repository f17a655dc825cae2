package attention

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"go-creative-analyzer/pkg/models"
)

const (
	// DefaultStride is the heat point spacing in source pixels
	DefaultStride = 5
	// DefaultScale multiplies raw model scores for display
	DefaultScale = 10.0
	// HotspotCount is the number of ranked peaks extracted
	HotspotCount = 3

	// ScanPathLabel is the fixed middle phase of every timeline
	ScanPathLabel = "Z-pattern movement through content"

	uniformEpsilon = 1e-9
)

// SamplePoints maps grid back onto a width×height image at the given stride
// using nearest-neighbour index mapping and multiplies by scale.
func SamplePoints(grid *ScoreGrid, width, height, stride int, scale float64) []models.HeatPoint {
	if stride <= 0 {
		stride = DefaultStride
	}
	cols := (width + stride - 1) / stride
	rows := (height + stride - 1) / stride
	points := make([]models.HeatPoint, 0, cols*rows)

	for y := 0; y < height; y += stride {
		predY := y * grid.Height / height
		for x := 0; x < width; x += stride {
			predX := x * grid.Width / width
			v := float64(grid.At(predX, predY)) * scale
			if v < 0 || math.IsNaN(v) {
				v = 0
			}
			points = append(points, models.HeatPoint{X: x, Y: y, Value: v})
		}
	}
	return points
}

// Hotspots returns up to k points of highest value, ranked from 1. A map
// with no variation has no peaks and yields none. Ties keep scan order.
func Hotspots(points []models.HeatPoint, k int) []models.Hotspot {
	if len(points) == 0 || k <= 0 {
		return []models.Hotspot{}
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	if floats.Max(values)-floats.Min(values) <= uniformEpsilon {
		return []models.Hotspot{}
	}

	sorted := make([]models.HeatPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	if k > len(sorted) {
		k = len(sorted)
	}
	hotspots := make([]models.Hotspot, k)
	for i := 0; i < k; i++ {
		hotspots[i] = models.Hotspot{
			X:         sorted[i].X,
			Y:         sorted[i].Y,
			Intensity: sorted[i].Value,
			Rank:      i + 1,
		}
	}
	return hotspots
}

// Timeline describes the first and final fixation from the ranked hotspots.
// The scan path phase is fixed.
func Timeline(hotspots []models.Hotspot, width, height int, scale float64) models.AttentionTimeline {
	tl := models.AttentionTimeline{
		InitialFocus: "No dominant focal point (uniform attention)",
		ScanPath:     ScanPathLabel,
		FinalResting: "No secondary focal point",
	}
	if len(hotspots) > 0 {
		tl.InitialFocus = describe(hotspots[0], width, height, scale)
	}
	if len(hotspots) > 1 {
		tl.FinalResting = describe(hotspots[1], width, height, scale)
	}
	return tl
}

func describe(h models.Hotspot, width, height int, scale float64) string {
	if scale <= 0 {
		scale = DefaultScale
	}
	focus := int(math.Round(h.Intensity / scale * 100))
	return fmt.Sprintf("%s region (%d%% focus)", models.AreaOf(h.X, h.Y, width, height), focus)
}

// BuildHeatmap assembles the full heatmap result for one prediction
func BuildHeatmap(grid *ScoreGrid, width, height, stride int, scale float64) models.HeatmapResult {
	if stride <= 0 {
		stride = DefaultStride
	}
	points := SamplePoints(grid, width, height, stride, scale)
	hotspots := Hotspots(points, HotspotCount)

	peak := 0.0
	for _, p := range points {
		peak = math.Max(peak, p.Value)
	}

	return models.HeatmapResult{
		Width:    width,
		Height:   height,
		Stride:   stride,
		Max:      peak,
		Points:   points,
		Hotspots: hotspots,
		Timeline: Timeline(hotspots, width, height, scale),
	}
}
