package analyzer

import (
	"runtime"

	"go-creative-analyzer/internal/attention"
	"go-creative-analyzer/internal/layout"
)

// AnalysisOptions tunes the analysis pipeline
type AnalysisOptions struct {
	// Contrast
	ContrastSampleSize int

	// Attention
	HeatmapStride int
	HeatmapScale  float64

	// Layout
	LayoutStep int

	// Performance options
	MaxWorkers int
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		ContrastSampleSize: DefaultContrastSampleSize,
		HeatmapStride:      attention.DefaultStride,
		HeatmapScale:       attention.DefaultScale,
		LayoutStep:         layout.DefaultStep,
		MaxWorkers:         runtime.NumCPU(),
	}
}

// WithSampleSize sets the contrast sampling window
func (opts AnalysisOptions) WithSampleSize(n int) AnalysisOptions {
	opts.ContrastSampleSize = n
	return opts
}

// WithHeatmap sets the heat map stride and display scale
func (opts AnalysisOptions) WithHeatmap(stride int, scale float64) AnalysisOptions {
	opts.HeatmapStride = stride
	opts.HeatmapScale = scale
	return opts
}

// WithLayoutStep sets the layout nudge distance
func (opts AnalysisOptions) WithLayoutStep(step int) AnalysisOptions {
	opts.LayoutStep = step
	return opts
}

// WithWorkers sets the worker pool size
func (opts AnalysisOptions) WithWorkers(n int) AnalysisOptions {
	opts.MaxWorkers = n
	return opts
}
