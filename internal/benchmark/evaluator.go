package benchmark

import (
	"go-creative-analyzer/pkg/models"
)

// Input is the part of an analysis that benchmarks look at
type Input struct {
	ContrastScore int
	Hotspots      []models.Hotspot
}

// InputFrom extracts the benchmark input from a full analysis
func InputFrom(a *models.Analysis) Input {
	return Input{ContrastScore: a.Contrast.Score, Hotspots: a.Heatmap.Hotspots}
}

// Evaluator checks analyses against a profile table
type Evaluator struct {
	table *Table
}

func NewEvaluator(table *Table) *Evaluator {
	if table == nil {
		table = Default()
	}
	return &Evaluator{table: table}
}

// Table returns the profile table in use
func (e *Evaluator) Table() *Table {
	return e.table
}

// Evaluate reports whether in meets the thresholds of profile (and platform,
// when set). Both metrics are always reported with value and threshold.
func (e *Evaluator) Evaluate(in Input, profile, platform string) (models.BenchmarkVerdict, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	th, err := e.table.Resolve(profile, platform)
	if err != nil {
		return models.BenchmarkVerdict{}, err
	}

	contrast := models.MetricCheck{
		Value:     in.ContrastScore,
		Meets:     in.ContrastScore >= th.MinContrast,
		Benchmark: th.MinContrast,
	}
	attention := models.MetricCheck{
		Value:     len(in.Hotspots),
		Meets:     len(in.Hotspots) >= th.MinHotspots,
		Benchmark: th.MinHotspots,
	}

	return models.BenchmarkVerdict{
		Profile:    profile,
		Platform:   platform,
		Passes:     contrast.Meets && attention.Meets,
		Thresholds: th,
		Metrics: map[string]models.MetricCheck{
			models.MetricContrast:  contrast,
			models.MetricAttention: attention,
		},
	}, nil
}
