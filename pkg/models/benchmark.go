package models

// BenchmarkThresholds is the resolved threshold set used for one evaluation
type BenchmarkThresholds struct {
	MinContrast int `json:"minContrast" yaml:"minContrast"`
	MinHotspots int `json:"minHotspots" yaml:"minHotspots"`
	MaxElements int `json:"maxElements,omitempty" yaml:"maxElements,omitempty"`
}

// MetricCheck reports one measured value against its threshold
type MetricCheck struct {
	Value     int  `json:"value"`
	Meets     bool `json:"meets"`
	Benchmark int  `json:"benchmark"`
}

// BenchmarkVerdict is the outcome of checking an analysis against a profile
type BenchmarkVerdict struct {
	Profile    string                 `json:"profile"`
	Platform   string                 `json:"platform,omitempty"`
	Passes     bool                   `json:"passes"`
	Thresholds BenchmarkThresholds    `json:"thresholds"`
	Metrics    map[string]MetricCheck `json:"metrics"`
}

// Metric names used in BenchmarkVerdict.Metrics
const (
	MetricContrast  = "contrast"
	MetricAttention = "attention"
)

// BenchmarkProfileInfo describes one profile and its platform overrides, fully resolved
type BenchmarkProfileInfo struct {
	Name       string                         `json:"name"`
	Thresholds BenchmarkThresholds            `json:"thresholds"`
	Platforms  map[string]BenchmarkThresholds `json:"platforms,omitempty"`
}
