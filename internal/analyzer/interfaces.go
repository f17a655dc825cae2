package analyzer

import (
	"context"
	"time"

	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

// HeatmapPredictor produces the attention heat map of an image
type HeatmapPredictor interface {
	Predict(ctx context.Context, img *raster.Image) (models.HeatmapResult, error)
}

// ElementDetector finds visual elements in an image
type ElementDetector interface {
	Detect(ctx context.Context, img *raster.Image) ([]models.DetectedElement, error)
}

// CreativeAnalyzer runs the full fork-join analysis of one image
type CreativeAnalyzer interface {
	Analyze(ctx context.Context, img *raster.Image) (*models.Analysis, error)
}

// ResultCache stores completed analyses keyed by image digest
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.Analysis, bool)
	Set(ctx context.Context, key string, a *models.Analysis, ttl time.Duration) error
}
