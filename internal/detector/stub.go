package detector

import (
	"context"

	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

// StubDetector returns a fixed set of score-form elements regardless of input
type StubDetector struct{}

func NewStubDetector() *StubDetector {
	return &StubDetector{}
}

func (d *StubDetector) Name() string { return KindStub }

func (d *StubDetector) Detect(ctx context.Context, _ *raster.Image) ([]models.DetectedElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []models.DetectedElement{
		{Type: "Headline", Score: intPtr(85), Area: "top-center"},
		{Type: "Product Image", Score: intPtr(92), Area: "middle-center"},
		{Type: "CTA Button", Score: intPtr(78), Area: "bottom-right"},
	}, nil
}

// BoxStubDetector returns a fixed set of box-form elements regardless of input
type BoxStubDetector struct{}

func NewBoxStubDetector() *BoxStubDetector {
	return &BoxStubDetector{}
}

func (d *BoxStubDetector) Name() string { return KindStubBoxes }

func (d *BoxStubDetector) Detect(ctx context.Context, _ *raster.Image) ([]models.DetectedElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []models.DetectedElement{
		{Type: "Logo", Box: &models.BoundingBox{X: 50, Y: 30, Width: 100, Height: 60}},
		{Type: "Headline", Box: &models.BoundingBox{X: 150, Y: 120, Width: 300, Height: 40}},
		{Type: "CTA Button", Box: &models.BoundingBox{X: 200, Y: 300, Width: 150, Height: 50}},
	}, nil
}
