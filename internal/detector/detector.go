package detector

import (
	"context"
	"fmt"

	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

// Detector names
const (
	KindStub      = "stub"
	KindStubBoxes = "stub-boxes"
	KindEdge      = "edge"
)

// Detector finds visual elements in an image. An implementation returns
// either score-form or box-form elements for one call, never a mix.
type Detector interface {
	Name() string
	Detect(ctx context.Context, img *raster.Image) ([]models.DetectedElement, error)
}

// Kinds lists the available detector names
func Kinds() []string {
	return []string{KindStub, KindStubBoxes, KindEdge}
}

// New creates a detector based on the specified kind
func New(kind string) (Detector, error) {
	switch kind {
	case KindStub, "":
		return NewStubDetector(), nil
	case KindStubBoxes:
		return NewBoxStubDetector(), nil
	case KindEdge:
		return NewEdgeDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector kind: %s", kind)
	}
}

func intPtr(v int) *int {
	return &v
}
