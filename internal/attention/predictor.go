package attention

import (
	"context"

	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

// Predictor turns an image into a heatmap using the shared model handle
type Predictor struct {
	handle *Handle
	pool   *TensorPool
	stride int
	scale  float64
}

// NewPredictor creates a predictor. A nil pool gets a private one.
func NewPredictor(handle *Handle, pool *TensorPool, stride int, scale float64) *Predictor {
	if pool == nil {
		pool = NewTensorPool()
	}
	if stride <= 0 {
		stride = DefaultStride
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Predictor{handle: handle, pool: pool, stride: stride, scale: scale}
}

// Handle returns the shared model handle
func (p *Predictor) Handle() *Handle {
	return p.handle
}

// Predict runs the model once on img. The input tensor is returned to the
// pool whether or not inference succeeds.
func (p *Predictor) Predict(ctx context.Context, img *raster.Image) (models.HeatmapResult, error) {
	model, err := p.handle.Get(ctx)
	if err != nil {
		return models.HeatmapResult{}, err
	}

	input := p.pool.Acquire(model.InputSize())
	defer p.pool.Release(input)
	input.Fill(img)

	grid, err := model.Predict(ctx, input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.HeatmapResult{}, ctxErr
		}
		if apperrors.IsType(err, apperrors.ErrorTypeModelUnavailable) {
			return models.HeatmapResult{}, err
		}
		return models.HeatmapResult{}, apperrors.NewModelUnavailableError("attention model inference failed", err)
	}
	if err := grid.Validate(); err != nil {
		return models.HeatmapResult{}, apperrors.NewModelUnavailableError("invalid attention map", err)
	}

	return BuildHeatmap(grid, img.Width, img.Height, p.stride, p.scale), nil
}
