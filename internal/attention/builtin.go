package attention

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SaliencyModel is an in-process predictor that treats local luminance
// gradients as attention. It needs no weights, so loading cannot fail.
type SaliencyModel struct {
	size       int
	blurRadius int
}

// NewSaliencyModel creates a gradient saliency model for size×size inputs
func NewSaliencyModel(size int) *SaliencyModel {
	if size <= 0 {
		size = DefaultInputSize
	}
	return &SaliencyModel{size: size, blurRadius: 3}
}

// SaliencyLoader returns a Loader for the builtin model
func SaliencyLoader(size int) Loader {
	return func(ctx context.Context) (Model, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewSaliencyModel(size), nil
	}
}

func (m *SaliencyModel) Name() string   { return "builtin-saliency" }
func (m *SaliencyModel) InputSize() int { return m.size }

// Predict returns Sobel gradient magnitude, box blurred and normalised to [0,1]
func (m *SaliencyModel) Predict(ctx context.Context, input *Tensor) (*ScoreGrid, error) {
	n := input.Size
	gray := make([]float64, n*n)
	for i := range gray {
		o := i * 3
		gray[i] = 0.299*float64(input.Data[o]) + 0.587*float64(input.Data[o+1]) + 0.114*float64(input.Data[o+2])
	}

	grad := make([]float64, n*n)
	for y := 1; y < n-1; y++ {
		for x := 1; x < n-1; x++ {
			at := func(dx, dy int) float64 { return gray[(y+dy)*n+x+dx] }
			gx := -at(-1, -1) + at(1, -1) - 2*at(-1, 0) + 2*at(1, 0) - at(-1, 1) + at(1, 1)
			gy := -at(-1, -1) - 2*at(0, -1) - at(1, -1) + at(-1, 1) + 2*at(0, 1) + at(1, 1)
			grad[y*n+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	smooth := boxBlur(grad, n, m.blurRadius)
	if peak := floats.Max(smooth); peak > 0 {
		floats.Scale(1/peak, smooth)
	}

	scores := make([]float32, len(smooth))
	for i, v := range smooth {
		scores[i] = float32(v)
	}
	return &ScoreGrid{Width: n, Height: n, Scores: scores}, nil
}

// boxBlur averages each cell over a (2r+1)² window clipped to the grid
func boxBlur(src []float64, n, r int) []float64 {
	// Summed-area table
	sat := make([]float64, (n+1)*(n+1))
	for y := 0; y < n; y++ {
		row := 0.0
		for x := 0; x < n; x++ {
			row += src[y*n+x]
			sat[(y+1)*(n+1)+x+1] = sat[y*(n+1)+x+1] + row
		}
	}

	out := make([]float64, n*n)
	for y := 0; y < n; y++ {
		y0, y1 := max(0, y-r), min(n, y+r+1)
		for x := 0; x < n; x++ {
			x0, x1 := max(0, x-r), min(n, x+r+1)
			sum := sat[y1*(n+1)+x1] - sat[y0*(n+1)+x1] - sat[y1*(n+1)+x0] + sat[y0*(n+1)+x0]
			out[y*n+x] = sum / float64((y1-y0)*(x1-x0))
		}
	}
	return out
}
