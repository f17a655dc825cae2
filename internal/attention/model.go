package attention

import (
	"context"
	"fmt"
)

// DefaultInputSize is the square model input resolution
const DefaultInputSize = 224

// ScoreGrid is a row-major map of non-negative attention scores
type ScoreGrid struct {
	Width  int
	Height int
	Scores []float32
}

// At returns the score at column x, row y
func (g *ScoreGrid) At(x, y int) float32 {
	return g.Scores[y*g.Width+x]
}

// Validate checks the grid shape
func (g *ScoreGrid) Validate() error {
	if g == nil {
		return fmt.Errorf("model returned no score grid")
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("score grid has invalid shape %dx%d", g.Width, g.Height)
	}
	if len(g.Scores) != g.Width*g.Height {
		return fmt.Errorf("score grid has %d scores, expected %d", len(g.Scores), g.Width*g.Height)
	}
	return nil
}

// Model maps a normalised input tensor to a spatial attention score grid
type Model interface {
	Name() string
	InputSize() int
	Predict(ctx context.Context, input *Tensor) (*ScoreGrid, error)
}

// Loader creates a ready Model. It is called lazily by Handle.
type Loader func(ctx context.Context) (Model, error)
