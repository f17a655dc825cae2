package analyzer

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

const (
	// DefaultContrastSampleSize is the number of scan-order neighbour pairs sampled
	DefaultContrastSampleSize = 1000

	// ContrastFixFactor stretches channels around ContrastFixPivot
	ContrastFixFactor = 1.5
	ContrastFixPivot  = 128.0

	contrastScale = 2.0

	highTierFloor   = 75
	mediumTierFloor = 45
)

var contrastSuggestions = map[models.SuggestionTier][]string{
	models.TierHigh: {
		"Excellent contrast levels maintained throughout",
		"Text is highly readable against backgrounds",
	},
	models.TierMedium: {
		"Consider increasing contrast for secondary text by 10-15%",
		"Test against WCAG AA standards for accessibility",
	},
	models.TierLow: {
		"Increase text/background contrast ratio significantly",
		"Avoid similar colors for text and background",
		"Use tools like WebAIM Contrast Checker for verification",
	},
}

// ContrastAnalyzer scores luminance variation between neighbouring pixels
type ContrastAnalyzer struct {
	sampleSize int
}

// NewContrastAnalyzer creates an analyzer sampling at most sampleSize pixel pairs
func NewContrastAnalyzer(sampleSize int) *ContrastAnalyzer {
	if sampleSize <= 0 {
		sampleSize = DefaultContrastSampleSize
	}
	return &ContrastAnalyzer{sampleSize: sampleSize}
}

// Analyze computes the contrast score of img. Only the first sampleSize
// pixels in scan order are compared with their successor, so a pair can
// straddle a row boundary. Images with fewer than two pixels are rejected.
func (ca *ContrastAnalyzer) Analyze(ctx context.Context, img *raster.Image) (models.ContrastResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ContrastResult{}, err
	}

	score, err := ca.Score(img)
	if err != nil {
		return models.ContrastResult{}, err
	}

	tier := TierFor(score)
	return models.ContrastResult{
		Score:       score,
		Tier:        tier,
		Suggestions: SuggestionsFor(tier),
		Elements:    []models.DetectedElement{},
	}, nil
}

// Score returns the clamped 0-100 contrast score
func (ca *ContrastAnalyzer) Score(img *raster.Image) (int, error) {
	pairs := img.PixelCount() - 1
	if pairs < 1 {
		return 0, apperrors.NewInsufficientDataError(
			fmt.Sprintf("contrast sampling needs at least 2 pixels, image has %d", img.PixelCount()), nil)
	}
	if pairs > ca.sampleSize {
		pairs = ca.sampleSize
	}

	diffs := make([]float64, pairs)
	for i := 0; i < pairs; i++ {
		diffs[i] = math.Abs(img.Luminance(i) - img.Luminance(i+1))
	}

	raw := math.Min(100, stat.Mean(diffs, nil)*contrastScale)
	return clampScore(int(math.Round(raw))), nil
}

// TierFor maps a score to its suggestion tier. 75 is medium and 45 is low.
func TierFor(score int) models.SuggestionTier {
	switch {
	case score > highTierFloor:
		return models.TierHigh
	case score > mediumTierFloor:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

// SuggestionsFor returns a copy of the static message set of tier
func SuggestionsFor(tier models.SuggestionTier) []string {
	src := contrastSuggestions[tier]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// FixContrast returns a copy of img with R, G and B stretched by
// ContrastFixFactor around mid grey. Alpha is left untouched.
func FixContrast(img *raster.Image) *raster.Image {
	out := img.Clone()
	for i := 0; i < len(out.Pix); i += raster.BytesPerPixel {
		out.Pix[i] = stretchChannel(out.Pix[i])
		out.Pix[i+1] = stretchChannel(out.Pix[i+1])
		out.Pix[i+2] = stretchChannel(out.Pix[i+2])
	}
	return out
}

func stretchChannel(v uint8) uint8 {
	s := ContrastFixFactor*(float64(v)-ContrastFixPivot) + ContrastFixPivot
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return uint8(math.Round(s))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
