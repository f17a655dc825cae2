package analyzer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

// Orchestrator runs the contrast branch and the attention branch (heat map,
// elements and timeline) concurrently and merges them once both finish.
type Orchestrator struct {
	contrast  *ContrastAnalyzer
	predictor HeatmapPredictor
	detector  ElementDetector
}

// NewOrchestrator wires the two analysis branches
func NewOrchestrator(contrast *ContrastAnalyzer, predictor HeatmapPredictor, detector ElementDetector) *Orchestrator {
	return &Orchestrator{
		contrast:  contrast,
		predictor: predictor,
		detector:  detector,
	}
}

type attentionOutcome struct {
	heatmap  models.HeatmapResult
	elements []models.DetectedElement
}

// Analyze fails as a whole when either branch fails; the error names the
// branch. A failure in one branch cancels the other.
func (o *Orchestrator) Analyze(ctx context.Context, img *raster.Image) (*models.Analysis, error) {
	if img == nil {
		return nil, apperrors.NewInvalidInputError("no image to analyze", nil)
	}

	g, gctx := errgroup.WithContext(ctx)

	var contrast models.ContrastResult
	var att attentionOutcome

	g.Go(func() error {
		return runBranch(gctx, apperrors.BranchContrast, func() error {
			var err error
			contrast, err = o.contrast.Analyze(gctx, img)
			return err
		})
	})
	g.Go(func() error {
		return runBranch(gctx, apperrors.BranchAttention, func() error {
			var err error
			att, err = o.attention(gctx, img)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	contrast.Elements = att.elements
	return &models.Analysis{
		Width:    img.Width,
		Height:   img.Height,
		Contrast: contrast,
		Heatmap:  att.heatmap,
		Elements: att.elements,
		Timeline: att.heatmap.Timeline,
	}, nil
}

func (o *Orchestrator) attention(ctx context.Context, img *raster.Image) (attentionOutcome, error) {
	heatmap, err := o.predictor.Predict(ctx, img)
	if err != nil {
		return attentionOutcome{}, err
	}
	elements, err := o.detector.Detect(ctx, img)
	if err != nil {
		return attentionOutcome{}, err
	}
	if elements == nil {
		elements = []models.DetectedElement{}
	}
	return attentionOutcome{heatmap: heatmap, elements: elements}, nil
}

// runBranch converts errors and panics of one branch into a branch failure
func runBranch(ctx context.Context, branch string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequestID(ctx).
				WithField("branch", branch).
				WithField("panic", r).
				WithField("stack", string(debug.Stack())).
				Error("Analysis branch panicked")
			err = apperrors.NewBranchError(branch,
				apperrors.NewInternalError(fmt.Sprintf("%s branch panicked: %v", branch, r), nil))
		}
	}()

	if err := fn(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewBranchError(branch, apperrors.NewTimeoutError("analysis cancelled", err))
		}
		return apperrors.NewBranchError(branch, err)
	}
	return nil
}
