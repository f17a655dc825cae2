package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-creative-analyzer/internal/analyzer"
	"go-creative-analyzer/internal/attention"
	"go-creative-analyzer/internal/benchmark"
	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/layout"
	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/internal/observer"
	"go-creative-analyzer/internal/report"
	"go-creative-analyzer/internal/repository"
	"go-creative-analyzer/pkg/models"
	"go-creative-analyzer/pkg/validation"
)

// CreativeAnalysisService is the application boundary of the pipeline
type CreativeAnalysisService interface {
	// AnalyzeMessage handles the {action, image} message entry point
	AnalyzeMessage(ctx context.Context, msg models.AnalysisMessage) (*models.AnalysisMessageResponse, error)

	// Analyze decodes payload and runs the full analysis
	Analyze(ctx context.Context, payload string) (*AnalysisOutcome, error)

	// FixContrast stretches contrast and re-scores the result
	FixContrast(ctx context.Context, payload string) (*models.ContrastFixResponse, error)

	// Layout analyses payload and suggests element positions
	Layout(ctx context.Context, payload string) (*models.LayoutResponse, error)

	// Benchmark evaluates a computed result against a profile
	Benchmark(ctx context.Context, req models.BenchmarkRequest) (*models.BenchmarkVerdict, error)

	// ListBenchmarks lists the profiles with resolved thresholds
	ListBenchmarks() []models.BenchmarkProfileInfo

	// Report analyses payload and renders the HTML report
	Report(ctx context.Context, req models.ReportRequest) (*ReportOutcome, error)

	// Metrics returns pipeline counters
	Metrics() map[string]interface{}
}

// AnalysisOutcome is a finished analysis with the creative it was run on
type AnalysisOutcome struct {
	Analysis *models.Analysis
	Creative *repository.Creative
	Cached   bool
}

// ReportOutcome is a rendered report. Location is empty unless a sink stored it.
type ReportOutcome struct {
	HTML     []byte
	Location string
	Analysis *models.Analysis
	Verdict  *models.BenchmarkVerdict
}

// Dependencies are the collaborators of the service. Reports, Events,
// Metrics and Model may be nil.
type Dependencies struct {
	Creatives  repository.CreativeRepository
	Reports    repository.ReportRepository
	Dispatcher *analyzer.Dispatcher
	Contrast   *analyzer.ContrastAnalyzer
	Layout     *layout.Optimizer
	Evaluator  *benchmark.Evaluator
	Renderer   *report.Renderer
	Events     observer.Subject
	Metrics    *observer.MetricsObserver
	Model      *attention.Handle
	Timeout    time.Duration
}

type creativeAnalysisService struct {
	deps Dependencies
}

// NewCreativeAnalysisService creates the service
func NewCreativeAnalysisService(deps Dependencies) CreativeAnalysisService {
	if deps.Evaluator == nil {
		deps.Evaluator = benchmark.NewEvaluator(nil)
	}
	if deps.Renderer == nil {
		deps.Renderer = report.NewRenderer(0)
	}
	if deps.Layout == nil {
		deps.Layout = layout.NewOptimizer(layout.DefaultStep)
	}
	return &creativeAnalysisService{deps: deps}
}

func (s *creativeAnalysisService) AnalyzeMessage(ctx context.Context, msg models.AnalysisMessage) (*models.AnalysisMessageResponse, error) {
	if err := validation.ValidateStruct(msg); err != nil {
		return nil, err
	}

	out, err := s.Analyze(ctx, msg.Image)
	if err != nil {
		return nil, err
	}

	a := out.Analysis
	return &models.AnalysisMessageResponse{
		RequestID: a.RequestID,
		Contrast:  a.Contrast,
		Heatmap:   a.Heatmap,
		Elements:  a.Elements,
		Timeline:  a.Timeline,
	}, nil
}

func (s *creativeAnalysisService) Analyze(ctx context.Context, payload string) (*AnalysisOutcome, error) {
	ctx, requestID := ensureRequestID(ctx)

	creative, err := s.deps.Creatives.Load(ctx, payload)
	if err != nil {
		return nil, err
	}

	if s.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
	}

	start := time.Now()
	s.notify(ctx, observer.AnalysisEvent{
		EventType:   observer.AnalysisStarted,
		RequestID:   requestID,
		ImageDigest: creative.Digest,
		Metadata: map[string]interface{}{
			"width":  creative.Image.Width,
			"height": creative.Image.Height,
			"format": creative.Format,
		},
	})

	result, cached, err := s.deps.Dispatcher.Dispatch(ctx, creative.Digest, creative.Image)
	if err != nil {
		err = classify(err)
		s.notify(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			RequestID:      requestID,
			ImageDigest:    creative.Digest,
			ProcessingTime: time.Since(start),
			Branch:         apperrors.BranchOf(err),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	result.RequestID = requestID
	result.Timestamp = start.UTC()
	result.ProcessingTimeSec = time.Since(start).Seconds()

	if cached {
		s.notify(ctx, observer.AnalysisEvent{
			EventType:   observer.ResultCached,
			RequestID:   requestID,
			ImageDigest: creative.Digest,
			Success:     true,
		})
	}
	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		RequestID:      requestID,
		ImageDigest:    creative.Digest,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"contrast_score": result.Contrast.Score,
			"hotspots":       len(result.Heatmap.Hotspots),
			"elements":       len(result.Elements),
			"cached":         cached,
		},
	})

	return &AnalysisOutcome{Analysis: result, Creative: creative, Cached: cached}, nil
}

func (s *creativeAnalysisService) FixContrast(ctx context.Context, payload string) (*models.ContrastFixResponse, error) {
	ctx, _ = ensureRequestID(ctx)

	creative, err := s.deps.Creatives.Load(ctx, payload)
	if err != nil {
		return nil, err
	}

	fixed := analyzer.FixContrast(creative.Image)
	contrast, err := s.deps.Contrast.Analyze(ctx, fixed)
	if err != nil {
		return nil, err
	}

	uri, err := fixed.DataURI()
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx).WithFields(logrus.Fields{
		"image_digest":   creative.Digest,
		"contrast_score": contrast.Score,
	}).Info("Contrast fix applied")

	return &models.ContrastFixResponse{Image: uri, Contrast: contrast}, nil
}

func (s *creativeAnalysisService) Layout(ctx context.Context, payload string) (*models.LayoutResponse, error) {
	out, err := s.Analyze(ctx, payload)
	if err != nil {
		return nil, err
	}

	a := out.Analysis
	return &models.LayoutResponse{
		Width:       a.Width,
		Height:      a.Height,
		Step:        s.deps.Layout.Step(),
		Suggestions: s.deps.Layout.Suggest(a.Width, a.Height, a.Elements),
	}, nil
}

func (s *creativeAnalysisService) Benchmark(ctx context.Context, req models.BenchmarkRequest) (*models.BenchmarkVerdict, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	verdict, err := s.deps.Evaluator.Evaluate(benchmark.Input{
		ContrastScore: req.ContrastScore,
		Hotspots:      req.Hotspots,
	}, req.Profile, req.Platform)
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx).WithFields(logrus.Fields{
		"profile":  verdict.Profile,
		"platform": verdict.Platform,
		"passes":   verdict.Passes,
	}).Debug("Benchmark evaluated")

	return &verdict, nil
}

func (s *creativeAnalysisService) ListBenchmarks() []models.BenchmarkProfileInfo {
	table := s.deps.Evaluator.Table()

	profiles := make([]models.BenchmarkProfileInfo, 0, len(table.Profiles()))
	for _, name := range table.Profiles() {
		th, err := table.Resolve(name, "")
		if err != nil {
			continue
		}
		info := models.BenchmarkProfileInfo{Name: name, Thresholds: th}
		for _, platform := range table.Platforms(name) {
			pth, err := table.Resolve(name, platform)
			if err != nil {
				continue
			}
			if info.Platforms == nil {
				info.Platforms = make(map[string]models.BenchmarkThresholds)
			}
			info.Platforms[platform] = pth
		}
		profiles = append(profiles, info)
	}
	return profiles
}

func (s *creativeAnalysisService) Report(ctx context.Context, req models.ReportRequest) (*ReportOutcome, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	out, err := s.Analyze(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	a := out.Analysis

	verdict, err := s.deps.Evaluator.Evaluate(benchmark.InputFrom(a), req.Profile, req.Platform)
	if err != nil {
		return nil, err
	}

	html, err := s.deps.Renderer.Render(report.Input{
		Analysis:    a,
		Image:       out.Creative.Image,
		Verdict:     &verdict,
		Layout:      s.deps.Layout.Suggest(a.Width, a.Height, a.Elements),
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	result := &ReportOutcome{HTML: html, Analysis: a, Verdict: &verdict}

	if s.deps.Reports != nil && s.deps.Reports.Enabled() {
		loc, err := s.deps.Reports.Save(ctx, a.RequestID, html)
		if err != nil {
			// The rendered report is still returned to the caller
			logger.WithRequestID(ctx).WithError(err).Warn("Failed to store report")
		} else {
			result.Location = loc
			logger.WithRequestID(ctx).WithField("location", loc).Info("Report stored")
		}
	}

	return result, nil
}

func (s *creativeAnalysisService) Metrics() map[string]interface{} {
	metrics := map[string]interface{}{}
	if s.deps.Metrics != nil {
		for k, v := range s.deps.Metrics.GetMetrics() {
			metrics[k] = v
		}
	}
	if s.deps.Dispatcher != nil {
		metrics["worker_pool"] = s.deps.Dispatcher.Stats()
	}
	if s.deps.Model != nil {
		metrics["model_loaded"] = s.deps.Model.Loaded()
		metrics["model_load_attempts"] = s.deps.Model.LoadAttempts()
	}
	return metrics
}

func (s *creativeAnalysisService) notify(ctx context.Context, event observer.AnalysisEvent) {
	if s.deps.Events != nil {
		s.deps.Events.NotifyObservers(ctx, event)
	}
}

// ensureRequestID returns ctx carrying a request id, minting one if absent
func ensureRequestID(ctx context.Context) (context.Context, string) {
	if id := logger.RequestIDFrom(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return logger.ContextWithRequestID(ctx, id), id
}

// classify maps bare context errors onto the timeout type
func classify(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("analysis timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError("analysis cancelled", err)
	}
	return apperrors.NewInternalError("analysis failed", err)
}
