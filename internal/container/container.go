package container

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-creative-analyzer/internal/analyzer"
	"go-creative-analyzer/internal/attention"
	"go-creative-analyzer/internal/benchmark"
	"go-creative-analyzer/internal/config"
	"go-creative-analyzer/internal/factory"
	"go-creative-analyzer/internal/layout"
	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/internal/observer"
	"go-creative-analyzer/internal/report"
	"go-creative-analyzer/internal/repository"
	"go-creative-analyzer/internal/service"
	"go-creative-analyzer/internal/transport"
	"go-creative-analyzer/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	pool            *analyzer.WorkerPool
	publisher       *observer.EventPublisher
	cache           analyzer.ResultCache
	analysisService service.CreativeAnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithFactory(cfg, factory.NewComponentFactory())
}

// NewContainerWithFactory builds the dependency graph from the given factories
func NewContainerWithFactory(cfg *config.Config, f *factory.ComponentFactory) (*Container, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	opts := analyzer.DefaultOptions().
		WithSampleSize(cfg.Engine.ContrastSampleSize).
		WithHeatmap(cfg.Engine.HeatmapStride, cfg.Engine.HeatmapScale).
		WithLayoutStep(cfg.Engine.LayoutStep).
		WithWorkers(cfg.Engine.Workers)

	// Observers
	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	// Attention branch
	loader, err := f.ModelFactory.CreateLoader(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create model loader: %w", err)
	}
	handle := attention.NewHandle(loader, cfg.Model.LoadTimeout, modelLoadListener(publisher))
	predictor := attention.NewPredictor(handle, attention.NewTensorPool(), opts.HeatmapStride, opts.HeatmapScale)

	det, err := f.DetectorFactory.CreateDetector(cfg.Engine.Detector)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	// Contrast branch and fork-join
	contrast := analyzer.NewContrastAnalyzer(opts.ContrastSampleSize)
	orchestrator := analyzer.NewOrchestrator(contrast, predictor, det)

	cacheCfg := cfg.Cache
	if cacheCfg.Namespace == "" {
		cacheCfg.Namespace = cfg.PipelineFingerprint()
	}
	cache := f.CacheFactory.CreateCache(cacheCfg)
	pool := analyzer.NewWorkerPool(opts.MaxWorkers)
	dispatcher := analyzer.NewDispatcher(pool, orchestrator, cache, cfg.Cache.TTL)

	// Benchmarks and reports
	table, err := factory.LoadBenchmarks(cfg.BenchmarkFile)
	if err != nil {
		release(pool, cache)
		return nil, fmt.Errorf("failed to load benchmarks: %w", err)
	}
	sink, err := f.SinkFactory.CreateSink(cfg.Report)
	if err != nil {
		release(pool, cache)
		return nil, fmt.Errorf("failed to create report sink: %w", err)
	}

	analysisService := service.NewCreativeAnalysisService(service.Dependencies{
		Creatives: repository.NewUploadCreativeRepository(
			validation.NewUploadValidatorWithOptions([]string{"image/png", "image/jpeg"}, cfg.MaxUploadBytes).
				WithMaxPixels(cfg.MaxImagePixels)),
		Reports:    repository.NewSinkReportRepository(sink),
		Dispatcher: dispatcher,
		Contrast:   contrast,
		Layout:     layout.NewOptimizer(opts.LayoutStep),
		Evaluator:  benchmark.NewEvaluator(table),
		Renderer:   report.NewRenderer(report.DefaultThumbnailSize),
		Events:     publisher,
		Metrics:    metrics,
		Model:      handle,
		Timeout:    cfg.AnalysisTimeout,
	})
	handler := transport.NewHandler(analysisService, cfg)

	logger.WithField("detector", det.Name()).
		WithField("model_backend", cfg.Model.Backend).
		WithField("workers", opts.MaxWorkers).
		WithField("report_sink", cfg.Report.Sink).
		WithField("cache", cache != nil).
		Info("Creative analysis pipeline ready")

	return &Container{
		config:          cfg,
		pool:            pool,
		publisher:       publisher,
		cache:           cache,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// modelLoadListener publishes model load attempts as pipeline events
func modelLoadListener(publisher observer.Subject) attention.LoadListener {
	return func(model string, took time.Duration, err error) {
		event := observer.AnalysisEvent{
			EventType:      observer.ModelLoaded,
			ProcessingTime: took,
			Success:        err == nil,
			Metadata:       map[string]interface{}{"model": model},
		}
		if err != nil {
			event.EventType = observer.ModelLoadFailed
			event.ErrorMessage = err.Error()
		}
		publisher.NotifyObservers(context.Background(), event)
	}
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis service
func (c *Container) Service() service.CreativeAnalysisService {
	return c.analysisService
}

// Close drains the worker pool and pending events and releases the cache
func (c *Container) Close() error {
	c.pool.Close()
	c.pool.Wait()
	c.publisher.Wait()
	return closeCache(c.cache)
}

// release undoes a partially built pipeline
func release(pool *analyzer.WorkerPool, cache analyzer.ResultCache) {
	pool.Close()
	if err := closeCache(cache); err != nil {
		logger.WithError(err).Warn("Failed to close analysis cache")
	}
}

func closeCache(cache analyzer.ResultCache) error {
	if closer, ok := cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
