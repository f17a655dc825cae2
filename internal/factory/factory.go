package factory

import (
	"fmt"
	"net/http"
	"time"

	"go-creative-analyzer/internal/analyzer"
	"go-creative-analyzer/internal/attention"
	"go-creative-analyzer/internal/benchmark"
	"go-creative-analyzer/internal/cache"
	"go-creative-analyzer/internal/config"
	"go-creative-analyzer/internal/detector"
	"go-creative-analyzer/internal/storage"
)

// remoteBackoff is the base delay between retries of the remote model
const remoteBackoff = 200 * time.Millisecond

// DetectorFactory creates element detectors
type DetectorFactory interface {
	CreateDetector(kind string) (detector.Detector, error)
}

// ModelFactory creates attention model loaders
type ModelFactory interface {
	CreateLoader(cfg config.ModelConfig) (attention.Loader, error)
}

// SinkFactory creates report sinks
type SinkFactory interface {
	// CreateSink returns nil, nil when no sink is configured
	CreateSink(cfg config.ReportConfig) (storage.ReportSink, error)
}

// CacheFactory creates the analysis result cache
type CacheFactory interface {
	// CreateCache returns nil when no cache is configured
	CreateCache(cfg config.CacheConfig) analyzer.ResultCache
}

// detectorFactory implements DetectorFactory
type detectorFactory struct{}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory() DetectorFactory {
	return &detectorFactory{}
}

// CreateDetector creates a detector based on the specified kind
func (f *detectorFactory) CreateDetector(kind string) (detector.Detector, error) {
	return detector.New(kind)
}

// modelFactory implements ModelFactory
type modelFactory struct {
	client *http.Client
}

// NewModelFactory creates a new model factory. client is used by the remote backend.
func NewModelFactory(client *http.Client) ModelFactory {
	return &modelFactory{client: client}
}

// CreateLoader creates a model loader for the configured backend
func (f *modelFactory) CreateLoader(cfg config.ModelConfig) (attention.Loader, error) {
	switch cfg.Backend {
	case config.ModelBackendBuiltin, "":
		return attention.SaliencyLoader(cfg.InputSize), nil
	case config.ModelBackendRemote:
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote model backend requires a URL")
		}
		return attention.RemoteLoader(cfg.URL, f.client, remoteBackoff), nil
	default:
		return nil, fmt.Errorf("unsupported model backend: %s", cfg.Backend)
	}
}

// sinkFactory implements SinkFactory
type sinkFactory struct{}

// NewSinkFactory creates a new sink factory
func NewSinkFactory() SinkFactory {
	return &sinkFactory{}
}

// CreateSink creates a report sink based on the configured type
func (f *sinkFactory) CreateSink(cfg config.ReportConfig) (storage.ReportSink, error) {
	switch cfg.Sink {
	case config.ReportSinkNone, "":
		return nil, nil
	case config.ReportSinkLocal:
		sink, err := storage.NewLocalSink(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.ReportSinkAzure:
		if cfg.AzureAccount == "" || cfg.AzureKey == "" {
			return nil, fmt.Errorf("azure report sink requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
		}
		sink, err := storage.NewAzureSink(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.ReportSinkS3:
		sink, err := storage.NewS3Sink(storage.S3Options{
			Region:    cfg.AWSRegion,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			Bucket:    cfg.AWSBucket,
			Endpoint:  cfg.AWSEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unsupported report sink: %s", cfg.Sink)
	}
}

// cacheFactory implements CacheFactory
type cacheFactory struct{}

// NewCacheFactory creates a new cache factory
func NewCacheFactory() CacheFactory {
	return &cacheFactory{}
}

func (f *cacheFactory) CreateCache(cfg config.CacheConfig) analyzer.ResultCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	return cache.NewRedisCache(cache.Options{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		Namespace: cfg.Namespace,
	})
}

// LoadBenchmarks returns the embedded profile table, or the one at path when set
func LoadBenchmarks(path string) (*benchmark.Table, error) {
	if path == "" {
		return benchmark.Default(), nil
	}
	return benchmark.LoadFile(path)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	DetectorFactory DetectorFactory
	ModelFactory    ModelFactory
	SinkFactory     SinkFactory
	CacheFactory    CacheFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		DetectorFactory: NewDetectorFactory(),
		ModelFactory:    NewModelFactory(&http.Client{Timeout: 30 * time.Second}),
		SinkFactory:     NewSinkFactory(),
		CacheFactory:    NewCacheFactory(),
	}
}
