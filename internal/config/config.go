package config

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Model backends
const (
	ModelBackendBuiltin = "builtin"
	ModelBackendRemote  = "remote"
)

// Report sinks
const (
	ReportSinkNone  = "none"
	ReportSinkLocal = "local"
	ReportSinkAzure = "azure"
	ReportSinkS3    = "s3"
)

type Config struct {
	Host               string
	Port               string
	GinMode            string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxUploadBytes     int64
	MaxImagePixels     int64
	MaxRequestBodySize int64

	Log     LogConfig
	Engine  EngineConfig
	Model   ModelConfig
	Report  ReportConfig
	Cache   CacheConfig
	Limiter LimiterConfig

	// BenchmarkFile overrides the embedded benchmark profile table when set
	BenchmarkFile string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// EngineConfig tunes the analysis pipeline
type EngineConfig struct {
	Workers            int
	ContrastSampleSize int
	HeatmapStride      int
	HeatmapScale       float64
	LayoutStep         int
	Detector           string
}

type ModelConfig struct {
	Backend     string
	URL         string
	InputSize   int
	LoadTimeout time.Duration
}

type ReportConfig struct {
	Sink           string
	Dir            string
	AzureAccount   string
	AzureKey       string
	AzureContainer string
	AWSRegion      string
	AWSAccessKey   string
	AWSSecretKey   string
	AWSBucket      string
	AWSEndpoint    string
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	// Namespace is folded into cache keys; see PipelineFingerprint
	Namespace string
}

type LimiterConfig struct {
	RPS   float64
	Burst int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// PipelineFingerprint identifies the settings that shape an analysis result.
// Instances sharing a cache only reuse each other's results when it matches.
func (c *Config) PipelineFingerprint() string {
	h := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s|%d|%d|%d|%g",
		c.Engine.Detector,
		c.Model.Backend,
		c.Model.URL,
		c.Model.InputSize,
		c.Engine.ContrastSampleSize,
		c.Engine.HeatmapStride,
		c.Engine.HeatmapScale,
	)))
	return hex.EncodeToString(h[:4])
}

// LoadFromEnv reads configuration from the environment, after loading a
// .env file from the working directory if one exists.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("ANALYSIS_TIMEOUT", 20*time.Second)
	v.SetDefault("MAX_UPLOAD_BYTES", 5*1024*1024)      // 5MB
	v.SetDefault("MAX_IMAGE_PIXELS", 40_000_000)
	v.SetDefault("MAX_REQUEST_BODY_SIZE", 8*1024*1024) // base64 overhead on top of 5MB

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("WORKERS", runtime.NumCPU())
	v.SetDefault("CONTRAST_SAMPLE_SIZE", 1000)
	v.SetDefault("HEATMAP_STRIDE", 5)
	v.SetDefault("HEATMAP_SCALE", 10.0)
	v.SetDefault("LAYOUT_STEP", 20)
	v.SetDefault("DETECTOR", "stub")

	v.SetDefault("MODEL_BACKEND", ModelBackendBuiltin)
	v.SetDefault("MODEL_URL", "")
	v.SetDefault("MODEL_INPUT_SIZE", 224)
	v.SetDefault("MODEL_LOAD_TIMEOUT", 10*time.Second)

	v.SetDefault("REPORT_SINK", ReportSinkNone)
	v.SetDefault("REPORT_DIR", "./reports")
	v.SetDefault("AZURE_CONTAINER", "reports")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", time.Hour)

	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("BENCHMARK_FILE", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:               v.GetString("HOST"),
		Port:               v.GetString("PORT"),
		GinMode:            v.GetString("GIN_MODE"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		AnalysisTimeout:    v.GetDuration("ANALYSIS_TIMEOUT"),
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		MaxImagePixels:     v.GetInt64("MAX_IMAGE_PIXELS"),
		MaxRequestBodySize: v.GetInt64("MAX_REQUEST_BODY_SIZE"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			File:   v.GetString("LOG_FILE"),
		},
		Engine: EngineConfig{
			Workers:            v.GetInt("WORKERS"),
			ContrastSampleSize: v.GetInt("CONTRAST_SAMPLE_SIZE"),
			HeatmapStride:      v.GetInt("HEATMAP_STRIDE"),
			HeatmapScale:       v.GetFloat64("HEATMAP_SCALE"),
			LayoutStep:         v.GetInt("LAYOUT_STEP"),
			Detector:           strings.ToLower(strings.TrimSpace(v.GetString("DETECTOR"))),
		},
		Model: ModelConfig{
			Backend:     strings.ToLower(strings.TrimSpace(v.GetString("MODEL_BACKEND"))),
			URL:         strings.TrimRight(v.GetString("MODEL_URL"), "/"),
			InputSize:   v.GetInt("MODEL_INPUT_SIZE"),
			LoadTimeout: v.GetDuration("MODEL_LOAD_TIMEOUT"),
		},
		Report: ReportConfig{
			Sink:           strings.ToLower(strings.TrimSpace(v.GetString("REPORT_SINK"))),
			Dir:            v.GetString("REPORT_DIR"),
			AzureAccount:   v.GetString("AZURE_ACCOUNT_NAME"),
			AzureKey:       v.GetString("AZURE_ACCOUNT_KEY"),
			AzureContainer: v.GetString("AZURE_CONTAINER"),
			AWSRegion:      v.GetString("AWS_REGION"),
			AWSAccessKey:   v.GetString("AWS_ACCESS_KEY_ID"),
			AWSSecretKey:   v.GetString("AWS_SECRET_ACCESS_KEY"),
			AWSBucket:      v.GetString("AWS_BUCKET_NAME"),
			AWSEndpoint:    v.GetString("AWS_ENDPOINT"),
		},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           v.GetDuration("CACHE_TTL"),
			Namespace:     v.GetString("CACHE_NAMESPACE"),
		},
		Limiter: LimiterConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		BenchmarkFile: v.GetString("BENCHMARK_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enum values
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadBytes <= 0 || c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES and MAX_REQUEST_BODY_SIZE must be > 0 (got %d, %d)",
			c.MaxUploadBytes, c.MaxRequestBodySize)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 || c.Model.LoadTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s, model_load=%s)",
			c.RequestTimeout, c.AnalysisTimeout, c.Model.LoadTimeout)
	}
	if c.Engine.Workers <= 0 {
		c.Engine.Workers = runtime.NumCPU()
	}
	if c.Engine.ContrastSampleSize <= 0 {
		return fmt.Errorf("CONTRAST_SAMPLE_SIZE must be > 0 (got %d)", c.Engine.ContrastSampleSize)
	}
	if c.Engine.HeatmapStride <= 0 {
		return fmt.Errorf("HEATMAP_STRIDE must be > 0 (got %d)", c.Engine.HeatmapStride)
	}
	if c.Engine.HeatmapScale <= 0 {
		return fmt.Errorf("HEATMAP_SCALE must be > 0 (got %g)", c.Engine.HeatmapScale)
	}
	if c.Engine.LayoutStep < 0 {
		return fmt.Errorf("LAYOUT_STEP must be >= 0 (got %d)", c.Engine.LayoutStep)
	}
	if c.Model.InputSize <= 0 {
		return fmt.Errorf("MODEL_INPUT_SIZE must be > 0 (got %d)", c.Model.InputSize)
	}
	switch c.Model.Backend {
	case ModelBackendBuiltin:
	case ModelBackendRemote:
		if c.Model.URL == "" {
			return fmt.Errorf("MODEL_URL is required for the remote model backend")
		}
	default:
		return fmt.Errorf("unsupported MODEL_BACKEND: %q", c.Model.Backend)
	}
	switch c.Report.Sink {
	case ReportSinkNone, ReportSinkLocal, ReportSinkAzure, ReportSinkS3:
	default:
		return fmt.Errorf("unsupported REPORT_SINK: %q", c.Report.Sink)
	}
	if c.Limiter.RPS <= 0 || c.Limiter.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}
	return nil
}
