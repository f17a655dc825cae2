package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"go-creative-analyzer/internal/config"
	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/internal/report"
	"go-creative-analyzer/internal/service"
	"go-creative-analyzer/pkg/models"
)

// ReportLocationHeader names where an exported report was stored
const ReportLocationHeader = "X-Report-Location"

type handler struct {
	svc service.CreativeAnalysisService
	cfg *config.Config
}

func NewHandler(svc service.CreativeAnalysisService, cfg *config.Config) http.Handler {
	r := gin.Default()
	h := &handler{svc: svc, cfg: cfg}

	// Add middleware
	r.Use(
		requestID(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", h.metrics)

	api := r.Group("/api/v1")
	api.Use(rateLimiter(newIPRateLimiter(rate.Limit(cfg.Limiter.RPS), cfg.Limiter.Burst)))
	api.POST("/messages", h.analyzeMessage)
	api.POST("/contrast/fix", h.fixContrast)
	api.POST("/layout", h.layout)
	api.POST("/benchmark", h.benchmark)
	api.GET("/benchmarks", h.listBenchmarks)
	api.POST("/report", h.report)

	return r
}

// withTimeout bounds a request by REQUEST_TIMEOUT
func (h *handler) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

func (h *handler) analyzeMessage(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	// Log request start
	logger.WithRequestID(ctx).WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info("Processing creative analysis message")

	var msg models.AnalysisMessage
	if !bind(c, &msg) {
		return
	}

	resp, err := h.svc.AnalyzeMessage(ctx, msg)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithRequestID(ctx).WithFields(logrus.Fields{
		"processing_time_ms": time.Since(startTime).Milliseconds(),
		"contrast_score":     resp.Contrast.Score,
		"hotspots":           len(resp.Heatmap.Hotspots),
		"elements":           len(resp.Elements),
	}).Info("Creative analysis message completed successfully")

	c.JSON(http.StatusOK, resp)
}

func (h *handler) fixContrast(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var req models.ImageRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.svc.FixContrast(ctx, req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) layout(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var req models.ImageRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.svc.Layout(ctx, req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) benchmark(c *gin.Context) {
	var req models.BenchmarkRequest
	if !bind(c, &req) {
		return
	}

	verdict, err := h.svc.Benchmark(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (h *handler) listBenchmarks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.svc.ListBenchmarks()})
}

func (h *handler) report(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var req models.ReportRequest
	if !bind(c, &req) {
		return
	}

	out, err := h.svc.Report(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	if out.Location != "" {
		c.Header(ReportLocationHeader, out.Location)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	c.Data(http.StatusOK, report.ContentType, out.HTML)
}

func (h *handler) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Metrics())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// bind decodes the JSON body into dst, answering the request on failure
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			appErr := apperrors.NewInvalidInputError("request body too large", err)
			appErr.StatusCode = http.StatusRequestEntityTooLarge
			respondError(c, appErr)
			return false
		}
		respondError(c, apperrors.NewInvalidInputError("invalid request format", err))
		return false
	}
	return true
}
