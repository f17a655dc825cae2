package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"go-creative-analyzer/internal/config"
	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/internal/service"
	"go-creative-analyzer/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	err         error
	lastRequest string
	location    string
}

func (f *fakeService) AnalyzeMessage(ctx context.Context, msg models.AnalysisMessage) (*models.AnalysisMessageResponse, error) {
	f.lastRequest = logger.RequestIDFrom(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisMessageResponse{
		RequestID: f.lastRequest,
		Contrast:  models.ContrastResult{Score: 80, Tier: models.TierHigh},
		Elements:  []models.DetectedElement{},
	}, nil
}

func (f *fakeService) Analyze(ctx context.Context, payload string) (*service.AnalysisOutcome, error) {
	return nil, f.err
}

func (f *fakeService) FixContrast(ctx context.Context, payload string) (*models.ContrastFixResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ContrastFixResponse{Image: "data:image/png;base64,AAAA", Contrast: models.ContrastResult{Score: 12}}, nil
}

func (f *fakeService) Layout(ctx context.Context, payload string) (*models.LayoutResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LayoutResponse{Width: 400, Height: 400, Step: 20}, nil
}

func (f *fakeService) Benchmark(ctx context.Context, req models.BenchmarkRequest) (*models.BenchmarkVerdict, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.BenchmarkVerdict{Profile: req.Profile, Passes: true}, nil
}

func (f *fakeService) ListBenchmarks() []models.BenchmarkProfileInfo {
	return []models.BenchmarkProfileInfo{{Name: "socialMedia"}}
}

func (f *fakeService) Report(ctx context.Context, req models.ReportRequest) (*service.ReportOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.ReportOutcome{HTML: []byte("<html>report</html>"), Location: f.location}, nil
}

func (f *fakeService) Metrics() map[string]interface{} {
	return map[string]interface{}{"total_analyses": 7}
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		AnalysisTimeout:    5 * time.Second,
		MaxUploadBytes:     1024,
		MaxRequestBodySize: 2048,
		Limiter:            config.LimiterConfig{RPS: 100, Burst: 100},
	}
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	h := NewHandler(&fakeService{}, testConfig())

	w := do(h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"available"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}

	w = do(h, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total_analyses":7`) {
		t.Errorf("metrics = %d %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeMessage_RequestID(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, testConfig())

	w := do(h, http.MethodPost, "/api/v1/messages", `{"action":"analyze","image":"AAAA"}`,
		map[string]string{RequestIDHeader: "abc-123"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("response request id = %q", got)
	}
	if svc.lastRequest != "abc-123" {
		t.Errorf("service saw request id %q", svc.lastRequest)
	}

	w = do(h, http.MethodPost, "/api/v1/messages", `{"action":"analyze","image":"AAAA"}`, nil)
	if id := w.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Errorf("minted request id = %q, want a uuid", id)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantBranch string
		wantCause  string
	}{
		{
			name:       "invalid input",
			err:        apperrors.NewInvalidInputError("unsupported action", nil),
			wantStatus: http.StatusBadRequest,
			wantType:   "invalid_input",
		},
		{
			name:       "decode",
			err:        apperrors.NewImageDecodeError("failed to decode image", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "image_decode",
		},
		{
			name:       "model outage in attention branch",
			err:        apperrors.NewBranchError(apperrors.BranchAttention, apperrors.NewModelUnavailableError("no model", nil)),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   "analysis_branch",
			wantBranch: "attention",
			wantCause:  "model_unavailable",
		},
		{
			name:       "timeout",
			err:        apperrors.NewTimeoutError("analysis timed out", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   "timeout",
		},
		{
			name:       "plain error",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, testConfig())
			w := do(h, http.MethodPost, "/api/v1/messages", `{"action":"analyze","image":"AAAA"}`, nil)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeError(t, w)
			if resp.Type != tt.wantType || resp.Branch != tt.wantBranch || resp.Cause != tt.wantCause {
				t.Errorf("error body = %+v", resp)
			}
			if resp.Error != http.StatusText(tt.wantStatus) {
				t.Errorf("error = %q", resp.Error)
			}
		})
	}
}

func TestUnknownProfileHint(t *testing.T) {
	h := NewHandler(&fakeService{err: apperrors.NewUnknownProfileError("socialMedai", "socialMedia")}, testConfig())

	w := do(h, http.MethodPost, "/api/v1/benchmark", `{"contrastScore":70,"profile":"socialMedai"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Details != `did you mean "socialMedia"?` {
		t.Errorf("details = %q", resp.Details)
	}
}

func TestBadRequests(t *testing.T) {
	h := NewHandler(&fakeService{}, testConfig())

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"malformed json", "/api/v1/messages", `{"action":`, http.StatusBadRequest},
		{"missing image", "/api/v1/messages", `{"action":"analyze"}`, http.StatusBadRequest},
		{"missing fix image", "/api/v1/contrast/fix", `{}`, http.StatusBadRequest},
		{"too large", "/api/v1/layout", `{"image":"` + strings.Repeat("A", 4096) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, tt.path, tt.body, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Type != "invalid_input" {
				t.Errorf("type = %q", resp.Type)
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	h := NewHandler(&fakeService{}, testConfig())

	tests := []struct {
		method, path, body, want string
	}{
		{http.MethodPost, "/api/v1/contrast/fix", `{"image":"AAAA"}`, `"score":12`},
		{http.MethodPost, "/api/v1/layout", `{"image":"AAAA"}`, `"step":20`},
		{http.MethodPost, "/api/v1/benchmark", `{"contrastScore":70,"profile":"displayAds"}`, `"profile":"displayAds"`},
		{http.MethodGet, "/api/v1/benchmarks", "", `"name":"socialMedia"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(h, tt.method, tt.path, tt.body, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body %s does not contain %s", w.Body.String(), tt.want)
			}
		})
	}
}

func TestReportAttachment(t *testing.T) {
	h := NewHandler(&fakeService{location: "/var/reports/r.html"}, testConfig())

	w := do(h, http.MethodPost, "/api/v1/report", `{"image":"AAAA","profile":"socialMedia"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="creative-analysis-report.html"` {
		t.Errorf("content disposition = %q", cd)
	}
	if loc := w.Header().Get(ReportLocationHeader); loc != "/var/reports/r.html" {
		t.Errorf("location = %q", loc)
	}

	h = NewHandler(&fakeService{}, testConfig())
	w = do(h, http.MethodPost, "/api/v1/report", `{"image":"AAAA"}`, nil)
	if _, ok := w.Header()[ReportLocationHeader]; ok {
		t.Error("location header set without a sink")
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Limiter = config.LimiterConfig{RPS: 0.001, Burst: 2}
	h := NewHandler(&fakeService{}, cfg)

	for i := 0; i < 2; i++ {
		if w := do(h, http.MethodGet, "/api/v1/benchmarks", "", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}

	w := do(h, http.MethodGet, "/api/v1/benchmarks", "", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if resp := decodeError(t, w); resp.Type != "rate_limited" {
		t.Errorf("type = %q", resp.Type)
	}

	// Health checks are not limited
	if w := do(h, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}

func TestIPRateLimiter_SweepsIdleClients(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(rate.Limit(5), 10)
	l.now = func() time.Time { return clock }

	l.limiterFor("10.0.0.1")
	l.limiterFor("10.0.0.2")
	if n := l.size(); n != 2 {
		t.Fatalf("size = %d, want 2", n)
	}

	// 10.0.0.2 stays active, 10.0.0.1 goes idle
	clock = clock.Add(limiterIdleTTL - time.Minute)
	l.limiterFor("10.0.0.2")
	clock = clock.Add(2 * time.Minute)
	l.limiterFor("10.0.0.3")

	if n := l.size(); n != 2 {
		t.Fatalf("size after sweep = %d, want 2", n)
	}
	if _, ok := l.bucket["10.0.0.1"]; ok {
		t.Error("idle client was not evicted")
	}
}

func TestIPRateLimiter_KeepsDrainedBuckets(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// one token every 1000s: a full refill takes longer than the idle TTL
	l := newIPRateLimiter(rate.Limit(0.001), 2)
	l.now = func() time.Time { return clock }

	first := l.limiterFor("10.0.0.1")
	clock = clock.Add(limiterIdleTTL + time.Minute)
	if again := l.limiterFor("10.0.0.1"); again != first {
		t.Error("bucket was evicted before it could refill")
	}
}
