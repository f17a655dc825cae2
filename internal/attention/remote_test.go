package attention

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	apperrors "go-creative-analyzer/internal/errors"
)

func newModelServer(t *testing.T, predictStatuses []int, inputSize int, respond func(w http.ResponseWriter, req predictRequest)) (*httptest.Server, *int32) {
	t.Helper()
	var predictCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/model":
			fmt.Fprintf(w, `{"name":"test-saliency","inputSize":%d}`, inputSize)
		case "/v1/predict":
			n := atomic.AddInt32(&predictCalls, 1)
			if int(n) <= len(predictStatuses) && predictStatuses[n-1] != http.StatusOK {
				w.WriteHeader(predictStatuses[n-1])
				return
			}
			var req predictRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			respond(w, req)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &predictCalls
}

func echoGrid(w http.ResponseWriter, req predictRequest) {
	scores := make([]string, req.Width*req.Height)
	for i := range scores {
		scores[i] = "0"
	}
	scores[len(scores)-1] = "0.5"
	fmt.Fprintf(w, `{"width":%d,"height":%d,"scores":[%s]}`, req.Width, req.Height, strings.Join(scores, ","))
}

func TestRemoteModel_LoadAndPredict(t *testing.T) {
	server, calls := newModelServer(t, nil, 8, func(w http.ResponseWriter, req predictRequest) {
		if req.Channels != 3 || len(req.Data) != req.Width*req.Height*3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		echoGrid(w, req)
	})

	m, err := RemoteLoader(server.URL, server.Client(), 0)(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name() != "test-saliency" || m.InputSize() != 8 {
		t.Fatalf("unexpected metadata %s/%d", m.Name(), m.InputSize())
	}

	pool := NewTensorPool()
	input := pool.Acquire(m.InputSize())
	defer pool.Release(input)

	grid, err := m.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if grid.Width != 8 || grid.Height != 8 || grid.At(7, 7) != 0.5 {
		t.Errorf("unexpected grid %dx%d", grid.Width, grid.Height)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("Expected 1 predict call, got %d", *calls)
	}
}

func TestRemoteModel_RetryLogic(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int
		expectCalls   int32
		expectError   bool
		errorContains string
	}{
		{"Success on first attempt", []int{200}, 1, false, ""},
		{"Success on second attempt after 5xx", []int{500, 200}, 2, false, ""},
		{"4xx client error - no retry", []int{404}, 1, true, "client error: status code 404"},
		{"4xx after 5xx - stop at 4xx", []int{502, 400}, 2, true, "client error: status code 400"},
		{"All 5xx errors - retry all attempts", []int{500, 502, 503}, 3, true, "server error: status code 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := newModelServer(t, tt.responses, 4, echoGrid)
			m, err := RemoteLoader(server.URL, server.Client(), 0)(context.Background())
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			pool := NewTensorPool()
			input := pool.Acquire(4)
			defer pool.Release(input)

			_, err = m.Predict(context.Background(), input)
			if got := atomic.LoadInt32(calls); got != tt.expectCalls {
				t.Errorf("Expected %d calls, got %d", tt.expectCalls, got)
			}
			if (err != nil) != tt.expectError {
				t.Fatalf("error = %v, expectError %v", err, tt.expectError)
			}
			if err != nil {
				if !apperrors.IsType(err, apperrors.ErrorTypeModelUnavailable) {
					t.Errorf("Expected model_unavailable, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got %v", tt.errorContains, err)
				}
			}
		})
	}
}

func TestRemoteModel_BadShape(t *testing.T) {
	server, _ := newModelServer(t, nil, 4, func(w http.ResponseWriter, req predictRequest) {
		fmt.Fprint(w, `{"width":4,"height":4,"scores":[1,2,3]}`)
	})
	m, err := RemoteLoader(server.URL, server.Client(), 0)(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	input := NewTensorPool().Acquire(4)
	if _, err := m.Predict(context.Background(), input); !apperrors.IsType(err, apperrors.ErrorTypeModelUnavailable) {
		t.Errorf("Expected model_unavailable, got %v", err)
	}
}

func TestRemoteLoader_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "{") }},
		{"bad input size", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"inputSize":0}`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := RemoteLoader(server.URL, server.Client(), 0)(context.Background())
			if !apperrors.IsType(err, apperrors.ErrorTypeModelUnavailable) {
				t.Errorf("Expected model_unavailable, got %v", err)
			}
		})
	}
}

func TestRemoteLoader_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	h := NewHandle(RemoteLoader(url, nil, 0), 0, nil)
	if _, err := h.Get(context.Background()); !apperrors.IsType(err, apperrors.ErrorTypeModelUnavailable) {
		t.Errorf("Expected model_unavailable, got %v", err)
	}
	if h.Loaded() {
		t.Error("Expected failed load not to be memoised")
	}
}
