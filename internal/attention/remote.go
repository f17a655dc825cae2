package attention

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	apperrors "go-creative-analyzer/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxAttempts = 3

// ModelInfo is the metadata served by a remote model at GET /v1/model
type ModelInfo struct {
	Name      string `json:"name"`
	InputSize int    `json:"inputSize"`
}

type predictRequest struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Channels int       `json:"channels"`
	Data     []float32 `json:"data"`
}

type predictResponse struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Scores []float32 `json:"scores"`
}

// RemoteModel calls an HTTP model server
type RemoteModel struct {
	baseURL string
	client  *http.Client
	info    ModelInfo
	backoff time.Duration
}

// RemoteLoader returns a Loader that fetches model metadata from baseURL.
// backoff is the base delay between retries of a transient failure.
func RemoteLoader(baseURL string, client *http.Client, backoff time.Duration) Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return func(ctx context.Context) (Model, error) {
		m := &RemoteModel{baseURL: baseURL, client: client, backoff: backoff}

		resp, err := m.do(ctx, func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/model", nil)
		})
		if err != nil {
			return nil, apperrors.NewModelUnavailableError("failed to load remote model", err)
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(&m.info); err != nil {
			return nil, apperrors.NewModelUnavailableError("invalid model metadata", err)
		}
		if m.info.InputSize <= 0 {
			return nil, apperrors.NewModelUnavailableError(
				fmt.Sprintf("model reports invalid input size %d", m.info.InputSize), nil)
		}
		if m.info.Name == "" {
			m.info.Name = "remote"
		}
		return m, nil
	}
}

func (m *RemoteModel) Name() string   { return m.info.Name }
func (m *RemoteModel) InputSize() int { return m.info.InputSize }

// Predict posts the tensor to /v1/predict
func (m *RemoteModel) Predict(ctx context.Context, input *Tensor) (*ScoreGrid, error) {
	body, err := json.Marshal(predictRequest{
		Width:    input.Size,
		Height:   input.Size,
		Channels: 3,
		Data:     input.Data,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode model input", err)
	}

	resp, err := m.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/predict", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, apperrors.NewModelUnavailableError("model inference failed", err)
	}
	defer resp.Body.Close()

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.NewModelUnavailableError("invalid model response", err)
	}

	grid := &ScoreGrid{Width: out.Width, Height: out.Height, Scores: out.Scores}
	if err := grid.Validate(); err != nil {
		return nil, apperrors.NewModelUnavailableError("invalid model response", err)
	}
	return grid, nil
}

// do sends a request built by newReq, retrying network errors and 5xx
// responses. 4xx responses are not retried. The returned response is 200.
func (m *RemoteModel) do(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}

		resp, err := m.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			// 4xx client errors are non-retryable
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, fmt.Errorf("client error: status code %d", resp.StatusCode)
			}
			if resp.StatusCode < 400 {
				return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
			}
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * m.backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
