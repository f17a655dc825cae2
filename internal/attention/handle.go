package attention

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "go-creative-analyzer/internal/errors"
)

// LoadListener is notified after every load attempt
type LoadListener func(model string, took time.Duration, err error)

// Handle is the process-wide, lazily loaded model accessor. The first Get
// loads the model; later calls reuse it. A failed load is not remembered,
// so the next Get retries.
type Handle struct {
	loader   Loader
	timeout  time.Duration
	listener LoadListener

	mu    sync.Mutex
	model atomic.Pointer[modelBox]
	loads atomic.Int64
}

type modelBox struct {
	m Model
}

// NewHandle creates a handle around loader. timeout bounds each load attempt.
func NewHandle(loader Loader, timeout time.Duration, listener LoadListener) *Handle {
	return &Handle{
		loader:   loader,
		timeout:  timeout,
		listener: listener,
	}
}

// Get returns the loaded model, loading it on first use
func (h *Handle) Get(ctx context.Context) (Model, error) {
	if box := h.model.Load(); box != nil {
		return box.m, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if box := h.model.Load(); box != nil {
		return box.m, nil
	}

	loadCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	h.loads.Add(1)
	m, err := h.loader(loadCtx)
	if err == nil && m == nil {
		err = apperrors.NewModelUnavailableError("model loader returned no model", nil)
	}
	if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeModelUnavailable) {
		err = apperrors.NewModelUnavailableError("failed to load attention model", err)
	}

	name := ""
	if m != nil {
		name = m.Name()
	}
	if h.listener != nil {
		h.listener(name, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	h.model.Store(&modelBox{m: m})
	return m, nil
}

// Loaded reports whether a model is held
func (h *Handle) Loaded() bool {
	return h.model.Load() != nil
}

// LoadAttempts returns how many times the loader has been invoked
func (h *Handle) LoadAttempts() int64 {
	return h.loads.Load()
}
