package analyzer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

// Digest returns the cache and coalescing key of encoded image bytes
func Digest(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Dispatcher is the execution boundary of the pipeline. Every request runs
// independently on the worker pool, except that requests for byte-identical
// images in flight at the same time share one computation, and completed
// results are reused from the cache when one is configured.
type Dispatcher struct {
	pool     *WorkerPool
	analyzer CreativeAnalyzer
	cache    ResultCache
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewDispatcher creates a dispatcher. cache may be nil.
func NewDispatcher(pool *WorkerPool, analyzer CreativeAnalyzer, cache ResultCache, cacheTTL time.Duration) *Dispatcher {
	pool.Start()
	return &Dispatcher{
		pool:     pool,
		analyzer: analyzer,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Submit queues the analysis of img and returns its Future
func (d *Dispatcher) Submit(ctx context.Context, img *raster.Image) *Future {
	return d.pool.SubmitAnalysis(ctx, func(ctx context.Context) (*models.Analysis, error) {
		return d.analyzer.Analyze(ctx, img)
	})
}

// Dispatch returns the analysis of img. key identifies the encoded bytes;
// an empty key disables coalescing and caching. cached reports whether the
// result came from the cache.
func (d *Dispatcher) Dispatch(ctx context.Context, key string, img *raster.Image) (result *models.Analysis, cached bool, err error) {
	if key == "" {
		result, err = d.Submit(ctx, img).Await(ctx)
		return result, false, err
	}

	if d.cache != nil {
		if hit, ok := d.cache.Get(ctx, key); ok {
			return hit, true, nil
		}
	}

	ch := d.group.DoChan(key, func() (interface{}, error) {
		a, err := d.Submit(ctx, img).Await(ctx)
		if err == nil && d.cache != nil {
			if cerr := d.cache.Set(ctx, key, a, d.cacheTTL); cerr != nil {
				logger.WithRequestID(ctx).WithError(cerr).Warn("Failed to cache analysis result")
			}
		}
		return a, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}

	if res.Err != nil {
		// The shared run belonged to a caller that went away; run our own.
		if res.Shared && isContextError(res.Err) && ctx.Err() == nil {
			logger.WithRequestID(ctx).WithField("image_digest", key).
				Debug("Coalesced analysis was cancelled by its leader, retrying")
			result, err = d.Submit(ctx, img).Await(ctx)
			return result, false, err
		}
		return nil, false, res.Err
	}

	// Callers only rewrite top-level fields, so a shallow copy is enough
	out := *res.Val.(*models.Analysis)
	return &out, false, nil
}

// Stats exposes the underlying pool counters
func (d *Dispatcher) Stats() PoolStats {
	return d.pool.GetStats()
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
