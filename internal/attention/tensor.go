package attention

import (
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"

	"go-creative-analyzer/internal/raster"
)

// Tensor is a size×size×3 float input scaled to [0,1], row-major RGB
type Tensor struct {
	Size int
	Data []float32

	scratch *image.RGBA
}

// TensorPool hands out reusable input tensors, one sync.Pool per size
type TensorPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
	live  atomic.Int64
}

func NewTensorPool() *TensorPool {
	return &TensorPool{pools: make(map[int]*sync.Pool)}
}

func (p *TensorPool) pool(size int) *sync.Pool {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()
	if exists {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double check
	if pool, exists = p.pools[size]; exists {
		return pool
	}
	pool = &sync.Pool{
		New: func() interface{} {
			return &Tensor{
				Size:    size,
				Data:    make([]float32, size*size*3),
				scratch: image.NewRGBA(image.Rect(0, 0, size, size)),
			}
		},
	}
	p.pools[size] = pool
	return pool
}

// Acquire returns a tensor of the given size. Every Acquire must be paired with Release.
func (p *TensorPool) Acquire(size int) *Tensor {
	p.live.Add(1)
	return p.pool(size).Get().(*Tensor)
}

// Release returns t to the pool
func (p *TensorPool) Release(t *Tensor) {
	if t == nil {
		return
	}
	p.live.Add(-1)
	p.pool(t.Size).Put(t)
}

// Live returns the number of acquired, unreleased tensors
func (p *TensorPool) Live() int64 {
	return p.live.Load()
}

// Fill resizes img into t with nearest-neighbour sampling and scales to [0,1]
func (t *Tensor) Fill(img *raster.Image) {
	draw.NearestNeighbor.Scale(t.scratch, t.scratch.Bounds(), img.ToImage(), image.Rect(0, 0, img.Width, img.Height), draw.Src, nil)

	pix := t.scratch.Pix
	for i, j := 0, 0; i < len(pix); i, j = i+4, j+3 {
		t.Data[j] = float32(pix[i]) / 255
		t.Data[j+1] = float32(pix[i+1]) / 255
		t.Data[j+2] = float32(pix[i+2]) / 255
	}
}
