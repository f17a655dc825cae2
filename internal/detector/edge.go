package detector

import (
	"context"
	"image"
	"math"
	"sort"

	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

// Element types assigned by EdgeDetector from the box aspect ratio
const (
	TypeTextLine = "text-line"
	TypeBlock    = "block"
	TypeGraphic  = "graphic"
)

// EdgeDetector implements edge-based region detection using the Sobel operator
type EdgeDetector struct {
	MinBlockArea   int     // Minimum area in pixels²
	EdgeThreshold  float64 // Gradient magnitude threshold
	DilateKernel   int
	DilateIter     int
	MaxElements    int
	TextLineAspect float64 // width/height above which a box reads as a line of text
}

// NewEdgeDetector creates a new edge-based detector with default settings
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{
		MinBlockArea:   500,
		EdgeThreshold:  30.0,
		DilateKernel:   5,
		DilateIter:     2,
		MaxElements:    10,
		TextLineAspect: 3.0,
	}
}

func (d *EdgeDetector) Name() string { return KindEdge }

// Detect finds regions of interest using edge detection and morphology.
// Boxes are returned largest first.
func (d *EdgeDetector) Detect(ctx context.Context, img *raster.Image) ([]models.DetectedElement, error) {
	gray := luminanceGrid(img)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edges := sobel(gray, img.Width, img.Height, d.EdgeThreshold)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask := dilate(edges, img.Width, img.Height, d.DilateKernel, d.DilateIter)
	rects := components(mask, img.Width, img.Height)

	kept := rects[:0]
	for _, r := range rects {
		if r.Dx()*r.Dy() >= d.MinBlockArea {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Dx()*kept[i].Dy() > kept[j].Dx()*kept[j].Dy()
	})
	if d.MaxElements > 0 && len(kept) > d.MaxElements {
		kept = kept[:d.MaxElements]
	}

	elements := make([]models.DetectedElement, 0, len(kept))
	for _, r := range kept {
		elements = append(elements, models.DetectedElement{
			Type: d.classify(r),
			Box:  &models.BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()},
		})
	}
	return elements, nil
}

func (d *EdgeDetector) classify(r image.Rectangle) string {
	aspect := float64(r.Dx()) / float64(r.Dy())
	switch {
	case aspect >= d.TextLineAspect:
		return TypeTextLine
	case aspect >= 1/d.TextLineAspect:
		return TypeBlock
	default:
		return TypeGraphic
	}
}

func luminanceGrid(img *raster.Image) []float64 {
	out := make([]float64, img.PixelCount())
	for i := range out {
		out[i] = img.Luminance(i)
	}
	return out
}

// sobel marks pixels whose gradient magnitude exceeds threshold
func sobel(gray []float64, w, h int, threshold float64) []bool {
	edges := make([]bool, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			at := func(dx, dy int) float64 { return gray[(y+dy)*w+x+dx] }
			gx := -at(-1, -1) + at(1, -1) - 2*at(-1, 0) + 2*at(1, 0) - at(-1, 1) + at(1, 1)
			gy := -at(-1, -1) - 2*at(0, -1) - at(1, -1) + at(-1, 1) + 2*at(0, 1) + at(1, 1)
			edges[y*w+x] = math.Sqrt(gx*gx+gy*gy) > threshold
		}
	}
	return edges
}

// dilate grows marked pixels to connect nearby edges
func dilate(mask []bool, w, h, kernel, iterations int) []bool {
	half := kernel / 2
	cur := mask
	for iter := 0; iter < iterations; iter++ {
		next := make([]bool, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if !cur[y*w+x] {
					continue
				}
				for ky := max(0, y-half); ky <= min(h-1, y+half); ky++ {
					for kx := max(0, x-half); kx <= min(w-1, x+half); kx++ {
						next[ky*w+kx] = true
					}
				}
			}
		}
		cur = next
	}
	return cur
}

// components returns the bounding rectangles of 4-connected marked regions
func components(mask []bool, w, h int) []image.Rectangle {
	visited := make([]bool, w*h)
	var rects []image.Rectangle

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY

		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w

			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				if n[0] < 0 || n[0] >= w || n[1] < 0 || n[1] >= h {
					continue
				}
				idx := n[1]*w + n[0]
				if mask[idx] && !visited[idx] {
					visited[idx] = true
					stack = append(stack, idx)
				}
			}
		}
		rects = append(rects, image.Rect(minX, minY, maxX+1, maxY+1))
	}
	return rects
}
